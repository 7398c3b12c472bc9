// Package cmd implements the registryctl administrative CLI: the offline
// operations (ingestion, index rebuild, jurisdiction purge, stats) that hold
// the write connection to the registry database.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/opencorpdata/registry/internal/registry/config"
	"github.com/opencorpdata/registry/internal/registry/controller"
	"github.com/opencorpdata/registry/internal/registry/db"
	"github.com/opencorpdata/registry/internal/registry/events"
	"github.com/opencorpdata/registry/internal/registry/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "registryctl",
	Short:        "Administrative operations for the company registry",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default "+config.DefaultPath+", or REGISTRY_CONFIG)")
}

// newService builds a fully wired RegistryService with a read-write
// repository. The returned cleanup closes the repository and producer.
func newService() (*controller.RegistryService, func(), error) {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(config.Path(cfgFile))
	if err != nil {
		return nil, nil, err
	}

	repo, err := db.Open(&db.Config{Path: cfg.DBPath, Mode: db.ModeReadWrite})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	var producer controller.EventProducer = events.NoopProducer{}
	closeProducer := func() {}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaProducer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		if err != nil {
			repo.Close()
			return nil, nil, fmt.Errorf("failed to initialize Kafka producer: %w", err)
		}
		producer = kafkaProducer
		closeProducer = kafkaProducer.Close
	}

	service := controller.NewRegistryService(repo, producer, metrics.New(prometheus.NewRegistry()), logger)
	cleanup := func() {
		closeProducer()
		if err := repo.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return service, cleanup, nil
}

// dataDir resolves the dump directory for ingestion: the positional
// argument when given, otherwise DATA_DIR from the config.
func dataDir(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cfg, err := config.Load(config.Path(cfgFile))
	if err != nil {
		return "", err
	}
	if cfg.DataDir == "" {
		return "", fmt.Errorf("no dump directory given and DATA_DIR not configured")
	}
	return cfg.DataDir, nil
}
