package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/opencorpdata/registry/internal/registry/config"
	"github.com/opencorpdata/registry/internal/registry/controller"
	"github.com/opencorpdata/registry/internal/registry/db"
	"github.com/opencorpdata/registry/internal/registry/events"
	"github.com/opencorpdata/registry/internal/registry/handlers"
	"github.com/opencorpdata/registry/internal/registry/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	// Local overrides come from .env when present.
	_ = godotenv.Load()

	cfg, err := config.Load(config.Path(""))
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// The serving path is strictly read-only; ingestion and index rebuilds
	// go through registryctl, which holds the write connection.
	repo, err := db.Open(&db.Config{Path: cfg.DBPath, Mode: db.ModeReadOnly})
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer repo.Close()

	registry := prometheus.NewRegistry()
	service := controller.NewRegistryService(repo, events.NoopProducer{}, metrics.New(registry), logger)

	handler := handlers.NewRegistryHandler(service, logger)
	server := handlers.NewServer(cfg.HTTPPort, logger)
	server.RegisterRoutes(handler, registry)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down the server.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Server stopped properly")
}
