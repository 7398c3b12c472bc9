// Package ingest loads government open-data dump files into the registry.
// Each dump is a JSON array of loosely-typed records whose field names vary
// between states and publication years; a fixed mapping table translates the
// known spellings onto the canonical CompanyRecord schema once, at ingestion
// time. Insertion is insert-or-ignore per CIN inside one transaction per
// file, so re-running ingestion over the same files is safe.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opencorpdata/registry/internal/pkg/utils"
	"github.com/opencorpdata/registry/internal/registry/models"
	"go.uber.org/zap"
)

// InsertRepository is the slice of the storage layer the loader needs.
type InsertRepository interface {
	InsertCompanies(ctx context.Context, records []*models.CompanyRecord) (int64, error)
}

// FileResult reports the outcome of ingesting a single dump file.
type FileResult struct {
	File     string
	Parsed   int
	Inserted int64
	Err      error
}

// Report aggregates per-file outcomes for one ingestion run.
type Report struct {
	Files    []FileResult
	Inserted int64
}

// Failed returns the results of files that could not be ingested.
func (r *Report) Failed() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

type Loader struct {
	repo   InsertRepository
	logger *zap.Logger
}

func NewLoader(repo InsertRepository, logger *zap.Logger) *Loader {
	return &Loader{
		repo:   repo,
		logger: logger.Named("ingest"),
	}
}

// Ingest loads every *.json file under dir, in name order. A malformed file
// fails only itself: it is recorded in the report and the remaining files
// are still ingested. The returned error is reserved for the directory being
// unreadable.
func (l *Loader) Ingest(ctx context.Context, dir string) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump directory: %w", err)
	}

	report := &Report{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		result := l.ingestFile(ctx, path)
		report.Files = append(report.Files, result)
		report.Inserted += result.Inserted

		if result.Err != nil {
			l.logger.Warn("skipping malformed dump file",
				zap.String("file", entry.Name()),
				zap.Error(result.Err),
			)
			continue
		}
		l.logger.Info("ingested dump file",
			zap.String("file", entry.Name()),
			zap.Int("parsed", result.Parsed),
			zap.Int64("inserted", result.Inserted),
		)
	}
	return report, nil
}

func (l *Loader) ingestFile(ctx context.Context, path string) FileResult {
	result := FileResult{File: filepath.Base(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Err = err
		return result
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		result.Err = fmt.Errorf("invalid dump structure: %w", err)
		return result
	}
	result.Parsed = len(raw)

	records := make([]*models.CompanyRecord, 0, len(raw))
	for _, entry := range raw {
		rec := MapRecord(entry)
		if rec.CIN == "" {
			// No identifier, nothing to key the row on.
			continue
		}
		records = append(records, rec)
	}

	inserted, err := l.repo.InsertCompanies(ctx, records)
	if err != nil {
		result.Err = err
		return result
	}
	result.Inserted = inserted
	return result
}

// MapRecord translates one raw dump entry onto the canonical schema. Source
// keys are matched case-insensitively against the known spellings; absent
// fields map to nil, not to empty strings.
func MapRecord(raw map[string]interface{}) *models.CompanyRecord {
	fields := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		fields[strings.ToLower(key)] = value
	}

	return &models.CompanyRecord{
		CIN:                      utils.Deref(lookup(fields, "cin")),
		Name:                     utils.Deref(lookup(fields, "companyname", "company_name")),
		ROCCode:                  lookup(fields, "companyroccode", "roc_code"),
		Category:                 lookup(fields, "companycategory", "company_category"),
		SubCategory:              lookup(fields, "companysubcategory", "company_sub_category"),
		Class:                    lookup(fields, "companyclass", "company_class"),
		AuthorizedCapital:        lookup(fields, "authorizedcapital", "authorized_capital"),
		PaidUpCapital:            lookup(fields, "paidupcapital", "paidup_capital"),
		RegistrationDate:         lookup(fields, "companyregistrationdate_date", "registration_date", "date_of_registration"),
		Address:                  lookup(fields, "registered_office_address", "registeredofficeaddress"),
		ListingStatus:            lookup(fields, "listingstatus", "listing_status"),
		Status:                   lookup(fields, "companystatus", "company_status"),
		StateCode:                lookup(fields, "companystatecode", "company_state_code", "state"),
		IndianForeign:            lookup(fields, "companyindian/foreign company", "companyindianforeigncompany", "indian_foreign"),
		NICCode:                  lookup(fields, "nic_code", "niccode"),
		IndustrialClassification: lookup(fields, "companyindustrialclassification", "industrial_classification"),
	}
}

// lookup tries each alternate key in order and coerces the first present
// value to a trimmed string. Empty values are treated as absent.
func lookup(fields map[string]interface{}, keys ...string) *string {
	for _, key := range keys {
		value, ok := fields[key]
		if !ok || value == nil {
			continue
		}
		s := coerce(value)
		if s == "" {
			continue
		}
		return utils.Ptr(s)
	}
	return nil
}

func coerce(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
