// Package db implements the storage layer for the company registry on top
// of an embedded SQLite file accessed through GORM. Writers open the file in
// read-write mode with WAL journaling so readers can run concurrently;
// readers open a read-only connection. The full-text index is an FTS5
// external-content table over the base table and is treated as an
// optimization: every read path has to keep working without it.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	dbmodels "github.com/opencorpdata/registry/internal/registry/db/models"
	e "github.com/opencorpdata/registry/internal/registry/errors"
	"github.com/opencorpdata/registry/internal/registry/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Mode selects how the SQLite file is opened.
type Mode string

const (
	ModeReadWrite Mode = "rw"
	ModeReadOnly  Mode = "ro"

	insertBatchSize = 500
)

const ftsDDL = `CREATE VIRTUAL TABLE IF NOT EXISTS companies_fts USING fts5(
	company_name,
	registered_office_address,
	state_code,
	industrial_classification,
	content='companies'
)`

// stateFilterExpr compares the stored state code against an already
// normalized value (lowercased, trimmed, inner spaces removed).
const stateFilterExpr = `LOWER(REPLACE(TRIM(state_code), ' ', '')) = ?`

type Repository struct {
	db           *gorm.DB
	ftsAvailable bool
}

type Config struct {
	// Path is the SQLite database file, or ":memory:" for tests.
	Path string
	Mode Mode
}

// Open opens the registry database. In read-write mode it migrates the base
// table and checkpoint table and attempts to create the FTS5 index; failure
// to create the index is not fatal since prefix search covers for it.
func Open(cfg *Config) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(dsn(cfg)), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if cfg.Mode == ModeReadWrite || cfg.Path == ":memory:" {
		// Single writer; also keeps :memory: databases on one connection.
		sqlDB.SetMaxOpenConns(1)
	}

	r := &Repository{db: db}
	if cfg.Mode == ModeReadOnly {
		r.ftsAvailable = tableExists(db, "companies_fts")
		return r, nil
	}

	if err := db.AutoMigrate(&dbmodels.Company{}, &dbmodels.IndexCheckpoint{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	// FTS5 may be compiled out of the linked SQLite; the registry still
	// works through the prefix fallback in that case.
	r.ftsAvailable = db.Exec(ftsDDL).Error == nil
	return r, nil
}

func dsn(cfg *Config) string {
	if cfg.Path == ":memory:" {
		return ":memory:"
	}
	params := "_journal_mode=WAL&_busy_timeout=5000"
	if cfg.Mode == ModeReadOnly {
		params += "&mode=ro"
	}
	return fmt.Sprintf("file:%s?%s", cfg.Path, params)
}

func tableExists(db *gorm.DB, name string) bool {
	var n int64
	db.Raw(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	return n > 0
}

// FTSAvailable reports whether the full-text index can be queried.
func (r *Repository) FTSAvailable() bool {
	return r.ftsAvailable
}

// InsertCompanies bulk-inserts records inside a single transaction using
// insert-or-ignore semantics on the CIN, so re-ingesting the same records is
// a no-op. Returns the number of rows actually inserted.
func (r *Repository) InsertCompanies(ctx context.Context, records []*models.CompanyRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([]dbmodels.Company, 0, len(records))
	for _, rec := range records {
		rows = append(rows, *fromRecord(rec))
	}

	var inserted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(rows); start += insertBatchSize {
			end := start + insertBatchSize
			if end > len(rows) {
				end = len(rows)
			}
			chunk := rows[start:end]
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&chunk)
			if result.Error != nil {
				return result.Error
			}
			inserted += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert companies: %w", err)
	}
	return inserted, nil
}

// RebuildSearchIndex copies the denormalized text columns of every base row
// beyond the stored watermark into the FTS index and advances the watermark,
// all in one transaction. Idempotent: a second call with no intervening
// ingestion indexes nothing. A no-op when FTS is unavailable.
func (r *Repository) RebuildSearchIndex(ctx context.Context) (int64, error) {
	if !r.ftsAvailable {
		return 0, nil
	}

	var indexed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		watermark, err := indexWatermark(tx)
		if err != nil {
			return err
		}

		result := tx.Exec(`
			INSERT INTO companies_fts (rowid, company_name, registered_office_address, state_code, industrial_classification)
			SELECT rowid, company_name, registered_office_address, state_code, industrial_classification
			FROM companies
			WHERE rowid > ?`, watermark)
		if result.Error != nil {
			return result.Error
		}
		indexed = result.RowsAffected
		if indexed == 0 {
			return nil
		}

		var maxRow sql.NullInt64
		if err := tx.Raw(`SELECT MAX(rowid) FROM companies`).Scan(&maxRow).Error; err != nil {
			return err
		}
		checkpoint := dbmodels.IndexCheckpoint{ID: 1, Watermark: maxRow.Int64}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&checkpoint).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to rebuild search index: %w", err)
	}
	return indexed, nil
}

// indexWatermark returns the highest indexed rowid. The stored checkpoint is
// authoritative; when absent (pre-checkpoint databases, fresh index) it is
// seeded from the index itself.
func indexWatermark(tx *gorm.DB) (int64, error) {
	var checkpoint dbmodels.IndexCheckpoint
	err := tx.First(&checkpoint, "id = 1").Error
	if err == nil {
		return checkpoint.Watermark, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	var max sql.NullInt64
	if err := tx.Raw(`SELECT MAX(rowid) FROM companies_fts`).Scan(&max).Error; err != nil {
		return 0, err
	}
	return max.Int64, nil
}

// ResetSearchIndex drops and recreates the FTS index and clears the
// watermark. The only way index entries are ever removed; used after a
// jurisdiction purge, followed by RebuildSearchIndex.
func (r *Repository) ResetSearchIndex(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Exec(`DROP TABLE IF EXISTS companies_fts`).Error; err != nil {
		return fmt.Errorf("failed to drop search index: %w", err)
	}
	if err := r.db.WithContext(ctx).Where("id = 1").Delete(&dbmodels.IndexCheckpoint{}).Error; err != nil {
		return fmt.Errorf("failed to clear index checkpoint: %w", err)
	}
	r.ftsAvailable = r.db.WithContext(ctx).Exec(ftsDDL).Error == nil
	return nil
}

// FullTextSearch runs an FTS5 MATCH over company names joined back to the
// base table. The match expression comes pre-built from the planner. Count
// and page fetch share the exact same WHERE clause.
func (r *Repository) FullTextSearch(ctx context.Context, match, state string, limit, offset int) ([]*models.CompanyRecord, error) {
	query := `
		SELECT c.*
		FROM companies c
		JOIN companies_fts fts ON c.rowid = fts.rowid
		WHERE fts.company_name MATCH ?`
	args := []interface{}{match}
	if state != "" {
		query += ` AND LOWER(REPLACE(TRIM(c.state_code), ' ', '')) = ?`
		args = append(args, state)
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var rows []dbmodels.Company
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

// CountFullText counts the rows FullTextSearch would page over.
func (r *Repository) CountFullText(ctx context.Context, match, state string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM companies c
		JOIN companies_fts fts ON c.rowid = fts.rowid
		WHERE fts.company_name MATCH ?`
	args := []interface{}{match}
	if state != "" {
		query += ` AND LOWER(REPLACE(TRIM(c.state_code), ' ', '')) = ?`
		args = append(args, state)
	}

	var total int64
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// FullTextSlim serves the narrow lookup endpoint: up to limit slim rows for
// a raw MATCH expression, no pagination.
func (r *Repository) FullTextSlim(ctx context.Context, match string, limit int) ([]*models.SlimRecord, error) {
	var rows []dbmodels.Company
	err := r.db.WithContext(ctx).Raw(`
		SELECT c.company_name, c.cin, c.state_code, c.registered_office_address
		FROM companies c
		JOIN companies_fts fts ON c.rowid = fts.rowid
		WHERE fts.company_name MATCH ?
		LIMIT ?`, match, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	slim := make([]*models.SlimRecord, 0, len(rows))
	for i := range rows {
		slim = append(slim, &models.SlimRecord{
			Name:      rows[i].Name,
			CIN:       rows[i].CIN,
			StateCode: rows[i].StateCode,
			Address:   rows[i].Address,
		})
	}
	return slim, nil
}

// PrefixSearch is the fallback strategy: case-insensitive starts-with match
// on the company name directly against the base table.
func (r *Repository) PrefixSearch(ctx context.Context, keyword, state string, limit, offset int) ([]*models.CompanyRecord, error) {
	var rows []dbmodels.Company
	result := r.prefixQuery(ctx, keyword, state).Limit(limit).Offset(offset).Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to run prefix search: %w", result.Error)
	}
	return toRecords(rows), nil
}

// CountPrefix counts the rows PrefixSearch would page over.
func (r *Repository) CountPrefix(ctx context.Context, keyword, state string) (int64, error) {
	var total int64
	result := r.prefixQuery(ctx, keyword, state).Count(&total)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count prefix matches: %w", result.Error)
	}
	return total, nil
}

func (r *Repository) prefixQuery(ctx context.Context, keyword, state string) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&dbmodels.Company{})
	if keyword != "" {
		query = query.Where(`company_name LIKE ? ESCAPE '\'`, escapeLike(keyword)+"%")
	}
	if state != "" {
		query = query.Where(stateFilterExpr, state)
	}
	return query
}

// escapeLike neutralizes LIKE metacharacters in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// GetByCIN fetches one record by its corporate identification number,
// returning ErrNotFound on a miss.
func (r *Repository) GetByCIN(ctx context.Context, cin string) (*models.CompanyRecord, error) {
	var row dbmodels.Company
	result := r.db.WithContext(ctx).First(&row, "cin = ?", cin)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return toRecord(&row), nil
}

// DeleteByState bulk-deletes every record registered under the given
// normalized state code. Administrative correction path only; the caller is
// expected to reset and rebuild the search index afterwards.
func (r *Repository) DeleteByState(ctx context.Context, state string) (int64, error) {
	result := r.db.WithContext(ctx).Where(stateFilterExpr, state).Delete(&dbmodels.Company{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete by state: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Counts returns the base-table and index row counts.
func (r *Repository) Counts(ctx context.Context) (companies, indexed int64, err error) {
	if err = r.db.WithContext(ctx).Model(&dbmodels.Company{}).Count(&companies).Error; err != nil {
		return 0, 0, err
	}
	if r.ftsAvailable {
		if err = r.db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM companies_fts`).Scan(&indexed).Error; err != nil {
			return 0, 0, err
		}
	}
	return companies, indexed, nil
}

// WithTransaction runs fn against a transactional repository.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, ftsAvailable: r.ftsAvailable})
	})
}

// Exec runs a raw statement; kept for maintenance scripts and tests.
func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	result := r.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
