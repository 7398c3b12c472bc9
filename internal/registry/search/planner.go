// Package search implements the query planner: it normalizes the free-text
// keyword, picks a search strategy, and executes it against the repository
// with a fixed-priority fallback. Full-text search is an optimization; the
// prefix strategy must produce correct results whenever full-text is
// unavailable, inapplicable, or exhausted.
package search

import (
	"context"
	"errors"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	e "github.com/opencorpdata/registry/internal/registry/errors"
	"github.com/opencorpdata/registry/internal/registry/models"
	"go.uber.org/zap"
)

// Strategy identifies how a query was (or would be) answered.
type Strategy string

const (
	// StrategyNone means the query carries no usable filter and returns an
	// empty page without touching storage.
	StrategyNone Strategy = "none"
	// StrategyIdentifier is the exact CIN lookup short-circuit.
	StrategyIdentifier Strategy = "identifier"
	// StrategyFullText matches prefix-wildcard tokens against the FTS index.
	StrategyFullText Strategy = "fulltext"
	// StrategyPrefix is the starts-with fallback on the base table.
	StrategyPrefix Strategy = "prefix"
)

const (
	// MinFullTextKeywordLen guards the FTS index against degenerate
	// one- and two-character scans.
	MinFullTextKeywordLen = 3

	DefaultPerPage = 20
	MaxPerPage     = 100

	domesticCountry = "india"
)

// Repository is the read-only slice of the storage layer the planner uses.
type Repository interface {
	FTSAvailable() bool
	FullTextSearch(ctx context.Context, match, state string, limit, offset int) ([]*models.CompanyRecord, error)
	CountFullText(ctx context.Context, match, state string) (int64, error)
	PrefixSearch(ctx context.Context, keyword, state string, limit, offset int) ([]*models.CompanyRecord, error)
	CountPrefix(ctx context.Context, keyword, state string) (int64, error)
	GetByCIN(ctx context.Context, cin string) (*models.CompanyRecord, error)
}

type Planner struct {
	repo   Repository
	logger *zap.Logger
}

func NewPlanner(repo Repository, logger *zap.Logger) *Planner {
	return &Planner{
		repo:   repo,
		logger: logger.Named("planner"),
	}
}

// Plan decides the primary strategy for a query without executing it.
func (p *Planner) Plan(q *models.SearchQuery) Strategy {
	if strings.TrimSpace(q.CIN) != "" {
		return StrategyIdentifier
	}
	keyword := NormalizeKeyword(q.Keyword)
	state := stateFilter(q)
	if keyword == "" && state == "" {
		return StrategyNone
	}
	if KeywordIndexable(keyword) && p.repo.FTSAvailable() {
		return StrategyFullText
	}
	return StrategyPrefix
}

// KeywordIndexable reports whether a normalized keyword is long enough for
// the text index. Counted in runes, not bytes, so non-ASCII input is not
// over-admitted.
func KeywordIndexable(keyword string) bool {
	return utf8.RuneCountInString(keyword) >= MinFullTextKeywordLen
}

// Search executes the query and returns one result page plus the strategy
// that produced it. Page and per-page are clamped, never rejected.
func (p *Planner) Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResultPage, Strategy, error) {
	page, perPage := clampPagination(q.Page, q.PerPage)
	state := stateFilter(q)

	switch p.Plan(q) {
	case StrategyIdentifier:
		return p.searchByIdentifier(ctx, strings.TrimSpace(q.CIN), page, perPage)
	case StrategyNone:
		// A blank query must never page over the entire corpus.
		return emptyPage(page, perPage), StrategyNone, nil
	case StrategyFullText:
		result, err := p.searchFullText(ctx, NormalizeKeyword(q.Keyword), state, page, perPage)
		if err != nil {
			// A failing or unsupported text index is recovered locally,
			// never surfaced to the caller.
			p.logger.Warn("full-text search failed, falling back to prefix match", zap.Error(err))
		} else if result.TotalRows > 0 {
			return result, StrategyFullText, nil
		}
	}

	result, err := p.searchPrefix(ctx, strings.TrimSpace(q.Keyword), state, page, perPage)
	if err != nil {
		return nil, StrategyPrefix, err
	}
	return result, StrategyPrefix, nil
}

func (p *Planner) searchByIdentifier(ctx context.Context, cin string, page, perPage int) (*models.SearchResultPage, Strategy, error) {
	record, err := p.repo.GetByCIN(ctx, cin)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return emptyPage(page, perPage), StrategyIdentifier, nil
		}
		return nil, StrategyIdentifier, err
	}
	return &models.SearchResultPage{
		TotalRows:  1,
		TotalPages: 1,
		Page:       page,
		PerPage:    perPage,
		Rows:       []*models.CompanyRecord{record},
	}, StrategyIdentifier, nil
}

func (p *Planner) searchFullText(ctx context.Context, keyword, state string, page, perPage int) (*models.SearchResultPage, error) {
	match := BuildMatch(keyword)
	total, err := p.repo.CountFullText(ctx, match, state)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return emptyPage(page, perPage), nil
	}
	rows, err := p.repo.FullTextSearch(ctx, match, state, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	return resultPage(total, page, perPage, rows), nil
}

func (p *Planner) searchPrefix(ctx context.Context, keyword, state string, page, perPage int) (*models.SearchResultPage, error) {
	total, err := p.repo.CountPrefix(ctx, keyword, state)
	if err != nil {
		return nil, err
	}
	rows, err := p.repo.PrefixSearch(ctx, keyword, state, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	return resultPage(total, page, perPage, rows), nil
}

// stateFilter returns the normalized jurisdiction filter, or "" when the
// query is not scoped to the domestic corpus. State codes only exist for
// domestic registrations, so an unscoped query must not silently filter.
func stateFilter(q *models.SearchQuery) string {
	if !strings.EqualFold(strings.TrimSpace(q.Country), domesticCountry) {
		return ""
	}
	return NormalizeState(q.State)
}

func clampPagination(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

func resultPage(total int64, page, perPage int, rows []*models.CompanyRecord) *models.SearchResultPage {
	if rows == nil {
		rows = []*models.CompanyRecord{}
	}
	return &models.SearchResultPage{
		TotalRows:  total,
		TotalPages: int64(math.Ceil(float64(total) / float64(perPage))),
		Page:       page,
		PerPage:    perPage,
		Rows:       rows,
	}
}

func emptyPage(page, perPage int) *models.SearchResultPage {
	return resultPage(0, page, perPage, nil)
}

// NormalizeKeyword lowercases the keyword, turns punctuation into spaces,
// collapses runs of whitespace and trims.
func NormalizeKeyword(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeState mirrors the SQL-side comparison: lowercase, trim, and
// remove inner whitespace, so "Tamil Nadu" matches "TAMILNADU".
func NormalizeState(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "")
}

// BuildMatch turns a normalized keyword into an FTS5 MATCH expression:
// every token becomes a quoted prefix term, ANDed together implicitly.
func BuildMatch(keyword string) string {
	tokens := strings.Fields(keyword)
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		terms = append(terms, `"`+tok+`"*`)
	}
	return strings.Join(terms, " ")
}
