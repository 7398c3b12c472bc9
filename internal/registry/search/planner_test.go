package search

import (
	"context"
	"errors"
	"testing"

	e "github.com/opencorpdata/registry/internal/registry/errors"
	"github.com/opencorpdata/registry/internal/registry/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeRepo scripts repository behavior and records which strategies were
// actually invoked.
type fakeRepo struct {
	ftsAvailable bool

	ftsRows  []*models.CompanyRecord
	ftsErr   error
	ftsCalls int

	prefixRows  []*models.CompanyRecord
	prefixCalls int

	record *models.CompanyRecord

	lastMatch   string
	lastKeyword string
	lastState   string
	lastLimit   int
	lastOffset  int
}

func (f *fakeRepo) FTSAvailable() bool { return f.ftsAvailable }

func (f *fakeRepo) FullTextSearch(_ context.Context, match, state string, limit, offset int) ([]*models.CompanyRecord, error) {
	f.ftsCalls++
	f.lastMatch, f.lastState, f.lastLimit, f.lastOffset = match, state, limit, offset
	return f.ftsRows, f.ftsErr
}

func (f *fakeRepo) CountFullText(_ context.Context, match, state string) (int64, error) {
	f.ftsCalls++
	f.lastMatch, f.lastState = match, state
	return int64(len(f.ftsRows)), f.ftsErr
}

func (f *fakeRepo) PrefixSearch(_ context.Context, keyword, state string, limit, offset int) ([]*models.CompanyRecord, error) {
	f.prefixCalls++
	f.lastKeyword, f.lastState, f.lastLimit, f.lastOffset = keyword, state, limit, offset
	return f.prefixRows, nil
}

func (f *fakeRepo) CountPrefix(_ context.Context, keyword, state string) (int64, error) {
	f.prefixCalls++
	f.lastKeyword, f.lastState = keyword, state
	return int64(len(f.prefixRows)), nil
}

func (f *fakeRepo) GetByCIN(_ context.Context, cin string) (*models.CompanyRecord, error) {
	if f.record != nil && f.record.CIN == cin {
		return f.record, nil
	}
	return nil, e.ErrNotFound
}

func newPlanner(t *testing.T, repo *fakeRepo) *Planner {
	return NewPlanner(repo, zaptest.NewLogger(t))
}

func record(cin, name string) *models.CompanyRecord {
	return &models.CompanyRecord{CIN: cin, Name: name}
}

func TestSearchBlankQueryReturnsEmptyPage(t *testing.T) {
	repo := &fakeRepo{ftsAvailable: true}
	planner := newPlanner(t, repo)

	page, strategy, err := planner.Search(context.Background(), &models.SearchQuery{Keyword: "  "})
	require.NoError(t, err)
	assert.Equal(t, StrategyNone, strategy)
	assert.Equal(t, int64(0), page.TotalRows)
	assert.Equal(t, int64(0), page.TotalPages)
	assert.Empty(t, page.Rows)
	assert.Zero(t, repo.ftsCalls, "a blank query must not touch storage")
	assert.Zero(t, repo.prefixCalls)
}

func TestSearchIdentifierShortCircuits(t *testing.T) {
	repo := &fakeRepo{
		ftsAvailable: true,
		record:       record("U12345MH2020PTC000111", "Globex Traders"),
	}
	planner := newPlanner(t, repo)

	query := &models.SearchQuery{
		CIN:     "U12345MH2020PTC000111",
		Keyword: "something else entirely",
		Country: "India",
		State:   "Delhi",
	}
	page, strategy, err := planner.Search(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, StrategyIdentifier, strategy)
	assert.Equal(t, int64(1), page.TotalRows)
	assert.Equal(t, int64(1), page.TotalPages)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "U12345MH2020PTC000111", page.Rows[0].CIN)
	assert.Zero(t, repo.ftsCalls, "keyword and state are ignored for identifier lookups")
	assert.Zero(t, repo.prefixCalls)
}

func TestSearchIdentifierMissIsEmptyNotError(t *testing.T) {
	planner := newPlanner(t, &fakeRepo{ftsAvailable: true})

	page, strategy, err := planner.Search(context.Background(), &models.SearchQuery{CIN: "UNKNOWN"})
	require.NoError(t, err, "an unknown identifier is not an error")
	assert.Equal(t, StrategyIdentifier, strategy)
	assert.Equal(t, int64(0), page.TotalRows)
	assert.Empty(t, page.Rows)
}

func TestSearchShortKeywordSkipsFullText(t *testing.T) {
	repo := &fakeRepo{
		ftsAvailable: true,
		prefixRows:   []*models.CompanyRecord{record("CIN001", "AB Corp")},
	}
	planner := newPlanner(t, repo)

	_, strategy, err := planner.Search(context.Background(), &models.SearchQuery{Keyword: "ab"})
	require.NoError(t, err)
	assert.Equal(t, StrategyPrefix, strategy)
	assert.Zero(t, repo.ftsCalls, "keywords under three characters never reach the text index")
	assert.Equal(t, "ab", repo.lastKeyword)
}

func TestSearchKeywordLengthCountsRunes(t *testing.T) {
	repo := &fakeRepo{
		ftsAvailable: true,
		prefixRows:   []*models.CompanyRecord{record("CIN001", "αβ Shipping")},
	}
	planner := newPlanner(t, repo)

	// Two runes but four UTF-8 bytes; still under the three-character gate.
	_, strategy, err := planner.Search(context.Background(), &models.SearchQuery{Keyword: "αβ"})
	require.NoError(t, err)
	assert.Equal(t, StrategyPrefix, strategy)
	assert.Zero(t, repo.ftsCalls)

	assert.False(t, KeywordIndexable("αβ"))
	assert.True(t, KeywordIndexable("αβγ"))
}

func TestSearchFullTextPreferred(t *testing.T) {
	repo := &fakeRepo{
		ftsAvailable: true,
		ftsRows:      []*models.CompanyRecord{record("CIN001", "Globex Traders")},
	}
	planner := newPlanner(t, repo)

	page, strategy, err := planner.Search(context.Background(), &models.SearchQuery{Keyword: "Globex Traders!"})
	require.NoError(t, err)
	assert.Equal(t, StrategyFullText, strategy)
	assert.Equal(t, int64(1), page.TotalRows)
	assert.Equal(t, `"globex"* "traders"*`, repo.lastMatch, "tokens become quoted prefix terms")
	assert.Zero(t, repo.prefixCalls)
}

func TestSearchFullTextZeroRowsFallsBack(t *testing.T) {
	repo := &fakeRepo{
		ftsAvailable: true,
		prefixRows:   []*models.CompanyRecord{record("CIN001", "Globex Traders")},
	}
	planner := newPlanner(t, repo)

	page, strategy, err := planner.Search(context.Background(), &models.SearchQuery{Keyword: "globex"})
	require.NoError(t, err)
	assert.Equal(t, StrategyPrefix, strategy)
	assert.Equal(t, int64(1), page.TotalRows)
	assert.NotZero(t, repo.ftsCalls, "full-text was tried first")
	assert.NotZero(t, repo.prefixCalls, "prefix answered after the zero-result handoff")
}

func TestSearchFullTextErrorFallsBack(t *testing.T) {
	repo := &fakeRepo{
		ftsAvailable: true,
		ftsErr:       errors.New("fts5: syntax error"),
		prefixRows:   []*models.CompanyRecord{record("CIN001", "Globex Traders")},
	}
	planner := newPlanner(t, repo)

	page, strategy, err := planner.Search(context.Background(), &models.SearchQuery{Keyword: "globex"})
	require.NoError(t, err, "index errors are recovered, never surfaced")
	assert.Equal(t, StrategyPrefix, strategy)
	assert.Equal(t, int64(1), page.TotalRows)
}

func TestSearchFTSUnavailableUsesPrefix(t *testing.T) {
	repo := &fakeRepo{
		ftsAvailable: false,
		prefixRows:   []*models.CompanyRecord{record("CIN001", "Globex Traders")},
	}
	planner := newPlanner(t, repo)

	_, strategy, err := planner.Search(context.Background(), &models.SearchQuery{Keyword: "globex"})
	require.NoError(t, err)
	assert.Equal(t, StrategyPrefix, strategy)
	assert.Zero(t, repo.ftsCalls)
}

func TestSearchStateFilterRequiresDomesticScope(t *testing.T) {
	repo := &fakeRepo{prefixRows: []*models.CompanyRecord{record("CIN001", "Globex")}}
	planner := newPlanner(t, repo)
	ctx := context.Background()

	_, _, err := planner.Search(ctx, &models.SearchQuery{Keyword: "globex", State: "Maharashtra"})
	require.NoError(t, err)
	assert.Empty(t, repo.lastState, "state filter is dropped without the domestic scope signal")

	_, _, err = planner.Search(ctx, &models.SearchQuery{Keyword: "globex", Country: " India ", State: " Tamil Nadu "})
	require.NoError(t, err)
	assert.Equal(t, "tamilnadu", repo.lastState, "state is normalized for comparison")
}

func TestSearchStateOnlyQuery(t *testing.T) {
	repo := &fakeRepo{
		ftsAvailable: true,
		prefixRows:   []*models.CompanyRecord{record("CIN001", "Globex")},
	}
	planner := newPlanner(t, repo)

	_, strategy, err := planner.Search(context.Background(), &models.SearchQuery{Country: "india", State: "Delhi"})
	require.NoError(t, err)
	assert.Equal(t, StrategyPrefix, strategy, "state-only queries go straight to the base table")
	assert.Zero(t, repo.ftsCalls)
	assert.Equal(t, "delhi", repo.lastState)
}

func TestSearchClampsPagination(t *testing.T) {
	repo := &fakeRepo{prefixRows: []*models.CompanyRecord{record("CIN001", "Globex")}}
	planner := newPlanner(t, repo)

	page, _, err := planner.Search(context.Background(), &models.SearchQuery{Keyword: "globex", Page: -3, PerPage: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, MaxPerPage, page.PerPage)
	assert.Equal(t, MaxPerPage, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)

	page, _, err = planner.Search(context.Background(), &models.SearchQuery{Keyword: "globex", Page: 3, PerPage: 0})
	require.NoError(t, err)
	assert.Equal(t, DefaultPerPage, page.PerPage)
	assert.Equal(t, (3-1)*DefaultPerPage, repo.lastOffset)
}

func TestSearchTotalPages(t *testing.T) {
	rows := make([]*models.CompanyRecord, 45)
	for i := range rows {
		rows[i] = record("CIN", "Globex")
	}
	repo := &fakeRepo{prefixRows: rows}
	planner := newPlanner(t, repo)

	page, _, err := planner.Search(context.Background(), &models.SearchQuery{Keyword: "globex", PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(45), page.TotalRows)
	assert.Equal(t, int64(3), page.TotalPages, "totalPages is ceil(totalRows/perPage)")
}

func TestPlan(t *testing.T) {
	available := &fakeRepo{ftsAvailable: true}
	unavailable := &fakeRepo{}

	tests := []struct {
		name  string
		repo  Repository
		query *models.SearchQuery
		want  Strategy
	}{
		{"identifier wins", available, &models.SearchQuery{CIN: "X", Keyword: "globex"}, StrategyIdentifier},
		{"blank query", available, &models.SearchQuery{}, StrategyNone},
		{"long keyword with fts", available, &models.SearchQuery{Keyword: "globex"}, StrategyFullText},
		{"short keyword", available, &models.SearchQuery{Keyword: "gl"}, StrategyPrefix},
		{"no fts engine", unavailable, &models.SearchQuery{Keyword: "globex"}, StrategyPrefix},
		{"punctuation-only keyword", available, &models.SearchQuery{Keyword: "?!."}, StrategyNone},
		{"state without country", available, &models.SearchQuery{State: "Delhi"}, StrategyNone},
		{"state with country", available, &models.SearchQuery{Country: "india", State: "Delhi"}, StrategyPrefix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planner := NewPlanner(tt.repo, zaptest.NewLogger(t))
			assert.Equal(t, tt.want, planner.Plan(tt.query))
		})
	}
}

func TestNormalizeKeyword(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Globex   Traders ", "globex traders"},
		{"A.B.C. Pvt. Ltd.", "a b c pvt ltd"},
		{"!!!", ""},
		{"Tata&Sons", "tata sons"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeKeyword(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeState(t *testing.T) {
	assert.Equal(t, "tamilnadu", NormalizeState(" Tamil  Nadu "))
	assert.Equal(t, "delhi", NormalizeState("DELHI"))
	assert.Equal(t, "", NormalizeState("   "))
}

func TestBuildMatch(t *testing.T) {
	assert.Equal(t, `"globex"*`, BuildMatch("globex"))
	assert.Equal(t, `"globex"* "traders"*`, BuildMatch("globex traders"))
	assert.Equal(t, "", BuildMatch(""))
}

func TestSearchRowsNeverNil(t *testing.T) {
	planner := newPlanner(t, &fakeRepo{})

	page, _, err := planner.Search(context.Background(), &models.SearchQuery{Keyword: "zzz"})
	require.NoError(t, err)
	assert.NotNil(t, page.Rows, "rows must serialize as [] even when empty")
}

func TestSearchPrefixUsesRawKeyword(t *testing.T) {
	repo := &fakeRepo{prefixRows: []*models.CompanyRecord{record("CIN001", "A.B.C. Ltd")}}
	planner := newPlanner(t, repo)

	_, _, err := planner.Search(context.Background(), &models.SearchQuery{Keyword: " A.B.C "})
	require.NoError(t, err)
	assert.Equal(t, "A.B.C", repo.lastKeyword, "the fallback matches the raw keyword against stored names")
}
