package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mellivora/fund"
	"mellivora/store"
)

// fakeStore answers fund.Store queries from fixed fixtures. Only code-exact
// profile lookup is needed at this layer; filter semantics are covered by
// the service tests.
type fakeStore struct {
	profiles []store.FundProfile
	navs     map[uint64][]store.FundNav
	err      error
}

func (f *fakeStore) QueryProfiles(ctx context.Context, filter store.ProfileFilter, limit int) ([]store.FundProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	var matched []store.FundProfile
	for _, p := range f.profiles {
		if filter.Code != "" && p.Code != filter.Code {
			continue
		}
		matched = append(matched, p)
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeStore) LatestNavOnOrBefore(ctx context.Context, fundID uint64, cutoff time.Time) (*store.FundNav, error) {
	if f.err != nil {
		return nil, f.err
	}
	var best *store.FundNav
	for i, nav := range f.navs[fundID] {
		if nav.NavDate.After(cutoff) {
			continue
		}
		if best == nil || nav.NavDate.After(best.NavDate) {
			best = &f.navs[fundID][i]
		}
	}
	return best, nil
}

func (f *fakeStore) EarliestNav(ctx context.Context, fundID uint64) (*store.FundNav, error) {
	if f.err != nil {
		return nil, f.err
	}
	var best *store.FundNav
	for i, nav := range f.navs[fundID] {
		if best == nil || nav.NavDate.Before(best.NavDate) {
			best = &f.navs[fundID][i]
		}
	}
	return best, nil
}

func (f *fakeStore) NavRecordCount(ctx context.Context, fundID uint64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.navs[fundID])), nil
}

func (f *fakeStore) RecentNavs(ctx context.Context, fundID uint64, limit int) ([]store.FundNav, error) {
	if f.err != nil {
		return nil, f.err
	}
	navs := append([]store.FundNav(nil), f.navs[fundID]...)
	for i, j := 0, len(navs)-1; i < j; i, j = i+1, j-1 {
		navs[i], navs[j] = navs[j], navs[i]
	}
	if len(navs) > limit {
		navs = navs[:limit]
	}
	return navs, nil
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string { return &s }

// testRouter wires just the data routes; auth and jobs have their own stack.
func testRouter(fake *fakeStore) http.Handler {
	handlers := NewFundHandlers(fund.NewService(fake))

	r := chi.NewRouter()
	r.Get("/funds", handlers.LookupFunds)
	r.Get("/fund/{code}/nav", handlers.GetFundNav)
	r.Post("/funds/compare", handlers.CompareFunds)
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, target string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, target, reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	decoded := make(map[string]any)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

// sparseFund gives two observations exactly a year apart, the sort of gap a
// suspended fund leaves behind.
func sparseFund() *fakeStore {
	return &fakeStore{
		profiles: []store.FundProfile{
			{ID: 1, Code: "000001", Name: "华夏成长混合", RiskLevel: 3, FundType: "混合型", NavFrequency: "D"},
		},
		navs: map[uint64][]store.FundNav{
			1: {
				{FundID: 1, NavDate: date("2023-01-01"), UnitNav: decimal.RequireFromString("1.0000"), AccumulatedNav: decimal.RequireFromString("1.0000")},
				{FundID: 1, NavDate: date("2024-01-01"), UnitNav: decimal.RequireFromString("1.1000"), AccumulatedNav: decimal.RequireFromString("1.1000")},
			},
		},
	}
}

func TestLookupFundsNotFound(t *testing.T) {
	router := testRouter(&fakeStore{})

	rec, body := doJSON(t, router, http.MethodGet, "/funds?code=999999", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["found"])
	assert.Equal(t, "no matching funds", body["message"])
}

func TestLookupFundsDisplaySubstitutions(t *testing.T) {
	fake := &fakeStore{profiles: []store.FundProfile{
		{ID: 1, Code: "000001", Name: "华夏成长混合", NavFrequency: "D"},
		{ID: 2, Code: "005827", Name: "易方达蓝筹精选混合", FundManager: strPtr("张坤"), NavFrequency: "D"},
	}}
	router := testRouter(fake)

	rec, body := doJSON(t, router, http.MethodGet, "/funds", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["found"])
	assert.Equal(t, float64(2), body["count"])

	funds := body["funds"].([]any)
	require.Len(t, funds, 2)

	first := funds[0].(map[string]any)
	assert.Equal(t, "unknown", first["manager"], "NULL manager is substituted at the API edge")
	assert.Equal(t, "daily", first["nav_frequency"])

	second := funds[1].(map[string]any)
	assert.Equal(t, "张坤", second["manager"])
}

func TestLookupFundsBadLimit(t *testing.T) {
	router := testRouter(&fakeStore{})

	rec, _ := doJSON(t, router, http.MethodGet, "/funds?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetFundNavNotFound(t *testing.T) {
	router := testRouter(&fakeStore{})

	rec, body := doJSON(t, router, http.MethodGet, "/fund/999999/nav", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["found"])
	assert.Equal(t, "no fund with code 999999", body["message"])
}

func TestGetFundNavNoData(t *testing.T) {
	fake := &fakeStore{profiles: []store.FundProfile{
		{ID: 1, Code: "000001", Name: "华夏成长混合"},
	}}
	router := testRouter(fake)

	rec, body := doJSON(t, router, http.MethodGet, "/fund/000001/nav", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["found"])
	assert.Equal(t, "no NAV data yet", body["message"])
	assert.NotContains(t, body, "latest_nav")
}

func TestGetFundNavFullReport(t *testing.T) {
	router := testRouter(sparseFund())

	rec, body := doJSON(t, router, http.MethodGet, "/fund/000001/nav", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["found"])

	latest := body["latest_nav"].(map[string]any)
	assert.Equal(t, "2024-01-01", latest["date"])
	assert.Equal(t, "1.1", latest["unit_nav"])

	returns := body["returns"].(map[string]any)
	assert.Equal(t, "10.00%", returns["1_year"])
	assert.Equal(t, "10.00%", returns["since_inception"])

	assert.Equal(t, float64(2), body["total_records"])

	recent := body["recent_navs"].([]any)
	require.Len(t, recent, 2)
	newest := recent[0].(map[string]any)
	assert.Equal(t, "2024-01-01", newest["date"])
}

func TestGetFundNavInsufficientWindows(t *testing.T) {
	// A fund launched last week has no history for any fixed window.
	fake := &fakeStore{
		profiles: []store.FundProfile{{ID: 1, Code: "012345", Name: "新发基金"}},
		navs: map[uint64][]store.FundNav{
			1: {
				{FundID: 1, NavDate: date("2024-06-25"), UnitNav: decimal.RequireFromString("1.0000"), AccumulatedNav: decimal.RequireFromString("1.0000")},
				{FundID: 1, NavDate: date("2024-07-01"), UnitNav: decimal.RequireFromString("1.0100"), AccumulatedNav: decimal.RequireFromString("1.0100")},
			},
		},
	}
	router := testRouter(fake)

	rec, body := doJSON(t, router, http.MethodGet, "/fund/012345/nav", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	returns := body["returns"].(map[string]any)
	for _, label := range []string{"1_week", "1_month", "3_month", "6_month", "1_year"} {
		assert.Equal(t, "insufficient data", returns[label], label)
	}
	assert.Equal(t, "1.00%", returns["since_inception"])
}

func TestCompareFundsPartition(t *testing.T) {
	router := testRouter(sparseFund())

	rec, body := doJSON(t, router, http.MethodPost, "/funds/compare",
		map[string]any{"codes": []string{"000001", "999999"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["found"])

	comparison := body["comparison"].([]any)
	require.Len(t, comparison, 1)
	entry := comparison[0].(map[string]any)
	assert.Equal(t, "000001", entry["code"])
	assert.Equal(t, "unknown", entry["manager"])
	assert.Equal(t, "10.00%", entry["year_return"])
	assert.Equal(t, "2024-01-01", entry["nav_date"])

	notFound := body["not_found_codes"].([]any)
	assert.Equal(t, []any{"999999"}, notFound)
}

func TestCompareFundsAllUnknown(t *testing.T) {
	router := testRouter(&fakeStore{})

	rec, body := doJSON(t, router, http.MethodPost, "/funds/compare",
		map[string]any{"codes": []string{"999998", "999999"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["found"])
	assert.Empty(t, body["comparison"])
	assert.Len(t, body["not_found_codes"].([]any), 2)
}

func TestCompareFundsCodeCount(t *testing.T) {
	router := testRouter(&fakeStore{})

	rec, _ := doJSON(t, router, http.MethodPost, "/funds/compare",
		map[string]any{"codes": []string{"000001"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPost, "/funds/compare",
		map[string]any{"codes": []string{"1", "2", "3", "4", "5", "6"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompareFundsStoreUnavailable(t *testing.T) {
	fake := &fakeStore{err: fmt.Errorf("%w: connection refused", store.ErrUnavailable)}
	router := testRouter(fake)

	rec, _ := doJSON(t, router, http.MethodPost, "/funds/compare",
		map[string]any{"codes": []string{"000001", "000002"}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
