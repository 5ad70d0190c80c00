package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"mellivora/fund"
	"mellivora/store"
)

// unknownManager is the display substitution for a NULL manager column.
// The substitution happens here, never in the core.
const unknownManager = "unknown"

// insufficientData is the per-window marker for lookback dates that predate
// the fund's history.
const insufficientData = "insufficient data"

type FundHandlers struct {
	service *fund.Service
}

func NewFundHandlers(service *fund.Service) *FundHandlers {
	return &FundHandlers{service: service}
}

type fundSummary struct {
	ID           uint64  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	ShortName    *string `json:"short_name,omitempty"`
	Manager      string  `json:"manager"`
	RiskLevel    int16   `json:"risk_level"`
	FundType     string  `json:"fund_type"`
	NavStartDate string  `json:"nav_start_date,omitempty"`
	NavFrequency string  `json:"nav_frequency"`
}

// LookupFunds resolves a code, a name fragment or a manager fragment to
// fund profiles. An empty result is a found:false response, not an error.
func (h *FundHandlers) LookupFunds(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			render.Render(w, r, ErrBadRequest(errors.New("invalid limit parameter")))
			return
		}
		limit = parsed
	}

	profiles, err := h.service.Lookup(r.Context(), fund.LookupQuery{
		Code:    r.URL.Query().Get("code"),
		Name:    r.URL.Query().Get("name"),
		Manager: r.URL.Query().Get("manager"),
		Limit:   limit,
	})
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	if len(profiles) == 0 {
		render.JSON(w, r, map[string]any{"found": false, "message": "no matching funds"})
		return
	}

	render.JSON(w, r, map[string]any{
		"found": true,
		"count": len(profiles),
		"funds": lo.Map(profiles, func(p store.FundProfile, _ int) fundSummary {
			return fundSummary{
				ID:           p.ID,
				Code:         p.Code,
				Name:         p.Name,
				ShortName:    p.ShortName,
				Manager:      displayManager(p.FundManager),
				RiskLevel:    p.RiskLevel,
				FundType:     p.FundType,
				NavStartDate: formatDate(p.NavStartDate),
				NavFrequency: displayFrequency(p.NavFrequency),
			}
		}),
	})
}

type navPoint struct {
	Date           string          `json:"date"`
	UnitNav        decimal.Decimal `json:"unit_nav"`
	AccumulatedNav decimal.Decimal `json:"accumulated_nav"`
}

// GetFundNav returns the latest NAV, every window return, the record count
// and the recent observation trend for one fund code.
func (h *FundHandlers) GetFundNav(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	report, err := h.service.NavAndReturns(r.Context(), code)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	if !report.Found {
		render.JSON(w, r, map[string]any{"found": false, "message": "no fund with code " + code})
		return
	}

	fundBody := map[string]any{
		"code":           report.Code,
		"name":           report.Name,
		"short_name":     report.ShortName,
		"nav_start_date": formatDate(report.NavStartDate),
	}

	if report.Latest == nil {
		render.JSON(w, r, map[string]any{
			"found":   true,
			"fund":    fundBody,
			"message": "no NAV data yet",
		})
		return
	}

	returns := make(map[string]string, len(report.Returns))
	for _, wr := range report.Returns {
		if wr.Value != nil {
			returns[wr.Label] = *wr.Value
		} else {
			returns[wr.Label] = insufficientData
		}
	}

	render.JSON(w, r, map[string]any{
		"found": true,
		"fund":  fundBody,
		"latest_nav": navPoint{
			Date:           report.Latest.Date.Format(time.DateOnly),
			UnitNav:        report.Latest.UnitNav,
			AccumulatedNav: report.Latest.AccumulatedNav,
		},
		"returns":       returns,
		"total_records": report.TotalRecords,
		"recent_navs": lo.Map(report.RecentNavs, func(p fund.NavPoint, _ int) map[string]any {
			return map[string]any{
				"date": p.Date.Format(time.DateOnly),
				"nav":  p.UnitNav,
			}
		}),
	})
}

type compareRequest struct {
	Codes []string `json:"codes"`
}

type comparisonEntry struct {
	Code       string           `json:"code"`
	Found      bool             `json:"found"`
	Name       string           `json:"name,omitempty"`
	Manager    string           `json:"manager,omitempty"`
	RiskLevel  int16            `json:"risk_level,omitempty"`
	LatestNav  *decimal.Decimal `json:"latest_nav"`
	NavDate    *string          `json:"nav_date"`
	YearReturn *string          `json:"year_return"`
}

// CompareFunds evaluates 2..5 codes; every input code yields exactly one
// entry, partitioned into resolved entries and unresolved codes.
func (h *FundHandlers) CompareFunds(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, ErrBadRequest(err))
		return
	}

	comparison, err := h.service.Compare(r.Context(), req.Codes)
	if err != nil {
		if errors.Is(err, fund.ErrCodeCount) {
			render.Render(w, r, ErrBadRequest(err))
			return
		}
		renderServiceError(w, r, err)
		return
	}

	body := map[string]any{
		"found": len(comparison.Resolved) > 0,
		"comparison": lo.Map(comparison.Resolved, func(e fund.ComparisonEntry, _ int) comparisonEntry {
			entry := comparisonEntry{
				Code:       e.Code,
				Found:      true,
				Name:       e.Name,
				Manager:    displayManager(e.Manager),
				RiskLevel:  e.RiskLevel,
				LatestNav:  e.LatestNav,
				YearReturn: e.YearReturn,
			}
			if e.NavDate != nil {
				navDate := e.NavDate.Format(time.DateOnly)
				entry.NavDate = &navDate
			}
			return entry
		}),
	}
	if len(comparison.UnresolvedCodes) > 0 {
		body["not_found_codes"] = comparison.UnresolvedCodes
	}

	render.JSON(w, r, body)
}

func renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrUnavailable) {
		render.Render(w, r, ErrServiceUnavailable(err))
		return
	}
	render.Render(w, r, ErrInternalServerError(err))
}

func displayManager(manager *string) string {
	if manager == nil || *manager == "" {
		return unknownManager
	}
	return *manager
}

func displayFrequency(frequency string) string {
	if frequency == "D" {
		return "daily"
	}
	return frequency
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
