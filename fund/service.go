package fund

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"mellivora/store"
)

// Store is the read contract the analytics core needs from the fund store.
// The concrete gorm-backed implementation lives in the store package; tests
// inject an in-memory fake.
type Store interface {
	QueryProfiles(ctx context.Context, filter store.ProfileFilter, limit int) ([]store.FundProfile, error)
	LatestNavOnOrBefore(ctx context.Context, fundID uint64, cutoff time.Time) (*store.FundNav, error)
	EarliestNav(ctx context.Context, fundID uint64) (*store.FundNav, error)
	NavRecordCount(ctx context.Context, fundID uint64) (int64, error)
	RecentNavs(ctx context.Context, fundID uint64, limit int) ([]store.FundNav, error)
}

const (
	DefaultLookupLimit = 10

	minCompareCodes = 2
	maxCompareCodes = 5
)

// ErrCodeCount rejects comparison requests outside the 2..5 code range.
var ErrCodeCount = fmt.Errorf("comparison requires %d to %d fund codes", minCompareCodes, maxCompareCodes)

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(st Store) *Service {
	return &Service{store: st, now: time.Now}
}

// LookupQuery carries the optional lookup filters. All provided filters
// combine with AND; with none set the lookup is a browse over the first
// Limit funds ordered by code.
type LookupQuery struct {
	Code    string
	Name    string
	Manager string
	Limit   int
}

func (s *Service) Lookup(ctx context.Context, q LookupQuery) ([]store.FundProfile, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLookupLimit
	}
	return s.store.QueryProfiles(ctx, store.ProfileFilter{
		Code:            q.Code,
		NameContains:    q.Name,
		ManagerContains: q.Manager,
	}, limit)
}

// NavPoint is one observation in a report.
type NavPoint struct {
	Date           time.Time       `json:"date"`
	UnitNav        decimal.Decimal `json:"unit_nav"`
	AccumulatedNav decimal.Decimal `json:"accumulated_nav"`
}

// WindowReturn is one window's outcome. A nil Value means the window's
// lookback date predates the fund's history (insufficient data).
type WindowReturn struct {
	Label string
	Value *string
}

// NavReport is the full answer for one fund code.
type NavReport struct {
	Found        bool
	Code         string
	Name         string
	ShortName    *string
	NavStartDate *time.Time

	// Latest is nil for a fund with a profile but no observations yet.
	Latest       *NavPoint
	Returns      []WindowReturn
	TotalRecords int64
	RecentNavs   []NavPoint
}

// NavAndReturns resolves the latest NAV and computes every configured
// window return plus the since-inception return. Lookback cutoffs are
// measured from the latest available NAV date so that weekends, holidays
// and data lag do not skew the windows.
func (s *Service) NavAndReturns(ctx context.Context, code string) (*NavReport, error) {
	profiles, err := s.store.QueryProfiles(ctx, store.ProfileFilter{Code: code}, 1)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return &NavReport{Found: false, Code: code}, nil
	}
	profile := profiles[0]

	report := &NavReport{
		Found:        true,
		Code:         profile.Code,
		Name:         profile.Name,
		ShortName:    profile.ShortName,
		NavStartDate: profile.NavStartDate,
	}

	latest, err := s.store.LatestNavOnOrBefore(ctx, profile.ID, s.now())
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return report, nil
	}
	report.Latest = &NavPoint{
		Date:           latest.NavDate,
		UnitNav:        latest.UnitNav,
		AccumulatedNav: latest.AccumulatedNav,
	}

	for _, window := range Windows {
		cutoff := latest.NavDate.AddDate(0, 0, -window.LookbackDays)
		past, err := s.store.LatestNavOnOrBefore(ctx, profile.ID, cutoff)
		if err != nil {
			return nil, err
		}
		if past == nil {
			report.Returns = append(report.Returns, WindowReturn{Label: window.Label})
			continue
		}
		value, err := ComputeReturn(latest.UnitNav, past.UnitNav)
		if err != nil {
			log.Error().Err(err).Str("code", code).Str("window", window.Label).
				Time("nav_date", past.NavDate).Msg("Return computation failed")
			return nil, err
		}
		report.Returns = append(report.Returns, WindowReturn{Label: window.Label, Value: &value})
	}

	earliest, err := s.store.EarliestNav(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	if earliest != nil {
		value, err := ComputeReturn(latest.UnitNav, earliest.UnitNav)
		if err != nil {
			log.Error().Err(err).Str("code", code).Time("nav_date", earliest.NavDate).
				Msg("Inception return computation failed")
			return nil, err
		}
		report.Returns = append(report.Returns, WindowReturn{Label: SinceInceptionLabel, Value: &value})
	}

	count, err := s.store.NavRecordCount(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	report.TotalRecords = count

	recent, err := s.store.RecentNavs(ctx, profile.ID, 5)
	if err != nil {
		return nil, err
	}
	report.RecentNavs = lo.Map(recent, func(nav store.FundNav, _ int) NavPoint {
		return NavPoint{Date: nav.NavDate, UnitNav: nav.UnitNav, AccumulatedNav: nav.AccumulatedNav}
	})

	return report, nil
}

// ComparisonEntry is the per-code outcome of a comparison. Every input
// code yields exactly one entry; Found distinguishes resolved funds from
// unknown codes.
type ComparisonEntry struct {
	Code  string
	Found bool

	Name      string
	Manager   *string
	RiskLevel int16

	// Nil NAV fields mean the fund resolved but has no observations yet;
	// a nil YearReturn means insufficient history for the 1-year window.
	LatestNav  *decimal.Decimal
	NavDate    *time.Time
	YearReturn *string
}

// Comparison buckets the entries for caller convenience. Entries is the
// normative one-entry-per-input-code mapping.
type Comparison struct {
	Entries         []ComparisonEntry
	Resolved        []ComparisonEntry
	UnresolvedCodes []string
}

// Compare evaluates 2..5 fund codes. Per-code resolution is independent,
// so the codes run concurrently; an unknown code never aborts its
// siblings, while a store-level failure fails the whole batch fast.
func (s *Service) Compare(ctx context.Context, codes []string) (*Comparison, error) {
	if len(codes) < minCompareCodes || len(codes) > maxCompareCodes {
		return nil, ErrCodeCount
	}

	entries := make([]ComparisonEntry, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			entry, err := s.compareOne(gctx, code)
			if err != nil {
				return err
			}
			entries[i] = *entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved := lo.Filter(entries, func(e ComparisonEntry, _ int) bool { return e.Found })
	unresolved := lo.FilterMap(entries, func(e ComparisonEntry, _ int) (string, bool) {
		return e.Code, !e.Found
	})

	return &Comparison{Entries: entries, Resolved: resolved, UnresolvedCodes: unresolved}, nil
}

func (s *Service) compareOne(ctx context.Context, code string) (*ComparisonEntry, error) {
	profiles, err := s.store.QueryProfiles(ctx, store.ProfileFilter{Code: code}, 1)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return &ComparisonEntry{Code: code}, nil
	}
	profile := profiles[0]

	name := profile.Name
	if profile.ShortName != nil && *profile.ShortName != "" {
		name = *profile.ShortName
	}
	entry := &ComparisonEntry{
		Code:      profile.Code,
		Found:     true,
		Name:      name,
		Manager:   profile.FundManager,
		RiskLevel: profile.RiskLevel,
	}

	latest, err := s.store.LatestNavOnOrBefore(ctx, profile.ID, s.now())
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return entry, nil
	}
	entry.LatestNav = &latest.UnitNav
	entry.NavDate = &latest.NavDate

	cutoff := latest.NavDate.AddDate(0, 0, -365)
	past, err := s.store.LatestNavOnOrBefore(ctx, profile.ID, cutoff)
	if err != nil {
		return nil, err
	}
	if past == nil {
		return entry, nil
	}
	value, err := ComputeReturn(latest.UnitNav, past.UnitNav)
	if err != nil {
		log.Error().Err(err).Str("code", code).Time("nav_date", past.NavDate).
			Msg("Year return computation failed")
		return nil, err
	}
	entry.YearReturn = &value
	return entry, nil
}
