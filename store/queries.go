package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrUnavailable marks a store-level failure that survived the retry budget.
// Callers must not confuse it with an empty result.
var ErrUnavailable = errors.New("fund store unavailable")

const (
	maxAttempts   = 3
	retryInterval = 200 * time.Millisecond
)

// ProfileFilter is the typed replacement for ad-hoc WHERE fragment building.
// Zero-value fields are simply not applied.
type ProfileFilter struct {
	Code            string
	NameContains    string
	ManagerContains string
}

// QueryProfiles returns matching profiles ordered by code ascending.
// Code matches exactly (codes are canonical, case-sensitive); name matches
// name OR short_name case-insensitively; manager matches case-insensitively.
// An empty result is a normal outcome, not an error.
func (s *Store) QueryProfiles(ctx context.Context, filter ProfileFilter, limit int) ([]FundProfile, error) {
	var profiles []FundProfile
	err := s.withRetry(ctx, func() error {
		tx := s.db.WithContext(ctx).Model(&FundProfile{})
		if filter.Code != "" {
			tx = tx.Where("code = ?", filter.Code)
		}
		if filter.NameContains != "" {
			pattern := "%" + filter.NameContains + "%"
			tx = tx.Where("name ILIKE ? OR short_name ILIKE ?", pattern, pattern)
		}
		if filter.ManagerContains != "" {
			tx = tx.Where("fund_manager ILIKE ?", "%"+filter.ManagerContains+"%")
		}
		return tx.Order("code asc").Limit(limit).Find(&profiles).Error
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// LatestNavOnOrBefore resolves the observation with the maximum nav_date <= cutoff.
// Returns (nil, nil) when the fund has no observation at or before the cutoff.
func (s *Store) LatestNavOnOrBefore(ctx context.Context, fundID uint64, cutoff time.Time) (*FundNav, error) {
	var nav FundNav
	err := s.withRetry(ctx, func() error {
		return s.db.WithContext(ctx).
			Where("fund_id = ? AND nav_date <= ?", fundID, cutoff).
			Order("nav_date desc").
			First(&nav).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &nav, nil
}

// EarliestNav returns the very first observation for a fund, or (nil, nil).
func (s *Store) EarliestNav(ctx context.Context, fundID uint64) (*FundNav, error) {
	var nav FundNav
	err := s.withRetry(ctx, func() error {
		return s.db.WithContext(ctx).
			Where("fund_id = ?", fundID).
			Order("nav_date asc").
			First(&nav).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &nav, nil
}

func (s *Store) NavRecordCount(ctx context.Context, fundID uint64) (int64, error) {
	var count int64
	err := s.withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Model(&FundNav{}).
			Where("fund_id = ?", fundID).
			Count(&count).Error
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// RecentNavs returns the most recent observations, descending by date.
func (s *Store) RecentNavs(ctx context.Context, fundID uint64, limit int) ([]FundNav, error) {
	var navs []FundNav
	err := s.withRetry(ctx, func() error {
		return s.db.WithContext(ctx).
			Where("fund_id = ?", fundID).
			Order("nav_date desc").
			Limit(limit).
			Find(&navs).Error
	})
	if err != nil {
		return nil, err
	}
	return navs, nil
}

// withRetry runs a read with a small bounded retry budget. Negative results
// and data errors pass through untouched; only connectivity-shaped failures
// are retried, and once the budget is spent they surface as ErrUnavailable.
func (s *Store) withRetry(ctx context.Context, query func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = query()
		if err == nil {
			return nil
		}
		// An expired request deadline is a service-level failure, but there
		// is no point retrying against a dead context.
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if !isRetryable(err) {
			return err
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("Store query failed, retrying")
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-time.After(time.Duration(attempt) * retryInterval):
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func isRetryable(err error) bool {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrInvalidData),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}
