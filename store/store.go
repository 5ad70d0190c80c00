package store

import (
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Store wraps the gorm handle. Every reader takes the Store explicitly
// so tests can swap in a fake behind the fund.Store interface.
type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	gormLogger := &GormZeroLogger{log: log.Logger}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for the jobs queue and the sync upserts.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&FundProfile{}); err != nil {
		return err
	}
	if err := s.db.AutoMigrate(&FundNav{}); err != nil {
		return err
	}
	if err := s.db.AutoMigrate(&SyncEvent{}); err != nil {
		return err
	}
	if err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_fund_nav_date ON fund_nav(nav_date)").Error; err != nil {
		return err
	}
	return s.db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error
}
