package store

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// FundProfile mirrors the fund_profile table populated by the sync jobs.
// Code is the human-facing fund code and never changes once assigned.
type FundProfile struct {
	ID   uint64 `json:"id"`
	Code string `gorm:"uniqueIndex;size:50;not null" json:"code"`

	Name      string  `gorm:"size:255;not null" json:"name"`
	ShortName *string `gorm:"size:100" json:"short_name"`

	FundManager *string `gorm:"size:100" json:"fund_manager"`
	RiskLevel   int16   `gorm:"default:3" json:"risk_level"`
	FundType    string  `gorm:"size:50" json:"fund_type"`

	LaunchDate   *time.Time `json:"launch_date"`
	NavStartDate *time.Time `json:"nav_start_date"`
	NavFrequency string     `gorm:"size:1" json:"nav_frequency"`
	Status       int16      `gorm:"default:1" json:"status"`

	CreateTime time.Time `gorm:"autoCreateTime" json:"create_time"`
	UpdateTime time.Time `gorm:"autoUpdateTime" json:"update_time"`
}

func (FundProfile) TableName() string {
	return "fund_profile"
}

// FundNav is one NAV observation. At most one row per fund per date;
// non-trading days are simply absent.
type FundNav struct {
	FundID  uint64    `gorm:"primaryKey;autoIncrement:false" json:"fund_id"`
	NavDate time.Time `gorm:"primaryKey;type:date" json:"nav_date"`

	UnitNav        decimal.Decimal `gorm:"type:decimal(18,6)" json:"unit_nav"`
	AccumulatedNav decimal.Decimal `gorm:"type:decimal(18,6)" json:"accumulated_nav"`

	CreateTime time.Time `gorm:"autoCreateTime" json:"create_time"`
	UpdateTime time.Time `gorm:"autoUpdateTime" json:"update_time"`
}

func (FundNav) TableName() string {
	return "fund_nav"
}

// SyncEvent records anomalies seen by the sync jobs (empty crawls, parse
// failures) for later inspection.
type SyncEvent struct {
	ID   uint64
	Data JSONB `gorm:"type:jsonb" json:"-"`
}

type JSONB map[string]string

// Scan implements the sql.Scanner interface to read JSONB from the database
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONB)
		return nil
	}

	bytes, ok := value.([]byte) // PostgreSQL JSONB is returned as []uint8 (bytes)
	if !ok {
		return errors.New("failed to scan JSONB: type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, j)
}

// Value implements the driver.Valuer interface to store JSONB in the database
func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j) // Convert Go map to JSON before storing
}
