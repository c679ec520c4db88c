// Package domain contains the reconciliation outputs: ledger rows, run
// records and the run summary.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// VerificationStatus is the terminal state of one attendance record within a
// run.
type VerificationStatus string

const (
	StatusVerified       VerificationStatus = "Verified"
	StatusNotVerified    VerificationStatus = "Not Verified"
	StatusPackageMissing VerificationStatus = "Package Cannot be found"
)

// LedgerRow states, per attendance event, whether it was paid for, which
// invoice funded it, and how the paid amount splits among stakeholders.
// Rows are fully recomputed each run; UniqueKey is the identity across runs.
type LedgerRow struct {
	ID                     snowflake.ID       `gorm:"primaryKey"`
	UniqueKey              string             `gorm:"type:text;not null;uniqueIndex"`
	CustomerName           string             `gorm:"type:text;not null;index"`
	EventTimestamp         time.Time          `gorm:"not null;index"`
	MembershipName         string             `gorm:"type:text;not null"`
	Instructors            string             `gorm:"type:text"`
	Status                 string             `gorm:"type:text"`
	DiscountName           string             `gorm:"type:text"`
	DiscountPercentage     float64            `gorm:"not null"`
	VerificationStatus     VerificationStatus `gorm:"type:text;not null;index"`
	InvoiceNumber          string             `gorm:"type:text"`
	Amount                 float64            `gorm:"not null"`
	PaymentDate            *time.Time
	PackagePrice           float64 `gorm:"not null"`
	SessionPrice           float64 `gorm:"not null"`
	DiscountedSessionPrice float64 `gorm:"not null"`
	CoachAmount            float64 `gorm:"not null"`
	FacilityAmount         float64 `gorm:"not null"`
	ManagementAmount       float64 `gorm:"not null"`
	RetainedAmount         float64 `gorm:"not null"`
	CreatedAt              time.Time `gorm:"not null"`
	UpdatedAt              time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (LedgerRow) TableName() string { return "ledger_rows" }

// RunRecord captures one reconciliation pass for audit.
type RunRecord struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	RunID          string       `gorm:"type:text;not null;uniqueIndex"`
	Mode           string       `gorm:"type:text;not null"`
	StartedAt      time.Time    `gorm:"not null"`
	FinishedAt     time.Time    `gorm:"not null"`
	TotalRows      int          `gorm:"not null"`
	VerifiedRows   int          `gorm:"not null"`
	UnverifiedRows int          `gorm:"not null"`
	MissingRows    int          `gorm:"not null"`
	VerifiedRate   float64      `gorm:"not null"`
	Params         datatypes.JSON
	CreatedAt      time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (RunRecord) TableName() string { return "reconciliation_runs" }

// Summary is returned by every run, even on partial failure.
type Summary struct {
	Total          int
	Verified       int
	NotVerified    int
	PackageMissing int
}

// VerifiedRate is the share of rows that verified, in [0,1].
func (s Summary) VerifiedRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Verified) / float64(s.Total)
}
