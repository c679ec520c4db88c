// Package store is the boundary to the external tabular store. Input tables
// arrive with loosely typed columns (numbers and percentages as text, free
// boolean spellings); all parsing and coercion happens here so the rest of
// the engine only sees typed records.
package store

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AttendanceRow is the raw attendance table shape.
type AttendanceRow struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	CustomerName   string       `gorm:"type:text;not null;index"`
	EventTimestamp time.Time    `gorm:"not null;index"`
	MembershipName string       `gorm:"type:text;not null"`
	OfferingType   string       `gorm:"type:text"`
	Instructors    datatypes.JSON
	Status         string    `gorm:"type:text"`
	ClassType      string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (AttendanceRow) TableName() string { return "attendance_records" }

// PaymentRow is the raw payment table shape. Amount is text as exported by
// the upstream billing system ("$1,200.00").
type PaymentRow struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	CustomerName  string       `gorm:"type:text;not null;index"`
	Date          time.Time    `gorm:"not null"`
	Memo          string       `gorm:"type:text"`
	Amount        string       `gorm:"type:text"`
	InvoiceNumber string       `gorm:"type:text;index"`
	CreatedAt     time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (PaymentRow) TableName() string { return "payment_records" }

// PricingRuleRow is the raw pricing rule table shape. Prices, counts and
// percentages are text; percentages may carry a "%" suffix.
type PricingRuleRow struct {
	ID                   snowflake.ID `gorm:"primaryKey"`
	RuleName             string       `gorm:"type:text;not null"`
	PackageName          string       `gorm:"type:text"`
	AttendanceAlias      string       `gorm:"type:text"`
	PaymentMemoAlias     string       `gorm:"type:text"`
	SessionType          string       `gorm:"type:text"`
	Price                string       `gorm:"type:text"`
	SessionsPerPackage   string       `gorm:"type:text"`
	UnitPrice            string       `gorm:"type:text"`
	CoachPercentage      string       `gorm:"type:text"`
	FacilityPercentage   string       `gorm:"type:text"`
	ManagementPercentage string       `gorm:"type:text"`
	RetainedPercentage   string       `gorm:"type:text"`
	CreatedAt            time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (PricingRuleRow) TableName() string { return "pricing_rules" }

// DiscountRuleRow is the raw discount rule table shape.
type DiscountRuleRow struct {
	ID                   snowflake.ID `gorm:"primaryKey"`
	Name                 string       `gorm:"type:text;not null"`
	DiscountCode         string       `gorm:"type:text"`
	ApplicablePercentage string       `gorm:"type:text"`
	CoachPaymentType     string       `gorm:"type:text"`
	MatchType            string       `gorm:"type:text"`
	Active               string       `gorm:"type:text"`
	CreatedAt            time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (DiscountRuleRow) TableName() string { return "discount_rules" }
