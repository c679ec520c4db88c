// Package domain contains the per-invoice running balance entries.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/studioledger/studioledger/internal/money"
)

// Status is a pure function of usedAmount and remainingBalance; see StatusFor.
type Status string

const (
	StatusAvailable     Status = "Available"
	StatusPartiallyUsed Status = "Partially Used"
	StatusFullyUsed     Status = "Fully Used"
	StatusUnverified    Status = "Unverified"
)

// Entry tracks how much of one invoice has been consumed by attendance
// allocations. Created on first sight of a payment with that invoice number,
// never deleted within a run.
//
// Invariant: RemainingBalance == round2(TotalAmount - UsedAmount).
type Entry struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	InvoiceNumber    string       `gorm:"type:text;not null;uniqueIndex"`
	CustomerName     string       `gorm:"type:text;not null;index"`
	TotalAmount      float64      `gorm:"not null"`
	UsedAmount       float64      `gorm:"not null"`
	RemainingBalance float64      `gorm:"not null"`
	Status           Status       `gorm:"type:text;not null"`
	SessionsUsed     int          `gorm:"not null"`
	TotalSessions    int          `gorm:"not null"`
	PaymentDate      time.Time    `gorm:"not null"`
	LastUsedDate     *time.Time
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "invoice_ledger_entries" }

// StatusFor derives the entry status from its balance fields.
func StatusFor(usedAmount, remainingBalance float64) Status {
	switch {
	case remainingBalance <= 0:
		return StatusFullyUsed
	case usedAmount > 0:
		return StatusPartiallyUsed
	default:
		return StatusAvailable
	}
}

// CheckBalance reports whether the entry satisfies the balance invariant.
func (e Entry) CheckBalance() bool {
	return money.Round2(e.TotalAmount-e.UsedAmount) == e.RemainingBalance
}
