package domain

import (
	"context"
	"errors"
	"time"
)

// RunOptions controls one reconciliation pass.
type RunOptions struct {
	// FromDate/ToDate optionally restrict attendance by event timestamp,
	// inclusive. FromDate after ToDate is rejected before any processing.
	FromDate *time.Time
	ToDate   *time.Time

	// ApplyDiscounts runs both discount phases inside the batch pass.
	ApplyDiscounts bool
}

// Service drives reconciliation passes against the external tabular store.
//
// RunBatch computes verification plus both discount phases fully in memory
// with exactly one persistence write at the end. The incremental mode is the
// Verify / AnnotateDiscounts / RecomputeDiscounts sequence, persisting
// between calls.
type Service interface {
	RunBatch(ctx context.Context, opts RunOptions) (*Summary, error)
	Verify(ctx context.Context, opts RunOptions) (*Summary, error)
	AnnotateDiscounts(ctx context.Context) error
	RecomputeDiscounts(ctx context.Context) error

	// OverrideVerification patches exactly one ledger row to Verified with
	// the given invoice number, bypassing all automated matching.
	OverrideVerification(ctx context.Context, uniqueKey, invoiceNumber string) error
}

var (
	ErrNoAttendanceData = errors.New("no_attendance_data")
	ErrInvalidDateRange = errors.New("invalid_date_range")
	ErrRowNotFound      = errors.New("ledger_row_not_found")
)
