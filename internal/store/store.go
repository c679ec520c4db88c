package store

import (
	"context"
	"errors"
	"time"

	attendancedomain "github.com/studioledger/studioledger/internal/attendance/domain"
	discountdomain "github.com/studioledger/studioledger/internal/discount/domain"
	invoicedomain "github.com/studioledger/studioledger/internal/invoiceledger/domain"
	paymentdomain "github.com/studioledger/studioledger/internal/payment/domain"
	reconciledomain "github.com/studioledger/studioledger/internal/reconcile/domain"
	rulesdomain "github.com/studioledger/studioledger/internal/rules/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrRowNotFound is returned when a targeted update matches no row.
var ErrRowNotFound = errors.New("row_not_found")

const insertBatchSize = 500

// Store reads whole tables into typed records and rewrites whole tables.
// Output tables are replaced, never appended to: each persist deletes the
// previous generation inside the same transaction.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// New wraps the shared gorm connection.
func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log.Named("store")}
}

// LoadAttendance reads the full attendance table, oldest event first.
func (s *Store) LoadAttendance(ctx context.Context) ([]attendancedomain.AttendanceRecord, error) {
	var rows []AttendanceRow
	if err := s.db.WithContext(ctx).Order("event_timestamp asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]attendancedomain.AttendanceRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toRecord())
	}
	return records, nil
}

// LoadPayments reads the full payment table, oldest payment first.
func (s *Store) LoadPayments(ctx context.Context) ([]paymentdomain.PaymentRecord, error) {
	var rows []PaymentRow
	if err := s.db.WithContext(ctx).Order("date asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]paymentdomain.PaymentRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toRecord())
	}
	return records, nil
}

// LoadPricingRules reads the pricing rule table in its configured order,
// which the matcher treats as rule priority.
func (s *Store) LoadPricingRules(ctx context.Context) ([]rulesdomain.PricingRule, error) {
	var rows []PricingRuleRow
	if err := s.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	rules := make([]rulesdomain.PricingRule, 0, len(rows))
	for _, r := range rows {
		rules = append(rules, r.toRule())
	}
	return rules, nil
}

// LoadDiscountRules reads the discount rule table in its configured order.
// Inactive rules are included; the engine skips them at match time.
func (s *Store) LoadDiscountRules(ctx context.Context) ([]discountdomain.DiscountRule, error) {
	var rows []DiscountRuleRow
	if err := s.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	rules := make([]discountdomain.DiscountRule, 0, len(rows))
	for _, r := range rows {
		rules = append(rules, r.toRule())
	}
	return rules, nil
}

// LoadInvoiceLedger reads the persisted invoice balance entries.
func (s *Store) LoadInvoiceLedger(ctx context.Context) ([]invoicedomain.Entry, error) {
	var entries []invoicedomain.Entry
	if err := s.db.WithContext(ctx).Order("payment_date asc, invoice_number asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadLedgerRows reads the persisted reconciliation output rows.
func (s *Store) LoadLedgerRows(ctx context.Context) ([]reconciledomain.LedgerRow, error) {
	var rows []reconciledomain.LedgerRow
	if err := s.db.WithContext(ctx).Order("event_timestamp asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ReplaceInvoiceLedger rewrites the invoice ledger table with the given
// entries in one transaction.
func (s *Store) ReplaceInvoiceLedger(ctx context.Context, entries []invoicedomain.Entry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&invoicedomain.Entry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(entries, insertBatchSize).Error
	})
}

// ReplaceLedgerRows rewrites the ledger row table with the given rows in one
// transaction.
func (s *Store) ReplaceLedgerRows(ctx context.Context, rows []reconciledomain.LedgerRow) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&reconciledomain.LedgerRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
	if err != nil {
		return err
	}
	s.log.Debug("ledger rows replaced", zap.Int("count", len(rows)))
	return nil
}

// OverrideLedgerRow patches one persisted row to Verified with the given
// invoice number, leaving every other column untouched.
func (s *Store) OverrideLedgerRow(ctx context.Context, uniqueKey, invoiceNumber string, now time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&reconciledomain.LedgerRow{}).
		Where("unique_key = ?", uniqueKey).
		Updates(map[string]any{
			"verification_status": reconciledomain.StatusVerified,
			"invoice_number":      invoiceNumber,
			"updated_at":          now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRowNotFound
	}
	return nil
}

// InsertRunRecord appends one audit record for a finished run.
func (s *Store) InsertRunRecord(ctx context.Context, rec *reconciledomain.RunRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}
