package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	attendancedomain "github.com/studioledger/studioledger/internal/attendance/domain"
	"github.com/studioledger/studioledger/internal/clock"
	"github.com/studioledger/studioledger/internal/config"
	"github.com/studioledger/studioledger/internal/discount"
	discountdomain "github.com/studioledger/studioledger/internal/discount/domain"
	"github.com/studioledger/studioledger/internal/invoiceledger"
	"github.com/studioledger/studioledger/internal/money"
	"github.com/studioledger/studioledger/internal/observability"
	"github.com/studioledger/studioledger/internal/payment"
	paymentdomain "github.com/studioledger/studioledger/internal/payment/domain"
	reconciledomain "github.com/studioledger/studioledger/internal/reconcile/domain"
	"github.com/studioledger/studioledger/internal/rules"
	rulesdomain "github.com/studioledger/studioledger/internal/rules/domain"
	"github.com/studioledger/studioledger/internal/split"
	"github.com/studioledger/studioledger/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	modeBatch  = "batch"
	modeVerify = "verify"
)

// Service is the single-writer reconciliation orchestrator. Each run loads
// every table, recomputes all rows in memory and persists once at the end;
// callers must not run it concurrently.
type Service struct {
	log     *zap.Logger
	cfg     config.Config
	splits  *config.SplitsConfigHolder
	store   *store.Store
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *observability.Metrics
}

type ServiceParam struct {
	fx.In

	Log     *zap.Logger
	Cfg     config.Config
	Splits  *config.SplitsConfigHolder
	Store   *store.Store
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *observability.Metrics `optional:"true"`
}

func NewService(p ServiceParam) reconciledomain.Service {
	return &Service{
		log:     p.Log.Named("reconcile.service"),
		cfg:     p.Cfg,
		splits:  p.Splits,
		store:   p.Store,
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

// RunBatch recomputes verification and both discount phases fully in memory,
// persisting once at the end.
func (s *Service) RunBatch(ctx context.Context, opts reconciledomain.RunOptions) (*reconciledomain.Summary, error) {
	return s.run(ctx, modeBatch, opts)
}

// Verify recomputes verification only; discounts keep whatever the previous
// phases wrote.
func (s *Service) Verify(ctx context.Context, opts reconciledomain.RunOptions) (*reconciledomain.Summary, error) {
	opts.ApplyDiscounts = false
	return s.run(ctx, modeVerify, opts)
}

func (s *Service) run(ctx context.Context, mode string, opts reconciledomain.RunOptions) (*reconciledomain.Summary, error) {
	tracer := otel.Tracer("studioledger/reconcile")
	ctx, span := tracer.Start(ctx, "reconcile.run")
	span.SetAttributes(attribute.String("mode", mode))
	defer span.End()

	started := s.clock.Now()

	if opts.FromDate != nil && opts.ToDate != nil && opts.FromDate.After(*opts.ToDate) {
		return nil, reconciledomain.ErrInvalidDateRange
	}

	attendance, err := s.store.LoadAttendance(ctx)
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}
	attendance = filterByDate(attendance, opts.FromDate, opts.ToDate)
	if len(attendance) == 0 {
		return nil, reconciledomain.ErrNoAttendanceData
	}

	payments, err := s.store.LoadPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	pricingRules, err := s.store.LoadPricingRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pricing rules: %w", err)
	}
	if len(pricingRules) == 0 {
		s.log.Warn("no pricing rules configured; every record will be unmatched")
	}
	entries, err := s.store.LoadInvoiceLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("load invoice ledger: %w", err)
	}

	ledger := invoiceledger.New(entries, s.genID, s.clock, s.log)

	rows := make([]reconciledomain.LedgerRow, 0, len(attendance))
	for _, rec := range attendance {
		rows = append(rows, s.processRecord(rec, payments, pricingRules, ledger))
	}

	if opts.ApplyDiscounts {
		discounts, err := s.store.LoadDiscountRules(ctx)
		if err != nil {
			return nil, fmt.Errorf("load discount rules: %w", err)
		}
		rows = s.applyDiscountPhases(rows, discounts, payments)
	}

	summary := summarize(rows)

	if s.cfg.PersistAfterRun {
		if err := s.store.ReplaceInvoiceLedger(ctx, ledger.Entries()); err != nil {
			return summary, fmt.Errorf("persist invoice ledger: %w", err)
		}
		if err := s.store.ReplaceLedgerRows(ctx, rows); err != nil {
			return summary, fmt.Errorf("persist ledger rows: %w", err)
		}
		if err := s.recordRun(ctx, mode, opts, started, summary); err != nil {
			s.log.Warn("run record not persisted", zap.Error(err))
		}
	} else {
		s.log.Warn("persistence disabled; run results discarded")
	}

	duration := s.clock.Now().Sub(started)
	s.metrics.ObserveRun(mode, "success", duration)
	s.metrics.ObserveSummary(*summary)
	s.log.Info("reconciliation run finished",
		zap.String("mode", mode),
		zap.Int("total", summary.Total),
		zap.Int("verified", summary.Verified),
		zap.Int("not_verified", summary.NotVerified),
		zap.Int("package_missing", summary.PackageMissing),
		zap.Float64("verified_rate", summary.VerifiedRate()),
		zap.Duration("duration", duration),
	)
	return summary, nil
}

// AnnotateDiscounts runs discount phase 1 against the persisted rows.
func (s *Service) AnnotateDiscounts(ctx context.Context) error {
	rows, err := s.store.LoadLedgerRows(ctx)
	if err != nil {
		return fmt.Errorf("load ledger rows: %w", err)
	}
	discounts, err := s.store.LoadDiscountRules(ctx)
	if err != nil {
		return fmt.Errorf("load discount rules: %w", err)
	}
	payments, err := s.store.LoadPayments(ctx)
	if err != nil {
		return fmt.Errorf("load payments: %w", err)
	}

	annotated := discount.AnnotateDiscounts(rows, discounts, payments, s.vocabulary())
	s.metrics.AddDiscountAnnotations(countNewAnnotations(rows, annotated))
	return s.store.ReplaceLedgerRows(ctx, annotated)
}

// RecomputeDiscounts runs discount phase 2 against the persisted rows.
func (s *Service) RecomputeDiscounts(ctx context.Context) error {
	rows, err := s.store.LoadLedgerRows(ctx)
	if err != nil {
		return fmt.Errorf("load ledger rows: %w", err)
	}
	recomputed := discount.RecomputeDiscountedAmounts(rows, s.groupDefaults())
	return s.store.ReplaceLedgerRows(ctx, recomputed)
}

// OverrideVerification patches one row to Verified with the given invoice
// number, bypassing all automated matching.
func (s *Service) OverrideVerification(ctx context.Context, uniqueKey, invoiceNumber string) error {
	err := s.store.OverrideLedgerRow(ctx, uniqueKey, invoiceNumber, s.clock.Now())
	if err == store.ErrRowNotFound {
		return reconciledomain.ErrRowNotFound
	}
	if err != nil {
		return err
	}
	s.log.Info("verification overridden",
		zap.String("unique_key", uniqueKey),
		zap.String("invoice_number", invoiceNumber),
	)
	return nil
}

// processRecord turns one attendance record into a ledger row. A panic while
// processing is confined to this record: the row comes back as "Package
// Cannot be found" and the run continues.
func (s *Service) processRecord(
	rec attendancedomain.AttendanceRecord,
	payments []paymentdomain.PaymentRecord,
	pricingRules []rulesdomain.PricingRule,
	ledger *invoiceledger.Ledger,
) (row reconciledomain.LedgerRow) {
	now := s.clock.Now()
	row = reconciledomain.LedgerRow{
		ID:             s.genID.Generate(),
		UniqueKey:      rec.UniqueKey(),
		CustomerName:   rec.CustomerName,
		EventTimestamp: rec.EventTimestamp,
		MembershipName: rec.MembershipName,
		Instructors:    rec.Instructors,
		Status:         rec.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("record processing failed",
				zap.String("unique_key", row.UniqueKey),
				zap.String("customer", rec.CustomerName),
				zap.Any("panic", r),
			)
			row.VerificationStatus = reconciledomain.StatusPackageMissing
			row.InvoiceNumber = ""
			row.Amount = 0
			row.PaymentDate = nil
			row.PackagePrice = 0
			row.SessionPrice = 0
			row.CoachAmount = 0
			row.FacilityAmount = 0
			row.ManagementAmount = 0
			row.RetainedAmount = 0
		}
	}()

	pay := payment.Match(rec.CustomerName, rec.MembershipName, payments, pricingRules)
	if pay == nil {
		row.VerificationStatus = reconciledomain.StatusNotVerified
		return row
	}

	ledger.EnsureTracked(rec.CustomerName, payments, pricingRules)

	rule := rules.Match(rec.MembershipName, rec.SessionType(), pricingRules)
	if rule == nil {
		row.VerificationStatus = reconciledomain.StatusPackageMissing
		row.InvoiceNumber = pay.InvoiceNumber
		row.PaymentDate = &pay.Date
		// Usage is still tracked against the invoice even though the row
		// carries no money fields.
		if entry := ledger.Get(pay.InvoiceNumber); entry != nil {
			ledger.Allocate(entry, money.Round2(pay.Amount))
		}
		return row
	}

	sessionPrice := money.Round2(rule.EffectiveUnitPrice())
	row.VerificationStatus = reconciledomain.StatusVerified
	row.Amount = pay.Amount
	row.PackagePrice = rule.Price
	row.SessionPrice = sessionPrice

	if entry := ledger.SelectForAllocation(rec.CustomerName, sessionPrice); entry != nil {
		ledger.Allocate(entry, sessionPrice)
		row.InvoiceNumber = entry.InvoiceNumber
		paymentDate := entry.PaymentDate
		row.PaymentDate = &paymentDate
	} else {
		// No invoice has enough balance left; fall back to the customer's
		// first known payment as the funding reference without touching the
		// ledger.
		fallback := pay
		if customerPayments := payment.ForCustomer(rec.CustomerName, payments); len(customerPayments) > 0 {
			fallback = &customerPayments[0]
		}
		row.InvoiceNumber = fallback.InvoiceNumber
		row.Amount = fallback.Amount
		row.PaymentDate = &fallback.Date
		s.metrics.IncAllocationFallback()
		s.log.Warn("no invoice with sufficient balance",
			zap.String("customer", rec.CustomerName),
			zap.String("invoice_number", fallback.InvoiceNumber),
			zap.Float64("session_price", sessionPrice),
		)
	}

	pct, ok := split.FromRule(*rule)
	if !ok {
		pct = s.defaultsFor(rec.SessionType())
	}
	amounts := split.Split(sessionPrice, pct)
	row.CoachAmount = amounts.Coach
	row.FacilityAmount = amounts.Facility
	row.ManagementAmount = amounts.Management
	row.RetainedAmount = amounts.Retained

	return row
}

func (s *Service) applyDiscountPhases(
	rows []reconciledomain.LedgerRow,
	discounts []discountdomain.DiscountRule,
	payments []paymentdomain.PaymentRecord,
) []reconciledomain.LedgerRow {
	annotated := discount.AnnotateDiscounts(rows, discounts, payments, s.vocabulary())
	s.metrics.AddDiscountAnnotations(countNewAnnotations(rows, annotated))
	return discount.RecomputeDiscountedAmounts(annotated, s.groupDefaults())
}

func (s *Service) recordRun(ctx context.Context, mode string, opts reconciledomain.RunOptions, started time.Time, summary *reconciledomain.Summary) error {
	params, err := json.Marshal(map[string]any{
		"fromDate":       opts.FromDate,
		"toDate":         opts.ToDate,
		"applyDiscounts": opts.ApplyDiscounts,
	})
	if err != nil {
		return err
	}
	return s.store.InsertRunRecord(ctx, &reconciledomain.RunRecord{
		ID:             s.genID.Generate(),
		RunID:          uuid.NewString(),
		Mode:           mode,
		StartedAt:      started,
		FinishedAt:     s.clock.Now(),
		TotalRows:      summary.Total,
		VerifiedRows:   summary.Verified,
		UnverifiedRows: summary.NotVerified,
		MissingRows:    summary.PackageMissing,
		VerifiedRate:   summary.VerifiedRate(),
		Params:         params,
		CreatedAt:      s.clock.Now(),
	})
}

func (s *Service) vocabulary() discount.Vocabulary {
	splits := s.splits.Get()
	return discount.Vocabulary{
		Stopwords:       splits.Stopwords,
		SpecialKeywords: splits.SpecialKeywords,
	}
}

func (s *Service) groupDefaults() split.Percentages {
	g := s.splits.Get().GroupDefaults
	return split.Percentages{Coach: g.Coach, Facility: g.Facility, Management: g.Management, Retained: g.Retained}
}

func (s *Service) defaultsFor(sessionType rulesdomain.SessionType) split.Percentages {
	splits := s.splits.Get()
	p := splits.GroupDefaults
	if sessionType == rulesdomain.SessionTypePrivate {
		p = splits.PrivateDefaults
	}
	return split.Percentages{Coach: p.Coach, Facility: p.Facility, Management: p.Management, Retained: p.Retained}
}

func filterByDate(records []attendancedomain.AttendanceRecord, from, to *time.Time) []attendancedomain.AttendanceRecord {
	if from == nil && to == nil {
		return records
	}
	out := make([]attendancedomain.AttendanceRecord, 0, len(records))
	for _, rec := range records {
		if from != nil && rec.EventTimestamp.Before(*from) {
			continue
		}
		if to != nil && rec.EventTimestamp.After(*to) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func summarize(rows []reconciledomain.LedgerRow) *reconciledomain.Summary {
	summary := &reconciledomain.Summary{Total: len(rows)}
	for _, row := range rows {
		switch row.VerificationStatus {
		case reconciledomain.StatusVerified:
			summary.Verified++
		case reconciledomain.StatusNotVerified:
			summary.NotVerified++
		default:
			summary.PackageMissing++
		}
	}
	return summary
}

func countNewAnnotations(before, after []reconciledomain.LedgerRow) int {
	count := 0
	for i := range after {
		if after[i].DiscountName != "" && (i >= len(before) || before[i].DiscountName == "") {
			count++
		}
	}
	return count
}
