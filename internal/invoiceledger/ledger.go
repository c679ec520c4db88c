// Package invoiceledger maintains the per-customer, per-invoice running
// balances consumed by attendance allocations. One Ledger is built per run
// from the persisted entries and mutated sequentially; there is a single
// logical writer (no locks).
package invoiceledger

import (
	"math"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/studioledger/studioledger/internal/clock"
	"github.com/studioledger/studioledger/internal/invoiceledger/domain"
	"github.com/studioledger/studioledger/internal/money"
	"github.com/studioledger/studioledger/internal/normalize"
	paymentdomain "github.com/studioledger/studioledger/internal/payment/domain"
	rulesdomain "github.com/studioledger/studioledger/internal/rules/domain"
	"go.uber.org/zap"
)

// Ledger is an explicit keyed store mapping invoice numbers to entries.
type Ledger struct {
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	entries map[string]*domain.Entry
}

// New builds a ledger seeded with previously persisted entries.
func New(entries []domain.Entry, genID *snowflake.Node, clk clock.Clock, log *zap.Logger) *Ledger {
	l := &Ledger{
		log:     log.Named("invoiceledger"),
		genID:   genID,
		clock:   clk,
		entries: make(map[string]*domain.Entry, len(entries)),
	}
	for i := range entries {
		e := entries[i]
		l.entries[e.InvoiceNumber] = &e
	}
	return l
}

// EnsureTracked creates a ledger entry for every payment of this customer
// not yet present. Total sessions are estimated from the payment amount and
// the unit price of the rule matching the payment memo, falling back to the
// mean unit price across all rules.
func (l *Ledger) EnsureTracked(customerName string, payments []paymentdomain.PaymentRecord, rules []rulesdomain.PricingRule) {
	customer := normalize.Slug(customerName)
	if customer == "" {
		return
	}

	now := l.clock.Now()
	for _, p := range payments {
		if p.InvoiceNumber == "" || normalize.Slug(p.CustomerName) != customer {
			continue
		}
		if _, ok := l.entries[p.InvoiceNumber]; ok {
			continue
		}

		total := money.Round2(p.Amount)
		entry := &domain.Entry{
			ID:               l.genID.Generate(),
			InvoiceNumber:    p.InvoiceNumber,
			CustomerName:     customer,
			TotalAmount:      total,
			UsedAmount:       0,
			RemainingBalance: total,
			Status:           domain.StatusAvailable,
			TotalSessions:    estimateSessions(total, p.Memo, rules),
			PaymentDate:      p.Date,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		l.entries[p.InvoiceNumber] = entry
		l.log.Debug("tracking invoice",
			zap.String("invoice_number", p.InvoiceNumber),
			zap.String("customer", customer),
			zap.Float64("total_amount", total),
		)
	}
}

// SelectForAllocation returns the oldest of the customer's invoices with
// sufficient remaining balance (FIFO by funding payment date), or nil when
// none qualifies.
func (l *Ledger) SelectForAllocation(customerName string, requiredAmount float64) *domain.Entry {
	customer := normalize.Slug(customerName)

	var candidates []*domain.Entry
	for _, e := range l.entries {
		if e.CustomerName != customer {
			continue
		}
		if e.Status == domain.StatusFullyUsed || e.RemainingBalance < requiredAmount {
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].PaymentDate.Equal(candidates[j].PaymentDate) {
			return candidates[i].PaymentDate.Before(candidates[j].PaymentDate)
		}
		return candidates[i].InvoiceNumber < candidates[j].InvoiceNumber
	})
	return candidates[0]
}

// Allocate consumes amount from the entry: usedAmount grows monotonically,
// the balance invariant holds after every call and the status is recomputed.
func (l *Ledger) Allocate(entry *domain.Entry, amount float64) *domain.Entry {
	now := l.clock.Now()

	entry.UsedAmount = money.Round2(entry.UsedAmount + amount)
	entry.RemainingBalance = money.Round2(entry.TotalAmount - entry.UsedAmount)
	entry.SessionsUsed++
	entry.Status = domain.StatusFor(entry.UsedAmount, entry.RemainingBalance)
	entry.LastUsedDate = &now
	entry.UpdatedAt = now

	return entry
}

// Get returns the tracked entry for an invoice number, or nil.
func (l *Ledger) Get(invoiceNumber string) *domain.Entry {
	return l.entries[invoiceNumber]
}

// Entries returns all entries in a stable order for persistence.
func (l *Ledger) Entries() []domain.Entry {
	out := make([]domain.Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].PaymentDate.Before(out[j].PaymentDate)
		}
		return out[i].InvoiceNumber < out[j].InvoiceNumber
	})
	return out
}

func estimateSessions(totalAmount float64, memo string, rules []rulesdomain.PricingRule) int {
	unit := unitPriceForMemo(memo, rules)
	if unit <= 0 {
		return 0
	}
	return int(math.Round(totalAmount / unit))
}

func unitPriceForMemo(memo string, rules []rulesdomain.PricingRule) float64 {
	for _, r := range rules {
		if normalize.Equal(memo, r.PackageName) || normalize.Equal(memo, r.AttendanceAlias) {
			return r.EffectiveUnitPrice()
		}
	}
	for _, r := range rules {
		if normalize.FuzzyContains(memo, r.PackageName) || normalize.FuzzyContains(memo, r.AttendanceAlias) {
			return r.EffectiveUnitPrice()
		}
	}
	return meanUnitPrice(rules)
}

func meanUnitPrice(rules []rulesdomain.PricingRule) float64 {
	if len(rules) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rules {
		sum += r.EffectiveUnitPrice()
	}
	return sum / float64(len(rules))
}
