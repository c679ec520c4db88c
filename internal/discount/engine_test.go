package discount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studioledger/studioledger/internal/config"
	"github.com/studioledger/studioledger/internal/discount/domain"
	paymentdomain "github.com/studioledger/studioledger/internal/payment/domain"
	reconciledomain "github.com/studioledger/studioledger/internal/reconcile/domain"
	"github.com/studioledger/studioledger/internal/split"
)

func defaultVocab() Vocabulary {
	cfg := config.DefaultSplitsConfig()
	return Vocabulary{Stopwords: cfg.Stopwords, SpecialKeywords: cfg.SpecialKeywords}
}

func TestAnnotateDiscounts_ExactMatch(t *testing.T) {
	rows := []reconciledomain.LedgerRow{
		{UniqueKey: "k1", InvoiceNumber: "INV-1", SessionPrice: 100},
	}
	payments := []paymentdomain.PaymentRecord{
		{InvoiceNumber: "INV-1", Memo: "Loyalty Discount"},
	}
	discounts := []domain.DiscountRule{
		{Name: "Loyalty Discount", ApplicablePercentage: 20, Active: true},
	}

	got := AnnotateDiscounts(rows, discounts, payments, defaultVocab())
	require.Len(t, got, 1)
	assert.Equal(t, "Loyalty Discount", got[0].DiscountName)
	assert.Equal(t, 20.0, got[0].DiscountPercentage)
	// Phase 1 never touches amounts.
	assert.Equal(t, 0.0, got[0].DiscountedSessionPrice)
	assert.Equal(t, 100.0, got[0].SessionPrice)
}

func TestAnnotateDiscounts_CaseInsensitiveAndSubstring(t *testing.T) {
	payments := []paymentdomain.PaymentRecord{
		{InvoiceNumber: "INV-1", Memo: "loyalty discount"},
		{InvoiceNumber: "INV-2", Memo: "March renewal - Loyalty Discount applied"},
	}
	discounts := []domain.DiscountRule{
		{Name: "Loyalty Discount", ApplicablePercentage: 20, Active: true},
	}
	rows := []reconciledomain.LedgerRow{
		{UniqueKey: "k1", InvoiceNumber: "INV-1"},
		{UniqueKey: "k2", InvoiceNumber: "INV-2"},
	}

	got := AnnotateDiscounts(rows, discounts, payments, defaultVocab())
	assert.Equal(t, 20.0, got[0].DiscountPercentage)
	assert.Equal(t, 20.0, got[1].DiscountPercentage)
}

func TestAnnotateDiscounts_KeywordOverlap(t *testing.T) {
	payments := []paymentdomain.PaymentRecord{
		{InvoiceNumber: "INV-1", Memo: "wellness rate corporate for ACME"},
	}
	discounts := []domain.DiscountRule{
		{Name: "Corporate Wellness", ApplicablePercentage: 15, Active: true},
	}
	rows := []reconciledomain.LedgerRow{{UniqueKey: "k1", InvoiceNumber: "INV-1"}}

	got := AnnotateDiscounts(rows, discounts, payments, defaultVocab())
	assert.Equal(t, "Corporate Wellness", got[0].DiscountName)
}

func TestAnnotateDiscounts_SpecialKeyword(t *testing.T) {
	payments := []paymentdomain.PaymentRecord{
		{InvoiceNumber: "INV-1", Memo: "mindbody import 2024"},
	}
	discounts := []domain.DiscountRule{
		{Name: "Mindbody Legacy Rate", ApplicablePercentage: 10, Active: true},
	}
	rows := []reconciledomain.LedgerRow{{UniqueKey: "k1", InvoiceNumber: "INV-1"}}

	got := AnnotateDiscounts(rows, discounts, payments, defaultVocab())
	assert.Equal(t, "Mindbody Legacy Rate", got[0].DiscountName)
}

func TestAnnotateDiscounts_SkipsInactiveAndUnfunded(t *testing.T) {
	payments := []paymentdomain.PaymentRecord{
		{InvoiceNumber: "INV-1", Memo: "Staff Rate"},
	}
	discounts := []domain.DiscountRule{
		{Name: "Staff Rate", ApplicablePercentage: 100, Active: false},
	}
	rows := []reconciledomain.LedgerRow{
		{UniqueKey: "k1", InvoiceNumber: "INV-1"},
		{UniqueKey: "k2", InvoiceNumber: ""},
	}

	got := AnnotateDiscounts(rows, discounts, payments, defaultVocab())
	assert.Empty(t, got[0].DiscountName)
	assert.Empty(t, got[1].DiscountName)
}

func TestAnnotateDiscounts_FirstMatchWins(t *testing.T) {
	payments := []paymentdomain.PaymentRecord{
		{InvoiceNumber: "INV-1", Memo: "Loyalty Discount"},
	}
	discounts := []domain.DiscountRule{
		{Name: "Loyalty Discount", ApplicablePercentage: 20, Active: true},
		{Name: "loyalty discount", ApplicablePercentage: 50, Active: true},
	}
	rows := []reconciledomain.LedgerRow{{UniqueKey: "k1", InvoiceNumber: "INV-1"}}

	got := AnnotateDiscounts(rows, discounts, payments, defaultVocab())
	assert.Equal(t, 20.0, got[0].DiscountPercentage)
}

func TestRecomputeDiscountedAmounts_GroupDefaults(t *testing.T) {
	groupDefaults := split.Percentages{Coach: 43.5, Facility: 30, Management: 8.5, Retained: 18}
	rows := []reconciledomain.LedgerRow{
		{UniqueKey: "k1", SessionPrice: 100, DiscountPercentage: 20},
		{UniqueKey: "k2", SessionPrice: 100, DiscountPercentage: 0, CoachAmount: 43.5},
	}

	got := RecomputeDiscountedAmounts(rows, groupDefaults)
	require.Len(t, got, 2)

	assert.Equal(t, 80.0, got[0].DiscountedSessionPrice)
	assert.Equal(t, 34.80, got[0].CoachAmount)
	assert.Equal(t, 24.00, got[0].FacilityAmount)
	assert.Equal(t, 6.80, got[0].ManagementAmount)
	assert.Equal(t, 14.40, got[0].RetainedAmount)

	// Undiscounted rows are untouched.
	assert.Equal(t, 0.0, got[1].DiscountedSessionPrice)
	assert.Equal(t, 43.5, got[1].CoachAmount)
}

func TestPhases_DoNotMutateInput(t *testing.T) {
	rows := []reconciledomain.LedgerRow{
		{UniqueKey: "k1", InvoiceNumber: "INV-1", SessionPrice: 100},
	}
	payments := []paymentdomain.PaymentRecord{{InvoiceNumber: "INV-1", Memo: "Loyalty Discount"}}
	discounts := []domain.DiscountRule{{Name: "Loyalty Discount", ApplicablePercentage: 20, Active: true}}

	_ = AnnotateDiscounts(rows, discounts, payments, defaultVocab())
	assert.Empty(t, rows[0].DiscountName)

	rows[0].DiscountPercentage = 20
	_ = RecomputeDiscountedAmounts(rows, split.Percentages{Coach: 43.5})
	assert.Equal(t, 0.0, rows[0].DiscountedSessionPrice)
}
