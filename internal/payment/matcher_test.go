package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/studioledger/studioledger/internal/payment/domain"
	rulesdomain "github.com/studioledger/studioledger/internal/rules/domain"
)

func pay(customer, memo string, amount float64, invoice string) domain.PaymentRecord {
	return domain.PaymentRecord{
		CustomerName:  customer,
		Date:          time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Memo:          memo,
		Amount:        amount,
		InvoiceNumber: invoice,
	}
}

func TestMatch_ByMembershipName(t *testing.T) {
	payments := []domain.PaymentRecord{
		pay("jane doe", "10 Session Pack", 300, "INV-1"),
		pay("John Smith", "10 Session Pack", 300, "INV-2"),
	}

	got := Match("Jane Doe", "10 Session Pack", payments, nil)
	if assert.NotNil(t, got) {
		assert.Equal(t, "INV-1", got.InvoiceNumber)
	}
}

func TestMatch_RuleAliasPreferred(t *testing.T) {
	payments := []domain.PaymentRecord{
		pay("Jane Doe", "Direct debit - gold plan", 200, "INV-A"),
		pay("Jane Doe", "10 Session Pack", 300, "INV-B"),
	}
	pricingRules := []rulesdomain.PricingRule{
		{AttendanceAlias: "10 Session Pack", PaymentMemoAlias: "gold plan"},
	}

	// The rule's memo alias wins over the membership-name fallback.
	got := Match("Jane Doe", "10 Session Pack", payments, pricingRules)
	if assert.NotNil(t, got) {
		assert.Equal(t, "INV-A", got.InvoiceNumber)
	}
}

func TestMatch_AliasMissFallsBackToMembership(t *testing.T) {
	payments := []domain.PaymentRecord{
		pay("Jane Doe", "10 Session Pack", 300, "INV-B"),
	}
	pricingRules := []rulesdomain.PricingRule{
		{AttendanceAlias: "10 Session Pack", PaymentMemoAlias: "platinum plan"},
	}

	got := Match("Jane Doe", "10 Session Pack", payments, pricingRules)
	if assert.NotNil(t, got) {
		assert.Equal(t, "INV-B", got.InvoiceNumber)
	}
}

func TestMatch_SubstringEitherDirection(t *testing.T) {
	payments := []domain.PaymentRecord{
		pay("Jane Doe", "Renewal: 10 Session Pack (autopay)", 300, "INV-C"),
	}

	got := Match("Jane Doe", "10 Session Pack", payments, nil)
	assert.NotNil(t, got)

	payments = []domain.PaymentRecord{
		pay("Jane Doe", "Session Pack", 300, "INV-D"),
	}
	got = Match("Jane Doe", "10 Session Pack", payments, nil)
	assert.NotNil(t, got)
}

func TestMatch_NoCustomerPayments(t *testing.T) {
	payments := []domain.PaymentRecord{
		pay("John Smith", "10 Session Pack", 300, "INV-1"),
	}

	assert.Nil(t, Match("Jane Doe", "10 Session Pack", payments, nil))
	assert.Nil(t, Match("", "10 Session Pack", payments, nil))
}

func TestMatch_NoMemoMatch(t *testing.T) {
	payments := []domain.PaymentRecord{
		pay("Jane Doe", "Retail purchase", 40, "INV-9"),
	}

	assert.Nil(t, Match("Jane Doe", "10 Session Pack", payments, nil))
}

func TestForCustomer_PreservesOrder(t *testing.T) {
	payments := []domain.PaymentRecord{
		pay("Jane Doe", "first", 1, "INV-1"),
		pay("JANE DOE", "second", 2, "INV-2"),
	}

	got := ForCustomer("jane doe", payments)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "INV-1", got[0].InvoiceNumber)
		assert.Equal(t, "INV-2", got[1].InvoiceNumber)
	}
}
