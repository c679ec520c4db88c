package store

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	invoicedomain "github.com/studioledger/studioledger/internal/invoiceledger/domain"
	reconciledomain "github.com/studioledger/studioledger/internal/reconcile/domain"
	rulesdomain "github.com/studioledger/studioledger/internal/rules/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&AttendanceRow{},
		&PaymentRow{},
		&PricingRuleRow{},
		&DiscountRuleRow{},
		&invoicedomain.Entry{},
		&reconciledomain.LedgerRow{},
		&reconciledomain.RunRecord{},
	))
	return New(db, zap.NewNop()), db
}

func newIDNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func TestLoadPayments_ParsesAmounts(t *testing.T) {
	s, db := newTestStore(t)
	node := newIDNode(t)

	require.NoError(t, db.Create(&PaymentRow{
		ID:            node.Generate(),
		CustomerName:  "Jane Doe",
		Date:          time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Memo:          "10 Class Pack",
		Amount:        "$1,200.00",
		InvoiceNumber: " INV-1 ",
	}).Error)

	payments, err := s.LoadPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 1200.0, payments[0].Amount)
	assert.Equal(t, "INV-1", payments[0].InvoiceNumber)
}

func TestLoadPayments_OrderedByDate(t *testing.T) {
	s, db := newTestStore(t)
	node := newIDNode(t)

	later := PaymentRow{ID: node.Generate(), CustomerName: "A", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Amount: "10"}
	earlier := PaymentRow{ID: node.Generate(), CustomerName: "A", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Amount: "20"}
	require.NoError(t, db.Create(&later).Error)
	require.NoError(t, db.Create(&earlier).Error)

	payments, err := s.LoadPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, 20.0, payments[0].Amount)
	assert.Equal(t, 10.0, payments[1].Amount)
}

func TestLoadPricingRules_CoercesColumns(t *testing.T) {
	s, db := newTestStore(t)
	node := newIDNode(t)

	require.NoError(t, db.Create(&PricingRuleRow{
		ID:                   node.Generate(),
		RuleName:             "10 Class Pack",
		PackageName:          "10 Class Pack",
		SessionType:          "Private",
		Price:                "$300.00",
		SessionsPerPackage:   "10",
		CoachPercentage:      "43.5%",
		FacilityPercentage:   "30",
		ManagementPercentage: "8.5%",
		RetainedPercentage:   "18%",
	}).Error)

	rules, err := s.LoadPricingRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, rulesdomain.SessionTypePrivate, rules[0].SessionType)
	assert.Equal(t, 300.0, rules[0].Price)
	assert.Equal(t, 10, rules[0].SessionsPerPackage)
	assert.Equal(t, 43.5, rules[0].CoachPercentage)
	assert.Equal(t, 30.0, rules[0].FacilityPercentage)
	assert.Equal(t, 8.5, rules[0].ManagementPercentage)
	assert.Equal(t, 18.0, rules[0].RetainedPercentage)
}

func TestLoadPricingRules_SessionTypeAnySpellings(t *testing.T) {
	s, db := newTestStore(t)
	node := newIDNode(t)

	for _, v := range []string{"", "Any", "all"} {
		require.NoError(t, db.Create(&PricingRuleRow{ID: node.Generate(), RuleName: "r", SessionType: v}).Error)
	}

	rules, err := s.LoadPricingRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 3)
	for _, r := range rules {
		assert.Equal(t, rulesdomain.SessionTypeAny, r.SessionType)
	}
}

func TestLoadDiscountRules_ActiveSpellings(t *testing.T) {
	s, db := newTestStore(t)
	node := newIDNode(t)

	require.NoError(t, db.Create(&DiscountRuleRow{ID: node.Generate(), Name: "a", ApplicablePercentage: "20%", Active: "Yes"}).Error)
	require.NoError(t, db.Create(&DiscountRuleRow{ID: node.Generate(), Name: "b", Active: "nope"}).Error)
	require.NoError(t, db.Create(&DiscountRuleRow{ID: node.Generate(), Name: "c", Active: "TRUE"}).Error)

	rules, err := s.LoadDiscountRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.True(t, rules[0].Active)
	assert.Equal(t, 20.0, rules[0].ApplicablePercentage)
	assert.False(t, rules[1].Active)
	assert.True(t, rules[2].Active)
}

func TestLoadAttendance_FlattensInstructors(t *testing.T) {
	s, db := newTestStore(t)
	node := newIDNode(t)

	require.NoError(t, db.Create(&AttendanceRow{
		ID:             node.Generate(),
		CustomerName:   "Jane Doe",
		EventTimestamp: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
		MembershipName: "10 Class Pack",
		OfferingType:   "Group Class",
		Instructors:    []byte(`["Alice","Bob"]`),
	}).Error)

	records, err := s.LoadAttendance(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Alice, Bob", records[0].Instructors)
}

func TestReplaceLedgerRows_ReplacesPreviousGeneration(t *testing.T) {
	s, _ := newTestStore(t)
	node := newIDNode(t)
	ctx := context.Background()

	first := []reconciledomain.LedgerRow{
		{ID: node.Generate(), UniqueKey: "k1", CustomerName: "A", EventTimestamp: time.Now().UTC(), MembershipName: "m", VerificationStatus: reconciledomain.StatusVerified},
	}
	require.NoError(t, s.ReplaceLedgerRows(ctx, first))

	second := []reconciledomain.LedgerRow{
		{ID: node.Generate(), UniqueKey: "k2", CustomerName: "B", EventTimestamp: time.Now().UTC(), MembershipName: "m", VerificationStatus: reconciledomain.StatusNotVerified},
	}
	require.NoError(t, s.ReplaceLedgerRows(ctx, second))

	rows, err := s.LoadLedgerRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "k2", rows[0].UniqueKey)
}

func TestReplaceInvoiceLedger_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	node := newIDNode(t)
	ctx := context.Background()

	entries := []invoicedomain.Entry{
		{
			ID:               node.Generate(),
			InvoiceNumber:    "INV-1",
			CustomerName:     "jane-doe",
			TotalAmount:      300,
			UsedAmount:       30,
			RemainingBalance: 270,
			Status:           invoicedomain.StatusPartiallyUsed,
			SessionsUsed:     1,
			TotalSessions:    10,
			PaymentDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, s.ReplaceInvoiceLedger(ctx, entries))

	got, err := s.LoadInvoiceLedger(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "INV-1", got[0].InvoiceNumber)
	assert.Equal(t, 270.0, got[0].RemainingBalance)
	assert.True(t, got[0].CheckBalance())
}

func TestOverrideLedgerRow(t *testing.T) {
	s, _ := newTestStore(t)
	node := newIDNode(t)
	ctx := context.Background()
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

	rows := []reconciledomain.LedgerRow{
		{ID: node.Generate(), UniqueKey: "k1", CustomerName: "A", EventTimestamp: now, MembershipName: "m", VerificationStatus: reconciledomain.StatusNotVerified, Amount: 50},
	}
	require.NoError(t, s.ReplaceLedgerRows(ctx, rows))

	require.NoError(t, s.OverrideLedgerRow(ctx, "k1", "INV-9", now))

	got, err := s.LoadLedgerRows(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, reconciledomain.StatusVerified, got[0].VerificationStatus)
	assert.Equal(t, "INV-9", got[0].InvoiceNumber)
	assert.Equal(t, 50.0, got[0].Amount)

	err = s.OverrideLedgerRow(ctx, "missing", "INV-9", now)
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestInsertRunRecord(t *testing.T) {
	s, db := newTestStore(t)
	node := newIDNode(t)
	ctx := context.Background()

	rec := &reconciledomain.RunRecord{
		ID:           node.Generate(),
		RunID:        "550e8400-e29b-41d4-a716-446655440000",
		Mode:         "batch",
		StartedAt:    time.Now().UTC(),
		FinishedAt:   time.Now().UTC(),
		TotalRows:    3,
		VerifiedRows: 2,
		VerifiedRate: 2.0 / 3.0,
	}
	require.NoError(t, s.InsertRunRecord(ctx, rec))

	var count int64
	require.NoError(t, db.Model(&reconciledomain.RunRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
