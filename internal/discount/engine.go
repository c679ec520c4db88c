// Package discount applies discounts to ledger rows in two pure phases:
// annotation (match the funding payment's memo against active discount
// names) and recomputation (re-split amounts against the discounted price).
package discount

import (
	"strings"

	"github.com/studioledger/studioledger/internal/discount/domain"
	"github.com/studioledger/studioledger/internal/money"
	"github.com/studioledger/studioledger/internal/normalize"
	paymentdomain "github.com/studioledger/studioledger/internal/payment/domain"
	reconciledomain "github.com/studioledger/studioledger/internal/reconcile/domain"
	"github.com/studioledger/studioledger/internal/split"
)

// Vocabulary carries the reloadable word lists used by the keyword
// heuristics.
type Vocabulary struct {
	Stopwords       []string
	SpecialKeywords []string
}

// AnnotateDiscounts sets discountName/discountPercentage on every row whose
// funding payment memo matches an active discount. Prices and split amounts
// are untouched; that is phase 2's job. Returns a new slice.
func AnnotateDiscounts(
	rows []reconciledomain.LedgerRow,
	discounts []domain.DiscountRule,
	payments []paymentdomain.PaymentRecord,
	vocab Vocabulary,
) []reconciledomain.LedgerRow {
	memoByInvoice := make(map[string]string, len(payments))
	for _, p := range payments {
		if p.InvoiceNumber == "" {
			continue
		}
		if _, ok := memoByInvoice[p.InvoiceNumber]; !ok {
			memoByInvoice[p.InvoiceNumber] = p.Memo
		}
	}

	stopwords := make(map[string]struct{}, len(vocab.Stopwords))
	for _, w := range vocab.Stopwords {
		stopwords[normalize.Normalize(w)] = struct{}{}
	}

	out := make([]reconciledomain.LedgerRow, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].InvoiceNumber == "" {
			continue
		}
		memo, ok := memoByInvoice[out[i].InvoiceNumber]
		if !ok || memo == "" {
			continue
		}
		if rule := matchDiscount(memo, discounts, stopwords, vocab.SpecialKeywords); rule != nil {
			out[i].DiscountName = rule.Name
			out[i].DiscountPercentage = rule.ApplicablePercentage
		}
	}
	return out
}

// RecomputeDiscountedAmounts recomputes the discounted session price and
// re-splits it for every annotated row. The split always uses the group
// default percentages regardless of the row's session type; see DESIGN.md.
// Returns a new slice.
func RecomputeDiscountedAmounts(rows []reconciledomain.LedgerRow, groupDefaults split.Percentages) []reconciledomain.LedgerRow {
	out := make([]reconciledomain.LedgerRow, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].DiscountPercentage <= 0 {
			continue
		}
		discounted := money.Round2(out[i].SessionPrice * (1 - out[i].DiscountPercentage/100))
		amounts := split.Split(discounted, groupDefaults)

		out[i].DiscountedSessionPrice = discounted
		out[i].CoachAmount = amounts.Coach
		out[i].FacilityAmount = amounts.Facility
		out[i].ManagementAmount = amounts.Management
		out[i].RetainedAmount = amounts.Retained
	}
	return out
}

// matchDiscount scans active discounts in priority order; first match wins.
func matchDiscount(memo string, discounts []domain.DiscountRule, stopwords map[string]struct{}, specialKeywords []string) *domain.DiscountRule {
	type matcher func(memo string, rule domain.DiscountRule) bool

	matchers := []matcher{
		func(memo string, rule domain.DiscountRule) bool {
			return memo == rule.Name
		},
		func(memo string, rule domain.DiscountRule) bool {
			return strings.EqualFold(strings.TrimSpace(memo), strings.TrimSpace(rule.Name))
		},
		func(memo string, rule domain.DiscountRule) bool {
			return normalize.FuzzyContains(memo, rule.Name)
		},
		func(memo string, rule domain.DiscountRule) bool {
			return keywordOverlap(memo, rule.Name, stopwords)
		},
		func(memo string, rule domain.DiscountRule) bool {
			return specialKeywordHit(memo, rule.Name, specialKeywords)
		},
	}

	for _, match := range matchers {
		for i := range discounts {
			if !discounts[i].Active {
				continue
			}
			if match(memo, discounts[i]) {
				return &discounts[i]
			}
		}
	}
	return nil
}

// keywordOverlap requires every significant word of the discount name
// (length > 2, not a stopword) to appear among the memo's tokens.
func keywordOverlap(memo, name string, stopwords map[string]struct{}) bool {
	memoTokens := normalize.Tokenize(memo)
	significant := 0
	for token := range normalize.Tokenize(name) {
		if len(token) <= 2 {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		significant++
		if _, ok := memoTokens[token]; !ok {
			return false
		}
	}
	return significant > 0
}

func specialKeywordHit(memo, name string, specialKeywords []string) bool {
	nMemo := normalize.Normalize(memo)
	nName := normalize.Normalize(name)
	for _, kw := range specialKeywords {
		k := normalize.Normalize(kw)
		if k == "" {
			continue
		}
		if strings.Contains(nMemo, k) && strings.Contains(nName, k) {
			return true
		}
	}
	return false
}
