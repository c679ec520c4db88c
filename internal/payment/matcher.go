// Package payment finds the payment record most likely funding an attendance
// event. Matching is customer+memo only; dates are deliberately not a
// criterion on this path.
package payment

import (
	"github.com/studioledger/studioledger/internal/normalize"
	"github.com/studioledger/studioledger/internal/payment/domain"
	"github.com/studioledger/studioledger/internal/rules"
	rulesdomain "github.com/studioledger/studioledger/internal/rules/domain"
)

// Match returns the payment most likely funding an attendance of
// membershipName by customerName, or nil.
//
// When a rule for the membership carries a payment-memo alias, that alias is
// matched against the customer's memos first (exact, then substring either
// direction). Otherwise the membership name itself is matched the same way.
func Match(customerName, membershipName string, payments []domain.PaymentRecord, pricingRules []rulesdomain.PricingRule) *domain.PaymentRecord {
	candidates := ForCustomer(customerName, payments)
	if len(candidates) == 0 {
		return nil
	}

	if rule := rules.MatchByAlias(membershipName, pricingRules); rule != nil && rule.PaymentMemoAlias != "" {
		if hit := matchMemo(rule.PaymentMemoAlias, candidates); hit != nil {
			return hit
		}
	}

	return matchMemo(membershipName, candidates)
}

// ForCustomer filters payments to a single customer by normalized name,
// preserving input order.
func ForCustomer(customerName string, payments []domain.PaymentRecord) []domain.PaymentRecord {
	name := normalize.Normalize(customerName)
	if name == "" {
		return nil
	}

	out := make([]domain.PaymentRecord, 0, 4)
	for _, p := range payments {
		if normalize.Normalize(p.CustomerName) == name {
			out = append(out, p)
		}
	}
	return out
}

func matchMemo(wanted string, candidates []domain.PaymentRecord) *domain.PaymentRecord {
	target := normalize.Normalize(wanted)
	if target == "" {
		return nil
	}

	for i := range candidates {
		if normalize.Normalize(candidates[i].Memo) == target {
			return &candidates[i]
		}
	}
	for i := range candidates {
		if normalize.FuzzyContains(candidates[i].Memo, wanted) {
			return &candidates[i]
		}
	}
	return nil
}
