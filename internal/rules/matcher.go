// Package rules finds the pricing rule governing a membership name.
package rules

import (
	"github.com/studioledger/studioledger/internal/normalize"
	"github.com/studioledger/studioledger/internal/rules/domain"
)

// Match returns the pricing rule governing membershipName, or nil.
//
// Precedence, first hit wins:
//  1. attendance alias, restricted to the record's session type
//  2. package name, restricted to the record's session type
//  3. attendance alias, any session type
//  4. package name, any session type
//
// Ties break by input rule order; the first matching rule wins.
func Match(membershipName string, sessionType domain.SessionType, rules []domain.PricingRule) *domain.PricingRule {
	name := normalize.Normalize(membershipName)
	if name == "" {
		return nil
	}

	if rule := matchBy(name, rules, aliasField, sessionType); rule != nil {
		return rule
	}
	if rule := matchBy(name, rules, packageField, sessionType); rule != nil {
		return rule
	}
	if rule := matchBy(name, rules, aliasField, domain.SessionTypeAny); rule != nil {
		return rule
	}
	return matchBy(name, rules, packageField, domain.SessionTypeAny)
}

// MatchByAlias finds a rule whose attendance alias matches membershipName,
// ignoring session type. The payment matcher uses this to resolve a rule's
// payment-memo alias.
func MatchByAlias(membershipName string, rules []domain.PricingRule) *domain.PricingRule {
	name := normalize.Normalize(membershipName)
	if name == "" {
		return nil
	}
	return matchBy(name, rules, aliasField, domain.SessionTypeAny)
}

type fieldFn func(domain.PricingRule) string

func aliasField(r domain.PricingRule) string   { return r.AttendanceAlias }
func packageField(r domain.PricingRule) string { return r.PackageName }

func matchBy(name string, rules []domain.PricingRule, field fieldFn, sessionType domain.SessionType) *domain.PricingRule {
	for i := range rules {
		if sessionType != domain.SessionTypeAny && rules[i].SessionType != sessionType {
			continue
		}
		if candidate := normalize.Normalize(field(rules[i])); candidate != "" && candidate == name {
			return &rules[i]
		}
	}
	return nil
}
