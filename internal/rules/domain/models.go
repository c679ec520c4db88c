// Package domain contains pricing rule reference data and the session-type
// classification shared across the matchers and the revenue splitter.
package domain

import "strings"

// SessionType classifies a class booking as group or private. Pricing rules
// can be restricted to one session type; a rule with SessionTypeAny applies
// regardless.
type SessionType string

const (
	SessionTypeGroup   SessionType = "group"
	SessionTypePrivate SessionType = "private"
	SessionTypeAny     SessionType = ""
)

// ClassifySessionType derives the session type from an offering-type string.
// Anything that looks like a one-on-one offering is private; everything else
// is group.
func ClassifySessionType(offeringType string) SessionType {
	value := strings.ToLower(strings.TrimSpace(offeringType))
	switch {
	case strings.Contains(value, "private"),
		strings.Contains(value, "1 on 1"),
		strings.Contains(value, "1-on-1"),
		strings.Contains(value, "one on one"),
		strings.Contains(value, "appointment"):
		return SessionTypePrivate
	default:
		return SessionTypeGroup
	}
}

// PricingRule is read-only reference data governing how a membership or
// package is priced and split. Percentages are plain numbers (43.5 means
// 43.5%); they are trusted as-is and not re-normalized at match time.
type PricingRule struct {
	ID                   string
	RuleName             string
	PackageName          string
	AttendanceAlias      string
	PaymentMemoAlias     string
	SessionType          SessionType
	Price                float64
	SessionsPerPackage   int
	UnitPrice            float64
	CoachPercentage      float64
	FacilityPercentage   float64
	ManagementPercentage float64
	RetainedPercentage   float64
}

// EffectiveUnitPrice returns the stored unit price, deriving it from the
// package price when absent.
func (r PricingRule) EffectiveUnitPrice() float64 {
	if r.UnitPrice > 0 {
		return r.UnitPrice
	}
	if r.SessionsPerPackage > 0 {
		return r.Price / float64(r.SessionsPerPackage)
	}
	return r.Price
}

// HasSplitPercentages reports whether the rule carries its own stakeholder
// split; rules without one fall back to session-type defaults.
func (r PricingRule) HasSplitPercentages() bool {
	return r.CoachPercentage > 0 || r.FacilityPercentage > 0 ||
		r.ManagementPercentage > 0 || r.RetainedPercentage > 0
}
