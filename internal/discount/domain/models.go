// Package domain contains discount rule reference data.
package domain

// MatchType describes how a discount rule was configured to match memos.
type MatchType string

const (
	MatchTypeExact    MatchType = "exact"
	MatchTypeContains MatchType = "contains"
	MatchTypeRegex    MatchType = "regex"
)

// CoachPaymentType states how the coach is paid for a discounted session.
type CoachPaymentType string

const (
	CoachPaymentFull    CoachPaymentType = "full"
	CoachPaymentPartial CoachPaymentType = "partial"
	CoachPaymentFree    CoachPaymentType = "free"
)

// DiscountRule is read-only reference data. Only active rules participate in
// memo matching.
type DiscountRule struct {
	Name                 string
	DiscountCode         string
	ApplicablePercentage float64
	CoachPaymentType     CoachPaymentType
	MatchType            MatchType
	Active               bool
}
