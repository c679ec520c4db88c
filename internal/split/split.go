// Package split computes the four-way stakeholder revenue split.
package split

import (
	"github.com/studioledger/studioledger/internal/money"
	rulesdomain "github.com/studioledger/studioledger/internal/rules/domain"
)

// Percentages is a stakeholder split in percent. No normalization is applied
// when the values do not sum to 100; rule data is trusted as-is.
type Percentages struct {
	Coach      float64
	Facility   float64
	Management float64
	Retained   float64
}

// Amounts is the result of splitting a price, each rounded to 2 decimals.
type Amounts struct {
	Coach      float64
	Facility   float64
	Management float64
	Retained   float64
}

// Split applies the percentages to a price.
func Split(price float64, pct Percentages) Amounts {
	return Amounts{
		Coach:      money.Round2(price * pct.Coach / 100),
		Facility:   money.Round2(price * pct.Facility / 100),
		Management: money.Round2(price * pct.Management / 100),
		Retained:   money.Round2(price * pct.Retained / 100),
	}
}

// FromRule returns the rule's configured split, or ok=false when the rule
// carries none and the caller should use session-type defaults.
func FromRule(rule rulesdomain.PricingRule) (Percentages, bool) {
	if !rule.HasSplitPercentages() {
		return Percentages{}, false
	}
	return Percentages{
		Coach:      rule.CoachPercentage,
		Facility:   rule.FacilityPercentage,
		Management: rule.ManagementPercentage,
		Retained:   rule.RetainedPercentage,
	}, true
}
