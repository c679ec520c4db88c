package store

import (
	"encoding/json"
	"strconv"
	"strings"

	attendancedomain "github.com/studioledger/studioledger/internal/attendance/domain"
	discountdomain "github.com/studioledger/studioledger/internal/discount/domain"
	paymentdomain "github.com/studioledger/studioledger/internal/payment/domain"
	rulesdomain "github.com/studioledger/studioledger/internal/rules/domain"
)

// parseAmount reads a money or numeric column, tolerating currency symbols,
// thousands separators and surrounding whitespace. Unparseable values are 0.
func parseAmount(s string) float64 {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// parsePercent reads a percentage column, stripping a trailing "%" when
// present. "43.5%" and "43.5" both yield 43.5.
func parsePercent(s string) float64 {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimSuffix(cleaned, "%")
	return parseAmount(cleaned)
}

// parseCount reads an integer column; fractional values are truncated.
func parseCount(s string) int {
	return int(parseAmount(s))
}

// parseActive accepts the boolean spellings seen in the upstream exports.
// Unknown values are inactive.
func parseActive(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "active":
		return true
	default:
		return false
	}
}

// parseSessionType maps the rule column to a session-type restriction. Blank
// and "any"/"all" mean unrestricted.
func parseSessionType(s string) rulesdomain.SessionType {
	value := strings.ToLower(strings.TrimSpace(s))
	switch {
	case value == "" || value == "any" || value == "all":
		return rulesdomain.SessionTypeAny
	case strings.Contains(value, "private"):
		return rulesdomain.SessionTypePrivate
	default:
		return rulesdomain.SessionTypeGroup
	}
}

// instructorsText flattens the JSON instructor list into the comma-joined
// form the ledger rows carry. Non-array payloads are kept verbatim.
func instructorsText(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return strings.Join(names, ", ")
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	return string(raw)
}

func (r AttendanceRow) toRecord() attendancedomain.AttendanceRecord {
	return attendancedomain.AttendanceRecord{
		CustomerName:   r.CustomerName,
		EventTimestamp: r.EventTimestamp,
		MembershipName: r.MembershipName,
		OfferingType:   r.OfferingType,
		Instructors:    instructorsText(r.Instructors),
		Status:         r.Status,
		ClassType:      r.ClassType,
	}
}

func (r PaymentRow) toRecord() paymentdomain.PaymentRecord {
	return paymentdomain.PaymentRecord{
		CustomerName:  r.CustomerName,
		Date:          r.Date,
		Memo:          r.Memo,
		Amount:        parseAmount(r.Amount),
		InvoiceNumber: strings.TrimSpace(r.InvoiceNumber),
	}
}

func (r PricingRuleRow) toRule() rulesdomain.PricingRule {
	return rulesdomain.PricingRule{
		ID:                   r.ID.String(),
		RuleName:             r.RuleName,
		PackageName:          r.PackageName,
		AttendanceAlias:      r.AttendanceAlias,
		PaymentMemoAlias:     r.PaymentMemoAlias,
		SessionType:          parseSessionType(r.SessionType),
		Price:                parseAmount(r.Price),
		SessionsPerPackage:   parseCount(r.SessionsPerPackage),
		UnitPrice:            parseAmount(r.UnitPrice),
		CoachPercentage:      parsePercent(r.CoachPercentage),
		FacilityPercentage:   parsePercent(r.FacilityPercentage),
		ManagementPercentage: parsePercent(r.ManagementPercentage),
		RetainedPercentage:   parsePercent(r.RetainedPercentage),
	}
}

func (r DiscountRuleRow) toRule() discountdomain.DiscountRule {
	return discountdomain.DiscountRule{
		Name:                 r.Name,
		DiscountCode:         r.DiscountCode,
		ApplicablePercentage: parsePercent(r.ApplicablePercentage),
		CoachPaymentType:     discountdomain.CoachPaymentType(strings.ToLower(strings.TrimSpace(r.CoachPaymentType))),
		MatchType:            discountdomain.MatchType(strings.ToLower(strings.TrimSpace(r.MatchType))),
		Active:               parseActive(r.Active),
	}
}
