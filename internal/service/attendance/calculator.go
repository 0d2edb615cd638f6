package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/rule"
	"github.com/shopspring/decimal"
)

var sixty = decimal.NewFromInt(60)

// CalculateDeduction prices lateMinutes under r. A nil rule or non-positive late minutes
// cost nothing. The rule's own grace is subtracted before the rate applies and the
// result is capped by the rule's daily maximum.
func CalculateDeduction(lateMinutes int, r *rule.DeductionRule) (decimal.Decimal, error) {
	if r == nil || lateMinutes <= 0 {
		return decimal.Zero, nil
	}

	deductible := lateMinutes - r.GracePeriodMinutes
	if deductible <= 0 {
		return decimal.Zero, nil
	}

	var amount decimal.Decimal
	switch r.Type {
	case rule.RateTypePerMinute:
		amount = r.Rate.Mul(decimal.NewFromInt(int64(deductible)))
	case rule.RateTypePerHour:
		// Any started hour is charged in full.
		hours := (deductible + 59) / 60
		amount = r.Rate.Mul(decimal.NewFromInt(int64(hours)))
	case rule.RateTypeFixedAmount:
		amount = r.Rate
	default:
		return decimal.Zero, fmt.Errorf("deduction rule %s: %w: %q", r.ID, rule.ErrUnknownRateType, r.Type)
	}

	if r.MaxDeductionPerDay != nil && amount.GreaterThan(*r.MaxDeductionPerDay) {
		amount = *r.MaxDeductionPerDay
	}
	return amount.Round(2), nil
}

// CalculateOvertimeBonus prices overtimeMinutes under r. Nothing is paid below the
// rule's minimum, so a fixed_amount rule with a zero minimum pays on every clock-out.
// There is no cap.
func CalculateOvertimeBonus(overtimeMinutes int, r *rule.OvertimeRule) (decimal.Decimal, error) {
	if r == nil || overtimeMinutes < r.MinimumOvertimeMinutes {
		return decimal.Zero, nil
	}

	minutes := decimal.NewFromInt(int64(overtimeMinutes))
	var amount decimal.Decimal
	switch r.Type {
	case rule.RateTypePerMinute:
		amount = r.Rate.Mul(minutes)
	case rule.RateTypePerHour:
		amount = r.Rate.Mul(minutes).Div(sixty)
	case rule.RateTypeFixedAmount:
		amount = r.Rate
	default:
		return decimal.Zero, fmt.Errorf("overtime rule %s: %w: %q", r.ID, rule.ErrUnknownRateType, r.Type)
	}
	return amount.Round(2), nil
}

// HoursWorked is the elapsed time between clock-in and clock-out in hours, 2 dp.
func HoursWorked(clockIn, clockOut time.Time) decimal.Decimal {
	d := clockOut.Sub(clockIn)
	if d <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(d / time.Second)).Div(decimal.NewFromInt(3600)).Round(2)
}
