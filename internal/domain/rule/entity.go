package rule

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateType selects how a rule's rate is applied to a minute count.
type RateType string

const (
	RateTypePerMinute   RateType = "per_minute"
	RateTypePerHour     RateType = "per_hour"
	RateTypeFixedAmount RateType = "fixed_amount"
)

var RateTypeValues = []string{
	string(RateTypePerMinute),
	string(RateTypePerHour),
	string(RateTypeFixedAmount),
}

func (t RateType) Valid() bool {
	switch t {
	case RateTypePerMinute, RateTypePerHour, RateTypeFixedAmount:
		return true
	}
	return false
}

type Category string

const (
	CategoryDeduction Category = "deduction"
	CategoryOvertime  Category = "overtime"
)

const DefaultMinimumOvertimeMinutes = 30

// DeductionRule prices late arrival. GracePeriodMinutes is subtracted from the late
// minutes before the rate applies; it is separate from the schedule's grace window.
type DeductionRule struct {
	ID                 string           `json:"id"`
	Name               string           `json:"rule_name"`
	Type               RateType         `json:"deduction_type"`
	Rate               decimal.Decimal  `json:"deduction_amount"`
	GracePeriodMinutes int              `json:"grace_period_minutes"`
	MaxDeductionPerDay *decimal.Decimal `json:"max_deduction_per_day,omitempty"`
	EffectiveFrom      time.Time        `json:"effective_from"`
	EffectiveTo        *time.Time       `json:"effective_to,omitempty"`
	IsActive           bool             `json:"is_active"`
	CreatedBy          *string          `json:"created_by,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// OvertimeRule prices work after the scheduled end.
type OvertimeRule struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"rule_name"`
	Type                   RateType        `json:"overtime_type"`
	Rate                   decimal.Decimal `json:"overtime_rate"`
	MinimumOvertimeMinutes int             `json:"minimum_overtime_minutes"`
	EffectiveFrom          time.Time       `json:"effective_from"`
	EffectiveTo            *time.Time      `json:"effective_to,omitempty"`
	IsActive               bool            `json:"is_active"`
	CreatedBy              *string         `json:"created_by,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// Window is an effective date range; a nil To is open-ended.
type Window struct {
	From time.Time
	To   *time.Time
}

func (w Window) Overlaps(o Window) bool {
	if w.To != nil && w.To.Before(o.From) {
		return false
	}
	if o.To != nil && o.To.Before(w.From) {
		return false
	}
	return true
}
