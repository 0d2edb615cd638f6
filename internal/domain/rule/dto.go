package rule

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateDeductionRuleRequest struct {
	Name               string           `json:"rule_name" validate:"required,max=100"`
	Type               string           `json:"deduction_type" validate:"required,oneof=per_minute per_hour fixed_amount"`
	Rate               decimal.Decimal  `json:"deduction_amount"`
	GracePeriodMinutes int              `json:"grace_period_minutes" validate:"min=0,max=240"`
	MaxDeductionPerDay *decimal.Decimal `json:"max_deduction_per_day,omitempty"`
	EffectiveFrom      string           `json:"effective_from" validate:"required,datetime=2006-01-02"`
	EffectiveTo        *string          `json:"effective_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (r *CreateDeductionRuleRequest) Validate() error {
	errs := validator.Struct(r)

	if r.Rate.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "deduction_amount", Message: "must be non-negative"})
	}
	if r.MaxDeductionPerDay != nil && r.MaxDeductionPerDay.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "max_deduction_per_day", Message: "must be non-negative"})
	}
	errs = append(errs, validateWindow(r.EffectiveFrom, r.EffectiveTo)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *CreateDeductionRuleRequest) Window() Window {
	return parseWindow(r.EffectiveFrom, r.EffectiveTo)
}

type CreateOvertimeRuleRequest struct {
	Name                   string          `json:"rule_name" validate:"required,max=100"`
	Type                   string          `json:"overtime_type" validate:"required,oneof=per_minute per_hour fixed_amount"`
	Rate                   decimal.Decimal `json:"overtime_rate"`
	MinimumOvertimeMinutes *int            `json:"minimum_overtime_minutes,omitempty" validate:"omitempty,min=0,max=720"`
	EffectiveFrom          string          `json:"effective_from" validate:"required,datetime=2006-01-02"`
	EffectiveTo            *string         `json:"effective_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (r *CreateOvertimeRuleRequest) Validate() error {
	errs := validator.Struct(r)

	if r.Rate.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "overtime_rate", Message: "must be non-negative"})
	}
	errs = append(errs, validateWindow(r.EffectiveFrom, r.EffectiveTo)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *CreateOvertimeRuleRequest) Window() Window {
	return parseWindow(r.EffectiveFrom, r.EffectiveTo)
}

func validateWindow(from string, to *string) validator.ValidationErrors {
	start, ok := validator.IsValidDate(from)
	if !ok || to == nil {
		return nil
	}
	end, ok := validator.IsValidDate(*to)
	if ok && end.Before(start) {
		return validator.ValidationErrors{{Field: "effective_to", Message: "must not be before effective_from"}}
	}
	return nil
}

func parseWindow(from string, to *string) Window {
	w := Window{}
	w.From, _ = time.Parse("2006-01-02", from)
	if to != nil {
		if end, err := time.Parse("2006-01-02", *to); err == nil {
			w.To = &end
		}
	}
	return w
}

type RuleFilter struct {
	ActiveOnly bool
	// Date restricts results to rules in force on that date (YYYY-MM-DD).
	Date *string
}

func (f *RuleFilter) Validate() error {
	if f.Date != nil {
		if _, ok := validator.IsValidDate(*f.Date); !ok {
			return validator.ValidationErrors{{Field: "date", Message: "must be in YYYY-MM-DD format"}}
		}
	}
	return nil
}
