package rule

import (
	"context"
	"time"
)

type RuleRepository interface {
	// Deduction rules
	CreateDeductionRule(ctx context.Context, r DeductionRule) (DeductionRule, error)
	GetDeductionRuleByID(ctx context.Context, id string) (DeductionRule, error)
	ListDeductionRules(ctx context.Context, filter RuleFilter) ([]DeductionRule, error)
	DeactivateDeductionRule(ctx context.Context, id string) error
	// FindDeductionRule returns the rule in force on date or nil.
	FindDeductionRule(ctx context.Context, date time.Time) (*DeductionRule, error)
	CountOverlappingDeductionRules(ctx context.Context, w Window) (int, error)

	// Overtime rules
	CreateOvertimeRule(ctx context.Context, r OvertimeRule) (OvertimeRule, error)
	GetOvertimeRuleByID(ctx context.Context, id string) (OvertimeRule, error)
	ListOvertimeRules(ctx context.Context, filter RuleFilter) ([]OvertimeRule, error)
	DeactivateOvertimeRule(ctx context.Context, id string) error
	FindOvertimeRule(ctx context.Context, date time.Time) (*OvertimeRule, error)
	CountOverlappingOvertimeRules(ctx context.Context, w Window) (int, error)
}
