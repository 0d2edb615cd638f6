package rule

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
)

// Resolver returns the rule in force on a date. A nil rule with a nil error means no
// rule applies and the amount is zero.
type Resolver interface {
	ResolveDeductionRule(ctx context.Context, date time.Time) (*DeductionRule, error)
	ResolveOvertimeRule(ctx context.Context, date time.Time) (*OvertimeRule, error)
}

type RuleService interface {
	Resolver

	CreateDeductionRule(ctx context.Context, act actor.Actor, req CreateDeductionRuleRequest) (DeductionRule, error)
	ListDeductionRules(ctx context.Context, filter RuleFilter) ([]DeductionRule, error)
	DeactivateDeductionRule(ctx context.Context, act actor.Actor, id string) error

	CreateOvertimeRule(ctx context.Context, act actor.Actor, req CreateOvertimeRuleRequest) (OvertimeRule, error)
	ListOvertimeRules(ctx context.Context, filter RuleFilter) ([]OvertimeRule, error)
	DeactivateOvertimeRule(ctx context.Context, act actor.Actor, id string) error
}
