package rule

import "errors"

var (
	ErrRuleNotFound        = errors.New("rule not found")
	ErrRuleAlreadyInactive = errors.New("rule is already inactive")
	ErrUnknownRateType     = errors.New("unknown rate type")
)
