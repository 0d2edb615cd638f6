package rule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/cache"
	"github.com/google/uuid"
)

const (
	cacheKeyPrefix         = "rule:"
	generationKeyPrefix    = "rule-generation:"
	initialCacheGeneration = "0"
)

type RuleServiceImpl struct {
	ruleRepo rule.RuleRepository
	cache    cache.Cache
	ttl      time.Duration
	logger   *slog.Logger
}

func NewRuleService(ruleRepo rule.RuleRepository, c cache.Cache, ttl time.Duration, logger *slog.Logger) rule.RuleService {
	if c == nil {
		c = cache.NoopCache{}
	}
	return &RuleServiceImpl{
		ruleRepo: ruleRepo,
		cache:    c,
		ttl:      ttl,
		logger:   logger,
	}
}

func categoryPrefix(category rule.Category) string {
	return cacheKeyPrefix + string(category) + ":"
}

func cacheKey(category rule.Category, generation string, date time.Time) string {
	return categoryPrefix(category) + generation + ":" + date.Format("2006-01-02")
}

// generation reads the category's current cache generation. Every rule write moves it
// forward, so an entry written from a read that started before the write lands under a
// key nobody asks for again.
func (s *RuleServiceImpl) generation(ctx context.Context, category rule.Category) (string, error) {
	b, err := s.cache.Get(ctx, generationKeyPrefix+string(category))
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		return initialCacheGeneration, nil
	case err != nil:
		return "", err
	}
	return string(b), nil
}

// resolveCached serves find's result from the cache when present. A cached JSON null
// records that no rule applied, so misses are cached too. Cache faults fall through to
// the repository.
func resolveCached[T any](ctx context.Context, s *RuleServiceImpl, category rule.Category, date time.Time, find func(context.Context, time.Time) (*T, error)) (*T, error) {
	// The generation is read before the repository so a write that commits in between
	// leaves this read's entry behind the new generation.
	gen, err := s.generation(ctx, category)
	if err != nil {
		s.logger.WarnContext(ctx, "rule cache generation read failed", "category", category, "error", err)
	}
	cacheable := err == nil
	key := cacheKey(category, gen, date)

	if cacheable {
		b, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var cached *T
			if jsonErr := json.Unmarshal(b, &cached); jsonErr == nil {
				return cached, nil
			}
			s.logger.WarnContext(ctx, "discarding unreadable rule cache entry", "key", key)
		case !errors.Is(err, cache.ErrCacheMiss):
			s.logger.WarnContext(ctx, "rule cache read failed", "key", key, "error", err)
		}
	}

	found, err := find(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("find %s rule for %s: %w", category, date.Format("2006-01-02"), err)
	}

	if !cacheable {
		return found, nil
	}
	if b, err := json.Marshal(found); err == nil {
		if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
			s.logger.WarnContext(ctx, "rule cache write failed", "key", key, "error", err)
		}
	}
	return found, nil
}

// invalidate moves the category to a new generation, then drops the old entries.
func (s *RuleServiceImpl) invalidate(ctx context.Context, category rule.Category) {
	next := uuid.Must(uuid.NewV7()).String()
	if err := s.cache.Set(ctx, generationKeyPrefix+string(category), []byte(next), 0); err != nil {
		s.logger.ErrorContext(ctx, "rule cache generation bump failed", "category", category, "error", err)
	}
	if err := s.cache.DeletePrefix(ctx, categoryPrefix(category)); err != nil {
		s.logger.ErrorContext(ctx, "rule cache invalidation failed", "category", category, "error", err)
	}
}

// ========== DEDUCTION RULES ==========

func (s *RuleServiceImpl) ResolveDeductionRule(ctx context.Context, date time.Time) (*rule.DeductionRule, error) {
	return resolveCached(ctx, s, rule.CategoryDeduction, date, s.ruleRepo.FindDeductionRule)
}

func (s *RuleServiceImpl) CreateDeductionRule(ctx context.Context, act actor.Actor, req rule.CreateDeductionRuleRequest) (rule.DeductionRule, error) {
	if !act.IsAdmin() {
		return rule.DeductionRule{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return rule.DeductionRule{}, err
	}

	w := req.Window()
	overlapping, err := s.ruleRepo.CountOverlappingDeductionRules(ctx, w)
	if err != nil {
		return rule.DeductionRule{}, fmt.Errorf("check overlapping deduction rules: %w", err)
	}
	if overlapping > 0 {
		s.logger.WarnContext(ctx, "deduction rule overlaps active rules; newest wins",
			"overlapping", overlapping, "effective_from", req.EffectiveFrom)
	}

	created, err := s.ruleRepo.CreateDeductionRule(ctx, rule.DeductionRule{
		ID:                 uuid.Must(uuid.NewV7()).String(),
		Name:               req.Name,
		Type:               rule.RateType(req.Type),
		Rate:               req.Rate,
		GracePeriodMinutes: req.GracePeriodMinutes,
		MaxDeductionPerDay: req.MaxDeductionPerDay,
		EffectiveFrom:      w.From,
		EffectiveTo:        w.To,
		IsActive:           true,
		CreatedBy:          &act.UserID,
	})
	if err != nil {
		return rule.DeductionRule{}, err
	}
	s.invalidate(ctx, rule.CategoryDeduction)

	s.logger.InfoContext(ctx, "deduction rule created",
		"rule_id", created.ID, "type", created.Type, "actor", act.UserID, "request_id", act.RequestID)
	return created, nil
}

func (s *RuleServiceImpl) ListDeductionRules(ctx context.Context, filter rule.RuleFilter) ([]rule.DeductionRule, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.ruleRepo.ListDeductionRules(ctx, filter)
}

func (s *RuleServiceImpl) DeactivateDeductionRule(ctx context.Context, act actor.Actor, id string) error {
	if !act.IsAdmin() {
		return actor.ErrForbidden
	}
	existing, err := s.ruleRepo.GetDeductionRuleByID(ctx, id)
	if err != nil {
		return err
	}
	if !existing.IsActive {
		return rule.ErrRuleAlreadyInactive
	}
	if err := s.ruleRepo.DeactivateDeductionRule(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, rule.CategoryDeduction)

	s.logger.InfoContext(ctx, "deduction rule deactivated", "rule_id", id, "actor", act.UserID, "request_id", act.RequestID)
	return nil
}

// ========== OVERTIME RULES ==========

func (s *RuleServiceImpl) ResolveOvertimeRule(ctx context.Context, date time.Time) (*rule.OvertimeRule, error) {
	return resolveCached(ctx, s, rule.CategoryOvertime, date, s.ruleRepo.FindOvertimeRule)
}

func (s *RuleServiceImpl) CreateOvertimeRule(ctx context.Context, act actor.Actor, req rule.CreateOvertimeRuleRequest) (rule.OvertimeRule, error) {
	if !act.IsAdmin() {
		return rule.OvertimeRule{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return rule.OvertimeRule{}, err
	}

	w := req.Window()
	overlapping, err := s.ruleRepo.CountOverlappingOvertimeRules(ctx, w)
	if err != nil {
		return rule.OvertimeRule{}, fmt.Errorf("check overlapping overtime rules: %w", err)
	}
	if overlapping > 0 {
		s.logger.WarnContext(ctx, "overtime rule overlaps active rules; newest wins",
			"overlapping", overlapping, "effective_from", req.EffectiveFrom)
	}

	minimum := rule.DefaultMinimumOvertimeMinutes
	if req.MinimumOvertimeMinutes != nil {
		minimum = *req.MinimumOvertimeMinutes
	}

	created, err := s.ruleRepo.CreateOvertimeRule(ctx, rule.OvertimeRule{
		ID:                     uuid.Must(uuid.NewV7()).String(),
		Name:                   req.Name,
		Type:                   rule.RateType(req.Type),
		Rate:                   req.Rate,
		MinimumOvertimeMinutes: minimum,
		EffectiveFrom:          w.From,
		EffectiveTo:            w.To,
		IsActive:               true,
		CreatedBy:              &act.UserID,
	})
	if err != nil {
		return rule.OvertimeRule{}, err
	}
	s.invalidate(ctx, rule.CategoryOvertime)

	s.logger.InfoContext(ctx, "overtime rule created",
		"rule_id", created.ID, "type", created.Type, "actor", act.UserID, "request_id", act.RequestID)
	return created, nil
}

func (s *RuleServiceImpl) ListOvertimeRules(ctx context.Context, filter rule.RuleFilter) ([]rule.OvertimeRule, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.ruleRepo.ListOvertimeRules(ctx, filter)
}

func (s *RuleServiceImpl) DeactivateOvertimeRule(ctx context.Context, act actor.Actor, id string) error {
	if !act.IsAdmin() {
		return actor.ErrForbidden
	}
	existing, err := s.ruleRepo.GetOvertimeRuleByID(ctx, id)
	if err != nil {
		return err
	}
	if !existing.IsActive {
		return rule.ErrRuleAlreadyInactive
	}
	if err := s.ruleRepo.DeactivateOvertimeRule(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, rule.CategoryOvertime)

	s.logger.InfoContext(ctx, "overtime rule deactivated", "rule_id", id, "actor", act.UserID, "request_id", act.RequestID)
	return nil
}
