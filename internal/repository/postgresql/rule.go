package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type ruleRepository struct {
	db *database.DB
}

func NewRuleRepository(db *database.DB) rule.RuleRepository {
	return &ruleRepository{db: db}
}

// ruleWhere builds the shared filter for both rule tables.
func ruleWhere(filter rule.RuleFilter) (string, []any) {
	where := "1=1"
	var args []any
	argIdx := 1

	if filter.ActiveOnly {
		where += " AND is_active = TRUE"
	}
	if filter.Date != nil && *filter.Date != "" {
		where += fmt.Sprintf(" AND effective_from <= $%d::date AND (effective_to IS NULL OR effective_to >= $%d::date)", argIdx, argIdx)
		args = append(args, *filter.Date)
	}
	return where, args
}

// ========== DEDUCTION RULES ==========

const deductionRuleColumns = `
	id, rule_name, deduction_type, deduction_amount, grace_period_minutes,
	max_deduction_per_day, effective_from, effective_to, is_active, created_by,
	created_at, updated_at`

func scanDeductionRule(row pgx.Row) (rule.DeductionRule, error) {
	var r rule.DeductionRule
	err := row.Scan(
		&r.ID, &r.Name, &r.Type, &r.Rate, &r.GracePeriodMinutes,
		&r.MaxDeductionPerDay, &r.EffectiveFrom, &r.EffectiveTo, &r.IsActive, &r.CreatedBy,
		&r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// CreateDeductionRule implements rule.RuleRepository.
func (repo *ruleRepository) CreateDeductionRule(ctx context.Context, r rule.DeductionRule) (rule.DeductionRule, error) {
	q := GetQuerier(ctx, repo.db)

	query := `
		INSERT INTO salary_deduction_rules (
			id, rule_name, deduction_type, deduction_amount, grace_period_minutes,
			max_deduction_per_day, effective_from, effective_to, is_active, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		r.ID, r.Name, r.Type, r.Rate, r.GracePeriodMinutes,
		r.MaxDeductionPerDay, r.EffectiveFrom, r.EffectiveTo, r.IsActive, r.CreatedBy,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return rule.DeductionRule{}, fmt.Errorf("failed to create deduction rule: %w", err)
	}
	return r, nil
}

// GetDeductionRuleByID implements rule.RuleRepository.
func (repo *ruleRepository) GetDeductionRuleByID(ctx context.Context, id string) (rule.DeductionRule, error) {
	q := GetQuerier(ctx, repo.db)

	query := `SELECT ` + deductionRuleColumns + ` FROM salary_deduction_rules WHERE id = $1`

	r, err := scanDeductionRule(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rule.DeductionRule{}, rule.ErrRuleNotFound
		}
		return rule.DeductionRule{}, fmt.Errorf("failed to get deduction rule: %w", err)
	}
	return r, nil
}

// ListDeductionRules implements rule.RuleRepository.
func (repo *ruleRepository) ListDeductionRules(ctx context.Context, filter rule.RuleFilter) ([]rule.DeductionRule, error) {
	q := GetQuerier(ctx, repo.db)

	where, args := ruleWhere(filter)
	query := `SELECT ` + deductionRuleColumns + ` FROM salary_deduction_rules WHERE ` + where +
		` ORDER BY effective_from DESC, created_at DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deduction rules: %w", err)
	}
	defer rows.Close()

	rules := []rule.DeductionRule{}
	for rows.Next() {
		r, err := scanDeductionRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deduction rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// DeactivateDeductionRule implements rule.RuleRepository.
func (repo *ruleRepository) DeactivateDeductionRule(ctx context.Context, id string) error {
	q := GetQuerier(ctx, repo.db)

	query := `UPDATE salary_deduction_rules SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`

	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate deduction rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rule.ErrRuleAlreadyInactive
	}
	return nil
}

// FindDeductionRule implements rule.RuleRepository. Ids are UUIDv7, so the most recently
// created rule wins when active rules overlap.
func (repo *ruleRepository) FindDeductionRule(ctx context.Context, date time.Time) (*rule.DeductionRule, error) {
	q := GetQuerier(ctx, repo.db)

	query := `
		SELECT ` + deductionRuleColumns + `
		FROM salary_deduction_rules
		WHERE is_active
		  AND effective_from <= $1
		  AND (effective_to IS NULL OR effective_to >= $1)
		ORDER BY id DESC
		LIMIT 1
	`

	r, err := scanDeductionRule(q.QueryRow(ctx, query, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find deduction rule: %w", err)
	}
	return &r, nil
}

// CountOverlappingDeductionRules implements rule.RuleRepository.
func (repo *ruleRepository) CountOverlappingDeductionRules(ctx context.Context, w rule.Window) (int, error) {
	return repo.countOverlapping(ctx, "salary_deduction_rules", w)
}

// ========== OVERTIME RULES ==========

const overtimeRuleColumns = `
	id, rule_name, overtime_type, overtime_rate, minimum_overtime_minutes,
	effective_from, effective_to, is_active, created_by, created_at, updated_at`

func scanOvertimeRule(row pgx.Row) (rule.OvertimeRule, error) {
	var r rule.OvertimeRule
	err := row.Scan(
		&r.ID, &r.Name, &r.Type, &r.Rate, &r.MinimumOvertimeMinutes,
		&r.EffectiveFrom, &r.EffectiveTo, &r.IsActive, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// CreateOvertimeRule implements rule.RuleRepository.
func (repo *ruleRepository) CreateOvertimeRule(ctx context.Context, r rule.OvertimeRule) (rule.OvertimeRule, error) {
	q := GetQuerier(ctx, repo.db)

	query := `
		INSERT INTO overtime_rules (
			id, rule_name, overtime_type, overtime_rate, minimum_overtime_minutes,
			effective_from, effective_to, is_active, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		r.ID, r.Name, r.Type, r.Rate, r.MinimumOvertimeMinutes,
		r.EffectiveFrom, r.EffectiveTo, r.IsActive, r.CreatedBy,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return rule.OvertimeRule{}, fmt.Errorf("failed to create overtime rule: %w", err)
	}
	return r, nil
}

// GetOvertimeRuleByID implements rule.RuleRepository.
func (repo *ruleRepository) GetOvertimeRuleByID(ctx context.Context, id string) (rule.OvertimeRule, error) {
	q := GetQuerier(ctx, repo.db)

	query := `SELECT ` + overtimeRuleColumns + ` FROM overtime_rules WHERE id = $1`

	r, err := scanOvertimeRule(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rule.OvertimeRule{}, rule.ErrRuleNotFound
		}
		return rule.OvertimeRule{}, fmt.Errorf("failed to get overtime rule: %w", err)
	}
	return r, nil
}

// ListOvertimeRules implements rule.RuleRepository.
func (repo *ruleRepository) ListOvertimeRules(ctx context.Context, filter rule.RuleFilter) ([]rule.OvertimeRule, error) {
	q := GetQuerier(ctx, repo.db)

	where, args := ruleWhere(filter)
	query := `SELECT ` + overtimeRuleColumns + ` FROM overtime_rules WHERE ` + where +
		` ORDER BY effective_from DESC, created_at DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list overtime rules: %w", err)
	}
	defer rows.Close()

	rules := []rule.OvertimeRule{}
	for rows.Next() {
		r, err := scanOvertimeRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan overtime rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// DeactivateOvertimeRule implements rule.RuleRepository.
func (repo *ruleRepository) DeactivateOvertimeRule(ctx context.Context, id string) error {
	q := GetQuerier(ctx, repo.db)

	query := `UPDATE overtime_rules SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`

	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate overtime rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rule.ErrRuleAlreadyInactive
	}
	return nil
}

// FindOvertimeRule implements rule.RuleRepository.
func (repo *ruleRepository) FindOvertimeRule(ctx context.Context, date time.Time) (*rule.OvertimeRule, error) {
	q := GetQuerier(ctx, repo.db)

	query := `
		SELECT ` + overtimeRuleColumns + `
		FROM overtime_rules
		WHERE is_active
		  AND effective_from <= $1
		  AND (effective_to IS NULL OR effective_to >= $1)
		ORDER BY id DESC
		LIMIT 1
	`

	r, err := scanOvertimeRule(q.QueryRow(ctx, query, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find overtime rule: %w", err)
	}
	return &r, nil
}

// CountOverlappingOvertimeRules implements rule.RuleRepository.
func (repo *ruleRepository) CountOverlappingOvertimeRules(ctx context.Context, w rule.Window) (int, error) {
	return repo.countOverlapping(ctx, "overtime_rules", w)
}

func (repo *ruleRepository) countOverlapping(ctx context.Context, table string, w rule.Window) (int, error) {
	q := GetQuerier(ctx, repo.db)

	query := `
		SELECT COUNT(*)
		FROM ` + table + `
		WHERE is_active
		  AND (effective_to IS NULL OR effective_to >= $1)
		  AND ($2::date IS NULL OR effective_from <= $2::date)
	`

	var count int
	if err := q.QueryRow(ctx, query, w.From, w.To).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count overlapping rules in %s: %w", table, err)
	}
	return count, nil
}
