package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

const payrollColumns = `
	p.id, p.employee_id, p.pay_period,
	p.basic_salary, p.allowances, p.overtime_amount, p.gross_salary,
	p.pf_deduction, p.esi_deduction, p.tds_deduction, p.professional_tax,
	p.other_deductions, p.total_deductions, p.net_salary,
	p.working_days, p.present_days, p.absent_days, p.late_days,
	p.total_hours, p.overtime_hours,
	p.status, p.approved_by, p.approved_at, p.notes, p.created_at, p.updated_at,
	e.full_name, e.employee_code`

func scanPayrollRecord(row pgx.Row) (payroll.PayrollRecord, error) {
	var rec payroll.PayrollRecord
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.PayPeriod,
		&rec.BasicSalary, &rec.Allowances, &rec.OvertimeAmount, &rec.GrossSalary,
		&rec.PFDeduction, &rec.ESIDeduction, &rec.TDSDeduction, &rec.ProfessionalTax,
		&rec.OtherDeductions, &rec.TotalDeductions, &rec.NetSalary,
		&rec.WorkingDays, &rec.PresentDays, &rec.AbsentDays, &rec.LateDays,
		&rec.TotalHours, &rec.OvertimeHours,
		&rec.Status, &rec.ApprovedBy, &rec.ApprovedAt, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.EmployeeName, &rec.EmployeeCode,
	)
	return rec, err
}

// ExistsForPeriod implements payroll.PayrollRepository.
func (r *payrollRepository) ExistsForPeriod(ctx context.Context, employeeID string, period time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payroll WHERE employee_id = $1 AND pay_period = $2)`,
		employeeID, period,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check payroll existence: %w", err)
	}
	return exists, nil
}

// Create implements payroll.PayrollRepository.
func (r *payrollRepository) Create(ctx context.Context, rec payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll (
			id, employee_id, pay_period,
			basic_salary, allowances, overtime_amount, gross_salary,
			pf_deduction, esi_deduction, tds_deduction, professional_tax,
			other_deductions, total_deductions, net_salary,
			working_days, present_days, absent_days, late_days,
			total_hours, overtime_hours, status, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
		)
		ON CONFLICT ON CONSTRAINT uk_payroll_employee_period DO NOTHING
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.ID, rec.EmployeeID, rec.PayPeriod,
		rec.BasicSalary, rec.Allowances, rec.OvertimeAmount, rec.GrossSalary,
		rec.PFDeduction, rec.ESIDeduction, rec.TDSDeduction, rec.ProfessionalTax,
		rec.OtherDeductions, rec.TotalDeductions, rec.NetSalary,
		rec.WorkingDays, rec.PresentDays, rec.AbsentDays, rec.LateDays,
		rec.TotalHours, rec.OvertimeHours, rec.Status, rec.Notes,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordAlreadyExists
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to create payroll record: %w", err)
	}
	return rec, nil
}

// GetByID implements payroll.PayrollRepository.
func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + payrollColumns + `
		FROM payroll p
		LEFT JOIN employees e ON e.id = p.employee_id
		WHERE p.id = $1
	`

	rec, err := scanPayrollRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}
	return rec, nil
}

// List implements payroll.PayrollRepository.
func (r *payrollRepository) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "1=1"
	args := []any{}
	argIdx := 1

	if filter.PayPeriod != nil && *filter.PayPeriod != "" {
		period, err := payroll.ParsePeriod(*filter.PayPeriod)
		if err != nil {
			return nil, 0, err
		}
		whereClause += fmt.Sprintf(" AND p.pay_period = $%d", argIdx)
		args = append(args, period)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		whereClause += fmt.Sprintf(" AND p.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		whereClause += fmt.Sprintf(" AND p.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM payroll p WHERE ` + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll records: %w", err)
	}

	sortColumn := "p.pay_period"
	switch filter.SortBy {
	case "net_salary":
		sortColumn = "p.net_salary"
	case "employee_name":
		sortColumn = "e.full_name"
	case "created_at":
		sortColumn = "p.created_at"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM payroll p
		LEFT JOIN employees e ON e.id = p.employee_id
		WHERE %s
		ORDER BY %s %s, p.id
		LIMIT $%d OFFSET $%d
	`, payrollColumns, whereClause, sortColumn, sortOrder, argIdx, argIdx+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.PayrollRecord
	for rows.Next() {
		rec, err := scanPayrollRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payroll records: %w", err)
	}

	return records, total, nil
}

// UpdateDraft implements payroll.PayrollRepository.
func (r *payrollRepository) UpdateDraft(ctx context.Context, rec payroll.PayrollRecord) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll SET
			basic_salary = $2,
			allowances = $3,
			overtime_amount = $4,
			gross_salary = $5,
			pf_deduction = $6,
			esi_deduction = $7,
			tds_deduction = $8,
			professional_tax = $9,
			other_deductions = $10,
			total_deductions = $11,
			net_salary = $12,
			notes = $13,
			updated_at = NOW()
		WHERE id = $1 AND status = 'draft'
	`

	tag, err := q.Exec(ctx, query,
		rec.ID,
		rec.BasicSalary, rec.Allowances, rec.OvertimeAmount, rec.GrossSalary,
		rec.PFDeduction, rec.ESIDeduction, rec.TDSDeduction, rec.ProfessionalTax,
		rec.OtherDeductions, rec.TotalDeductions, rec.NetSalary,
		rec.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update payroll record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayrollRecordAlreadyApproved
	}
	return nil
}

// Approve implements payroll.PayrollRepository.
func (r *payrollRepository) Approve(ctx context.Context, id string, approvedBy string, approvedAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll SET
			status = 'approved',
			approved_by = $2,
			approved_at = $3,
			updated_at = NOW()
		WHERE id = $1 AND status = 'draft'
	`

	tag, err := q.Exec(ctx, query, id, approvedBy, approvedAt)
	if err != nil {
		return fmt.Errorf("failed to approve payroll record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayrollRecordAlreadyApproved
	}
	return nil
}

// GetPeriodTotals implements payroll.PayrollRepository.
func (r *payrollRepository) GetPeriodTotals(ctx context.Context, period time.Time) (payroll.PeriodTotals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(basic_salary), 0),
			COALESCE(SUM(allowances), 0),
			COALESCE(SUM(overtime_amount), 0),
			COALESCE(SUM(gross_salary), 0),
			COALESCE(SUM(total_deductions), 0),
			COALESCE(SUM(net_salary), 0)
		FROM payroll
		WHERE pay_period = $1
	`

	var t payroll.PeriodTotals
	err := q.QueryRow(ctx, query, period).Scan(
		&t.RecordCount, &t.BasicSalary, &t.Allowances, &t.OvertimeAmount,
		&t.GrossSalary, &t.TotalDeductions, &t.NetSalary,
	)
	if err != nil {
		return payroll.PeriodTotals{}, fmt.Errorf("failed to sum payroll period: %w", err)
	}
	return t, nil
}

// CountByStatus implements payroll.PayrollRepository.
func (r *payrollRepository) CountByStatus(ctx context.Context, period time.Time) (map[payroll.PayrollStatus]int, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT status, COUNT(*) FROM payroll WHERE pay_period = $1 GROUP BY status`, period)
	if err != nil {
		return nil, fmt.Errorf("failed to count payroll by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[payroll.PayrollStatus]int)
	for rows.Next() {
		var (
			status payroll.PayrollStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan payroll status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
