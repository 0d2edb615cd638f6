package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	a.id, a.employee_id, a.date, a.clock_in, a.clock_out, a.attendance_type, a.device_id,
	a.late_minutes, a.overtime_minutes, a.salary_deduction, a.overtime_bonus,
	a.scheduled_clock_in::text, a.scheduled_clock_out::text, a.hours_worked,
	a.status, a.notes, a.created_at, a.updated_at`

func scanAttendance(row pgx.Row, extra ...any) (attendance.Attendance, error) {
	var (
		att                       attendance.Attendance
		scheduledIn, scheduledOut *string
	)
	dest := []any{
		&att.ID, &att.EmployeeID, &att.Date, &att.ClockIn, &att.ClockOut, &att.AttendanceType, &att.DeviceID,
		&att.LateMinutes, &att.OvertimeMinutes, &att.SalaryDeduction, &att.OvertimeBonus,
		&scheduledIn, &scheduledOut, &att.HoursWorked,
		&att.Status, &att.Notes, &att.CreatedAt, &att.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return attendance.Attendance{}, err
	}

	var err error
	if att.ScheduledClockIn, err = parseNullableTimeOfDay(scheduledIn); err != nil {
		return attendance.Attendance{}, err
	}
	if att.ScheduledClockOut, err = parseNullableTimeOfDay(scheduledOut); err != nil {
		return attendance.Attendance{}, err
	}
	return att, nil
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepository) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance (
			id, employee_id, date, clock_in, attendance_type, device_id,
			late_minutes, salary_deduction, scheduled_clock_in, scheduled_clock_out,
			status, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9::text::time, $10::text::time, $11, $12
		)
		ON CONFLICT ON CONSTRAINT uk_attendance_employee_date DO NOTHING
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		att.ID,
		att.EmployeeID,
		att.Date,
		att.ClockIn,
		att.AttendanceType,
		att.DeviceID,
		att.LateMinutes,
		att.SalaryDeduction,
		timeOfDayParam(att.ScheduledClockIn),
		timeOfDayParam(att.ScheduledClockOut),
		att.Status,
		att.Notes,
	).Scan(&att.CreatedAt, &att.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAlreadyClockedIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return att, nil
}

// GetByID implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceColumns + `, e.full_name
		FROM attendance a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.id = $1
	`

	var name *string
	att, err := scanAttendance(q.QueryRow(ctx, query, id), &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by id: %w", err)
	}
	att.EmployeeName = name
	return att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance a WHERE a.employee_id = $1 AND a.date = $2`

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}
	return &att, nil
}

// CompleteClockOut implements attendance.AttendanceRepository. The clock_out guard makes
// a concurrent second clock-out lose.
func (r *attendanceRepository) CompleteClockOut(ctx context.Context, att attendance.Attendance) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance SET
			clock_out = $2,
			overtime_minutes = $3,
			overtime_bonus = $4,
			hours_worked = $5,
			notes = COALESCE($6, notes),
			updated_at = NOW()
		WHERE id = $1 AND clock_out IS NULL
	`

	tag, err := q.Exec(ctx, query,
		att.ID,
		att.ClockOut,
		att.OvertimeMinutes,
		att.OvertimeBonus,
		att.HoursWorked,
		att.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to complete clock-out: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAlreadyClockedOut
	}
	return nil
}

// List implements attendance.AttendanceRepository.
func (r *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "1=1"
	args := []any{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND a.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date >= $%d::date", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date <= $%d::date", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND a.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	countQuery := `SELECT COUNT(*) FROM attendance a WHERE ` + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance: %w", err)
	}

	orderByField := "a.date"
	switch filter.SortBy {
	case "clock_in":
		orderByField = "a.clock_in"
	case "status":
		orderByField = "a.status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s, e.full_name
		FROM attendance a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE %s
		ORDER BY %s %s, a.id
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		var name *string
		att, err := scanAttendance(rows, &name)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		att.EmployeeName = name
		records = append(records, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendance: %w", err)
	}

	return records, total, nil
}

// ListByEmployeeAndRange implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance a
		WHERE a.employee_id = $1 AND a.date BETWEEN $2 AND $3
		ORDER BY a.date
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance range: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	return records, rows.Err()
}

// MarkAbsent implements attendance.AttendanceRepository.
func (r *attendanceRepository) MarkAbsent(ctx context.Context, date time.Time, dayOfWeek int) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance (employee_id, date, attendance_type, status, notes)
		SELECT e.id, $1::date, 'manual', 'absent', 'marked absent: no clock-in'
		FROM employees e
		WHERE e.status = 'active'
		  AND EXISTS (
			SELECT 1 FROM work_schedules ws
			WHERE ws.employee_id = e.id
			  AND ws.day_of_week = $2
			  AND ws.effective_from <= $1::date
			  AND (ws.effective_to IS NULL OR ws.effective_to >= $1::date)
		  )
		ON CONFLICT ON CONSTRAINT uk_attendance_employee_date DO NOTHING
	`

	tag, err := q.Exec(ctx, query, date, dayOfWeek)
	if err != nil {
		return 0, fmt.Errorf("failed to mark absences: %w", err)
	}
	return tag.RowsAffected(), nil
}
