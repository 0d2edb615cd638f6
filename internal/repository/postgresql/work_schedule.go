package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type workScheduleRepository struct {
	db *database.DB
}

func NewWorkScheduleRepository(db *database.DB) schedule.WorkScheduleRepository {
	return &workScheduleRepository{db: db}
}

// TIME columns travel as text so they map onto schedule.TimeOfDay without a timezone.
const workScheduleColumns = `
	id, employee_id, day_of_week, start_time::text, end_time::text,
	break_start::text, break_end::text, grace_period_minutes,
	effective_from, effective_to, created_at, updated_at`

func scanWorkSchedule(row pgx.Row) (schedule.WorkSchedule, error) {
	var (
		ws                   schedule.WorkSchedule
		start, end           string
		breakStart, breakEnd *string
	)
	err := row.Scan(
		&ws.ID, &ws.EmployeeID, &ws.DayOfWeek, &start, &end,
		&breakStart, &breakEnd, &ws.GracePeriodMinutes,
		&ws.EffectiveFrom, &ws.EffectiveTo, &ws.CreatedAt, &ws.UpdatedAt,
	)
	if err != nil {
		return schedule.WorkSchedule{}, err
	}

	if ws.StartTime, err = schedule.ParseTimeOfDay(start); err != nil {
		return schedule.WorkSchedule{}, err
	}
	if ws.EndTime, err = schedule.ParseTimeOfDay(end); err != nil {
		return schedule.WorkSchedule{}, err
	}
	if ws.BreakStart, err = parseNullableTimeOfDay(breakStart); err != nil {
		return schedule.WorkSchedule{}, err
	}
	if ws.BreakEnd, err = parseNullableTimeOfDay(breakEnd); err != nil {
		return schedule.WorkSchedule{}, err
	}
	return ws, nil
}

func parseNullableTimeOfDay(s *string) (*schedule.TimeOfDay, error) {
	if s == nil {
		return nil, nil
	}
	t, err := schedule.ParseTimeOfDay(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func timeOfDayParam(t *schedule.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

// Create implements schedule.WorkScheduleRepository.
func (r *workScheduleRepository) Create(ctx context.Context, ws schedule.WorkSchedule) (schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO work_schedules (
			id, employee_id, day_of_week, start_time, end_time,
			break_start, break_end, grace_period_minutes, effective_from, effective_to
		) VALUES (
			$1, $2, $3, $4::text::time, $5::text::time,
			$6::text::time, $7::text::time, $8, $9, $10
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		ws.ID,
		ws.EmployeeID,
		ws.DayOfWeek,
		ws.StartTime.String(),
		ws.EndTime.String(),
		timeOfDayParam(ws.BreakStart),
		timeOfDayParam(ws.BreakEnd),
		ws.GracePeriodMinutes,
		ws.EffectiveFrom,
		ws.EffectiveTo,
	).Scan(&ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		return schedule.WorkSchedule{}, fmt.Errorf("failed to create work schedule: %w", err)
	}
	return ws, nil
}

// FindEffective implements schedule.WorkScheduleRepository. Rows are filtered on
// effective_to only and the latest effective_from wins.
func (r *workScheduleRepository) FindEffective(ctx context.Context, employeeID string, dayOfWeek int, date time.Time) (*schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + workScheduleColumns + `
		FROM work_schedules
		WHERE employee_id = $1
		  AND day_of_week = $2
		  AND (effective_to IS NULL OR effective_to >= $3)
		ORDER BY effective_from DESC, id DESC
		LIMIT 1
	`

	ws, err := scanWorkSchedule(q.QueryRow(ctx, query, employeeID, dayOfWeek, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find effective work schedule: %w", err)
	}
	return &ws, nil
}

// GetOpen implements schedule.WorkScheduleRepository.
func (r *workScheduleRepository) GetOpen(ctx context.Context, employeeID string, dayOfWeek int) (*schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + workScheduleColumns + `
		FROM work_schedules
		WHERE employee_id = $1
		  AND day_of_week = $2
		  AND effective_to IS NULL
		ORDER BY effective_from DESC
		LIMIT 1
		FOR UPDATE
	`

	ws, err := scanWorkSchedule(q.QueryRow(ctx, query, employeeID, dayOfWeek))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open work schedule: %w", err)
	}
	return &ws, nil
}

// Close implements schedule.WorkScheduleRepository.
func (r *workScheduleRepository) Close(ctx context.Context, id string, effectiveTo time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE work_schedules SET effective_to = $2, updated_at = NOW() WHERE id = $1`

	tag, err := q.Exec(ctx, query, id, effectiveTo)
	if err != nil {
		return fmt.Errorf("failed to close work schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return schedule.ErrWorkScheduleNotFound
	}
	return nil
}

// ListByEmployee implements schedule.WorkScheduleRepository.
func (r *workScheduleRepository) ListByEmployee(ctx context.Context, employeeID string) ([]schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + workScheduleColumns + `
		FROM work_schedules
		WHERE employee_id = $1
		ORDER BY day_of_week, effective_from DESC
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work schedules: %w", err)
	}
	defer rows.Close()

	var schedules []schedule.WorkSchedule
	for rows.Next() {
		ws, err := scanWorkSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work schedule: %w", err)
		}
		schedules = append(schedules, ws)
	}
	return schedules, rows.Err()
}
