package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
	"github.com/google/uuid"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ScheduleServiceImpl struct {
	tx           Transactor
	scheduleRepo schedule.WorkScheduleRepository
	employeeRepo employee.EmployeeRepository
	logger       *slog.Logger
}

func NewScheduleService(
	tx Transactor,
	scheduleRepo schedule.WorkScheduleRepository,
	employeeRepo employee.EmployeeRepository,
	logger *slog.Logger,
) schedule.ScheduleService {
	return &ScheduleServiceImpl{
		tx:           tx,
		scheduleRepo: scheduleRepo,
		employeeRepo: employeeRepo,
		logger:       logger,
	}
}

// Resolve implements schedule.Resolver.
func (s *ScheduleServiceImpl) Resolve(ctx context.Context, employeeID string, date time.Time) (schedule.WorkSchedule, error) {
	dow := schedule.ISODayOfWeek(date)

	found, err := s.scheduleRepo.FindEffective(ctx, employeeID, dow, date)
	if err != nil {
		return schedule.WorkSchedule{}, fmt.Errorf("find schedule for %s on %s: %w", employeeID, date.Format("2006-01-02"), err)
	}
	if found == nil {
		return schedule.DefaultSchedule(employeeID, dow), nil
	}
	return *found, nil
}

// Create inserts a schedule row and closes the weekday's open row the day before the new
// row takes effect.
func (s *ScheduleServiceImpl) Create(ctx context.Context, act actor.Actor, req schedule.CreateWorkScheduleRequest) (schedule.WorkScheduleResponse, error) {
	if !act.IsAdministrative() {
		return schedule.WorkScheduleResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return schedule.WorkScheduleResponse{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return schedule.WorkScheduleResponse{}, err
	}

	ws, err := toWorkSchedule(req)
	if err != nil {
		return schedule.WorkScheduleResponse{}, err
	}

	var created schedule.WorkSchedule
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		open, err := s.scheduleRepo.GetOpen(ctx, ws.EmployeeID, ws.DayOfWeek)
		if err != nil {
			return err
		}
		if open != nil {
			if !ws.EffectiveFrom.After(open.EffectiveFrom) {
				return schedule.ErrEffectiveFromNotLatest
			}
			if err := s.scheduleRepo.Close(ctx, open.ID, ws.EffectiveFrom.AddDate(0, 0, -1)); err != nil {
				return err
			}
		}

		created, err = s.scheduleRepo.Create(ctx, ws)
		return err
	})
	if err != nil {
		return schedule.WorkScheduleResponse{}, err
	}

	s.logger.InfoContext(ctx, "work schedule created",
		"schedule_id", created.ID,
		"employee_id", created.EmployeeID,
		"day_of_week", created.DayOfWeek,
		"effective_from", created.EffectiveFrom.Format("2006-01-02"),
		"actor", act.UserID,
		"request_id", act.RequestID,
	)
	return schedule.ToResponse(created), nil
}

func (s *ScheduleServiceImpl) ListByEmployee(ctx context.Context, employeeID string) ([]schedule.WorkScheduleResponse, error) {
	rows, err := s.scheduleRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	out := make([]schedule.WorkScheduleResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, schedule.ToResponse(r))
	}
	return out, nil
}

func toWorkSchedule(req schedule.CreateWorkScheduleRequest) (schedule.WorkSchedule, error) {
	start, err := schedule.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return schedule.WorkSchedule{}, err
	}
	end, err := schedule.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return schedule.WorkSchedule{}, err
	}
	from, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		return schedule.WorkSchedule{}, fmt.Errorf("parse effective_from: %w", err)
	}

	ws := schedule.WorkSchedule{
		ID:                 uuid.Must(uuid.NewV7()).String(),
		EmployeeID:         req.EmployeeID,
		DayOfWeek:          req.DayOfWeek,
		StartTime:          start,
		EndTime:            end,
		GracePeriodMinutes: schedule.DefaultGracePeriodMinutes,
		EffectiveFrom:      from,
	}
	if req.GracePeriodMinutes != nil {
		ws.GracePeriodMinutes = *req.GracePeriodMinutes
	}
	if req.BreakStart != nil && req.BreakEnd != nil {
		bs, err := schedule.ParseTimeOfDay(*req.BreakStart)
		if err != nil {
			return schedule.WorkSchedule{}, err
		}
		be, err := schedule.ParseTimeOfDay(*req.BreakEnd)
		if err != nil {
			return schedule.WorkSchedule{}, err
		}
		ws.BreakStart, ws.BreakEnd = &bs, &be
	}
	return ws, nil
}
