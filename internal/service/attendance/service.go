package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
	"github.com/google/uuid"
)

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	schedules      schedule.Resolver
	rules          rule.Resolver
	loc            *time.Location
	now            func() time.Time
	logger         *slog.Logger
}

type Option func(*AttendanceServiceImpl)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *AttendanceServiceImpl) { s.now = now }
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	schedules schedule.Resolver,
	rules rule.Resolver,
	loc *time.Location,
	logger *slog.Logger,
	opts ...Option,
) attendance.AttendanceService {
	s := &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		schedules:      schedules,
		rules:          rules,
		loc:            loc,
		now:            time.Now,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// dateOf returns the calendar date of t as a UTC midnight, the form DATE columns use.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// localDay anchors a stored DATE back to midnight in the service's timezone.
func (s *AttendanceServiceImpl) localDay(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func (s *AttendanceServiceImpl) activeEmployee(ctx context.Context, id string) (employee.Employee, error) {
	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.Employee{}, err
	}
	if !emp.IsActive() {
		return employee.Employee{}, employee.ErrEmployeeInactive
	}
	return emp, nil
}

// ClockIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockIn(ctx context.Context, act actor.Actor, req attendance.ClockInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !act.CanRecordFor(req.EmployeeID) {
		return attendance.AttendanceResponse{}, attendance.ErrRecordForOtherStaff
	}

	if _, err := s.activeEmployee(ctx, req.EmployeeID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	nowLocal := s.now().In(s.loc)
	date := dateOf(nowLocal)

	sched, err := s.schedules.Resolve(ctx, req.EmployeeID, date)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("resolve schedule: %w", err)
	}

	scheduledIn := sched.StartTime.On(nowLocal)
	class := Classify(nowLocal, scheduledIn, sched.GracePeriodMinutes)

	deductionRule, err := s.rules.ResolveDeductionRule(ctx, date)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("resolve deduction rule: %w", err)
	}
	deduction, err := CalculateDeduction(class.LateMinutes, deductionRule)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	clockIn := nowLocal.UTC()
	record := attendance.Attendance{
		ID:                uuid.Must(uuid.NewV7()).String(),
		EmployeeID:        req.EmployeeID,
		Date:              date,
		ClockIn:           &clockIn,
		AttendanceType:    attendance.Source(req.AttendanceType),
		DeviceID:          req.DeviceID,
		LateMinutes:       class.LateMinutes,
		SalaryDeduction:   deduction,
		ScheduledClockIn:  sched.StartTime.Ptr(),
		ScheduledClockOut: sched.EndTime.Ptr(),
		Status:            class.Status,
		Notes:             req.Notes,
	}

	created, err := s.attendanceRepo.Create(ctx, record)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	s.logger.InfoContext(ctx, "clock-in recorded",
		"attendance_id", created.ID,
		"employee_id", created.EmployeeID,
		"status", created.Status,
		"late_minutes", created.LateMinutes,
		"default_schedule", sched.IsDefault,
		"actor", act.UserID,
		"request_id", act.RequestID,
	)

	return attendance.ToResponse(created), nil
}

// ClockOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockOut(ctx context.Context, act actor.Actor, req attendance.ClockOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !act.CanRecordFor(req.EmployeeID) {
		return attendance.AttendanceResponse{}, attendance.ErrRecordForOtherStaff
	}

	nowLocal := s.now().In(s.loc)

	record, err := s.openRecord(ctx, req.EmployeeID, nowLocal)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	day := s.localDay(record.Date)
	var endTime schedule.TimeOfDay
	if record.ScheduledClockOut != nil {
		endTime = *record.ScheduledClockOut
	} else {
		sched, err := s.schedules.Resolve(ctx, req.EmployeeID, record.Date)
		if err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("resolve schedule: %w", err)
		}
		endTime = sched.EndTime
	}

	overtime := OvertimeMinutes(nowLocal, endTime.On(day))

	overtimeRule, err := s.rules.ResolveOvertimeRule(ctx, record.Date)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("resolve overtime rule: %w", err)
	}
	bonus, err := CalculateOvertimeBonus(overtime, overtimeRule)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	clockOut := nowLocal.UTC()
	record.ClockOut = &clockOut
	record.OvertimeMinutes = overtime
	record.OvertimeBonus = bonus
	record.HoursWorked = HoursWorked(*record.ClockIn, clockOut)
	if req.Notes != nil {
		record.Notes = req.Notes
	}

	if err := s.attendanceRepo.CompleteClockOut(ctx, record); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	s.logger.InfoContext(ctx, "clock-out recorded",
		"attendance_id", record.ID,
		"employee_id", record.EmployeeID,
		"overtime_minutes", overtime,
		"hours_worked", record.HoursWorked.String(),
		"actor", act.UserID,
		"request_id", act.RequestID,
	)

	return attendance.ToResponse(record), nil
}

// openRecord finds the record a clock-out at now completes: today's, or yesterday's when
// a shift crossed midnight and was never closed.
func (s *AttendanceServiceImpl) openRecord(ctx context.Context, employeeID string, now time.Time) (attendance.Attendance, error) {
	today := dateOf(now)

	record, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, employeeID, today)
	if err != nil {
		return attendance.Attendance{}, err
	}
	if record == nil {
		record, err = s.attendanceRepo.GetByEmployeeAndDate(ctx, employeeID, today.AddDate(0, 0, -1))
		if err != nil {
			return attendance.Attendance{}, err
		}
		if record == nil || record.ClockOut != nil {
			return attendance.Attendance{}, attendance.ErrNotClockedIn
		}
	}

	if record.ClockIn == nil {
		return attendance.Attendance{}, attendance.ErrNotClockedIn
	}
	if record.ClockOut != nil {
		return attendance.Attendance{}, attendance.ErrAlreadyClockedOut
	}
	return *record, nil
}

// GetAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetAttendance(ctx context.Context, act actor.Actor, id string) (attendance.AttendanceResponse, error) {
	record, err := s.attendanceRepo.GetByID(ctx, id)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !act.IsAdministrative() && !act.CanRecordFor(record.EmployeeID) {
		// Hide records of other employees rather than reveal that they exist.
		return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
	}
	return attendance.ToResponse(record), nil
}

// ListAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	records, total, err := s.attendanceRepo.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("list attendance: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, attendance.ToResponse(r))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// MarkAbsent implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkAbsent(ctx context.Context, date time.Time) (int64, error) {
	day := dateOf(date)
	count, err := s.attendanceRepo.MarkAbsent(ctx, day, schedule.ISODayOfWeek(day))
	if err != nil {
		return 0, fmt.Errorf("mark absent for %s: %w", day.Format("2006-01-02"), err)
	}
	return count, nil
}
