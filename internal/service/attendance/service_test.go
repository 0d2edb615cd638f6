package attendance

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*3600)

// ---- fakes ----

type memAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]attendance.Attendance
}

func newMemAttendanceRepo() *memAttendanceRepo {
	return &memAttendanceRepo{records: map[string]attendance.Attendance{}}
}

func attendanceKey(employeeID string, date time.Time) string {
	return employeeID + "/" + date.Format("2006-01-02")
}

func (m *memAttendanceRepo) Create(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := attendanceKey(a.EmployeeID, a.Date)
	if _, ok := m.records[key]; ok {
		return attendance.Attendance{}, attendance.ErrAlreadyClockedIn
	}
	m.records[key] = a
	return a, nil
}

func (m *memAttendanceRepo) GetByID(_ context.Context, id string) (attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.records {
		if a.ID == id {
			return a, nil
		}
	}
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

func (m *memAttendanceRepo) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.records[attendanceKey(employeeID, date)]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memAttendanceRepo) CompleteClockOut(_ context.Context, a attendance.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := attendanceKey(a.EmployeeID, a.Date)
	existing, ok := m.records[key]
	if !ok || existing.ClockOut != nil {
		return attendance.ErrAlreadyClockedOut
	}
	m.records[key] = a
	return nil
}

func (m *memAttendanceRepo) List(_ context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.Attendance
	for _, a := range m.records {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (m *memAttendanceRepo) ListByEmployeeAndRange(context.Context, string, time.Time, time.Time) ([]attendance.Attendance, error) {
	return nil, nil
}

func (m *memAttendanceRepo) MarkAbsent(context.Context, time.Time, int) (int64, error) {
	return 0, nil
}

type memEmployeeRepo map[string]employee.Employee

func (m memEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	e, ok := m[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (m memEmployeeRepo) GetByIDs(_ context.Context, ids []string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, id := range ids {
		if e, ok := m[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m memEmployeeRepo) ListActive(context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range m {
		if e.IsActive() {
			out = append(out, e)
		}
	}
	return out, nil
}

type fixedSchedule struct {
	start, end schedule.TimeOfDay
	grace      int
}

func (f fixedSchedule) Resolve(_ context.Context, employeeID string, date time.Time) (schedule.WorkSchedule, error) {
	return schedule.WorkSchedule{
		EmployeeID:         employeeID,
		DayOfWeek:          schedule.ISODayOfWeek(date),
		StartTime:          f.start,
		EndTime:            f.end,
		GracePeriodMinutes: f.grace,
	}, nil
}

type mockRules struct {
	mock.Mock
}

func (m *mockRules) ResolveDeductionRule(ctx context.Context, date time.Time) (*rule.DeductionRule, error) {
	args := m.Called(ctx, date)
	r, _ := args.Get(0).(*rule.DeductionRule)
	return r, args.Error(1)
}

func (m *mockRules) ResolveOvertimeRule(ctx context.Context, date time.Time) (*rule.OvertimeRule, error) {
	args := m.Called(ctx, date)
	r, _ := args.Get(0).(*rule.OvertimeRule)
	return r, args.Error(1)
}

// ---- fixture ----

type fixture struct {
	repo     *memAttendanceRepo
	rules    *mockRules
	clock    time.Time
	service  attendance.AttendanceService
	employee string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:     newMemAttendanceRepo(),
		rules:    &mockRules{},
		employee: uuid.NewString(),
	}
	employees := memEmployeeRepo{
		f.employee: {ID: f.employee, FullName: "Budi Santoso", Status: employee.EmploymentStatusActive},
	}
	sched := fixedSchedule{
		start: schedule.NewTimeOfDay(9, 0, 0),
		end:   schedule.NewTimeOfDay(18, 0, 0),
		grace: 15,
	}

	f.service = NewAttendanceService(
		f.repo,
		employees,
		sched,
		f.rules,
		wib,
		slog.New(slog.DiscardHandler),
		WithClock(func() time.Time { return f.clock }),
	)
	return f
}

func (f *fixture) clockIn(t *testing.T, act actor.Actor) (attendance.AttendanceResponse, error) {
	t.Helper()
	return f.service.ClockIn(context.Background(), act, attendance.ClockInRequest{
		EmployeeID:     f.employee,
		AttendanceType: string(attendance.SourceManual),
	})
}

func (f *fixture) clockOut(t *testing.T, act actor.Actor) (attendance.AttendanceResponse, error) {
	t.Helper()
	return f.service.ClockOut(context.Background(), act, attendance.ClockOutRequest{EmployeeID: f.employee})
}

var hr = actor.Actor{UserID: "hr-1", Role: actor.RoleHR}

// ---- tests ----

func TestClockIn_WithinGraceIsPresent(t *testing.T) {
	f := newFixture(t)
	f.clock = time.Date(2026, 3, 2, 9, 10, 0, 0, wib)
	f.rules.On("ResolveDeductionRule", mock.Anything, mock.Anything).
		Return(&rule.DeductionRule{Type: rule.RateTypePerMinute, Rate: dec("1000")}, nil)

	resp, err := f.clockIn(t, hr)
	require.NoError(t, err)

	assert.Equal(t, string(attendance.StatusPresent), resp.Status)
	assert.Equal(t, 0, resp.LateMinutes)
	assert.True(t, resp.SalaryDeduction.IsZero())
	assert.Equal(t, "2026-03-02", resp.Date)
}

func TestClockIn_PastGraceIsLateWithDeduction(t *testing.T) {
	f := newFixture(t)
	f.clock = time.Date(2026, 3, 2, 9, 20, 0, 0, wib)
	f.rules.On("ResolveDeductionRule", mock.Anything, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)).
		Return(&rule.DeductionRule{Type: rule.RateTypePerMinute, Rate: dec("1000")}, nil)

	resp, err := f.clockIn(t, hr)
	require.NoError(t, err)

	assert.Equal(t, string(attendance.StatusLate), resp.Status)
	assert.Equal(t, 20, resp.LateMinutes)
	assert.True(t, dec("20000").Equal(resp.SalaryDeduction), resp.SalaryDeduction.String())
	f.rules.AssertExpectations(t)
}

func TestClockIn_DateFollowsLocalTimezone(t *testing.T) {
	f := newFixture(t)
	// 23:30 UTC on the 1st is 06:30 WIB on the 2nd.
	f.clock = time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	f.rules.On("ResolveDeductionRule", mock.Anything, mock.Anything).Return(nil, nil)

	resp, err := f.clockIn(t, hr)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", resp.Date)
	assert.Equal(t, string(attendance.StatusPresent), resp.Status)
}

func TestClockIn_Twice(t *testing.T) {
	f := newFixture(t)
	f.clock = time.Date(2026, 3, 2, 8, 55, 0, 0, wib)
	f.rules.On("ResolveDeductionRule", mock.Anything, mock.Anything).Return(nil, nil)

	_, err := f.clockIn(t, hr)
	require.NoError(t, err)

	f.clock = f.clock.Add(time.Hour)
	_, err = f.clockIn(t, hr)
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn)
}

func TestClockIn_EmployeeForOtherStaff(t *testing.T) {
	f := newFixture(t)
	f.clock = time.Date(2026, 3, 2, 8, 55, 0, 0, wib)
	other := uuid.NewString()
	act := actor.Actor{UserID: "u-2", Role: actor.RoleEmployee, EmployeeID: &other}

	_, err := f.clockIn(t, act)
	assert.ErrorIs(t, err, attendance.ErrRecordForOtherStaff)
}

func TestClockIn_InactiveEmployee(t *testing.T) {
	f := newFixture(t)
	f.clock = time.Date(2026, 3, 2, 8, 55, 0, 0, wib)

	svc := f.service.(*AttendanceServiceImpl)
	svc.employeeRepo = memEmployeeRepo{
		f.employee: {ID: f.employee, Status: employee.EmploymentStatusResigned},
	}

	_, err := f.clockIn(t, hr)
	assert.ErrorIs(t, err, employee.ErrEmployeeInactive)
}

func TestClockIn_InvalidRequest(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.ClockIn(context.Background(), hr, attendance.ClockInRequest{
		EmployeeID:     "not-a-uuid",
		AttendanceType: "telepathy",
	})
	assert.Error(t, err)
}

func TestClockOut_WithOvertime(t *testing.T) {
	f := newFixture(t)
	f.clock = time.Date(2026, 3, 2, 8, 50, 0, 0, wib)
	f.rules.On("ResolveDeductionRule", mock.Anything, mock.Anything).Return(nil, nil)
	f.rules.On("ResolveOvertimeRule", mock.Anything, mock.Anything).
		Return(&rule.OvertimeRule{Type: rule.RateTypePerHour, Rate: dec("30000"), MinimumOvertimeMinutes: 30}, nil)

	_, err := f.clockIn(t, hr)
	require.NoError(t, err)

	f.clock = time.Date(2026, 3, 2, 19, 30, 0, 0, wib)
	resp, err := f.clockOut(t, hr)
	require.NoError(t, err)

	assert.Equal(t, 90, resp.OvertimeMinutes)
	assert.True(t, dec("45000").Equal(resp.OvertimeBonus), resp.OvertimeBonus.String())
	assert.True(t, dec("10.67").Equal(resp.HoursWorked), resp.HoursWorked.String())
	require.NotNil(t, resp.ClockOut)
}

func TestClockOut_BelowOvertimeMinimum(t *testing.T) {
	f := newFixture(t)
	f.clock = time.Date(2026, 3, 2, 9, 0, 0, 0, wib)
	f.rules.On("ResolveDeductionRule", mock.Anything, mock.Anything).Return(nil, nil)
	f.rules.On("ResolveOvertimeRule", mock.Anything, mock.Anything).
		Return(&rule.OvertimeRule{Type: rule.RateTypePerMinute, Rate: dec("500"), MinimumOvertimeMinutes: 30}, nil)

	_, err := f.clockIn(t, hr)
	require.NoError(t, err)

	f.clock = time.Date(2026, 3, 2, 18, 20, 0, 0, wib)
	resp, err := f.clockOut(t, hr)
	require.NoError(t, err)
	assert.Equal(t, 20, resp.OvertimeMinutes)
	assert.True(t, resp.OvertimeBonus.IsZero())
}

func TestClockOut_WithoutClockIn(t *testing.T) {
	f := newFixture(t)
	f.clock = time.Date(2026, 3, 2, 18, 0, 0, 0, wib)

	_, err := f.clockOut(t, hr)
	assert.ErrorIs(t, err, attendance.ErrNotClockedIn)
}

func TestClockOut_Twice(t *testing.T) {
	f := newFixture(t)
	f.clock = time.Date(2026, 3, 2, 9, 0, 0, 0, wib)
	f.rules.On("ResolveDeductionRule", mock.Anything, mock.Anything).Return(nil, nil)
	f.rules.On("ResolveOvertimeRule", mock.Anything, mock.Anything).Return(nil, nil)

	_, err := f.clockIn(t, hr)
	require.NoError(t, err)

	f.clock = time.Date(2026, 3, 2, 18, 0, 0, 0, wib)
	_, err = f.clockOut(t, hr)
	require.NoError(t, err)

	_, err = f.clockOut(t, hr)
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedOut)
}

func TestClockOut_ShiftAcrossMidnight(t *testing.T) {
	f := newFixture(t)
	f.clock = time.Date(2026, 3, 2, 9, 0, 0, 0, wib)
	f.rules.On("ResolveDeductionRule", mock.Anything, mock.Anything).Return(nil, nil)
	f.rules.On("ResolveOvertimeRule", mock.Anything, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)).
		Return(&rule.OvertimeRule{Type: rule.RateTypePerMinute, Rate: dec("100"), MinimumOvertimeMinutes: 30}, nil)

	_, err := f.clockIn(t, hr)
	require.NoError(t, err)

	f.clock = time.Date(2026, 3, 3, 0, 30, 0, 0, wib)
	resp, err := f.clockOut(t, hr)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-02", resp.Date)
	assert.Equal(t, 390, resp.OvertimeMinutes)
	assert.True(t, dec("39000").Equal(resp.OvertimeBonus), resp.OvertimeBonus.String())
	f.rules.AssertExpectations(t)
}

func TestGetAttendance_HidesOtherEmployees(t *testing.T) {
	f := newFixture(t)
	f.clock = time.Date(2026, 3, 2, 9, 0, 0, 0, wib)
	f.rules.On("ResolveDeductionRule", mock.Anything, mock.Anything).Return(nil, nil)

	created, err := f.clockIn(t, hr)
	require.NoError(t, err)

	other := uuid.NewString()
	_, err = f.service.GetAttendance(context.Background(), actor.Actor{Role: actor.RoleEmployee, EmployeeID: &other}, created.ID)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)

	self := f.employee
	got, err := f.service.GetAttendance(context.Background(), actor.Actor{Role: actor.RoleEmployee, EmployeeID: &self}, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestListAttendance_Empty(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.ListAttendance(context.Background(), attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.TotalCount)
	assert.Equal(t, "0 of 0", resp.Showing)
	assert.Empty(t, resp.Attendances)
}
