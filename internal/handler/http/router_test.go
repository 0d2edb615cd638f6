package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

// Stubs embed the service interface; calling a method that is not overridden panics,
// which the router's Recoverer turns into a 500.

type stubAttendanceService struct {
	attendance.AttendanceService
	clockInReq  attendance.ClockInRequest
	clockInErr  error
	listFilter  attendance.AttendanceFilter
	clockInActr actor.Actor
}

func (s *stubAttendanceService) ClockIn(_ context.Context, act actor.Actor, req attendance.ClockInRequest) (attendance.AttendanceResponse, error) {
	s.clockInReq = req
	s.clockInActr = act
	if s.clockInErr != nil {
		return attendance.AttendanceResponse{}, s.clockInErr
	}
	return attendance.AttendanceResponse{ID: "att-1", EmployeeID: req.EmployeeID, Status: "present"}, nil
}

func (s *stubAttendanceService) ListAttendance(_ context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	s.listFilter = filter
	return attendance.ListAttendanceResponse{Showing: "0 of 0", Attendances: []attendance.AttendanceResponse{}}, nil
}

type stubPayrollService struct {
	payroll.PayrollService
	approveErr error
}

func (s *stubPayrollService) ApprovePayrollRecord(_ context.Context, act actor.Actor, id string) (payroll.PayrollRecordResponse, error) {
	if s.approveErr != nil {
		return payroll.PayrollRecordResponse{}, s.approveErr
	}
	return payroll.PayrollRecordResponse{ID: id, Status: "approved", ApprovedBy: &act.UserID}, nil
}

func (s *stubPayrollService) Generate(ctx context.Context, act actor.Actor, req payroll.GeneratePayrollRequest) (payroll.GeneratePayrollResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.GeneratePayrollResult{}, err
	}
	return payroll.GeneratePayrollResult{PayPeriod: req.PayPeriod}, nil
}

type stubScheduleService struct {
	schedule.ScheduleService
	resolvedDate time.Time
}

func (s *stubScheduleService) Resolve(_ context.Context, employeeID string, date time.Time) (schedule.WorkSchedule, error) {
	s.resolvedDate = date
	return schedule.DefaultSchedule(employeeID, schedule.ISODayOfWeek(date)), nil
}

type stubRuleService struct {
	rule.RuleService
}

func (stubRuleService) DeactivateOvertimeRule(context.Context, actor.Actor, string) error {
	return rule.ErrRuleAlreadyInactive
}

type testServer struct {
	router     *chi.Mux
	jwt        jwt.Service
	attendance *stubAttendanceService
	payroll    *stubPayrollService
	schedule   *stubScheduleService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		jwt:        jwt.NewJWTService(testSecret),
		attendance: &stubAttendanceService{},
		payroll:    &stubPayrollService{},
		schedule:   &stubScheduleService{},
	}
	ts.router = NewRouter(ts.jwt, slog.New(slog.DiscardHandler), []string{"http://localhost:3000"}, Handlers{
		Schedule:   NewScheduleHandler(ts.schedule, time.UTC),
		Rule:       NewRuleHandler(stubRuleService{}),
		Attendance: NewAttendanceHandler(ts.attendance),
		Payroll:    NewPayrollHandler(ts.payroll),
	})
	return ts
}

func (ts *testServer) token(t *testing.T, role actor.Role, employeeID string) string {
	t.Helper()
	claims := map[string]interface{}{
		"user_id": "user-" + string(role),
		"role":    string(role),
		"type":    "access",
	}
	if employeeID != "" {
		claims["employee_id"] = employeeID
	}
	_, token, err := ts.jwt.JWTAuth().Encode(claims)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var resp response.Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestRouter_Healthz(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RequiresToken(t *testing.T) {
	ts := newTestServer(t)

	rec, resp := ts.do(t, http.MethodGet, "/api/v1/attendance", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestRouter_RejectsRefreshToken(t *testing.T) {
	ts := newTestServer(t)
	_, token, err := ts.jwt.JWTAuth().Encode(map[string]interface{}{"user_id": "u-1", "role": "hr", "type": "refresh"})
	require.NoError(t, err)

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/attendance", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_EmployeeCannotReachPayroll(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, actor.RoleEmployee, "0190f5b4-8a4c-7d7e-9f00-000000000001")

	rec, resp := ts.do(t, http.MethodGet, "/api/v1/payroll/summary?pay_period=2026-03", token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
}

func TestRouter_DeviceCannotListAttendance(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, actor.RoleDevice, "")

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/attendance", token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestClockIn_FillsEmployeeFromToken(t *testing.T) {
	ts := newTestServer(t)
	employeeID := "0190f5b4-8a4c-7d7e-9f00-000000000001"
	token := ts.token(t, actor.RoleEmployee, employeeID)

	rec, resp := ts.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, `{"attendance_type":"manual"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)

	assert.Equal(t, employeeID, ts.attendance.clockInReq.EmployeeID)
	assert.Equal(t, actor.RoleEmployee, ts.attendance.clockInActr.Role)
	assert.NotEmpty(t, ts.attendance.clockInActr.RequestID)
}

func TestClockIn_ErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, actor.RoleHR, "")
	body := `{"employee_id":"0190f5b4-8a4c-7d7e-9f00-000000000001","attendance_type":"manual"}`

	ts.attendance.clockInErr = attendance.ErrAlreadyClockedIn
	rec, resp := ts.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", resp.Error.Code)

	ts.attendance.clockInErr = attendance.ErrRecordForOtherStaff
	rec, _ = ts.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAttendance_EmployeeScopedToSelf(t *testing.T) {
	ts := newTestServer(t)
	self := "0190f5b4-8a4c-7d7e-9f00-000000000001"
	token := ts.token(t, actor.RoleEmployee, self)

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/attendance?employee_id=0190f5b4-8a4c-7d7e-9f00-000000000002&page=2", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, ts.attendance.listFilter.EmployeeID)
	assert.Equal(t, self, *ts.attendance.listFilter.EmployeeID)
	assert.Equal(t, 2, ts.attendance.listFilter.Page)
}

func TestPayroll_Approve(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, actor.RoleAdmin, "")

	rec, resp := ts.do(t, http.MethodPost, "/api/v1/payroll/pr-1/approve", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	ts.payroll.approveErr = payroll.ErrPayrollRecordAlreadyApproved
	rec, _ = ts.do(t, http.MethodPost, "/api/v1/payroll/pr-1/approve", token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPayroll_GenerateValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, actor.RoleHR, "")

	rec, resp := ts.do(t, http.MethodPost, "/api/v1/payroll/generate", token, `{"pay_period":"March"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "pay_period")
}

func TestRules_DeactivateInactive(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, actor.RoleAdmin, "")

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/rules/overtime/r-1/deactivate", token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSchedule_GetEffectiveDate(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, actor.RoleHR, "")

	rec, resp := ts.do(t, http.MethodGet, "/api/v1/schedules/employees/0190f5b4-8a4c-7d7e-9f00-000000000001/effective?date=2026-03-02", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), ts.schedule.resolvedDate)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/schedules/employees/0190f5b4-8a4c-7d7e-9f00-000000000001/effective?date=02-03-2026", token, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRules_HRCannotMaintain(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, actor.RoleHR, "")

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/rules/overtime/r-1/deactivate", token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
