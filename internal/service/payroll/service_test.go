package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/outbox"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type memPayrollRepo struct {
	mu        sync.Mutex
	records   map[string]payroll.PayrollRecord
	failFor   map[string]error
	createErr error
}

func newMemPayrollRepo() *memPayrollRepo {
	return &memPayrollRepo{records: map[string]payroll.PayrollRecord{}, failFor: map[string]error{}}
}

func (m *memPayrollRepo) ExistsForPeriod(_ context.Context, employeeID string, period time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[employeeID]; err != nil {
		return false, err
	}
	for _, r := range m.records {
		if r.EmployeeID == employeeID && r.PayPeriod.Equal(period) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPayrollRepo) Create(_ context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return payroll.PayrollRecord{}, m.createErr
	}
	for _, r := range m.records {
		if r.EmployeeID == record.EmployeeID && r.PayPeriod.Equal(record.PayPeriod) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordAlreadyExists
		}
	}
	m.records[record.ID] = record
	return record, nil
}

func (m *memPayrollRepo) GetByID(_ context.Context, id string) (payroll.PayrollRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
	}
	return r, nil
}

func (m *memPayrollRepo) List(context.Context, payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]payroll.PayrollRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (m *memPayrollRepo) UpdateDraft(_ context.Context, record payroll.PayrollRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.records[record.ID]
	if !ok || !existing.IsDraft() {
		return payroll.ErrPayrollRecordAlreadyApproved
	}
	m.records[record.ID] = record
	return nil
}

func (m *memPayrollRepo) Approve(_ context.Context, id string, approvedBy string, approvedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || !r.IsDraft() {
		return payroll.ErrPayrollRecordAlreadyApproved
	}
	r.Status = payroll.PayrollStatusApproved
	r.ApprovedBy = &approvedBy
	r.ApprovedAt = &approvedAt
	m.records[id] = r
	return nil
}

func (m *memPayrollRepo) GetPeriodTotals(_ context.Context, period time.Time) (payroll.PeriodTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := payroll.PeriodTotals{}
	for _, r := range m.records {
		if !r.PayPeriod.Equal(period) {
			continue
		}
		t.RecordCount++
		t.BasicSalary = t.BasicSalary.Add(r.BasicSalary)
		t.Allowances = t.Allowances.Add(r.Allowances)
		t.OvertimeAmount = t.OvertimeAmount.Add(r.OvertimeAmount)
		t.GrossSalary = t.GrossSalary.Add(r.GrossSalary)
		t.TotalDeductions = t.TotalDeductions.Add(r.TotalDeductions)
		t.NetSalary = t.NetSalary.Add(r.NetSalary)
	}
	return t, nil
}

func (m *memPayrollRepo) CountByStatus(_ context.Context, period time.Time) (map[payroll.PayrollStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[payroll.PayrollStatus]int{}
	for _, r := range m.records {
		if r.PayPeriod.Equal(period) {
			counts[r.Status]++
		}
	}
	return counts, nil
}

func (m *memPayrollRepo) snapshot() map[string]payroll.PayrollRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.records)
}

func (m *memPayrollRepo) restore(records map[string]payroll.PayrollRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = records
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

// stubAttendanceRepo serves a fixed set of records per employee; only the range query
// is used by payroll generation.
type stubAttendanceRepo struct {
	attendance.AttendanceRepository
	byEmployee map[string][]attendance.Attendance
}

func (s stubAttendanceRepo) ListByEmployeeAndRange(_ context.Context, employeeID string, start, end time.Time) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	for _, r := range s.byEmployee[employeeID] {
		if !r.Date.Before(start) && !r.Date.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

type memOutboxRepo struct {
	mu     sync.Mutex
	events []outbox.Event
	err    error
}

func (m *memOutboxRepo) Create(_ context.Context, e outbox.Event) error {
	if m.err != nil {
		return m.err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memOutboxRepo) ListPending(context.Context, int) ([]outbox.Event, error) { return nil, nil }
func (m *memOutboxRepo) MarkSent(context.Context, string) error                    { return nil }
func (m *memOutboxRepo) MarkFailed(context.Context, string, string) error          { return nil }

// rollbackTransactor restores the payroll repository when fn fails.
type rollbackTransactor struct {
	repo  *memPayrollRepo
	calls int
}

func (t *rollbackTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	before := t.repo.snapshot()
	if err := fn(ctx); err != nil {
		t.repo.restore(before)
		return err
	}
	return nil
}

// ---- fixture ----

var (
	hrActor       = actor.Actor{UserID: "hr-1", Role: actor.RoleHR, RequestID: "req-1"}
	employeeActor = actor.Actor{UserID: "u-9", Role: actor.RoleEmployee}
)

type fixture struct {
	payrolls   *memPayrollRepo
	outbox     *memOutboxRepo
	tx         *rollbackTransactor
	employees  memEmployeeRepo
	attendance stubAttendanceRepo
	service    payroll.PayrollService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		payrolls:   newMemPayrollRepo(),
		outbox:     &memOutboxRepo{},
		employees:  memEmployeeRepo{},
		attendance: stubAttendanceRepo{byEmployee: map[string][]attendance.Attendance{}},
	}
	f.tx = &rollbackTransactor{repo: f.payrolls}
	f.service = NewPayrollService(f.tx, f.payrolls, f.employees, f.attendance, f.outbox, slog.New(slog.DiscardHandler))
	return f
}

func (f *fixture) addEmployee(salary string, status employee.EmploymentStatus, presentDays int) string {
	id := uuid.NewString()
	f.employees[id] = employee.Employee{
		ID:            id,
		EmployeeCode:  "EMP-" + id[:4],
		FullName:      "Employee " + id[:4],
		MonthlySalary: dec(salary),
		Status:        status,
	}
	var records []attendance.Attendance
	for day := 1; day <= presentDays; day++ {
		in := time.Date(2026, 3, day, 2, 0, 0, 0, time.UTC)
		out := in.Add(9 * time.Hour)
		records = append(records, attendance.Attendance{
			EmployeeID:      id,
			Date:            time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
			ClockIn:         &in,
			ClockOut:        &out,
			Status:          attendance.StatusPresent,
			HoursWorked:     dec("9"),
			SalaryDeduction: dec("0"),
			OvertimeBonus:   dec("0"),
		})
	}
	f.attendance.byEmployee[id] = records
	return id
}

// ---- tests ----

func TestGenerateForEmployee(t *testing.T) {
	f := newFixture(t)
	id := f.addEmployee("30000", employee.EmploymentStatusActive, 25)

	resp, err := f.service.GenerateForEmployee(context.Background(), hrActor, payroll.GenerateEmployeePayrollRequest{
		EmployeeID: id,
		PayPeriod:  "2026-03",
	})
	require.NoError(t, err)

	assert.Equal(t, "2026-03", resp.PayPeriod)
	assert.Equal(t, string(payroll.PayrollStatusDraft), resp.Status)
	assertDecimal(t, "25000", resp.BasicSalary)
	assertDecimal(t, "5000", resp.Allowances)
	assert.Equal(t, 25, resp.PresentDays)
	require.NotNil(t, resp.EmployeeName)
	assert.Equal(t, f.employees[id].FullName, *resp.EmployeeName)
}

func TestGenerateForEmployee_Duplicate(t *testing.T) {
	f := newFixture(t)
	id := f.addEmployee("30000", employee.EmploymentStatusActive, 20)
	req := payroll.GenerateEmployeePayrollRequest{EmployeeID: id, PayPeriod: "2026-03"}

	_, err := f.service.GenerateForEmployee(context.Background(), hrActor, req)
	require.NoError(t, err)

	_, err = f.service.GenerateForEmployee(context.Background(), hrActor, req)
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordAlreadyExists)
	assert.Len(t, f.payrolls.records, 1)
}

func TestGenerateForEmployee_ConcurrentInsertLosesOnConstraint(t *testing.T) {
	f := newFixture(t)
	id := f.addEmployee("30000", employee.EmploymentStatusActive, 20)
	f.payrolls.createErr = payroll.ErrPayrollRecordAlreadyExists

	_, err := f.service.GenerateForEmployee(context.Background(), hrActor, payroll.GenerateEmployeePayrollRequest{
		EmployeeID: id,
		PayPeriod:  "2026-03-15",
	})
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordAlreadyExists)
}

func TestGenerateForEmployee_Inactive(t *testing.T) {
	f := newFixture(t)
	id := f.addEmployee("30000", employee.EmploymentStatusTerminated, 0)

	_, err := f.service.GenerateForEmployee(context.Background(), hrActor, payroll.GenerateEmployeePayrollRequest{
		EmployeeID: id,
		PayPeriod:  "2026-03",
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeInactive)
}

func TestGenerateForEmployee_Forbidden(t *testing.T) {
	f := newFixture(t)
	id := f.addEmployee("30000", employee.EmploymentStatusActive, 0)

	_, err := f.service.GenerateForEmployee(context.Background(), employeeActor, payroll.GenerateEmployeePayrollRequest{
		EmployeeID: id,
		PayPeriod:  "2026-03",
	})
	assert.ErrorIs(t, err, actor.ErrForbidden)
}

func TestGenerate_AllActiveEmployees(t *testing.T) {
	f := newFixture(t)
	f.addEmployee("30000", employee.EmploymentStatusActive, 25)
	f.addEmployee("45000", employee.EmploymentStatusActive, 30)
	f.addEmployee("45000", employee.EmploymentStatusResigned, 30)

	result, err := f.service.Generate(context.Background(), hrActor, payroll.GeneratePayrollRequest{PayPeriod: "2026-03"})
	require.NoError(t, err)

	assert.Equal(t, "2026-03", result.PayPeriod)
	assert.Equal(t, 2, result.TotalEmployees)
	assert.Equal(t, 2, result.ProcessedCount)
	assert.Len(t, result.Records, 2)
	assert.Empty(t, result.Errors)
}

func TestGenerate_PartialFailureContinues(t *testing.T) {
	f := newFixture(t)
	ok := f.addEmployee("30000", employee.EmploymentStatusActive, 25)
	broken := f.addEmployee("30000", employee.EmploymentStatusActive, 25)
	inactive := f.addEmployee("30000", employee.EmploymentStatusInactive, 25)
	missing := uuid.NewString()
	f.payrolls.failFor[broken] = errors.New("connection reset")

	result, err := f.service.Generate(context.Background(), hrActor, payroll.GeneratePayrollRequest{
		PayPeriod:   "2026-03",
		EmployeeIDs: []string{ok, broken, inactive, missing},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalEmployees)
	assert.Equal(t, 1, result.ProcessedCount)
	require.Len(t, result.Records, 1)
	assert.Equal(t, ok, result.Records[0].EmployeeID)

	failed := map[string]string{}
	for _, e := range result.Errors {
		failed[e.EmployeeID] = e.Error
	}
	assert.Len(t, failed, 3)
	assert.Contains(t, failed[broken], "connection reset")
	assert.Equal(t, employee.ErrEmployeeInactive.Error(), failed[inactive])
	assert.Equal(t, employee.ErrEmployeeNotFound.Error(), failed[missing])
}

func TestGenerate_InvalidPeriod(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Generate(context.Background(), hrActor, payroll.GeneratePayrollRequest{PayPeriod: "March"})
	assert.Error(t, err)
}

func TestUpdatePayrollRecord_RecomputesDerivedFields(t *testing.T) {
	f := newFixture(t)
	id := f.addEmployee("30000", employee.EmploymentStatusActive, 25)
	created, err := f.service.GenerateForEmployee(context.Background(), hrActor, payroll.GenerateEmployeePayrollRequest{
		EmployeeID: id,
		PayPeriod:  "2026-03",
	})
	require.NoError(t, err)

	other := dec("500")
	updated, err := f.service.UpdatePayrollRecord(context.Background(), hrActor, payroll.UpdatePayrollRecordRequest{
		ID:              created.ID,
		OtherDeductions: &other,
	})
	require.NoError(t, err)

	assertDecimal(t, "500", updated.OtherDeductions)
	assertDecimal(t, created.TotalDeductions.Add(other).String(), updated.TotalDeductions)
	assertDecimal(t, created.NetSalary.Sub(other).String(), updated.NetSalary)
}

func TestApprovePayrollRecord_WritesOutboxEvent(t *testing.T) {
	f := newFixture(t)
	id := f.addEmployee("30000", employee.EmploymentStatusActive, 25)
	created, err := f.service.GenerateForEmployee(context.Background(), hrActor, payroll.GenerateEmployeePayrollRequest{
		EmployeeID: id,
		PayPeriod:  "2026-03",
	})
	require.NoError(t, err)

	approved, err := f.service.ApprovePayrollRecord(context.Background(), hrActor, created.ID)
	require.NoError(t, err)

	assert.Equal(t, string(payroll.PayrollStatusApproved), approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, hrActor.UserID, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, 1, f.tx.calls)

	require.Len(t, f.outbox.events, 1)
	event := f.outbox.events[0]
	assert.Equal(t, payroll.TopicPayslipRequested, event.Topic)
	assert.Equal(t, payroll.EventTypePayslipRequested, event.EventType)
	assert.Equal(t, created.ID, event.AggregateID)
	assert.Equal(t, outbox.StatusPending, event.Status)
	assert.Equal(t, "req-1", event.RequestID)

	var payload payroll.PayslipRequestedEvent
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, event.ID, payload.EventID)
	assert.Equal(t, created.ID, payload.PayrollID)
	assert.Equal(t, "2026-03", payload.PayPeriod)
	assertDecimal(t, created.NetSalary.String(), payload.NetPay)
}

func TestApprovePayrollRecord_Twice(t *testing.T) {
	f := newFixture(t)
	id := f.addEmployee("30000", employee.EmploymentStatusActive, 25)
	created, err := f.service.GenerateForEmployee(context.Background(), hrActor, payroll.GenerateEmployeePayrollRequest{
		EmployeeID: id,
		PayPeriod:  "2026-03",
	})
	require.NoError(t, err)

	_, err = f.service.ApprovePayrollRecord(context.Background(), hrActor, created.ID)
	require.NoError(t, err)

	_, err = f.service.ApprovePayrollRecord(context.Background(), hrActor, created.ID)
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordAlreadyApproved)
	assert.Len(t, f.outbox.events, 1)

	notes := "late fix"
	_, err = f.service.UpdatePayrollRecord(context.Background(), hrActor, payroll.UpdatePayrollRecordRequest{ID: created.ID, Notes: &notes})
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordAlreadyApproved)
}

func TestApprovePayrollRecord_OutboxFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	id := f.addEmployee("30000", employee.EmploymentStatusActive, 25)
	created, err := f.service.GenerateForEmployee(context.Background(), hrActor, payroll.GenerateEmployeePayrollRequest{
		EmployeeID: id,
		PayPeriod:  "2026-03",
	})
	require.NoError(t, err)

	f.outbox.err = errors.New("disk full")
	_, err = f.service.ApprovePayrollRecord(context.Background(), hrActor, created.ID)
	require.Error(t, err)

	stored, err := f.service.GetPayrollRecord(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.PayrollStatusDraft), stored.Status)
}

func TestGetPayrollSummary(t *testing.T) {
	f := newFixture(t)
	a := f.addEmployee("30000", employee.EmploymentStatusActive, 25)
	f.addEmployee("30000", employee.EmploymentStatusActive, 30)

	_, err := f.service.Generate(context.Background(), hrActor, payroll.GeneratePayrollRequest{PayPeriod: "2026-03"})
	require.NoError(t, err)

	var recordID string
	for _, r := range f.payrolls.records {
		if r.EmployeeID == a {
			recordID = r.ID
		}
	}
	_, err = f.service.ApprovePayrollRecord(context.Background(), hrActor, recordID)
	require.NoError(t, err)

	summary, err := f.service.GetPayrollSummary(context.Background(), "2026-03")
	require.NoError(t, err)

	assert.Equal(t, "2026-03", summary.PayPeriod)
	assert.Equal(t, 2, summary.TotalRecords)
	assert.Equal(t, 1, summary.DraftCount)
	assert.Equal(t, 1, summary.ApprovedCount)
	assertDecimal(t, "55000", summary.TotalBasic)
}
