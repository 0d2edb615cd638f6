package payroll

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/outbox"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Transactor runs fn in one database transaction; repositories called with the ctx
// passed to fn take part in it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type PayrollServiceImpl struct {
	tx             Transactor
	payrollRepo    payroll.PayrollRepository
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	outboxRepo     outbox.Repository
	logger         *slog.Logger
	now            func() time.Time
}

func NewPayrollService(
	tx Transactor,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	outboxRepo outbox.Repository,
	logger *slog.Logger,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		tx:             tx,
		payrollRepo:    payrollRepo,
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		outboxRepo:     outboxRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// ========== GENERATION ==========

func (s *PayrollServiceImpl) Generate(ctx context.Context, act actor.Actor, req payroll.GeneratePayrollRequest) (payroll.GeneratePayrollResult, error) {
	if !act.IsAdministrative() {
		return payroll.GeneratePayrollResult{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return payroll.GeneratePayrollResult{}, err
	}
	period, err := payroll.ParsePeriod(req.PayPeriod)
	if err != nil {
		return payroll.GeneratePayrollResult{}, err
	}

	result := payroll.GeneratePayrollResult{
		PayPeriod: payroll.FormatPeriod(period),
		Records:   []payroll.PayrollRecordResponse{},
		Errors:    []payroll.BatchError{},
	}

	var employees []employee.Employee
	if len(req.EmployeeIDs) > 0 {
		result.TotalEmployees = len(req.EmployeeIDs)
		found, err := s.employeeRepo.GetByIDs(ctx, req.EmployeeIDs)
		if err != nil {
			return payroll.GeneratePayrollResult{}, fmt.Errorf("load employees: %w", err)
		}
		byID := make(map[string]employee.Employee, len(found))
		for _, e := range found {
			byID[e.ID] = e
		}
		for _, id := range req.EmployeeIDs {
			e, ok := byID[id]
			switch {
			case !ok:
				result.Errors = append(result.Errors, payroll.BatchError{EmployeeID: id, Error: employee.ErrEmployeeNotFound.Error()})
			case !e.IsActive():
				result.Errors = append(result.Errors, payroll.BatchError{EmployeeID: id, Error: employee.ErrEmployeeInactive.Error()})
			default:
				employees = append(employees, e)
			}
		}
	} else {
		employees, err = s.employeeRepo.ListActive(ctx)
		if err != nil {
			return payroll.GeneratePayrollResult{}, fmt.Errorf("list active employees: %w", err)
		}
		result.TotalEmployees = len(employees)
	}

	// Each employee commits independently; a failure is recorded and the batch continues.
	for _, emp := range employees {
		record, err := s.generateOne(ctx, emp, period, decimal.Zero, nil)
		if err != nil {
			s.logger.WarnContext(ctx, "payroll generation failed for employee",
				"employee_id", emp.ID, "pay_period", result.PayPeriod, "error", err)
			result.Errors = append(result.Errors, payroll.BatchError{EmployeeID: emp.ID, Error: err.Error()})
			continue
		}
		result.Records = append(result.Records, payroll.ToRecordResponse(record))
		result.ProcessedCount++
	}

	s.logger.InfoContext(ctx, "payroll batch generated",
		"pay_period", result.PayPeriod,
		"total_employees", result.TotalEmployees,
		"processed_count", result.ProcessedCount,
		"error_count", len(result.Errors),
		"actor", act.UserID,
		"request_id", act.RequestID,
	)

	return result, nil
}

func (s *PayrollServiceImpl) GenerateForEmployee(ctx context.Context, act actor.Actor, req payroll.GenerateEmployeePayrollRequest) (payroll.PayrollRecordResponse, error) {
	if !act.IsAdministrative() {
		return payroll.PayrollRecordResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	period, err := payroll.ParsePeriod(req.PayPeriod)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	if !emp.IsActive() {
		return payroll.PayrollRecordResponse{}, employee.ErrEmployeeInactive
	}

	other := decimal.Zero
	if req.OtherDeductions != nil {
		other = *req.OtherDeductions
	}

	record, err := s.generateOne(ctx, emp, period, other, req.Notes)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	s.logger.InfoContext(ctx, "payroll record generated",
		"payroll_id", record.ID,
		"employee_id", emp.ID,
		"pay_period", payroll.FormatPeriod(period),
		"net_salary", record.NetSalary.String(),
		"actor", act.UserID,
		"request_id", act.RequestID,
	)
	return payroll.ToRecordResponse(record), nil
}

func (s *PayrollServiceImpl) generateOne(ctx context.Context, emp employee.Employee, period time.Time, other decimal.Decimal, notes *string) (payroll.PayrollRecord, error) {
	exists, err := s.payrollRepo.ExistsForPeriod(ctx, emp.ID, period)
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("check existing payroll: %w", err)
	}
	if exists {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordAlreadyExists
	}

	records, err := s.attendanceRepo.ListByEmployeeAndRange(ctx, emp.ID, period, payroll.PeriodEnd(period))
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("load attendance: %w", err)
	}

	record := BuildPayrollRecord(BuildInput{
		Employee:        emp,
		PayPeriod:       period,
		Summary:         Aggregate(emp.ID, records),
		OtherDeductions: other,
		Notes:           notes,
	})
	record.ID = uuid.Must(uuid.NewV7()).String()

	// The unique (employee_id, pay_period) constraint still guards a concurrent insert
	// that passed the check above.
	created, err := s.payrollRepo.Create(ctx, record)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	created.EmployeeName = &emp.FullName
	created.EmployeeCode = &emp.EmployeeCode
	return created, nil
}

// ========== RECORDS ==========

func (s *PayrollServiceImpl) GetPayrollRecord(ctx context.Context, id string) (payroll.PayrollRecordResponse, error) {
	record, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return payroll.ToRecordResponse(record), nil
}

func (s *PayrollServiceImpl) ListPayrollRecords(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollRecordResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListPayrollRecordResponse{}, err
	}

	records, total, err := s.payrollRepo.List(ctx, filter)
	if err != nil {
		return payroll.ListPayrollRecordResponse{}, fmt.Errorf("list payroll records: %w", err)
	}

	data := make([]payroll.PayrollRecordResponse, 0, len(records))
	for _, r := range records {
		data = append(data, payroll.ToRecordResponse(r))
	}

	return payroll.ListPayrollRecordResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *PayrollServiceImpl) UpdatePayrollRecord(ctx context.Context, act actor.Actor, req payroll.UpdatePayrollRecordRequest) (payroll.PayrollRecordResponse, error) {
	if !act.IsAdministrative() {
		return payroll.PayrollRecordResponse{}, actor.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	record, err := s.payrollRepo.GetByID(ctx, req.ID)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	if !record.IsDraft() {
		return payroll.PayrollRecordResponse{}, payroll.ErrPayrollRecordAlreadyApproved
	}

	if req.BasicSalary != nil {
		record.BasicSalary = req.BasicSalary.Round(2)
	}
	if req.Allowances != nil {
		record.Allowances = req.Allowances.Round(2)
	}
	if req.OvertimeAmount != nil {
		record.OvertimeAmount = req.OvertimeAmount.Round(2)
	}
	if req.OtherDeductions != nil {
		record.OtherDeductions = req.OtherDeductions.Round(2)
	}
	if req.Notes != nil {
		record.Notes = req.Notes
	}
	Recalculate(&record)

	if err := s.payrollRepo.UpdateDraft(ctx, record); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	s.logger.InfoContext(ctx, "payroll draft updated",
		"payroll_id", record.ID,
		"net_salary", record.NetSalary.String(),
		"actor", act.UserID,
		"request_id", act.RequestID,
	)
	return payroll.ToRecordResponse(record), nil
}

// ApprovePayrollRecord finalizes a draft and queues the payslip request in the same
// transaction.
func (s *PayrollServiceImpl) ApprovePayrollRecord(ctx context.Context, act actor.Actor, id string) (payroll.PayrollRecordResponse, error) {
	if !act.IsAdministrative() {
		return payroll.PayrollRecordResponse{}, actor.ErrForbidden
	}

	var approved payroll.PayrollRecord
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		record, err := s.payrollRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !record.IsDraft() {
			return payroll.ErrPayrollRecordAlreadyApproved
		}

		approvedAt := s.now().UTC()
		if err := s.payrollRepo.Approve(ctx, id, act.UserID, approvedAt); err != nil {
			return err
		}
		record.Status = payroll.PayrollStatusApproved
		record.ApprovedBy = &act.UserID
		record.ApprovedAt = &approvedAt

		event, err := payslipRequestedEvent(record, act)
		if err != nil {
			return err
		}
		if err := s.outboxRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("enqueue payslip request: %w", err)
		}

		approved = record
		return nil
	})
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	s.logger.InfoContext(ctx, "payroll record approved",
		"payroll_id", approved.ID,
		"employee_id", approved.EmployeeID,
		"actor", act.UserID,
		"request_id", act.RequestID,
	)
	return payroll.ToRecordResponse(approved), nil
}

func payslipRequestedEvent(record payroll.PayrollRecord, act actor.Actor) (outbox.Event, error) {
	eventID := uuid.Must(uuid.NewV7()).String()
	payload, err := json.Marshal(payroll.PayslipRequestedEvent{
		EventID:    eventID,
		PayrollID:  record.ID,
		EmployeeID: record.EmployeeID,
		PayPeriod:  payroll.FormatPeriod(record.PayPeriod),
		GrossPay:   record.GrossSalary,
		NetPay:     record.NetSalary,
		ApprovedBy: act.UserID,
		ApprovedAt: *record.ApprovedAt,
		RequestID:  act.RequestID,
	})
	if err != nil {
		return outbox.Event{}, fmt.Errorf("marshal payslip event: %w", err)
	}

	return outbox.Event{
		ID:            eventID,
		RequestID:     act.RequestID,
		AggregateType: payroll.AggregateTypePayroll,
		AggregateID:   record.ID,
		EventType:     payroll.EventTypePayslipRequested,
		Topic:         payroll.TopicPayslipRequested,
		Payload:       payload,
		Status:        outbox.StatusPending,
	}, nil
}

// ========== SUMMARY ==========

func (s *PayrollServiceImpl) GetPayrollSummary(ctx context.Context, payPeriod string) (payroll.PayrollSummaryResponse, error) {
	period, err := payroll.ParsePeriod(payPeriod)
	if err != nil {
		return payroll.PayrollSummaryResponse{}, err
	}

	var (
		totals payroll.PeriodTotals
		counts map[payroll.PayrollStatus]int
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.payrollRepo.GetPeriodTotals(gCtx, period)
		if err != nil {
			return fmt.Errorf("period totals: %w", err)
		}
		totals = t
		return nil
	})

	g.Go(func() error {
		c, err := s.payrollRepo.CountByStatus(gCtx, period)
		if err != nil {
			return fmt.Errorf("status counts: %w", err)
		}
		counts = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return payroll.PayrollSummaryResponse{}, err
	}

	return payroll.PayrollSummaryResponse{
		PayPeriod:       payroll.FormatPeriod(period),
		TotalRecords:    totals.RecordCount,
		TotalBasic:      totals.BasicSalary,
		TotalAllowances: totals.Allowances,
		TotalOvertime:   totals.OvertimeAmount,
		TotalGross:      totals.GrossSalary,
		TotalDeductions: totals.TotalDeductions,
		TotalNet:        totals.NetSalary,
		DraftCount:      counts[payroll.PayrollStatusDraft],
		ApprovedCount:   counts[payroll.PayrollStatusApproved],
	}, nil
}
