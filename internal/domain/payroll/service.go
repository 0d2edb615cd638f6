package payroll

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
)

type PayrollService interface {
	// Generate builds draft records for every requested (or every active) employee.
	// Per-employee failures are reported in the result, not returned as an error.
	Generate(ctx context.Context, act actor.Actor, req GeneratePayrollRequest) (GeneratePayrollResult, error)
	GenerateForEmployee(ctx context.Context, act actor.Actor, req GenerateEmployeePayrollRequest) (PayrollRecordResponse, error)
	GetPayrollRecord(ctx context.Context, id string) (PayrollRecordResponse, error)
	ListPayrollRecords(ctx context.Context, filter PayrollFilter) (ListPayrollRecordResponse, error)
	UpdatePayrollRecord(ctx context.Context, act actor.Actor, req UpdatePayrollRecordRequest) (PayrollRecordResponse, error)
	ApprovePayrollRecord(ctx context.Context, act actor.Actor, id string) (PayrollRecordResponse, error)
	GetPayrollSummary(ctx context.Context, payPeriod string) (PayrollSummaryResponse, error)
}
