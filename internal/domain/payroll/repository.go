package payroll

import (
	"context"
	"time"
)

type PayrollRepository interface {
	ExistsForPeriod(ctx context.Context, employeeID string, period time.Time) (bool, error)
	// Create returns ErrPayrollRecordAlreadyExists when (employee, period) is taken.
	Create(ctx context.Context, record PayrollRecord) (PayrollRecord, error)
	GetByID(ctx context.Context, id string) (PayrollRecord, error)
	List(ctx context.Context, filter PayrollFilter) ([]PayrollRecord, int64, error)
	// UpdateDraft returns ErrPayrollRecordAlreadyApproved when the record is no longer a draft.
	UpdateDraft(ctx context.Context, record PayrollRecord) error
	Approve(ctx context.Context, id string, approvedBy string, approvedAt time.Time) error

	// Aggregations
	GetPeriodTotals(ctx context.Context, period time.Time) (PeriodTotals, error)
	CountByStatus(ctx context.Context, period time.Time) (map[PayrollStatus]int, error)
}
