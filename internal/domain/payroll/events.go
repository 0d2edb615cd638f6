package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicPayslipRequested     = "payroll.payslip.requested.v1"
	EventTypePayslipRequested = "payroll.payslip.requested"
	AggregateTypePayroll      = "payroll"
)

// PayslipRequestedEvent is published when a record is approved. The payslip renderer
// consumes it; nothing in this service renders payslips.
type PayslipRequestedEvent struct {
	EventID    string          `json:"event_id"`
	PayrollID  string          `json:"payroll_id"`
	EmployeeID string          `json:"employee_id"`
	PayPeriod  string          `json:"pay_period"`
	GrossPay   decimal.Decimal `json:"gross_salary"`
	NetPay     decimal.Decimal `json:"net_salary"`
	ApprovedBy string          `json:"approved_by"`
	ApprovedAt time.Time       `json:"approved_at"`
	RequestID  string          `json:"request_id,omitempty"`
}
