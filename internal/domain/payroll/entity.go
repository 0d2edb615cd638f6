package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkingDaysInMonth is the fixed proration denominator, independent of calendar length.
const WorkingDaysInMonth = 30

// PayrollStatus enum
type PayrollStatus string

const (
	PayrollStatusDraft    PayrollStatus = "draft"
	PayrollStatusApproved PayrollStatus = "approved"
)

var PayrollStatusValues = []string{
	string(PayrollStatusDraft),
	string(PayrollStatusApproved),
}

// PayrollRecord is one employee's computed pay for one month. Drafts may be edited;
// approval is final.
type PayrollRecord struct {
	ID              string
	EmployeeID      string
	PayPeriod       time.Time // first day of the month
	BasicSalary     decimal.Decimal
	Allowances      decimal.Decimal
	OvertimeAmount  decimal.Decimal
	GrossSalary     decimal.Decimal
	PFDeduction     decimal.Decimal
	ESIDeduction    decimal.Decimal
	TDSDeduction    decimal.Decimal
	ProfessionalTax decimal.Decimal
	OtherDeductions decimal.Decimal
	TotalDeductions decimal.Decimal
	NetSalary       decimal.Decimal
	WorkingDays     int
	PresentDays     int
	AbsentDays      int
	LateDays        int
	TotalHours      decimal.Decimal
	OvertimeHours   decimal.Decimal
	Status          PayrollStatus
	ApprovedBy      *string
	ApprovedAt      *time.Time
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined fields
	EmployeeName *string
	EmployeeCode *string
}

func (r PayrollRecord) IsDraft() bool {
	return r.Status == PayrollStatusDraft
}

// AttendanceSummary is the per-period aggregate of one employee's attendance records.
type AttendanceSummary struct {
	EmployeeID           string
	WorkingDays          int
	PresentDays          int
	LateDays             int
	AbsentDays           int
	IncompleteDays       int
	TotalHours           decimal.Decimal
	OvertimeMinutes      int
	OvertimeHours        decimal.Decimal
	TotalSalaryDeduction decimal.Decimal
	TotalOvertimeBonus   decimal.Decimal
}

// StatutoryDeductions are the mandatory deductions derived from basic and gross pay.
type StatutoryDeductions struct {
	ProvidentFund          decimal.Decimal
	EmployeeStateInsurance decimal.Decimal
	ProfessionalTax        decimal.Decimal
	TDS                    decimal.Decimal
}

func (s StatutoryDeductions) Total() decimal.Decimal {
	return s.ProvidentFund.Add(s.EmployeeStateInsurance).Add(s.ProfessionalTax).Add(s.TDS)
}

// PeriodTotals sums the records of one pay period.
type PeriodTotals struct {
	RecordCount     int
	BasicSalary     decimal.Decimal
	Allowances      decimal.Decimal
	OvertimeAmount  decimal.Decimal
	GrossSalary     decimal.Decimal
	TotalDeductions decimal.Decimal
	NetSalary       decimal.Decimal
}
