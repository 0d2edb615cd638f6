package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var (
	sixty              = decimal.NewFromInt(60)
	workingDaysInMonth = decimal.NewFromInt(payroll.WorkingDaysInMonth)
	hoursPerDay        = decimal.NewFromInt(8)
	allowanceRate      = decimal.RequireFromString("0.20")
	overtimeMultiplier = decimal.RequireFromString("1.5")
)

type BuildInput struct {
	Employee        employee.Employee
	PayPeriod       time.Time
	Summary         payroll.AttendanceSummary
	OtherDeductions decimal.Decimal
	Notes           *string
}

// BuildPayrollRecord computes a draft record from the period's attendance summary.
func BuildPayrollRecord(in BuildInput) payroll.PayrollRecord {
	salary := in.Employee.MonthlySalary

	basic := salary.Mul(decimal.NewFromInt(int64(in.Summary.PresentDays))).Div(workingDaysInMonth).Round(2)
	allowances := basic.Mul(allowanceRate).Round(2)
	hourlyRate := HourlyRate(salary)
	// Priced from raw minutes; OvertimeHours is rounded for display only.
	overtime := decimal.NewFromInt(int64(in.Summary.OvertimeMinutes)).
		Mul(hourlyRate).Mul(overtimeMultiplier).Div(sixty).Round(2)

	record := payroll.PayrollRecord{
		EmployeeID:      in.Employee.ID,
		PayPeriod:       in.PayPeriod,
		BasicSalary:     basic,
		Allowances:      allowances,
		OvertimeAmount:  overtime,
		OtherDeductions: in.OtherDeductions.Round(2),
		WorkingDays:     in.Summary.WorkingDays,
		PresentDays:     in.Summary.PresentDays,
		AbsentDays:      in.Summary.AbsentDays,
		LateDays:        in.Summary.LateDays,
		TotalHours:      in.Summary.TotalHours,
		OvertimeHours:   in.Summary.OvertimeHours,
		Status:          payroll.PayrollStatusDraft,
		Notes:           in.Notes,
	}
	Recalculate(&record)
	return record
}

// HourlyRate is the monthly salary spread over 30 days of 8 hours.
func HourlyRate(monthlySalary decimal.Decimal) decimal.Decimal {
	return monthlySalary.Div(workingDaysInMonth).Div(hoursPerDay)
}

// Recalculate derives gross, statutory deductions, totals and net pay from the record's
// basic, allowances, overtime and other deductions.
func Recalculate(r *payroll.PayrollRecord) {
	r.GrossSalary = r.BasicSalary.Add(r.Allowances).Add(r.OvertimeAmount).Round(2)

	stat := CalculateStatutory(r.BasicSalary, r.GrossSalary)
	r.PFDeduction = stat.ProvidentFund
	r.ESIDeduction = stat.EmployeeStateInsurance
	r.ProfessionalTax = stat.ProfessionalTax
	r.TDSDeduction = stat.TDS

	r.TotalDeductions = stat.Total().Add(r.OtherDeductions).Round(2)
	r.NetSalary = r.GrossSalary.Sub(r.TotalDeductions).Round(2)
}
