package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// Aggregate summarizes one employee's attendance records for a period. The caller
// passes only records dated inside the period.
//
// A record without a clock-out counts as absent and contributes no hours.
func Aggregate(employeeID string, records []attendance.Attendance) payroll.AttendanceSummary {
	summary := payroll.AttendanceSummary{
		EmployeeID:           employeeID,
		WorkingDays:          len(records),
		TotalHours:           decimal.Zero,
		OvertimeHours:        decimal.Zero,
		TotalSalaryDeduction: decimal.Zero,
		TotalOvertimeBonus:   decimal.Zero,
	}

	for _, r := range records {
		summary.OvertimeMinutes += r.OvertimeMinutes
		summary.TotalSalaryDeduction = summary.TotalSalaryDeduction.Add(r.SalaryDeduction)
		summary.TotalOvertimeBonus = summary.TotalOvertimeBonus.Add(r.OvertimeBonus)

		if r.Status == attendance.StatusAbsent {
			summary.AbsentDays++
			continue
		}
		if !r.IsComplete() {
			summary.AbsentDays++
			summary.IncompleteDays++
			continue
		}

		summary.TotalHours = summary.TotalHours.Add(r.HoursWorked)
		switch r.Status {
		case attendance.StatusPresent, attendance.StatusOnTime:
			summary.PresentDays++
		case attendance.StatusLate:
			summary.LateDays++
		}
	}

	summary.TotalHours = summary.TotalHours.Round(2)
	summary.OvertimeHours = decimal.NewFromInt(int64(summary.OvertimeMinutes)).Div(sixty).Round(2)
	return summary
}
