package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Access
	case errors.Is(err, jwt.ErrInvalidClaims):
		Unauthorized(w, "Invalid token")
	case errors.Is(err, actor.ErrForbidden):
		Forbidden(w, err.Error())

	// Employee
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		UnprocessableEntity(w, "Employee is not active")

	// Schedule
	case errors.Is(err, schedule.ErrWorkScheduleNotFound):
		NotFound(w, "Work schedule not found")
	case errors.Is(err, schedule.ErrEffectiveFromNotLatest):
		Conflict(w, err.Error())
	case errors.Is(err, schedule.ErrInvalidTimeOfDay), errors.Is(err, schedule.ErrEndBeforeStart):
		UnprocessableEntity(w, err.Error())

	// Rules
	case errors.Is(err, rule.ErrRuleNotFound):
		NotFound(w, "Rule not found")
	case errors.Is(err, rule.ErrRuleAlreadyInactive):
		Conflict(w, err.Error())

	// Attendance
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		Conflict(w, "Already clocked in today")
	case errors.Is(err, attendance.ErrAlreadyClockedOut):
		Conflict(w, "Already clocked out")
	case errors.Is(err, attendance.ErrNotClockedIn):
		NotFound(w, "No clock-in found for today")
	case errors.Is(err, attendance.ErrRecordForOtherStaff):
		Forbidden(w, err.Error())

	// Payroll
	case errors.Is(err, payroll.ErrPayrollRecordNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrPayrollRecordAlreadyExists):
		Conflict(w, "Payroll already exists for this period")
	case errors.Is(err, payroll.ErrPayrollRecordAlreadyApproved):
		Conflict(w, "Payroll record already approved")
	case errors.Is(err, payroll.ErrInvalidPeriod), errors.Is(err, payroll.ErrNegativeAmount):
		UnprocessableEntity(w, err.Error())

	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
