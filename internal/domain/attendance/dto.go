package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type ClockInRequest struct {
	EmployeeID     string  `json:"employee_id" validate:"required,uuid"`
	AttendanceType string  `json:"attendance_type" validate:"required,oneof=qr_code rfid biometric manual"`
	DeviceID       *string `json:"device_id,omitempty" validate:"omitempty,max=100"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (r *ClockInRequest) Validate() error {
	errs := validator.Struct(r)

	if r.AttendanceType != string(SourceManual) && r.AttendanceType != "" && (r.DeviceID == nil || validator.IsEmpty(*r.DeviceID)) {
		errs = append(errs, validator.ValidationError{
			Field:   "device_id",
			Message: "is required for device clock events",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ClockOutRequest struct {
	EmployeeID string  `json:"employee_id" validate:"required,uuid"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (r *ClockOutRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

type AttendanceResponse struct {
	ID                string          `json:"id"`
	EmployeeID        string          `json:"employee_id"`
	EmployeeName      *string         `json:"employee_name,omitempty"`
	Date              string          `json:"date"`
	ClockIn           *string         `json:"clock_in,omitempty"`
	ClockOut          *string         `json:"clock_out,omitempty"`
	AttendanceType    string          `json:"attendance_type"`
	DeviceID          *string         `json:"device_id,omitempty"`
	ScheduledClockIn  *string         `json:"scheduled_clock_in,omitempty"`
	ScheduledClockOut *string         `json:"scheduled_clock_out,omitempty"`
	LateMinutes       int             `json:"late_minutes"`
	OvertimeMinutes   int             `json:"overtime_minutes"`
	SalaryDeduction   decimal.Decimal `json:"salary_deduction"`
	OvertimeBonus     decimal.Decimal `json:"overtime_bonus"`
	HoursWorked       decimal.Decimal `json:"hours_worked"`
	Status            string          `json:"status"`
	Notes             *string         `json:"notes,omitempty"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
}

func ToResponse(a Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:              a.ID,
		EmployeeID:      a.EmployeeID,
		EmployeeName:    a.EmployeeName,
		Date:            a.Date.Format("2006-01-02"),
		AttendanceType:  string(a.AttendanceType),
		DeviceID:        a.DeviceID,
		LateMinutes:     a.LateMinutes,
		OvertimeMinutes: a.OvertimeMinutes,
		SalaryDeduction: a.SalaryDeduction,
		OvertimeBonus:   a.OvertimeBonus,
		HoursWorked:     a.HoursWorked,
		Status:          string(a.Status),
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.Format(time.RFC3339),
	}
	if a.ClockIn != nil {
		v := a.ClockIn.Format(time.RFC3339)
		resp.ClockIn = &v
	}
	if a.ClockOut != nil {
		v := a.ClockOut.Format(time.RFC3339)
		resp.ClockOut = &v
	}
	if a.ScheduledClockIn != nil {
		v := a.ScheduledClockIn.String()
		resp.ScheduledClockIn = &v
	}
	if a.ScheduledClockOut != nil {
		v := a.ScheduledClockOut.String()
		resp.ScheduledClockOut = &v
	}
	return resp
}

type AttendanceFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status     *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, clock_in, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}

	if f.Status != nil && !validator.IsInSlice(*f.Status, StatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: present, late, absent",
		})
	}

	var start, end time.Time
	var hasStart, hasEnd bool
	if f.StartDate != nil && *f.StartDate != "" {
		if start, hasStart = validator.IsValidDate(*f.StartDate); !hasStart {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if end, hasEnd = validator.IsValidDate(*f.EndDate); !hasEnd {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}
	if hasStart && hasEnd && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if f.SortBy != "" {
		if !validator.IsInSlice(f.SortBy, []string{"date", "clock_in", "status"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: date, clock_in, status",
			})
		}
	} else {
		f.SortBy = "date"
	}

	if f.SortOrder != "" {
		if f.SortOrder != "asc" && f.SortOrder != "desc" {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}
