package schedule

import (
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateWorkScheduleRequest struct {
	EmployeeID         string  `json:"employee_id" validate:"required,uuid"`
	DayOfWeek          int     `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime          string  `json:"start_time" validate:"required,timeofday"`
	EndTime            string  `json:"end_time" validate:"required,timeofday"`
	BreakStart         *string `json:"break_start,omitempty" validate:"omitempty,timeofday"`
	BreakEnd           *string `json:"break_end,omitempty" validate:"omitempty,timeofday"`
	GracePeriodMinutes *int    `json:"grace_period_minutes,omitempty" validate:"omitempty,min=0,max=240"`
	EffectiveFrom      string  `json:"effective_from" validate:"required,datetime=2006-01-02"`
}

func (r *CreateWorkScheduleRequest) Validate() error {
	errs := validator.Struct(r)
	if len(errs) > 0 {
		return errs
	}

	start, _ := ParseTimeOfDay(r.StartTime)
	end, _ := ParseTimeOfDay(r.EndTime)
	if end <= start {
		errs = append(errs, validator.ValidationError{Field: "end_time", Message: "must be after start_time"})
	}

	if (r.BreakStart == nil) != (r.BreakEnd == nil) {
		errs = append(errs, validator.ValidationError{Field: "break_end", Message: "break_start and break_end must be set together"})
	} else if r.BreakStart != nil {
		bs, _ := ParseTimeOfDay(*r.BreakStart)
		be, _ := ParseTimeOfDay(*r.BreakEnd)
		if be <= bs {
			errs = append(errs, validator.ValidationError{Field: "break_end", Message: "must be after break_start"})
		} else if bs < start || be > end {
			errs = append(errs, validator.ValidationError{Field: "break_start", Message: "break must fall within working hours"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type WorkScheduleResponse struct {
	ID                 *string         `json:"id"`
	EmployeeID         string          `json:"employee_id"`
	DayOfWeek          int             `json:"day_of_week"`
	StartTime          string          `json:"start_time"`
	EndTime            string          `json:"end_time"`
	BreakStart         *string         `json:"break_start,omitempty"`
	BreakEnd           *string         `json:"break_end,omitempty"`
	GracePeriodMinutes int             `json:"grace_period_minutes"`
	WorkHours          decimal.Decimal `json:"work_hours"`
	EffectiveFrom      *string         `json:"effective_from"`
	EffectiveTo        *string         `json:"effective_to"`
	IsDefault          bool            `json:"is_default"`
}

func ToResponse(s WorkSchedule) WorkScheduleResponse {
	resp := WorkScheduleResponse{
		EmployeeID:         s.EmployeeID,
		DayOfWeek:          s.DayOfWeek,
		StartTime:          s.StartTime.String(),
		EndTime:            s.EndTime.String(),
		GracePeriodMinutes: s.GracePeriodMinutes,
		WorkHours:          s.WorkHours(),
		IsDefault:          s.IsDefault,
	}
	if s.ID != "" {
		id := s.ID
		resp.ID = &id
	}
	if s.BreakStart != nil {
		v := s.BreakStart.String()
		resp.BreakStart = &v
	}
	if s.BreakEnd != nil {
		v := s.BreakEnd.String()
		resp.BreakEnd = &v
	}
	if !s.EffectiveFrom.IsZero() {
		v := s.EffectiveFrom.Format("2006-01-02")
		resp.EffectiveFrom = &v
	}
	if s.EffectiveTo != nil {
		v := s.EffectiveTo.Format("2006-01-02")
		resp.EffectiveTo = &v
	}
	return resp
}
