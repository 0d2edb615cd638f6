package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== GENERATION DTOs ==========

type GeneratePayrollRequest struct {
	PayPeriod   string   `json:"pay_period" validate:"required,payperiod"`
	EmployeeIDs []string `json:"employee_ids,omitempty" validate:"omitempty,dive,uuid"` // Empty = all active employees
}

func (r *GeneratePayrollRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

type GenerateEmployeePayrollRequest struct {
	EmployeeID      string           `json:"employee_id" validate:"required,uuid"`
	PayPeriod       string           `json:"pay_period" validate:"required,payperiod"`
	OtherDeductions *decimal.Decimal `json:"other_deductions,omitempty"`
	Notes           *string          `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (r *GenerateEmployeePayrollRequest) Validate() error {
	errs := validator.Struct(r)
	if r.OtherDeductions != nil && r.OtherDeductions.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "other_deductions", Message: "must be non-negative"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// BatchError records one employee whose record could not be generated.
type BatchError struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

type GeneratePayrollResult struct {
	PayPeriod      string                  `json:"pay_period"`
	TotalEmployees int                     `json:"total_employees"`
	ProcessedCount int                     `json:"processed_count"`
	Records        []PayrollRecordResponse `json:"records"`
	Errors         []BatchError            `json:"errors"`
}

// ========== RECORD DTOs ==========

type UpdatePayrollRecordRequest struct {
	ID              string           `json:"-"`
	BasicSalary     *decimal.Decimal `json:"basic_salary,omitempty"`
	Allowances      *decimal.Decimal `json:"allowances,omitempty"`
	OvertimeAmount  *decimal.Decimal `json:"overtime_amount,omitempty"`
	OtherDeductions *decimal.Decimal `json:"other_deductions,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

func (r *UpdatePayrollRecordRequest) Validate() error {
	var errs validator.ValidationErrors

	check := func(field string, v *decimal.Decimal) {
		if v != nil && v.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: field, Message: "must be non-negative"})
		}
	}
	check("basic_salary", r.BasicSalary)
	check("allowances", r.Allowances)
	check("overtime_amount", r.OvertimeAmount)
	check("other_deductions", r.OtherDeductions)

	if r.BasicSalary == nil && r.Allowances == nil && r.OvertimeAmount == nil && r.OtherDeductions == nil && r.Notes == nil {
		errs = append(errs, validator.ValidationError{Field: "request", Message: "at least one field must be provided"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayrollRecordResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	EmployeeName    *string         `json:"employee_name,omitempty"`
	EmployeeCode    *string         `json:"employee_code,omitempty"`
	PayPeriod       string          `json:"pay_period"`
	BasicSalary     decimal.Decimal `json:"basic_salary"`
	Allowances      decimal.Decimal `json:"allowances"`
	OvertimeAmount  decimal.Decimal `json:"overtime_amount"`
	GrossSalary     decimal.Decimal `json:"gross_salary"`
	PFDeduction     decimal.Decimal `json:"pf_deduction"`
	ESIDeduction    decimal.Decimal `json:"esi_deduction"`
	TDSDeduction    decimal.Decimal `json:"tds_deduction"`
	ProfessionalTax decimal.Decimal `json:"professional_tax"`
	OtherDeductions decimal.Decimal `json:"other_deductions"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetSalary       decimal.Decimal `json:"net_salary"`
	WorkingDays     int             `json:"working_days"`
	PresentDays     int             `json:"present_days"`
	AbsentDays      int             `json:"absent_days"`
	LateDays        int             `json:"late_days"`
	TotalHours      decimal.Decimal `json:"total_hours"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours"`
	Status          string          `json:"status"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	ApprovedAt      *string         `json:"approved_at,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

func ToRecordResponse(r PayrollRecord) PayrollRecordResponse {
	resp := PayrollRecordResponse{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		EmployeeName:    r.EmployeeName,
		EmployeeCode:    r.EmployeeCode,
		PayPeriod:       FormatPeriod(r.PayPeriod),
		BasicSalary:     r.BasicSalary,
		Allowances:      r.Allowances,
		OvertimeAmount:  r.OvertimeAmount,
		GrossSalary:     r.GrossSalary,
		PFDeduction:     r.PFDeduction,
		ESIDeduction:    r.ESIDeduction,
		TDSDeduction:    r.TDSDeduction,
		ProfessionalTax: r.ProfessionalTax,
		OtherDeductions: r.OtherDeductions,
		TotalDeductions: r.TotalDeductions,
		NetSalary:       r.NetSalary,
		WorkingDays:     r.WorkingDays,
		PresentDays:     r.PresentDays,
		AbsentDays:      r.AbsentDays,
		LateDays:        r.LateDays,
		TotalHours:      r.TotalHours,
		OvertimeHours:   r.OvertimeHours,
		Status:          string(r.Status),
		ApprovedBy:      r.ApprovedBy,
		Notes:           r.Notes,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}
	if r.ApprovedAt != nil {
		v := r.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	return resp
}

type PayrollFilter struct {
	PayPeriod  *string `json:"pay_period,omitempty"`
	Status     *string `json:"status,omitempty"`
	EmployeeID *string `json:"employee_id,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	SortBy     string  `json:"sort_by"`
	SortOrder  string  `json:"sort_order"`
}

func (f *PayrollFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "must be a positive number"})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 || f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "must be between 1 and 100"})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.PayPeriod != nil {
		if _, ok := validator.ParsePayPeriod(*f.PayPeriod); !ok {
			errs = append(errs, validator.ValidationError{Field: "pay_period", Message: "must be in YYYY-MM format"})
		}
	}
	if f.Status != nil && !validator.IsInSlice(*f.Status, PayrollStatusValues) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be one of: draft, approved"})
	}
	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}
	if f.SortBy == "" {
		f.SortBy = "pay_period"
	} else if !validator.IsInSlice(f.SortBy, []string{"pay_period", "net_salary", "employee_name", "created_at"}) {
		errs = append(errs, validator.ValidationError{Field: "sort_by", Message: "must be one of: pay_period, net_salary, employee_name, created_at"})
	}
	if f.SortOrder == "" {
		f.SortOrder = "desc"
	} else if f.SortOrder != "asc" && f.SortOrder != "desc" {
		errs = append(errs, validator.ValidationError{Field: "sort_order", Message: "must be one of: asc, desc"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListPayrollRecordResponse struct {
	Data       []PayrollRecordResponse `json:"data"`
	TotalCount int64                   `json:"total_count"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"total_pages"`
}

type PayrollSummaryResponse struct {
	PayPeriod       string          `json:"pay_period"`
	TotalRecords    int             `json:"total_records"`
	TotalBasic      decimal.Decimal `json:"total_basic_salary"`
	TotalAllowances decimal.Decimal `json:"total_allowances"`
	TotalOvertime   decimal.Decimal `json:"total_overtime"`
	TotalGross      decimal.Decimal `json:"total_gross_salary"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNet        decimal.Decimal `json:"total_net_salary"`
	DraftCount      int             `json:"draft_count"`
	ApprovedCount   int             `json:"approved_count"`
}
