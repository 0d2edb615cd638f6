package payroll

import "errors"

var (
	ErrPayrollRecordNotFound        = errors.New("payroll record not found")
	ErrPayrollRecordAlreadyExists   = errors.New("payroll record already exists for this period")
	ErrPayrollRecordAlreadyApproved = errors.New("payroll record already approved, cannot modify")
	ErrInvalidPeriod                = errors.New("invalid payroll period")
	ErrNegativeAmount               = errors.New("amount must be non-negative")
)
