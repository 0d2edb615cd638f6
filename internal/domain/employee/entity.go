package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the read-only projection of an employee owned by the employee service.
type Employee struct {
	ID            string
	DepartmentID  *string
	EmployeeCode  string
	FullName      string
	MonthlySalary decimal.Decimal
	Status        EmploymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusInactive   EmploymentStatus = "inactive"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

func (e Employee) IsActive() bool {
	return e.Status == EmploymentStatusActive
}
