package employee

import "context"

// EmployeeRepository reads employees. Writes belong to the employee service.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByIDs(ctx context.Context, ids []string) ([]Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
}
