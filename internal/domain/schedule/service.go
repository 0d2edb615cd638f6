package schedule

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
)

// Resolver picks the schedule in force for an employee on a date. It never fails for a
// missing schedule; the default schedule is returned instead.
type Resolver interface {
	Resolve(ctx context.Context, employeeID string, date time.Time) (WorkSchedule, error)
}

type ScheduleService interface {
	Resolver
	Create(ctx context.Context, act actor.Actor, req CreateWorkScheduleRequest) (WorkScheduleResponse, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]WorkScheduleResponse, error)
}
