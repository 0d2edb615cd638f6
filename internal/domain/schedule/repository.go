package schedule

import (
	"context"
	"time"
)

type WorkScheduleRepository interface {
	Create(ctx context.Context, s WorkSchedule) (WorkSchedule, error)
	// FindEffective returns the row in force for employeeID on date, or nil.
	FindEffective(ctx context.Context, employeeID string, dayOfWeek int, date time.Time) (*WorkSchedule, error)
	// GetOpen returns the row with no effective_to for the weekday, or nil.
	GetOpen(ctx context.Context, employeeID string, dayOfWeek int) (*WorkSchedule, error)
	Close(ctx context.Context, id string, effectiveTo time.Time) error
	ListByEmployee(ctx context.Context, employeeID string) ([]WorkSchedule, error)
}
