package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// Create inserts a clock-in record. It returns ErrAlreadyClockedIn when a record for
	// the same employee and date exists.
	Create(ctx context.Context, a Attendance) (Attendance, error)

	GetByID(ctx context.Context, id string) (Attendance, error)

	// GetByEmployeeAndDate returns nil when there is no record.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Attendance, error)

	// CompleteClockOut writes the clock-out fields once. It returns ErrAlreadyClockedOut
	// when the record already has a clock-out.
	CompleteClockOut(ctx context.Context, a Attendance) error

	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)

	// ListByEmployeeAndRange returns records with date in [start, end], oldest first.
	ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]Attendance, error)

	// MarkAbsent inserts absent records for active employees with a schedule row for
	// date's weekday and no record on date. It returns the number inserted.
	MarkAbsent(ctx context.Context, date time.Time, dayOfWeek int) (int64, error)
}
