package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
)

type AttendanceService interface {
	ClockIn(ctx context.Context, act actor.Actor, req ClockInRequest) (AttendanceResponse, error)
	ClockOut(ctx context.Context, act actor.Actor, req ClockOutRequest) (AttendanceResponse, error)
	GetAttendance(ctx context.Context, act actor.Actor, id string) (AttendanceResponse, error)
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)
	// MarkAbsent records absences for date; used by the nightly job.
	MarkAbsent(ctx context.Context, date time.Time) (int64, error)
}
