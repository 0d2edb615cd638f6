package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// AbsenceMarker is satisfied by attendance.AttendanceService.
type AbsenceMarker interface {
	MarkAbsent(ctx context.Context, date time.Time) (int64, error)
}

type OutboxDispatcher interface {
	DispatchPending(ctx context.Context) (int, error)
}

type AttendanceJobs struct {
	marker AbsenceMarker
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

func NewAttendanceJobs(marker AbsenceMarker, loc *time.Location, logger *slog.Logger) *AttendanceJobs {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceJobs{marker: marker, loc: loc, now: time.Now, logger: logger}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("mark_absent_employees", interval, j.MarkAbsentEmployees)
}

// MarkAbsentEmployees closes out yesterday in the configured timezone. Re-running it for
// the same day inserts nothing.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	yesterday := j.now().In(j.loc).AddDate(0, 0, -1)

	count, err := j.marker.MarkAbsent(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("failed to mark absent employees: %w", err)
	}
	if count > 0 {
		j.logger.InfoContext(ctx, "Cron: marked employees absent",
			"date", yesterday.Format("2006-01-02"), "count", count)
	}
	return nil
}

type OutboxJobs struct {
	dispatcher OutboxDispatcher
}

func NewOutboxJobs(dispatcher OutboxDispatcher) *OutboxJobs {
	return &OutboxJobs{dispatcher: dispatcher}
}

func (j *OutboxJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("dispatch_outbox_events", interval, j.Dispatch)
}

func (j *OutboxJobs) Dispatch(ctx context.Context) error {
	_, err := j.dispatcher.DispatchPending(ctx)
	return err
}
