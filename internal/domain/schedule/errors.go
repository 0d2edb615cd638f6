package schedule

import "errors"

var (
	ErrWorkScheduleNotFound   = errors.New("work schedule not found")
	ErrInvalidTimeOfDay       = errors.New("invalid time of day")
	ErrEndBeforeStart         = errors.New("end time must be after start time")
	ErrEffectiveFromNotLatest = errors.New("effective_from must be after the current schedule's effective_from")
)
