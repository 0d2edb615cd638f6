package attendance

import "errors"

// Attendance domain errors
var (
	ErrAlreadyClockedIn    = errors.New("employee has already clocked in today")
	ErrNotClockedIn        = errors.New("employee has not clocked in today")
	ErrAlreadyClockedOut   = errors.New("employee has already clocked out today")
	ErrAttendanceNotFound  = errors.New("attendance record not found")
	ErrRecordForOtherStaff = errors.New("not allowed to record attendance for another employee")
)
