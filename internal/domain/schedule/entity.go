package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultGracePeriodMinutes = 15
	DefaultWorkHoursPerDay    = 8
)

var (
	DefaultStartTime = NewTimeOfDay(9, 0, 0)
	DefaultEndTime   = NewTimeOfDay(18, 0, 0)
)

// WorkSchedule is one employee's working hours for one ISO weekday over an
// effective date range. Rows are never deleted; a new row supersedes the open one.
type WorkSchedule struct {
	ID                 string
	EmployeeID         string
	DayOfWeek          int // 1=Monday, ..., 7=Sunday
	StartTime          TimeOfDay
	EndTime            TimeOfDay
	BreakStart         *TimeOfDay
	BreakEnd           *TimeOfDay
	GracePeriodMinutes int
	EffectiveFrom      time.Time
	EffectiveTo        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// IsDefault marks the fallback schedule returned when no row matches.
	IsDefault bool
}

// DefaultSchedule is 09:00-18:00 with a 15 minute grace period.
func DefaultSchedule(employeeID string, dayOfWeek int) WorkSchedule {
	return WorkSchedule{
		EmployeeID:         employeeID,
		DayOfWeek:          dayOfWeek,
		StartTime:          DefaultStartTime,
		EndTime:            DefaultEndTime,
		GracePeriodMinutes: DefaultGracePeriodMinutes,
		IsDefault:          true,
	}
}

// WorkHours is the scheduled span minus the break, in hours.
func (s WorkSchedule) WorkHours() decimal.Decimal {
	if s.IsDefault {
		return decimal.NewFromInt(DefaultWorkHoursPerDay)
	}
	span := time.Duration(s.EndTime - s.StartTime)
	if s.BreakStart != nil && s.BreakEnd != nil && *s.BreakEnd > *s.BreakStart {
		span -= time.Duration(*s.BreakEnd - *s.BreakStart)
	}
	if span < 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(span / time.Minute)).Div(decimal.NewFromInt(60)).Round(2)
}

// ISODayOfWeek returns 1 for Monday through 7 for Sunday.
func ISODayOfWeek(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
