package attendance

import (
	"math"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
)

// LateMinutes is the number of whole minutes actual falls after scheduled, never negative.
func LateMinutes(actual, scheduled time.Time) int {
	return wholeMinutesAfter(actual, scheduled)
}

// OvertimeMinutes is the number of whole minutes actual falls after the scheduled end.
func OvertimeMinutes(actual, scheduledEnd time.Time) int {
	return wholeMinutesAfter(actual, scheduledEnd)
}

func wholeMinutesAfter(actual, reference time.Time) int {
	diff := actual.Sub(reference).Minutes()
	if diff <= 0 {
		return 0
	}
	return int(math.Floor(diff))
}

type Classification struct {
	LateMinutes int
	Status      attendance.Status
}

// Classify grades a clock-in against the scheduled start. Arrivals up to and including
// scheduled+grace are present with no late minutes; later arrivals are late by the full
// distance from the scheduled start.
func Classify(actual, scheduledIn time.Time, graceMinutes int) Classification {
	graceLimit := scheduledIn.Add(time.Duration(graceMinutes) * time.Minute)
	if !actual.After(graceLimit) {
		return Classification{LateMinutes: 0, Status: attendance.StatusPresent}
	}
	return Classification{LateMinutes: LateMinutes(actual, scheduledIn), Status: attendance.StatusLate}
}
