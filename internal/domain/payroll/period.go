package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

// ParsePeriod accepts "YYYY-MM" or "YYYY-MM-DD" and returns the first day of that month.
func ParsePeriod(s string) (time.Time, error) {
	start, ok := validator.ParsePayPeriod(s)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return start, nil
}

// PeriodEnd returns the last calendar day of the month starting at start.
func PeriodEnd(start time.Time) time.Time {
	return start.AddDate(0, 1, -1)
}

func FormatPeriod(start time.Time) string {
	return start.Format("2006-01")
}
