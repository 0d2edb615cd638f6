package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

type Source string

const (
	SourceQRCode    Source = "qr_code"
	SourceRFID      Source = "rfid"
	SourceBiometric Source = "biometric"
	SourceManual    Source = "manual"
)

var SourceValues = []string{
	string(SourceQRCode),
	string(SourceRFID),
	string(SourceBiometric),
	string(SourceManual),
}

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
	// StatusOnTime is written by older clients; it counts as present.
	StatusOnTime Status = "on_time"
)

var StatusValues = []string{
	string(StatusPresent),
	string(StatusLate),
	string(StatusAbsent),
}

// Attendance is one employee's record for one calendar date. It is created on clock-in,
// completed once on clock-out and immutable afterwards.
type Attendance struct {
	ID                string
	EmployeeID        string
	Date              time.Time
	ClockIn           *time.Time
	ClockOut          *time.Time
	AttendanceType    Source
	DeviceID          *string
	LateMinutes       int
	OvertimeMinutes   int
	SalaryDeduction   decimal.Decimal
	OvertimeBonus     decimal.Decimal
	ScheduledClockIn  *schedule.TimeOfDay
	ScheduledClockOut *schedule.TimeOfDay
	HoursWorked       decimal.Decimal
	Status            Status
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// DTO
	EmployeeName *string
}

// IsComplete reports whether both clock events are recorded.
func (a Attendance) IsComplete() bool {
	return a.ClockIn != nil && a.ClockOut != nil
}
