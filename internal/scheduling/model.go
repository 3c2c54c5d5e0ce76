package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "booked"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// ValidStatus reports whether s is one of the known appointment statuses.
func ValidStatus(s AppointmentStatus) bool {
	switch s {
	case StatusBooked, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty string
	CreatedAt time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
}

// Appointment intervals are half-open: [StartTime, EndTime). All timestamps
// are naive local civil time, stored and compared without zone conversion.
type Appointment struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	Status    AppointmentStatus
	Notes     *string
	CreatedAt time.Time
}

// Interval is a booked [Start, End) pair used by the availability walk.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Summary aggregates a doctor's appointments over a date range.
type Summary struct {
	DoctorName        string
	TotalAppointments int
	ByStatus          map[AppointmentStatus]int
	PatientsVisited   []string
	Message           string
}
