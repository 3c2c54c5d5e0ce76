package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// SummaryFilter narrows a doctor's appointments for reporting. StartDate and
// EndDate are calendar days; EndDate is inclusive (rows up to but excluding
// the following midnight match).
type SummaryFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    *AppointmentStatus
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetDoctorByName(ctx context.Context, name string) (*Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)

	// FindOrCreatePatient looks a patient up by email, inserting one with
	// the given name when absent. Repeated calls with the same email return
	// the original row; a later differing name does not overwrite it.
	FindOrCreatePatient(ctx context.Context, email, name string) (*Patient, error)
	GetPatientsByIDs(ctx context.Context, ids []uuid.UUID) ([]Patient, error)

	// ListBookedBetween returns booked appointments for the doctor whose
	// start_time falls in [from, to).
	ListBookedBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)

	// HasOverlappingBooked reports whether any booked appointment for the
	// doctor overlaps [start, end) under the half-open interval test.
	HasOverlappingBooked(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (bool, error)

	CreateBookedAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	ListForSummary(ctx context.Context, doctorID uuid.UUID, filter SummaryFilter) ([]Appointment, error)
}
