package scheduling

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository for tests and local
// development without Postgres. It applies the same filter semantics as the
// pgx implementation.
type MemoryRepository struct {
	mu           sync.Mutex
	doctors      []Doctor
	patients     []Patient
	appointments []Appointment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// AddDoctor registers a doctor and returns it; names are assumed unique.
func (m *MemoryRepository) AddDoctor(name, specialty string) Doctor {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := Doctor{ID: uuid.New(), Name: name, Specialty: specialty, CreatedAt: time.Now()}
	m.doctors = append(m.doctors, d)
	return d
}

func (m *MemoryRepository) GetDoctorByName(ctx context.Context, name string) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.doctors {
		if m.doctors[i].Name == name {
			d := m.doctors[i]
			return &d, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (m *MemoryRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Doctor, len(m.doctors))
	copy(out, m.doctors)
	return out, nil
}

func (m *MemoryRepository) FindOrCreatePatient(ctx context.Context, email, name string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.patients {
		if m.patients[i].Email == email {
			p := m.patients[i]
			return &p, nil
		}
	}
	p := Patient{ID: uuid.New(), Name: name, Email: email, CreatedAt: time.Now()}
	m.patients = append(m.patients, p)
	return &p, nil
}

func (m *MemoryRepository) GetPatientsByIDs(ctx context.Context, ids []uuid.UUID) ([]Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []Patient
	for _, p := range m.patients {
		if _, ok := want[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryRepository) ListBookedBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.Status == StatusBooked &&
			!a.StartTime.Before(from) && a.StartTime.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryRepository) HasOverlappingBooked(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.Status == StatusBooked &&
			a.StartTime.Before(end) && start.Before(a.EndTime) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryRepository) CreateBookedAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *a
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.Status = StatusBooked
	stored.CreatedAt = time.Now()
	m.appointments = append(m.appointments, stored)
	out := stored
	return &out, nil
}

func (m *MemoryRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.appointments {
		if m.appointments[i].ID == id {
			a := m.appointments[i]
			return &a, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *MemoryRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.appointments {
		if m.appointments[i].ID == id && m.appointments[i].Status == from {
			m.appointments[i].Status = to
			a := m.appointments[i]
			return &a, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *MemoryRepository) ListForSummary(ctx context.Context, doctorID uuid.UUID, filter SummaryFilter) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appointments {
		if a.DoctorID != doctorID {
			continue
		}
		if filter.StartDate != nil && a.StartTime.Before(startOfDay(*filter.StartDate)) {
			continue
		}
		if filter.EndDate != nil && !a.StartTime.Before(startOfDay(filter.EndDate.Add(24*time.Hour))) {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
