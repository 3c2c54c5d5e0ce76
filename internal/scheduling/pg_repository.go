package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Timestamps are `timestamp without time zone`: naive local civil time, no
// zone conversion anywhere. The partial unique index on booked rows
// backstops exact-slot duplicates underneath the advisory lock.
const schema = `
CREATE TABLE IF NOT EXISTS doctors (
	id         uuid PRIMARY KEY,
	name       text NOT NULL UNIQUE,
	specialty  text NOT NULL,
	created_at timestamp NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS patients (
	id         uuid PRIMARY KEY,
	name       text NOT NULL,
	email      text NOT NULL UNIQUE,
	created_at timestamp NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS appointments (
	id         uuid PRIMARY KEY,
	doctor_id  uuid NOT NULL REFERENCES doctors(id),
	patient_id uuid NOT NULL REFERENCES patients(id),
	start_time timestamp NOT NULL,
	end_time   timestamp NOT NULL,
	status     text NOT NULL DEFAULT 'booked',
	notes      text,
	created_at timestamp NOT NULL DEFAULT now(),
	CHECK (start_time < end_time)
);

CREATE INDEX IF NOT EXISTS idx_appointments_doctor_start
	ON appointments (doctor_id, start_time);

CREATE UNIQUE INDEX IF NOT EXISTS uq_appointments_booked_slot
	ON appointments (doctor_id, start_time) WHERE status = 'booked';
`

// Migrate creates the tables and indexes if they do not exist.
func (r *PgRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SeedInitialDoctors inserts the well-known pair of doctors when the doctors
// table is empty, mirroring the startup data the rest of the system expects.
func (r *PgRepository) SeedInitialDoctors(ctx context.Context) error {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM doctors`).Scan(&count); err != nil {
		return fmt.Errorf("count doctors: %w", err)
	}
	if count > 0 {
		return nil
	}

	initial := []Doctor{
		{ID: uuid.New(), Name: "Dr. Ahuja", Specialty: "General Physician"},
		{ID: uuid.New(), Name: "Dr. Smith", Specialty: "Pediatrician"},
	}
	for _, d := range initial {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, created_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (name) DO NOTHING
		`, d.ID, d.Name, d.Specialty)
		if err != nil {
			return fmt.Errorf("seed doctor %s: %w", d.Name, err)
		}
	}

	return nil
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Specialty,
		&d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var notes *string

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&notes,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Notes = notes
	return &a, nil
}

const appointmentColumns = `id, doctor_id, patient_id, start_time, end_time, status, notes, created_at`

// Interface methods

func (r *PgRepository) GetDoctorByName(ctx context.Context, name string) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at
		FROM doctors
		WHERE name = $1
	`, name)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, specialty, created_at
		FROM doctors
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	return result, rows.Err()
}

func (r *PgRepository) FindOrCreatePatient(ctx context.Context, email, name string) (*Patient, error) {
	patient, err := r.getPatientByEmail(ctx, email)
	if err == nil {
		return patient, nil
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return nil, err
	}

	// ON CONFLICT DO NOTHING keeps the first-written name when two first
	// bookings for the same email race; the loser falls through to the
	// re-select below.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, name, email, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (email) DO NOTHING
		RETURNING id, name, email, created_at
	`, uuid.New(), name, email)

	patient, err = scanPatient(row)
	if err == nil {
		return patient, nil
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return nil, err
	}

	return r.getPatientByEmail(ctx, email)
}

func (r *PgRepository) getPatientByEmail(ctx context.Context, email string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at
		FROM patients
		WHERE email = $1
	`, email)
	return scanPatient(row)
}

func (r *PgRepository) GetPatientsByIDs(ctx context.Context, ids []uuid.UUID) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, created_at
		FROM patients
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListBookedBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND status = 'booked'
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func (r *PgRepository) HasOverlappingBooked(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			  AND status = 'booked'
			  AND start_time < $3
			  AND end_time > $2
		)
	`, doctorID, start, end).Scan(&exists)
	return exists, err
}

func (r *PgRepository) CreateBookedAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, start_time, end_time, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, 'booked', $6, now())
		RETURNING `+appointmentColumns+`
	`, id, a.DoctorID, a.PatientID, a.StartTime, a.EndTime, a.Notes)

	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) ListForSummary(ctx context.Context, doctorID uuid.UUID, filter SummaryFilter) ([]Appointment, error) {
	q := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1`
	args := []any{doctorID}

	if filter.StartDate != nil {
		args = append(args, startOfDay(*filter.StartDate))
		q += fmt.Sprintf(" AND start_time >= $%d", len(args))
	}
	if filter.EndDate != nil {
		// End date is inclusive by calendar day.
		args = append(args, startOfDay(filter.EndDate.Add(24*time.Hour)))
		q += fmt.Sprintf(" AND start_time < $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	q += " ORDER BY start_time"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
