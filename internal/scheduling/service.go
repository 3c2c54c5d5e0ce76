package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/appointment-backend/internal/notify"
	"github.com/clinicdesk/appointment-backend/internal/redisclient"
)

const DefaultDurationMinutes = 30

// MaxDurationMinutes is the full working-day window; no single appointment
// can be longer. The cap also keeps the duration far away from int64
// overflow when converted to a time.Duration.
const MaxDurationMinutes = (WorkingHoursEnd - WorkingHoursStart) * 60

var (
	ErrOutsideWorkingHours     = errors.New("requested time is outside working hours")
	ErrSlotTaken               = errors.New("requested slot overlaps an existing appointment")
	ErrDoctorBeingBooked       = errors.New("doctor is currently being booked, please retry")
	ErrInvalidDuration         = errors.New("duration must be between 1 and 480 minutes")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

type Service struct {
	repo      Repository
	locker    redisclient.Locker
	mailer    notify.Mailer
	calendar  notify.CalendarNotifier
	messenger notify.MessengerNotifier
}

func NewService(repo Repository, locker redisclient.Locker, mailer notify.Mailer, calendar notify.CalendarNotifier, messenger notify.MessengerNotifier) *Service {
	return &Service{
		repo:      repo,
		locker:    locker,
		mailer:    mailer,
		calendar:  calendar,
		messenger: messenger,
	}
}

// Availability is the result of a slot query for one doctor on one date.
type Availability struct {
	DoctorName string
	Date       time.Time
	Slots      []time.Time
	Message    string
}

// CheckAvailability computes the free slots of the given duration for the
// doctor on the given date, by subtracting booked intervals from the
// working-hours window. It re-reads storage on every call.
func (s *Service) CheckAvailability(ctx context.Context, doctorName string, date time.Time, durationMinutes int) (*Availability, error) {
	if durationMinutes == 0 {
		durationMinutes = DefaultDurationMinutes
	}
	if durationMinutes < 0 || durationMinutes > MaxDurationMinutes {
		return nil, ErrInvalidDuration
	}

	doctor, err := s.repo.GetDoctorByName(ctx, doctorName)
	if err != nil {
		return nil, err
	}

	dayStart, dayEnd := workingDayWindow(date)

	// Fetch window runs through the end of the following day, not just the
	// working day. Kept for compatibility with the established behavior.
	appts, err := s.repo.ListBookedBetween(ctx, doctor.ID, dayStart, dayEnd.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("list booked appointments: %w", err)
	}

	booked := make([]Interval, 0, len(appts))
	for _, a := range appts {
		booked = append(booked, Interval{Start: a.StartTime, End: a.EndTime})
	}

	slots := availableSlots(dayStart, dayEnd, time.Duration(durationMinutes)*time.Minute, booked)

	return &Availability{
		DoctorName: doctor.Name,
		Date:       date,
		Slots:      slots,
		Message:    fmt.Sprintf("Found %d available slots for %s on %s.", len(slots), doctor.Name, date.Format("2006-01-02")),
	}, nil
}

// BookingRequest carries everything needed to book one appointment.
type BookingRequest struct {
	DoctorName      string
	PatientName     string
	PatientEmail    string
	StartTime       time.Time
	DurationMinutes int
	Notes           *string
}

// BookingResult is the committed appointment plus a human-readable outcome
// message that records whether the confirmation email went out.
type BookingResult struct {
	Appointment *Appointment
	DoctorName  string
	PatientName string
	Message     string
}

// BookAppointment validates the requested interval against working hours and
// existing bookings, then commits a new booked appointment. The overlap
// check and the insert run under a per doctor-day lock inside one storage
// transaction, so two concurrent requests for overlapping slots cannot both
// succeed.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	if req.DurationMinutes == 0 {
		req.DurationMinutes = DefaultDurationMinutes
	}
	if req.DurationMinutes < 0 || req.DurationMinutes > MaxDurationMinutes {
		return nil, ErrInvalidDuration
	}

	doctor, err := s.repo.GetDoctorByName(ctx, req.DoctorName)
	if err != nil {
		return nil, err
	}

	patient, err := s.repo.FindOrCreatePatient(ctx, req.PatientEmail, req.PatientName)
	if err != nil {
		return nil, fmt.Errorf("find or create patient: %w", err)
	}

	endTime := req.StartTime.Add(time.Duration(req.DurationMinutes) * time.Minute)

	if !withinWorkingHours(req.StartTime, endTime) {
		return nil, ErrOutsideWorkingHours
	}

	var created *Appointment

	err = s.locker.WithDoctorDayLock(ctx, doctor.ID, req.StartTime, func(lockCtx context.Context) error {
		taken, err := s.repo.HasOverlappingBooked(lockCtx, doctor.ID, req.StartTime, endTime)
		if err != nil {
			return fmt.Errorf("check overlapping appointments: %w", err)
		}
		if taken {
			return ErrSlotTaken
		}

		// Calendar is best-effort: a failure is logged and the booking
		// proceeds.
		event := notify.CalendarEvent{
			DoctorName:   doctor.Name,
			PatientEmail: patient.Email,
			Summary:      fmt.Sprintf("Appointment with %s - %s", doctor.Name, patient.Name),
			Start:        req.StartTime,
			End:          endTime,
		}
		if req.Notes != nil {
			event.Description = *req.Notes
		}
		if err := s.calendar.CreateEvent(lockCtx, event); err != nil {
			log.Printf("calendar event creation failed for doctor %s: %v", doctor.ID, err)
		}

		appt, err := s.repo.CreateBookedAppointment(lockCtx, &Appointment{
			ID:        uuid.New(),
			DoctorID:  doctor.ID,
			PatientID: patient.ID,
			StartTime: req.StartTime,
			EndTime:   endTime,
			Status:    StatusBooked,
			Notes:     req.Notes,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDoctorBeingBooked
		}
		return nil, err
	}

	emailSent := s.sendConfirmation(ctx, doctor, patient, req.StartTime, req.DurationMinutes)

	outcome := "sent"
	if !emailSent {
		outcome = "failed to send"
	}

	return &BookingResult{
		Appointment: created,
		DoctorName:  doctor.Name,
		PatientName: patient.Name,
		Message:     fmt.Sprintf("Appointment booked successfully. Confirmation email %s.", outcome),
	}, nil
}

func (s *Service) sendConfirmation(ctx context.Context, doctor *Doctor, patient *Patient, start time.Time, durationMinutes int) bool {
	subject := "Appointment Confirmation"
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your appointment with %s has been successfully booked.\n"+
			"Date: %s\n"+
			"Time: %s\n"+
			"Duration: %d minutes\n\n"+
			"We look forward to seeing you!\n\n"+
			"Best regards,\nYour Clinic",
		patient.Name, doctor.Name, start.Format("2006-01-02"), start.Format("15:04"), durationMinutes,
	)
	return s.mailer.Send(ctx, patient.Email, subject, body)
}

// AppointmentSummary aggregates the doctor's appointments matching the
// filter into status counts and the distinct names of patients with a
// completed visit, then posts the rendered summary to the messaging
// collaborator (best-effort).
func (s *Service) AppointmentSummary(ctx context.Context, doctorName string, filter SummaryFilter) (*Summary, error) {
	doctor, err := s.repo.GetDoctorByName(ctx, doctorName)
	if err != nil {
		return nil, err
	}

	appts, err := s.repo.ListForSummary(ctx, doctor.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("list appointments for summary: %w", err)
	}

	byStatus := make(map[AppointmentStatus]int)
	visitedIDs := make(map[uuid.UUID]struct{})
	for _, a := range appts {
		byStatus[a.Status]++
		if a.Status == StatusCompleted {
			visitedIDs[a.PatientID] = struct{}{}
		}
	}

	var visitedNames []string
	if len(visitedIDs) > 0 {
		ids := make([]uuid.UUID, 0, len(visitedIDs))
		for id := range visitedIDs {
			ids = append(ids, id)
		}
		patients, err := s.repo.GetPatientsByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load visited patients: %w", err)
		}
		for _, p := range patients {
			visitedNames = append(visitedNames, p.Name)
		}
	}

	summary := &Summary{
		DoctorName:        doctor.Name,
		TotalAppointments: len(appts),
		ByStatus:          byStatus,
		PatientsVisited:   visitedNames,
	}
	summary.Message = renderSummary(summary)

	if err := s.messenger.Post(ctx, summary.Message); err != nil {
		log.Printf("summary notification failed for doctor %s: %v", doctor.ID, err)
	}

	return summary, nil
}

func renderSummary(s *Summary) string {
	statuses := make([]string, 0, len(s.ByStatus))
	for st, n := range s.ByStatus {
		statuses = append(statuses, fmt.Sprintf("%s: %d", st, n))
	}
	sort.Strings(statuses)

	visited := "None"
	if len(s.PatientsVisited) > 0 {
		visited = strings.Join(s.PatientsVisited, ", ")
	}

	return fmt.Sprintf(
		"Summary for %s:\n"+
			"Total appointments found: %d\n"+
			"Appointments by status: {%s}\n"+
			"Unique patients visited (completed appointments): %s",
		s.DoctorName, s.TotalAppointments, strings.Join(statuses, ", "), visited,
	)
}

// ListDoctors returns every doctor on file.
func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	return s.repo.ListDoctors(ctx)
}

// TransitionAppointment applies a booked->completed or booked->cancelled
// status change. The compare-and-set in the repository rejects any other
// transition.
func (s *Service) TransitionAppointment(ctx context.Context, id uuid.UUID, to AppointmentStatus) (*Appointment, error) {
	if to != StatusCompleted && to != StatusCancelled {
		return nil, ErrInvalidStatusTransition
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusBooked {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusBooked, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race with another transition.
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	return updated, nil
}
