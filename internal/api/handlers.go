package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/appointment-backend/internal/scheduling"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

func checkAvailabilityHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CheckAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.DoctorName == "" {
			writeError(w, http.StatusBadRequest, "missing_doctor_name", "doctor_name is required")
			return
		}

		date, err := time.ParseInLocation(dateLayout, req.Date, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		avail, err := svc.CheckAvailability(r.Context(), req.DoctorName, date, req.DurationMinutes)
		if err != nil {
			handleSchedulingError(w, err, req.DoctorName)
			return
		}

		slots := make([]string, 0, len(avail.Slots))
		for _, s := range avail.Slots {
			slots = append(slots, s.Format(dateTimeLayout))
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			DoctorName:     avail.DoctorName,
			Date:           avail.Date.Format(dateLayout),
			AvailableSlots: slots,
			Message:        avail.Message,
		})
	}
}

func bookAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.DoctorName == "" || req.PatientName == "" || req.PatientEmail == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "doctor_name, patient_name and patient_email are required")
			return
		}

		start, err := time.ParseInLocation(dateTimeLayout, req.StartTime, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be YYYY-MM-DDTHH:MM:SS")
			return
		}

		result, err := svc.BookAppointment(r.Context(), scheduling.BookingRequest{
			DoctorName:      req.DoctorName,
			PatientName:     req.PatientName,
			PatientEmail:    req.PatientEmail,
			StartTime:       start,
			DurationMinutes: req.DurationMinutes,
			Notes:           req.Notes,
		})
		if err != nil {
			handleSchedulingError(w, err, req.DoctorName)
			return
		}

		writeJSON(w, http.StatusCreated, BookAppointmentResponse{
			AppointmentID: result.Appointment.ID.String(),
			DoctorName:    result.DoctorName,
			PatientName:   result.PatientName,
			StartTime:     result.Appointment.StartTime.Format(dateTimeLayout),
			Status:        string(result.Appointment.Status),
			Message:       result.Message,
		})
	}
}

func appointmentSummaryHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AppointmentSummaryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.DoctorName == "" {
			writeError(w, http.StatusBadRequest, "missing_doctor_name", "doctor_name is required")
			return
		}

		var filter scheduling.SummaryFilter

		if req.StartDate != "" {
			d, err := time.ParseInLocation(dateLayout, req.StartDate, time.Local)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_start_date", "start_date must be YYYY-MM-DD")
				return
			}
			filter.StartDate = &d
		}
		if req.EndDate != "" {
			d, err := time.ParseInLocation(dateLayout, req.EndDate, time.Local)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_end_date", "end_date must be YYYY-MM-DD")
				return
			}
			filter.EndDate = &d
		}
		if req.StatusFilter != "" {
			st := scheduling.AppointmentStatus(req.StatusFilter)
			if !scheduling.ValidStatus(st) {
				writeError(w, http.StatusBadRequest, "invalid_status_filter", "status_filter must be booked, completed or cancelled")
				return
			}
			filter.Status = &st
		}

		summary, err := svc.AppointmentSummary(r.Context(), req.DoctorName, filter)
		if err != nil {
			handleSchedulingError(w, err, req.DoctorName)
			return
		}

		byStatus := make(map[string]int, len(summary.ByStatus))
		for st, n := range summary.ByStatus {
			byStatus[string(st)] = n
		}
		visited := summary.PatientsVisited
		if visited == nil {
			visited = []string{}
		}

		writeJSON(w, http.StatusOK, AppointmentSummaryResponse{
			DoctorName:           summary.DoctorName,
			TotalAppointments:    summary.TotalAppointments,
			AppointmentsByStatus: byStatus,
			PatientsVisited:      visited,
			Message:              summary.Message,
		})
	}
}

func transitionAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req TransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.TransitionAppointment(r.Context(), id, scheduling.AppointmentStatus(req.Status))
		if err != nil {
			handleSchedulingError(w, err, "")
			return
		}

		writeJSON(w, http.StatusOK, AppointmentResponse{
			ID:        appt.ID.String(),
			DoctorID:  appt.DoctorID.String(),
			PatientID: appt.PatientID.String(),
			StartTime: appt.StartTime.Format(dateTimeLayout),
			EndTime:   appt.EndTime.Format(dateTimeLayout),
			Status:    string(appt.Status),
			Notes:     appt.Notes,
		})
	}
}

func listDoctorsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]DoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			resp = append(resp, DoctorResponse{
				ID:        d.ID.String(),
				Name:      d.Name,
				Specialty: d.Specialty,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleSchedulingError(w http.ResponseWriter, err error, doctorName string) {
	switch {
	case errors.Is(err, scheduling.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found",
			fmt.Sprintf("Doctor '%s' not found. Please provide a valid doctor name.", doctorName))
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrOutsideWorkingHours):
		writeError(w, http.StatusBadRequest, "outside_working_hours",
			"Requested appointment time is outside working hours (9 AM - 5 PM).")
	case errors.Is(err, scheduling.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, "invalid_duration", err.Error())
	case errors.Is(err, scheduling.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken",
			"The requested slot is already booked or overlaps with an existing appointment. Please choose another time.")
	case errors.Is(err, scheduling.ErrDoctorBeingBooked):
		writeError(w, http.StatusConflict, "doctor_being_booked",
			"another booking for this doctor is in progress, please retry shortly")
	case errors.Is(err, scheduling.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
