package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clinicdesk/appointment-backend/internal/api"
	"github.com/clinicdesk/appointment-backend/internal/notify"
	"github.com/clinicdesk/appointment-backend/internal/redisclient"
	"github.com/clinicdesk/appointment-backend/internal/scheduling"
)

func setup(t *testing.T) http.Handler {
	t.Helper()
	repo := scheduling.NewMemoryRepository()
	repo.AddDoctor("Dr. Ahuja", "General Physician")
	repo.AddDoctor("Dr. Smith", "Pediatrician")

	svc := scheduling.NewService(repo, redisclient.NewLocalLocker(),
		notify.NoopMailer{}, notify.LogCalendar{}, notify.LogMessenger{})

	return api.NewRouter(api.RouterConfig{
		Service:      svc,
		Env:          "test",
		Version:      "test",
		BookingRPS:   100,
		BookingBurst: 100,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.1:12345"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func book(t *testing.T, h http.Handler, start, email, name string) *httptest.ResponseRecorder {
	t.Helper()
	return doJSON(t, h, http.MethodPost, "/tools/book_appointment", map[string]any{
		"doctor_name":      "Dr. Ahuja",
		"patient_name":     name,
		"patient_email":    email,
		"start_time":       start,
		"duration_minutes": 30,
	})
}

func TestCheckAvailabilityEndpoint(t *testing.T) {
	h := setup(t)

	rec := doJSON(t, h, http.MethodPost, "/tools/check_availability", map[string]any{
		"doctor_name": "Dr. Ahuja",
		"date":        "2024-06-10",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[api.AvailabilityResponse](t, rec)
	if len(resp.AvailableSlots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(resp.AvailableSlots))
	}
	if resp.AvailableSlots[0] != "2024-06-10T09:00:00" {
		t.Errorf("first slot = %q", resp.AvailableSlots[0])
	}
	if resp.AvailableSlots[15] != "2024-06-10T16:30:00" {
		t.Errorf("last slot = %q", resp.AvailableSlots[15])
	}
}

func TestCheckAvailabilityUnknownDoctor(t *testing.T) {
	h := setup(t)

	rec := doJSON(t, h, http.MethodPost, "/tools/check_availability", map[string]any{
		"doctor_name": "Dr. Nobody",
		"date":        "2024-06-10",
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	resp := decode[api.ErrorResponse](t, rec)
	if resp.Error != "doctor_not_found" {
		t.Errorf("error = %q", resp.Error)
	}
	if resp.Details != "Doctor 'Dr. Nobody' not found. Please provide a valid doctor name." {
		t.Errorf("details = %q", resp.Details)
	}
}

func TestCheckAvailabilityOversizedDuration(t *testing.T) {
	h := setup(t)

	rec := doJSON(t, h, http.MethodPost, "/tools/check_availability", map[string]any{
		"doctor_name":      "Dr. Ahuja",
		"date":             "2024-06-10",
		"duration_minutes": 200000000000,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decode[api.ErrorResponse](t, rec)
	if resp.Error != "invalid_duration" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestCheckAvailabilityBadDate(t *testing.T) {
	h := setup(t)

	rec := doJSON(t, h, http.MethodPost, "/tools/check_availability", map[string]any{
		"doctor_name": "Dr. Ahuja",
		"date":        "June 10th",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBookAppointmentEndpoint(t *testing.T) {
	h := setup(t)

	rec := book(t, h, "2024-06-10T09:00:00", "alice@example.com", "Alice")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[api.BookAppointmentResponse](t, rec)
	if resp.Status != "booked" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.AppointmentID == "" {
		t.Error("empty appointment id")
	}
	if resp.Message != "Appointment booked successfully. Confirmation email sent." {
		t.Errorf("message = %q", resp.Message)
	}

	// The booked slot disappears from a follow-up availability check.
	avail := doJSON(t, h, http.MethodPost, "/tools/check_availability", map[string]any{
		"doctor_name": "Dr. Ahuja",
		"date":        "2024-06-10",
	})
	aresp := decode[api.AvailabilityResponse](t, avail)
	if len(aresp.AvailableSlots) != 15 {
		t.Errorf("expected 15 slots after booking, got %d", len(aresp.AvailableSlots))
	}
	for _, s := range aresp.AvailableSlots {
		if s == "2024-06-10T09:00:00" {
			t.Error("booked slot still listed as available")
		}
	}
}

func TestBookAppointmentConflict(t *testing.T) {
	h := setup(t)

	if rec := book(t, h, "2024-06-10T09:00:00", "alice@example.com", "Alice"); rec.Code != http.StatusCreated {
		t.Fatalf("first booking failed: %d", rec.Code)
	}
	rec := book(t, h, "2024-06-10T09:15:00", "bob@example.com", "Bob")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	resp := decode[api.ErrorResponse](t, rec)
	if resp.Error != "slot_taken" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestBookAppointmentOutsideHours(t *testing.T) {
	h := setup(t)

	rec := book(t, h, "2024-06-10T08:30:00", "alice@example.com", "Alice")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decode[api.ErrorResponse](t, rec)
	if resp.Error != "outside_working_hours" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestBookAppointmentMissingFields(t *testing.T) {
	h := setup(t)

	rec := doJSON(t, h, http.MethodPost, "/tools/book_appointment", map[string]any{
		"doctor_name": "Dr. Ahuja",
		"start_time":  "2024-06-10T09:00:00",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAppointmentSummaryEndpoint(t *testing.T) {
	h := setup(t)

	starts := []string{"2024-06-10T09:00:00", "2024-06-10T10:00:00", "2024-06-10T11:00:00"}
	var ids []string
	for i, s := range starts {
		rec := book(t, h, s, fmt.Sprintf("p%d@example.com", i), fmt.Sprintf("Patient %d", i))
		if rec.Code != http.StatusCreated {
			t.Fatalf("booking %d failed: %d", i, rec.Code)
		}
		ids = append(ids, decode[api.BookAppointmentResponse](t, rec).AppointmentID)
	}

	// Complete the second appointment.
	rec := doJSON(t, h, http.MethodPost, "/appointments/"+ids[1]+"/status", map[string]string{"status": "completed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("transition failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/tools/get_appointment_summary", map[string]any{
		"doctor_name": "Dr. Ahuja",
		"start_date":  "2024-06-10",
		"end_date":    "2024-06-10",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[api.AppointmentSummaryResponse](t, rec)
	if resp.TotalAppointments != 3 {
		t.Errorf("total = %d, want 3", resp.TotalAppointments)
	}
	if resp.AppointmentsByStatus["booked"] != 2 || resp.AppointmentsByStatus["completed"] != 1 {
		t.Errorf("by status = %v", resp.AppointmentsByStatus)
	}
	if len(resp.PatientsVisited) != 1 || resp.PatientsVisited[0] != "Patient 1" {
		t.Errorf("patients visited = %v", resp.PatientsVisited)
	}
}

func TestSummaryInvalidStatusFilter(t *testing.T) {
	h := setup(t)

	rec := doJSON(t, h, http.MethodPost, "/tools/get_appointment_summary", map[string]any{
		"doctor_name":   "Dr. Ahuja",
		"status_filter": "no-show",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTransitionInvalidTarget(t *testing.T) {
	h := setup(t)

	rec := book(t, h, "2024-06-10T09:00:00", "alice@example.com", "Alice")
	id := decode[api.BookAppointmentResponse](t, rec).AppointmentID

	rec = doJSON(t, h, http.MethodPost, "/appointments/"+id+"/status", map[string]string{"status": "booked"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestListDoctors(t *testing.T) {
	h := setup(t)

	rec := doJSON(t, h, http.MethodGet, "/doctors", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[[]api.DoctorResponse](t, rec)
	if len(resp) != 2 {
		t.Fatalf("expected 2 doctors, got %d", len(resp))
	}
}

func TestBookingRateLimit(t *testing.T) {
	repo := scheduling.NewMemoryRepository()
	repo.AddDoctor("Dr. Ahuja", "General Physician")
	svc := scheduling.NewService(repo, redisclient.NewLocalLocker(),
		notify.NoopMailer{}, notify.LogCalendar{}, notify.LogMessenger{})

	h := api.NewRouter(api.RouterConfig{
		Service:      svc,
		Env:          "test",
		Version:      "test",
		BookingRPS:   1,
		BookingBurst: 1,
	})

	if rec := book(t, h, "2024-06-10T09:00:00", "alice@example.com", "Alice"); rec.Code != http.StatusCreated {
		t.Fatalf("first booking: %d", rec.Code)
	}
	rec := book(t, h, "2024-06-10T10:00:00", "alice@example.com", "Alice")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}
