package api

// The three tool endpoints mirror the shapes the scheduling assistant
// consumes. Dates are "2006-01-02"; datetimes are naive local
// "2006-01-02T15:04:05" with no zone designator.

type CheckAvailabilityRequest struct {
	DoctorName      string `json:"doctor_name"`
	Date            string `json:"date"`
	DurationMinutes int    `json:"duration_minutes"`
}

type AvailabilityResponse struct {
	DoctorName     string   `json:"doctor_name"`
	Date           string   `json:"date"`
	AvailableSlots []string `json:"available_slots"`
	Message        string   `json:"message"`
}

type BookAppointmentRequest struct {
	DoctorName      string  `json:"doctor_name"`
	PatientName     string  `json:"patient_name"`
	PatientEmail    string  `json:"patient_email"`
	StartTime       string  `json:"start_time"`
	DurationMinutes int     `json:"duration_minutes"`
	Notes           *string `json:"notes,omitempty"`
}

type BookAppointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
	DoctorName    string `json:"doctor_name"`
	PatientName   string `json:"patient_name"`
	StartTime     string `json:"start_time"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

type AppointmentSummaryRequest struct {
	DoctorName   string `json:"doctor_name"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	StatusFilter string `json:"status_filter,omitempty"`
}

type AppointmentSummaryResponse struct {
	DoctorName           string         `json:"doctor_name"`
	TotalAppointments    int            `json:"total_appointments"`
	AppointmentsByStatus map[string]int `json:"appointments_by_status"`
	PatientsVisited      []string       `json:"patients_visited"`
	Message              string         `json:"message"`
}

type TransitionRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID        string  `json:"id"`
	DoctorID  string  `json:"doctor_id"`
	PatientID string  `json:"patient_id"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Status    string  `json:"status"`
	Notes     *string `json:"notes,omitempty"`
}

type DoctorResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
