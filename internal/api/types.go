package api

import (
	"github.com/clinicdesk/appointment-scheduling/internal/booking"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"` // "patient" or "doctor"
}

type LoginResponse struct {
	Token       string `json:"token"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name,omitempty"`
}

type CancelRequest struct {
	Doctor string `json:"doctor"`
	Date   string `json:"date"`
	Time   string `json:"time"`
}

// CompleteRequest names the slot only; the doctor is taken from the
// caller's session so a doctor can complete nobody else's visits.
type CompleteRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type AvailabilityResponse struct {
	Doctor string         `json:"doctor"`
	Date   string         `json:"date"`
	Slots  []booking.Slot `json:"slots"`
}

type CalendarResponse struct {
	Doctor string         `json:"doctor"`
	Dates  map[string]int `json:"dates"`
}

type AppointmentsResponse struct {
	Appointments []booking.AppointmentView `json:"appointments"`
}

type DoctorAppointmentsResponse struct {
	Appointments []booking.AppointmentRecord `json:"appointments"`
}

type DoctorsResponse struct {
	Doctors []string `json:"doctors"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
