package api

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/clinicdesk/appointment-scheduling/internal/auth"
	"github.com/clinicdesk/appointment-scheduling/internal/booking"
)

func registerHandler(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Username == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "validation_failed", "all fields are required")
			return
		}

		profile := auth.Profile{Username: req.Username, Email: req.Email, Phone: req.Phone}
		if err := authSvc.Register(profile, req.Password); err != nil {
			if errors.Is(err, auth.ErrAlreadyExists) {
				writeError(w, http.StatusConflict, "already_exists", "username already exists")
				return
			}
			if errors.Is(err, auth.ErrInvalidUsername) {
				writeError(w, http.StatusBadRequest, "validation_failed", "username may only contain letters, digits, '_', '.', '-'")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		w.WriteHeader(http.StatusCreated)
	}
}

func loginHandler(authSvc *auth.Service, tokens *auth.TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "validation_failed", "username and password are required")
			return
		}

		var (
			displayName string
			err         error
		)
		switch req.Role {
		case auth.RoleDoctor:
			displayName, err = authSvc.LoginDoctor(req.Username, req.Password)
		case auth.RolePatient, "":
			req.Role = auth.RolePatient
			err = authSvc.LoginPatient(req.Username, req.Password)
		default:
			writeError(w, http.StatusBadRequest, "validation_failed", "role must be patient or doctor")
			return
		}
		if err != nil {
			handleLoginError(w, err)
			return
		}

		token, err := tokens.Issue(req.Username, req.Role, displayName)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{Token: token, Role: req.Role, DisplayName: displayName})
	}
}

func doctorsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := make([]string, 0, len(booking.Roster))
		for _, d := range booking.Roster {
			names = append(names, d.DisplayName)
		}
		writeJSON(w, http.StatusOK, DoctorsResponse{Doctors: names})
	}
}

func availabilityHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctor := r.URL.Query().Get("doctor")
		if !booking.KnownDoctor(doctor) {
			writeError(w, http.StatusBadRequest, "unknown_doctor", "doctor must be one of the clinic roster")
			return
		}
		date, err := booking.ParseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be MM/DD/YYYY")
			return
		}

		slots, err := svc.Availability(doctor, date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{Doctor: doctor, Date: date.String(), Slots: slots})
	}
}

func calendarHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctor := r.URL.Query().Get("doctor")
		if !booking.KnownDoctor(doctor) {
			writeError(w, http.StatusBadRequest, "unknown_doctor", "doctor must be one of the clinic roster")
			return
		}

		dates, err := svc.Calendar(doctor)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, CalendarResponse{Doctor: doctor, Dates: dates})
	}
}

func bookHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req booking.BookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		username := GetClaims(r.Context()).Subject
		rec, err := svc.Book(username, req)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, rec)
	}
}

func cancelHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CancelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		date, err := booking.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be MM/DD/YYYY")
			return
		}

		username := GetClaims(r.Context()).Subject
		key := booking.SlotKey{Doctor: req.Doctor, Date: date, Slot: booking.Slot(req.Time)}
		if err := svc.Cancel(username, key); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func patientAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := GetClaims(r.Context()).Subject
		views, err := svc.PatientAppointments(username)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, AppointmentsResponse{Appointments: views})
	}
}

func patientStatsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := GetClaims(r.Context()).Subject
		stats, err := svc.PatientStats(username)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func doctorAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctor := GetClaims(r.Context()).DisplayName

		var date *booking.Date
		if raw := r.URL.Query().Get("date"); raw != "" {
			d, err := booking.ParseDate(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be MM/DD/YYYY")
				return
			}
			date = &d
		}
		status := booking.Status(r.URL.Query().Get("status"))
		switch status {
		case "", booking.StatusConfirmed, booking.StatusCancelled, booking.StatusCompleted:
		default:
			writeError(w, http.StatusBadRequest, "invalid_status", "status must be Confirmed, Cancelled, or Completed")
			return
		}

		recs, err := svc.DoctorAppointments(doctor, status, date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, DoctorAppointmentsResponse{Appointments: recs})
	}
}

func todayScheduleHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctor := GetClaims(r.Context()).DisplayName
		recs, err := svc.TodaySchedule(doctor)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, DoctorAppointmentsResponse{Appointments: recs})
	}
}

func completeHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CompleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		date, err := booking.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be MM/DD/YYYY")
			return
		}

		doctor := GetClaims(r.Context()).DisplayName
		key := booking.SlotKey{Doctor: doctor, Date: date, Slot: booking.Slot(req.Time)}
		if err := svc.CompleteAny(key); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, booking.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleLoginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, http.StatusUnauthorized, "not_found", "username not found")
	case errors.Is(err, auth.ErrBadPassword):
		writeError(w, http.StatusUnauthorized, "bad_password", "incorrect password")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
