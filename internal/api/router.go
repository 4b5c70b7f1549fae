package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/clinicdesk/appointment-scheduling/internal/auth"
	"github.com/clinicdesk/appointment-scheduling/internal/booking"
)

type RouterConfig struct {
	Booking *booking.Service
	Auth    *auth.Service
	Tokens  *auth.TokenManager
	Logger  *zap.Logger
	DataDir string
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(100, time.Minute))

	// Health endpoints
	health := NewHealthHandler(cfg.DataDir, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public endpoints
	r.Post("/auth/register", registerHandler(cfg.Auth))
	r.Post("/auth/login", loginHandler(cfg.Auth, cfg.Tokens))
	r.Get("/doctors", doctorsHandler())
	r.Get("/availability", availabilityHandler(cfg.Booking))
	r.Get("/calendar", calendarHandler(cfg.Booking))

	// Patient endpoints
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens))
		r.Use(RequireRole(auth.RolePatient))
		r.Post("/appointments", bookHandler(cfg.Booking))
		r.Post("/appointments/cancel", cancelHandler(cfg.Booking))
		r.Get("/appointments", patientAppointmentsHandler(cfg.Booking))
		r.Get("/appointments/stats", patientStatsHandler(cfg.Booking))
	})

	// Doctor endpoints
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens))
		r.Use(RequireRole(auth.RoleDoctor))
		r.Get("/doctor/appointments", doctorAppointmentsHandler(cfg.Booking))
		r.Get("/doctor/schedule/today", todayScheduleHandler(cfg.Booking))
		r.Post("/doctor/appointments/complete", completeHandler(cfg.Booking))
	})

	return r
}
