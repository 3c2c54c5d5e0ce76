package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/appointment-backend/internal/scheduling"
)

type RouterConfig struct {
	Service      *scheduling.Service
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
	BookingRPS   float64
	BookingBurst int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/doctors", listDoctorsHandler(cfg.Service))

	// Tool endpoints consumed by the scheduling assistant
	r.Route("/tools", func(r chi.Router) {
		r.Post("/check_availability", checkAvailabilityHandler(cfg.Service))

		rl := NewRateLimiter(cfg.BookingRPS, cfg.BookingBurst)
		r.With(rl.Middleware).Post("/book_appointment", bookAppointmentHandler(cfg.Service))

		r.Post("/get_appointment_summary", appointmentSummaryHandler(cfg.Service))
	})

	r.Post("/appointments/{id}/status", transitionAppointmentHandler(cfg.Service))

	return r
}
