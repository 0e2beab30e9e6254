package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/carebridge/appointment-triage/internal/retrain"
	"github.com/carebridge/appointment-triage/internal/scheduling"
	"github.com/carebridge/appointment-triage/internal/syncqueue"
	"github.com/carebridge/appointment-triage/internal/triage"
)

type RouterConfig struct {
	Service     SchedulingService
	Reconciler  *syncqueue.Reconciler
	Retrain     *retrain.Runner
	Events      EventRecorder
	AlertWindow time.Duration
	Thresholds  triage.Thresholds
	PgPool      *pgxpool.Pool
	Redis       *redis.Client
	Env         string
	Version     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(ActorMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	// Appointment endpoints
	r.Post("/appointments", bookAppointmentHandler(cfg.Service))
	r.Post("/appointments/sync", syncBatchHandler(cfg.Reconciler))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
	r.Put("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Service))
	r.Put("/appointments/{id}/status", updateStatusHandler(cfg.Service))

	// Staff dashboards
	r.Group(func(r chi.Router) {
		r.Use(RequireRole(scheduling.RoleStaff, scheduling.RoleAdmin))
		r.Get("/appointments/triage", triageQueueHandler(cfg.Service))
		r.Get("/analytics/alerts", alertsHandler(cfg.Service, cfg.AlertWindow, cfg.Thresholds))
		r.Get("/admin/ai/status", retrainStatusHandler(cfg.Retrain))
	})

	// Admin-only operations
	r.Group(func(r chi.Router) {
		r.Use(RequireRole(scheduling.RoleAdmin))
		r.Post("/admin/ai/retrain", triggerRetrainHandler(cfg.Retrain, cfg.Events))
	})

	return r
}
