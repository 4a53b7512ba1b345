package http

import (
	"log/slog"
	"net/http"

	"github.com/example/meetup-scheduler/internal/application"
	"github.com/example/meetup-scheduler/internal/metrics"
)

type RouterConfig struct {
	Auth           *AuthHandler
	Users          *UserHandler
	Schedules      *ScheduleHandler
	Participations *ParticipationHandler
	Health         *HealthHandler
	Authenticator  Authenticator
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	Middleware     []func(http.Handler) http.Handler
}

// NewRouter registers every API route. Routes other than register, login,
// /health and /metrics require a bearer token; user management and acting on
// another member's participation also require the administrator role.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	logger := defaultLogger(cfg.Logger)

	authed := func(h http.HandlerFunc) http.Handler {
		return Authenticate(cfg.Authenticator, cfg.Metrics, logger)(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return Authenticate(cfg.Authenticator, cfg.Metrics, logger)(RequireAdmin(logger)(h))
	}

	if cfg.Health != nil {
		mux.HandleFunc("GET /health", cfg.Health.Check)
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	if cfg.Auth != nil {
		mux.HandleFunc("POST /api/auth/register", cfg.Auth.Register)
		mux.HandleFunc("POST /api/auth/login", cfg.Auth.Login)
		mux.Handle("GET /api/auth/me", authed(cfg.Auth.Me))
	}

	if cfg.Schedules != nil {
		mux.Handle("GET /api/schedules", authed(cfg.Schedules.List))
		mux.Handle("POST /api/schedules", authed(cfg.Schedules.Create))
		mux.Handle("GET /api/schedules/{id}", authed(cfg.Schedules.Get))
		mux.Handle("PUT /api/schedules/{id}", authed(cfg.Schedules.Update))
		mux.Handle("DELETE /api/schedules/{id}", authed(cfg.Schedules.Delete))
	}

	if cfg.Participations != nil {
		mux.Handle("GET /api/schedules/my-participations", authed(cfg.Participations.Mine))
		mux.Handle("POST /api/schedules/{id}/participate", authed(cfg.Participations.SetStatus))
		mux.Handle("DELETE /api/schedules/{id}/participate", authed(cfg.Participations.Withdraw))
		mux.Handle("POST /api/schedules/{id}/participate/{userId}", admin(cfg.Participations.SetStatus))
		mux.Handle("DELETE /api/schedules/{id}/participate/{userId}", admin(cfg.Participations.Withdraw))
	}

	if cfg.Users != nil {
		mux.Handle("GET /api/users", admin(cfg.Users.List))
		mux.Handle("GET /api/users/pending", admin(cfg.Users.ListPending))
		mux.Handle("PATCH /api/users/{id}/approve", admin(cfg.Users.Approve))
		mux.Handle("PATCH /api/users/{id}/revoke", admin(cfg.Users.Revoke))
		mux.Handle("PUT /api/users/{id}", admin(cfg.Users.Update))
		mux.Handle("DELETE /api/users/{id}", admin(cfg.Users.Delete))
	}

	notFound := newResponder(logger)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		notFound.handleServiceError(r.Context(), w, application.NewError(application.KindNotFound, "the requested endpoint does not exist", nil))
	})

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}
