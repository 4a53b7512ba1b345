package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/meetup-scheduler/internal/application"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type schemaVersioner interface {
	SchemaVersion() string
}

type HealthHandler struct {
	db        Pinger
	now       func() time.Time
	responder responder
}

func NewHealthHandler(db Pinger, now func() time.Time, logger *slog.Logger) *HealthHandler {
	if now == nil {
		now = time.Now
	}
	return &HealthHandler{db: db, now: now, responder: newResponder(defaultLogger(logger))}
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.responder.handleServiceError(r.Context(), w, application.NewError(application.KindDatabase, "database is unavailable", err))
			return
		}
	}
	resp := healthResponse{
		Success:   true,
		Message:   "meetup scheduler is running",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
	if v, ok := h.db.(schemaVersioner); ok {
		resp.SchemaVersion = v.SchemaVersion()
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

type healthResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Timestamp     string `json:"timestamp"`
	SchemaVersion string `json:"schemaVersion,omitempty"`
}
