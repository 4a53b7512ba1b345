package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/meetup-scheduler/internal/application"
)

const maxBodyBytes = 1 << 20

var errBadRequestBody = application.NewError(application.KindValidation, "request body must be a valid JSON object", nil)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Code    string            `json:"code,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Detail  string            `json:"detail,omitempty"`
	Data    any               `json:"data,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeData(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	r.writeJSON(ctx, w, status, envelope{Success: true, Message: message, Data: data})
}

// handleServiceError maps err onto its status code and writes the error
// envelope. Causes are only echoed when error detail is enabled.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	kind := application.KindOf(err)
	status := statusForKind(kind)

	body := envelope{
		Success: false,
		Message: application.MessageOf(err),
		Code:    strings.ToUpper(kind.String()),
	}
	var appErr *application.Error
	if errors.As(err, &appErr) && len(appErr.FieldErrors) > 0 {
		body.Errors = appErr.FieldErrors
	}
	if errorDetailEnabled(ctx) && body.Message != err.Error() {
		body.Detail = err.Error()
	}

	logger := r.loggerFor(ctx)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", "status", status, "error", err, "error_kind", application.ErrorKind(err))
	} else {
		logger.WarnContext(ctx, "request rejected", "status", status, "error", err, "error_kind", application.ErrorKind(err))
	}

	r.writeJSON(ctx, w, status, body)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

// statusForKind is the single mapping from error kind to HTTP status.
func statusForKind(kind application.Kind) int {
	switch kind {
	case application.KindValidation:
		return http.StatusBadRequest
	case application.KindInvalidToken, application.KindTokenExpired:
		return http.StatusUnauthorized
	case application.KindPendingApproval, application.KindForbidden:
		return http.StatusForbidden
	case application.KindNotFound:
		return http.StatusNotFound
	case application.KindConflict:
		return http.StatusConflict
	case application.KindDatabase, application.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON object from the request body. Unknown fields are
// ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return application.NewError(application.KindValidation, errBadRequestBody.Message, err)
	}
	return nil
}

func pathID(r *http.Request, name, label string) (int64, error) {
	raw := r.PathValue(name)
	id, err := parsePositiveInt(raw)
	if err != nil {
		return 0, application.NewError(application.KindValidation, "invalid "+label+" id", err)
	}
	return id, nil
}

func parsePositiveInt(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("id must be positive")
	}
	return id, nil
}
