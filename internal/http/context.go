package http

import (
	"context"
	"log/slog"

	"github.com/example/meetup-scheduler/internal/application"
	"github.com/example/meetup-scheduler/internal/logging"
)

type contextKey string

const (
	userContextKey   contextKey = "user"
	detailContextKey contextKey = "expose_error_detail"
)

// ContextWithUser returns a derived context containing the authenticated member.
func ContextWithUser(ctx context.Context, user application.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext extracts the authenticated member from context if available.
func UserFromContext(ctx context.Context) (application.User, bool) {
	user, ok := ctx.Value(userContextKey).(application.User)
	return user, ok
}

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

func contextWithErrorDetail(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, detailContextKey, enabled)
}

func errorDetailEnabled(ctx context.Context) bool {
	enabled, _ := ctx.Value(detailContextKey).(bool)
	return enabled
}
