package application

import (
	"context"
	"log/slog"

	"github.com/example/meetup-scheduler/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps an error to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	return KindOf(err).String()
}

// logOutcome emits the standard failure or success record for an operation.
// Client errors are logged at warn level; everything else at error.
func logOutcome(ctx context.Context, logger *slog.Logger, err error, failure, success string, attrs ...any) {
	if err != nil {
		level := slog.LevelError
		switch KindOf(err) {
		case KindInternal, KindDatabase:
		default:
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, failure, "error", err, "error_kind", ErrorKind(err))
		return
	}
	logger.With(attrs...).InfoContext(ctx, success)
}
