package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/example/meetup-scheduler/internal/application"
	"github.com/example/meetup-scheduler/internal/metrics"
)

// Authenticator resolves a bearer token to the member it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (application.User, error)
}

// Authenticate rejects requests without a valid bearer token for an approved
// member and stores the member in the request context.
func Authenticate(authenticator Authenticator, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				user application.User
				err  error
			)
			if token := extractBearerToken(r); token == "" {
				err = application.NewError(application.KindInvalidToken, "access token is required", nil)
			} else {
				user, err = authenticator.Authenticate(r.Context(), token)
			}
			if err != nil {
				if m != nil {
					m.AuthFailures.WithLabelValues(application.ErrorKind(err)).Inc()
				}
				responder.handleServiceError(r.Context(), w, err)
				return
			}

			ctx := ContextWithUser(r.Context(), user)
			if logger := LoggerFromContext(ctx); logger != nil {
				ctx = ContextWithLogger(ctx, logger.With("user_id", user.ID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects members without the administrator role. It must run
// after Authenticate.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				responder.handleServiceError(r.Context(), w, application.NewError(application.KindInvalidToken, "access token is required", nil))
				return
			}
			if !user.IsAdmin {
				responder.handleServiceError(r.Context(), w, application.NewError(application.KindForbidden, "administrator privileges are required", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger attaches a request scoped logger carrying a request id and
// logs the start and outcome of every request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)

			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			rec := newStatusRecorder(w)
			start := time.Now()
			logger.DebugContext(ctx, "request started", "remote_addr", r.RemoteAddr)
			next.ServeHTTP(rec, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", rec.status, "duration", time.Since(start))
		})
	}
}

// Recover turns a panic in a handler into a 500 envelope.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				responder.loggerFor(r.Context()).ErrorContext(r.Context(), "panic while serving request",
					"panic", recovered,
					"stack", string(debug.Stack()),
				)
				responder.handleServiceError(r.Context(), w, fmt.Errorf("panic: %v", recovered))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ExposeErrorDetail controls whether error envelopes carry the underlying
// cause. It is disabled in production.
func ExposeErrorDetail(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(contextWithErrorDetail(r.Context(), enabled)))
		})
	}
}

// Instrument records request counts and latency keyed by the matched route
// pattern.
func Instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.InFlight.Inc()
			defer m.InFlight.Dec()

			rec := newStatusRecorder(w)
			start := time.Now()
			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" || route == "/" {
				route = "unmatched"
			}
			m.ObserveRequest(r.Method, route, rec.status, time.Since(start))
		})
	}
}

// CORS allows the configured origins to call the API with credentials.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	})
	return c.Handler
}

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time

	trustForwarded bool
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows each client limit requests per window, refilled
// evenly across the window. A non-positive limit or window disables limiting
// and returns nil.
func NewRateLimiter(limit int, window time.Duration, now func() time.Time) *RateLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		clients:   make(map[string]*clientLimiter),
		limit:     rate.Every(window / time.Duration(limit)),
		burst:     limit,
		window:    window,
		lastSweep: now(),
		now:       now,
	}
}

// TrustForwardedFor keys clients by the first X-Forwarded-For entry instead of
// the connection address. Enable it only behind a proxy that sets the header.
func (l *RateLimiter) TrustForwardedFor(trust bool) *RateLimiter {
	if l != nil {
		l.trustForwarded = trust
	}
	return l
}

// Allow reports whether the client may make another request now.
func (l *RateLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.window {
		for key, c := range l.clients {
			if now.Sub(c.lastSeen) > l.window {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[client]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[client] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// RateLimit rejects API requests from clients that exceeded their budget with
// a 429 envelope.
func RateLimit(limiter *RateLimiter, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		retryAfter := strconv.Itoa(int(max(time.Second, time.Duration(float64(time.Second)/float64(limiter.limit))).Seconds()))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") || limiter.Allow(clientAddress(r, limiter.trustForwarded)) {
				next.ServeHTTP(w, r)
				return
			}
			if m != nil {
				m.RateLimited.Inc()
			}
			w.Header().Set("Retry-After", retryAfter)
			newResponder(LoggerFromContext(r.Context())).writeJSON(r.Context(), w, http.StatusTooManyRequests, envelope{
				Success: false,
				Message: "too many requests, please try again later",
				Code:    "RATE_LIMITED",
			})
		})
	}
}

func clientAddress(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func extractBearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *statusRecorder) WriteHeader(status int) {
	if !s.wroteHeader {
		s.status = status
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.wroteHeader = true
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
