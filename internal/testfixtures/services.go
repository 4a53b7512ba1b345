package testfixtures

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/meetup-scheduler/internal/adapters"
	"github.com/example/meetup-scheduler/internal/application"
)

// TokenSecret is the signing secret used by factory built token issuers.
const TokenSecret = "meetup-scheduler-test-secret"

// ServiceFactory assists tests with constructing application services over a
// real SQLite harness with a controllable clock.
type ServiceFactory struct {
	Clock       *Clock
	TokenTTL    time.Duration
	AutoApprove bool
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:    NewClock(time.Time{}),
		TokenTTL: time.Hour,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	return factory
}

// WithClock overrides the clock used by issued tokens.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithTokenTTL overrides the token lifetime.
func WithTokenTTL(ttl time.Duration) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.TokenTTL = ttl
	}
}

// WithAutoApprove makes registration approve new members immediately.
func WithAutoApprove() ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.AutoApprove = true
	}
}

// Services bundles the application services built over one harness.
type Services struct {
	Harness        *SQLiteHarness
	Tokens         *application.TokenIssuer
	Auth           *application.AuthService
	Users          *application.UserService
	Schedules      *application.ScheduleService
	Participations *application.ParticipationService
}

// Build opens a fresh harness and wires every service over it.
func (f *ServiceFactory) Build(tb testing.TB) *Services {
	tb.Helper()

	harness := NewSQLiteHarness(tb)
	tokens, err := application.NewTokenIssuer(TokenSecret, f.TokenTTL, f.Clock.NowFunc())
	if err != nil {
		tb.Fatalf("failed to create token issuer: %v", err)
	}

	users := adapters.NewUserRepository(harness.Users)
	schedules := adapters.NewScheduleRepository(harness.Schedules)
	participations := adapters.NewParticipationRepository(harness.Participations)

	return &Services{
		Harness:        harness,
		Tokens:         tokens,
		Auth:           application.NewAuthServiceWithLogger(users, tokens, f.AutoApprove, f.Logger),
		Users:          application.NewUserServiceWithLogger(users, f.Logger),
		Schedules:      application.NewScheduleServiceWithLogger(schedules, participations, f.Logger),
		Participations: application.NewParticipationServiceWithLogger(participations, schedules, users, f.Logger),
	}
}
