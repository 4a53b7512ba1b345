package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/meetup-scheduler/internal/adapters"
	"github.com/example/meetup-scheduler/internal/application"
	"github.com/example/meetup-scheduler/internal/config"
	httptransport "github.com/example/meetup-scheduler/internal/http"
	"github.com/example/meetup-scheduler/internal/logging"
	"github.com/example/meetup-scheduler/internal/metrics"
	"github.com/example/meetup-scheduler/internal/persistence/sqlite"
	"github.com/example/meetup-scheduler/internal/persistence/sqlite/migration"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWithDotEnv(".env")
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	logger := logging.New(cfg.Env, level, os.Stdout)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("meetup scheduler stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	storage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	handler, err := newHandler(cfg, storage, time.Now, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("meetup scheduler listening",
		"addr", server.Addr,
		"env", cfg.Env,
		"auto_approve", cfg.AutoApproveUsers,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server encountered error: %w", err)
	}
	logger.Info("meetup scheduler shut down")
	return nil
}

// openStorage connects to SQLite with the configured pool settings and brings
// the schema up to date.
func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlite.Storage, error) {
	dbConfig := migration.DefaultSQLiteConfig(cfg.SQLiteDSN)
	dbConfig.MaxOpenConns = cfg.DBMaxOpenConns
	dbConfig.BusyTimeout = cfg.DBBusyTimeout

	storage, err := sqlite.Open(ctx, dbConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return storage, nil
}

// newHandler wires the services, handlers and middleware chain over storage.
func newHandler(cfg config.Config, storage *sqlite.Storage, now func() time.Time, logger *slog.Logger) (http.Handler, error) {
	tokens, err := application.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	users := adapters.NewUserRepository(storage.Users)
	schedules := adapters.NewScheduleRepository(storage.Schedules)
	participations := adapters.NewParticipationRepository(storage.Participations)

	authService := application.NewAuthServiceWithLogger(users, tokens, cfg.AutoApproveUsers, logger)
	userService := application.NewUserServiceWithLogger(users, logger)
	scheduleService := application.NewScheduleServiceWithLogger(schedules, participations, logger)
	participationService := application.NewParticipationServiceWithLogger(participations, schedules, users, logger)

	m := metrics.New()
	limiter := httptransport.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, now).TrustForwardedFor(cfg.TrustProxy)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(authService, logger),
		Users:          httptransport.NewUserHandler(userService, logger),
		Schedules:      httptransport.NewScheduleHandler(scheduleService, logger),
		Participations: httptransport.NewParticipationHandler(participationService, logger),
		Health:         httptransport.NewHealthHandler(storage, now, logger),
		Authenticator:  authService,
		Metrics:        m,
		Logger:         logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.ExposeErrorDetail(!cfg.IsProduction()),
			httptransport.RequestLogger(logger),
			httptransport.Instrument(m),
			httptransport.Recover(logger),
			httptransport.CORS(cfg.AllowedOrigins),
			httptransport.RateLimit(limiter, m),
		},
	}), nil
}
