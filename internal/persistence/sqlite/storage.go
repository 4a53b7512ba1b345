package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/meetup-scheduler/internal/persistence/sqlite/migration"
)

// Storage bundles the SQLite-backed repositories sharing one connection pool.
type Storage struct {
	pool          *ConnectionPool
	logger        *slog.Logger
	schemaVersion string

	Users          *UserRepository
	Schedules      *ScheduleRepository
	Participations *ParticipationRepository
}

// Open connects to the database described by config and wires the repositories.
func Open(ctx context.Context, config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}

	return &Storage{
		pool:           pool,
		logger:         logger,
		Users:          NewUserRepository(pool),
		Schedules:      NewScheduleRepository(pool),
		Participations: NewParticipationRepository(pool),
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(migration.Files),
		migration.NewSQLiteExecutor(s.pool.DB()),
		s.logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}

	status, err := manager.GetMigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: migration status: %w", err)
	}
	s.schemaVersion = status.CurrentVersion
	s.logger.InfoContext(ctx, "database schema ready",
		"version", status.CurrentVersion,
		"applied", len(status.AppliedMigrations),
	)
	return nil
}

// SchemaVersion returns the schema version recorded by the last Migrate call.
func (s *Storage) SchemaVersion() string {
	return s.schemaVersion
}

// Ping reports whether the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
