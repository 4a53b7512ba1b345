package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/meetup-scheduler/internal/persistence"
	"github.com/example/meetup-scheduler/internal/persistence/sqlite"
	"github.com/example/meetup-scheduler/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides repository access backed by a migrated temporary
// SQLite file.
type SQLiteHarness struct {
	Storage        *sqlite.Storage
	Users          persistence.UserRepository
	Schedules      persistence.ScheduleRepository
	Participations persistence.ParticipationRepository
}

// NewSQLiteHarness opens and migrates a fresh database in tb's temp dir. The
// storage is closed when the test finishes.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	ctx := context.Background()
	path := filepath.Join(tb.TempDir(), "meetup.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	storage, err := sqlite.Open(ctx, migration.TempFileTestSQLiteConfig(path), logger)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(ctx); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	return &SQLiteHarness{
		Storage:        storage,
		Users:          storage.Users,
		Schedules:      storage.Schedules,
		Participations: storage.Participations,
	}
}

// CreateUser stores the fixture and fails the test on error.
func (h *SQLiteHarness) CreateUser(tb testing.TB, fixture UserFixture) persistence.User {
	tb.Helper()
	user, err := h.Users.CreateUser(context.Background(), fixture.Persistence())
	if err != nil {
		tb.Fatalf("CreateUser(%s) failed: %v", fixture.Name, err)
	}
	return user
}

// CreateSchedule stores the fixture and fails the test on error.
func (h *SQLiteHarness) CreateSchedule(tb testing.TB, fixture ScheduleFixture) persistence.Schedule {
	tb.Helper()
	schedule, err := h.Schedules.CreateSchedule(context.Background(), fixture.Persistence())
	if err != nil {
		tb.Fatalf("CreateSchedule(%s) failed: %v", fixture.Title, err)
	}
	return schedule
}
