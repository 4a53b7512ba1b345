package persistence

import "context"

// UserRepository exposes storage operations for member accounts.
type UserRepository interface {
	// CreateUser inserts a member. When the store holds no users yet the new
	// member is stored approved and admin, decided in the same transaction as
	// the insert.
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByCredentials(ctx context.Context, name, phone string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListPendingUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id int64, patch UserPatch) (User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// ScheduleRepository exposes storage operations for meetups.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	GetSchedule(ctx context.Context, id int64) (Schedule, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]ScheduleSummary, error)
	UpdateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	DeleteSchedule(ctx context.Context, id int64) error
}

// ParticipationRepository exposes storage operations for the attendance ledger.
type ParticipationRepository interface {
	UpsertParticipation(ctx context.Context, participation Participation) (Participation, error)
	DeleteParticipation(ctx context.Context, scheduleID, userID int64) error
	ListParticipants(ctx context.Context, scheduleID int64) ([]Participant, error)
	ListUserParticipations(ctx context.Context, userID int64) ([]MyParticipation, error)
}
