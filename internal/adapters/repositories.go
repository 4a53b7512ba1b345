// Package adapters bridges the persistence repositories to the ports the
// application services depend on, converting models and storage errors.
package adapters

import (
	"context"
	"errors"

	"github.com/example/meetup-scheduler/internal/application"
	"github.com/example/meetup-scheduler/internal/persistence"
)

// UserRepository adapts persistence.UserRepository to application.UserRepository.
type UserRepository struct {
	repo persistence.UserRepository
}

// NewUserRepository wraps repo.
func NewUserRepository(repo persistence.UserRepository) *UserRepository {
	return &UserRepository{repo: repo}
}

func (a *UserRepository) CreateUser(ctx context.Context, user application.User) (application.User, error) {
	created, err := a.repo.CreateUser(ctx, toPersistenceUser(user))
	if err != nil {
		return application.User{}, mapError(err)
	}
	return toApplicationUser(created), nil
}

func (a *UserRepository) GetUser(ctx context.Context, id int64) (application.User, error) {
	user, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapError(err)
	}
	return toApplicationUser(user), nil
}

func (a *UserRepository) GetUserByCredentials(ctx context.Context, name, phone string) (application.User, error) {
	user, err := a.repo.GetUserByCredentials(ctx, name, phone)
	if err != nil {
		return application.User{}, mapError(err)
	}
	return toApplicationUser(user), nil
}

func (a *UserRepository) ListUsers(ctx context.Context) ([]application.User, error) {
	users, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return toApplicationUsers(users), nil
}

func (a *UserRepository) ListPendingUsers(ctx context.Context) ([]application.User, error) {
	users, err := a.repo.ListPendingUsers(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return toApplicationUsers(users), nil
}

func (a *UserRepository) UpdateUser(ctx context.Context, id int64, patch application.UserPatch) (application.User, error) {
	updated, err := a.repo.UpdateUser(ctx, id, persistence.UserPatch{
		Name:       patch.Name,
		Phone:      patch.Phone,
		IsApproved: patch.IsApproved,
		IsAdmin:    patch.IsAdmin,
	})
	if err != nil {
		return application.User{}, mapError(err)
	}
	return toApplicationUser(updated), nil
}

func (a *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	return mapError(a.repo.DeleteUser(ctx, id))
}

// ScheduleRepository adapts persistence.ScheduleRepository to
// application.ScheduleRepository.
type ScheduleRepository struct {
	repo persistence.ScheduleRepository
}

// NewScheduleRepository wraps repo.
func NewScheduleRepository(repo persistence.ScheduleRepository) *ScheduleRepository {
	return &ScheduleRepository{repo: repo}
}

func (a *ScheduleRepository) CreateSchedule(ctx context.Context, schedule application.Schedule) (application.Schedule, error) {
	created, err := a.repo.CreateSchedule(ctx, toPersistenceSchedule(schedule))
	if err != nil {
		return application.Schedule{}, mapError(err)
	}
	return toApplicationSchedule(created), nil
}

func (a *ScheduleRepository) GetSchedule(ctx context.Context, id int64) (application.Schedule, error) {
	schedule, err := a.repo.GetSchedule(ctx, id)
	if err != nil {
		return application.Schedule{}, mapError(err)
	}
	return toApplicationSchedule(schedule), nil
}

func (a *ScheduleRepository) ListSchedules(ctx context.Context, filter application.ScheduleFilter) ([]application.ScheduleSummary, error) {
	rows, err := a.repo.ListSchedules(ctx, persistence.ScheduleFilter{Year: filter.Year, Month: filter.Month})
	if err != nil {
		return nil, mapError(err)
	}
	summaries := make([]application.ScheduleSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, application.ScheduleSummary{
			Schedule:         toApplicationSchedule(row.Schedule),
			ParticipantCount: row.ParticipantCount,
			ConfirmedCount:   row.ConfirmedCount,
		})
	}
	return summaries, nil
}

func (a *ScheduleRepository) UpdateSchedule(ctx context.Context, schedule application.Schedule) (application.Schedule, error) {
	updated, err := a.repo.UpdateSchedule(ctx, toPersistenceSchedule(schedule))
	if err != nil {
		return application.Schedule{}, mapError(err)
	}
	return toApplicationSchedule(updated), nil
}

func (a *ScheduleRepository) DeleteSchedule(ctx context.Context, id int64) error {
	return mapError(a.repo.DeleteSchedule(ctx, id))
}

// ParticipationRepository adapts persistence.ParticipationRepository to
// application.ParticipationRepository. It also serves as the participant
// lister for schedule details.
type ParticipationRepository struct {
	repo persistence.ParticipationRepository
}

// NewParticipationRepository wraps repo.
func NewParticipationRepository(repo persistence.ParticipationRepository) *ParticipationRepository {
	return &ParticipationRepository{repo: repo}
}

func (a *ParticipationRepository) UpsertParticipation(ctx context.Context, participation application.Participation) (application.Participation, error) {
	stored, err := a.repo.UpsertParticipation(ctx, persistence.Participation{
		ScheduleID: participation.ScheduleID,
		UserID:     participation.UserID,
		Status:     string(participation.Status),
	})
	if err != nil {
		return application.Participation{}, mapError(err)
	}
	return application.Participation{
		ScheduleID: stored.ScheduleID,
		UserID:     stored.UserID,
		UserName:   participation.UserName,
		Status:     application.ParticipationStatus(stored.Status),
		CreatedAt:  stored.CreatedAt,
		UpdatedAt:  stored.UpdatedAt,
	}, nil
}

func (a *ParticipationRepository) DeleteParticipation(ctx context.Context, scheduleID, userID int64) error {
	return mapError(a.repo.DeleteParticipation(ctx, scheduleID, userID))
}

func (a *ParticipationRepository) ListParticipants(ctx context.Context, scheduleID int64) ([]application.Participant, error) {
	rows, err := a.repo.ListParticipants(ctx, scheduleID)
	if err != nil {
		return nil, mapError(err)
	}
	participants := make([]application.Participant, 0, len(rows))
	for _, row := range rows {
		participants = append(participants, application.Participant{
			UserID:    row.UserID,
			UserName:  row.UserName,
			UserPhone: row.UserPhone,
			Status:    application.ParticipationStatus(row.Status),
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return participants, nil
}

func (a *ParticipationRepository) ListUserParticipations(ctx context.Context, userID int64) ([]application.MyParticipation, error) {
	rows, err := a.repo.ListUserParticipations(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	mine := make([]application.MyParticipation, 0, len(rows))
	for _, row := range rows {
		mine = append(mine, application.MyParticipation{
			Schedule: toApplicationSchedule(row.Schedule),
			Status:   application.ParticipationStatus(row.Status),
		})
	}
	return mine, nil
}

// mapError translates storage failures into application error kinds. A
// foreign key violation means a referenced row is gone, so it surfaces as
// not found.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.NewError(application.KindNotFound, "", err)
	case errors.Is(err, persistence.ErrDuplicate):
		return application.NewError(application.KindConflict, "", err)
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return application.NewError(application.KindNotFound, "", err)
	case errors.Is(err, persistence.ErrConstraintViolation):
		return application.NewError(application.KindValidation, "", err)
	default:
		return application.NewError(application.KindDatabase, "", err)
	}
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:         model.ID,
		Name:       model.Name,
		Phone:      model.Phone,
		IsApproved: model.IsApproved,
		IsAdmin:    model.IsAdmin,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toApplicationUsers(models []persistence.User) []application.User {
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users
}

func toPersistenceUser(user application.User) persistence.User {
	return persistence.User{
		ID:         user.ID,
		Name:       user.Name,
		Phone:      user.Phone,
		IsApproved: user.IsApproved,
		IsAdmin:    user.IsAdmin,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

func toApplicationSchedule(model persistence.Schedule) application.Schedule {
	return application.Schedule{
		ID:             model.ID,
		Title:          model.Title,
		Description:    cloneString(model.Description),
		Date:           model.Date,
		StartTime:      model.StartTime,
		EndTime:        model.EndTime,
		Location:       cloneString(model.Location),
		LocationDetail: cloneString(model.LocationDetail),
		CreatedBy:      model.CreatedBy,
		CreatorName:    model.CreatorName,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func toPersistenceSchedule(schedule application.Schedule) persistence.Schedule {
	return persistence.Schedule{
		ID:             schedule.ID,
		Title:          schedule.Title,
		Description:    cloneString(schedule.Description),
		Date:           schedule.Date,
		StartTime:      schedule.StartTime,
		EndTime:        schedule.EndTime,
		Location:       cloneString(schedule.Location),
		LocationDetail: cloneString(schedule.LocationDetail),
		CreatedBy:      schedule.CreatedBy,
		CreatorName:    schedule.CreatorName,
		CreatedAt:      schedule.CreatedAt,
		UpdatedAt:      schedule.UpdatedAt,
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
