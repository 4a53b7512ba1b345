package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ParticipationRepository captures the attendance ledger.
type ParticipationRepository interface {
	UpsertParticipation(ctx context.Context, participation Participation) (Participation, error)
	DeleteParticipation(ctx context.Context, scheduleID, userID int64) error
	ListParticipants(ctx context.Context, scheduleID int64) ([]Participant, error)
	ListUserParticipations(ctx context.Context, userID int64) ([]MyParticipation, error)
}

// ScheduleLookup resolves schedules by id.
type ScheduleLookup interface {
	GetSchedule(ctx context.Context, id int64) (Schedule, error)
}

// UserLookup resolves members by id.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (User, error)
}

// ParticipationService records, withdraws and projects attendance answers.
type ParticipationService struct {
	participations ParticipationRepository
	schedules      ScheduleLookup
	users          UserLookup
	logger         *slog.Logger
}

// NewParticipationService constructs a ParticipationService.
func NewParticipationService(participations ParticipationRepository, schedules ScheduleLookup, users UserLookup) *ParticipationService {
	return NewParticipationServiceWithLogger(participations, schedules, users, nil)
}

// NewParticipationServiceWithLogger constructs a ParticipationService with a
// specified logger.
func NewParticipationServiceWithLogger(participations ParticipationRepository, schedules ScheduleLookup, users UserLookup, logger *slog.Logger) *ParticipationService {
	return &ParticipationService{
		participations: participations,
		schedules:      schedules,
		users:          users,
		logger:         defaultLogger(logger),
	}
}

func (s *ParticipationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ParticipationService", operation, attrs...)
}

func (s *ParticipationService) ready() error {
	if s == nil {
		return fmt.Errorf("ParticipationService is nil")
	}
	if s.participations == nil || s.schedules == nil || s.users == nil {
		return fmt.Errorf("participation dependencies not configured")
	}
	return nil
}

// SetStatus records an answer for the caller, or for TargetUserID when an
// administrator answers on someone else's behalf. Repeated calls update the
// same record.
func (s *ParticipationService) SetStatus(ctx context.Context, params SetStatusParams) (participation Participation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	targetID, onBehalf := resolveTarget(params.Principal, params.TargetUserID)
	logger := s.loggerWith(ctx, "SetStatus",
		"principal_id", params.Principal.UserID,
		"schedule_id", params.ScheduleID,
		"user_id", targetID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "participation update failed", "participation recorded", "status", participation.Status)
	}()

	status, ok := ParseParticipationStatus(params.Status)
	if !ok {
		errs := fieldErrors{}
		errs.add("status", "status must be one of Attending, NotAttending, Undecided")
		err = errs.err()
		return
	}

	var target User
	if target, err = s.resolveUser(ctx, params.Principal, targetID, onBehalf); err != nil {
		return
	}
	if _, err = s.getSchedule(ctx, params.ScheduleID); err != nil {
		return
	}

	participation, err = s.participations.UpsertParticipation(ctx, Participation{
		ScheduleID: params.ScheduleID,
		UserID:     targetID,
		Status:     status,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = notFound("schedule not found")
		}
		return
	}
	participation.UserName = target.Name
	return
}

// Withdraw deletes the answer of the caller, or of targetUserID when an
// administrator removes someone else. The member then has no record at all.
func (s *ParticipationService) Withdraw(ctx context.Context, principal Principal, scheduleID, targetUserID int64) (participation Participation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	targetID, onBehalf := resolveTarget(principal, targetUserID)
	logger := s.loggerWith(ctx, "Withdraw",
		"principal_id", principal.UserID,
		"schedule_id", scheduleID,
		"user_id", targetID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "participation withdrawal failed", "participation withdrawn")
	}()

	var target User
	if target, err = s.resolveUser(ctx, principal, targetID, onBehalf); err != nil {
		return
	}
	if _, err = s.getSchedule(ctx, scheduleID); err != nil {
		return
	}

	if err = s.participations.DeleteParticipation(ctx, scheduleID, targetID); err != nil {
		if errors.Is(err, ErrNotFound) {
			err = notFound("participation not found")
		}
		return
	}
	participation = Participation{ScheduleID: scheduleID, UserID: targetID, UserName: target.Name}
	return
}

// MyParticipations lists every schedule the caller has answered, with the
// caller's status, ordered by date and start time.
func (s *ParticipationService) MyParticipations(ctx context.Context, principal Principal) ([]MyParticipation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.participations.ListUserParticipations(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []MyParticipation{}
	}
	return rows, nil
}

func resolveTarget(principal Principal, targetUserID int64) (int64, bool) {
	if targetUserID == 0 {
		return principal.UserID, false
	}
	return targetUserID, true
}

// resolveUser returns the member being answered for. Acting on behalf of
// another member requires the administrator role and an approved target.
func (s *ParticipationService) resolveUser(ctx context.Context, principal Principal, targetID int64, onBehalf bool) (User, error) {
	if !onBehalf {
		return User{ID: principal.UserID, Name: principal.Name, IsApproved: true, IsAdmin: principal.IsAdmin}, nil
	}
	if !principal.IsAdmin {
		return User{}, forbidden("administrator privileges are required")
	}

	user, err := s.users.GetUser(ctx, targetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, notFound("user not found or not approved")
		}
		return User{}, err
	}
	if !user.IsApproved {
		return User{}, notFound("user not found or not approved")
	}
	return user, nil
}

func (s *ParticipationService) getSchedule(ctx context.Context, id int64) (Schedule, error) {
	schedule, err := s.schedules.GetSchedule(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Schedule{}, notFound("schedule not found")
	}
	return schedule, err
}
