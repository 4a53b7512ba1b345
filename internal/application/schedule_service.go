package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ScheduleRepository captures the persistence interactions needed by the service.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	GetSchedule(ctx context.Context, id int64) (Schedule, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]ScheduleSummary, error)
	UpdateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	DeleteSchedule(ctx context.Context, id int64) error
}

// ParticipantLister lists the answers recorded for a schedule.
type ParticipantLister interface {
	ListParticipants(ctx context.Context, scheduleID int64) ([]Participant, error)
}

// ScheduleService orchestrates validation, ownership checks and persistence
// for schedules.
type ScheduleService struct {
	schedules    ScheduleRepository
	participants ParticipantLister
	logger       *slog.Logger
}

// NewScheduleService wires dependencies for schedule operations.
func NewScheduleService(schedules ScheduleRepository, participants ParticipantLister) *ScheduleService {
	return NewScheduleServiceWithLogger(schedules, participants, nil)
}

// NewScheduleServiceWithLogger wires dependencies with a specified logger.
func NewScheduleServiceWithLogger(schedules ScheduleRepository, participants ParticipantLister, logger *slog.Logger) *ScheduleService {
	return &ScheduleService{
		schedules:    schedules,
		participants: participants,
		logger:       defaultLogger(logger),
	}
}

func (s *ScheduleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleService", operation, attrs...)
}

func (s *ScheduleService) ready() error {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return fmt.Errorf("schedule repository not configured")
	}
	return nil
}

// CreateSchedule validates the input and stores a schedule owned by the caller.
func (s *ScheduleService) CreateSchedule(ctx context.Context, params CreateScheduleParams) (schedule Schedule, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateSchedule", "principal_id", params.Principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "schedule creation failed", "schedule created", "schedule_id", schedule.ID)
	}()

	var input ScheduleInput
	if input, err = normalizeScheduleInput(params.Input); err != nil {
		return
	}

	schedule, err = s.schedules.CreateSchedule(ctx, applyScheduleInput(Schedule{CreatedBy: params.Principal.UserID}, input))
	if errors.Is(err, ErrNotFound) {
		err = NewError(KindInvalidToken, "member for this token no longer exists", err)
	}
	return
}

// GetSchedule returns a schedule with its participants and counts.
func (s *ScheduleService) GetSchedule(ctx context.Context, id int64) (ScheduleDetail, error) {
	if err := s.ready(); err != nil {
		return ScheduleDetail{}, err
	}

	schedule, err := s.getSchedule(ctx, id)
	if err != nil {
		return ScheduleDetail{}, err
	}

	detail := ScheduleDetail{Schedule: schedule, Participants: []Participant{}}
	if s.participants == nil {
		return detail, nil
	}

	participants, err := s.participants.ListParticipants(ctx, id)
	if err != nil {
		return ScheduleDetail{}, err
	}
	if participants != nil {
		detail.Participants = participants
	}
	detail.ParticipantCount = len(participants)
	for _, p := range participants {
		if p.Status == StatusAttending {
			detail.ConfirmedCount++
		}
	}
	return detail, nil
}

// ListSchedules returns schedules matching the optional year and month, with
// attendance counts, ordered by date and start time.
func (s *ScheduleService) ListSchedules(ctx context.Context, params ListSchedulesParams) ([]ScheduleSummary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	filter, err := parseScheduleFilter(params)
	if err != nil {
		return nil, err
	}
	schedules, err := s.schedules.ListSchedules(ctx, filter)
	if err != nil {
		return nil, err
	}
	if schedules == nil {
		schedules = []ScheduleSummary{}
	}
	return schedules, nil
}

// UpdateSchedule replaces every editable field of a schedule. Only the owner
// or an administrator may do so.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, params UpdateScheduleParams) (schedule Schedule, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateSchedule",
		"principal_id", params.Principal.UserID,
		"schedule_id", params.ScheduleID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "schedule update failed", "schedule updated")
	}()

	var input ScheduleInput
	if input, err = normalizeScheduleInput(params.Input); err != nil {
		return
	}

	var existing Schedule
	if existing, err = s.getSchedule(ctx, params.ScheduleID); err != nil {
		return
	}
	if err = authorizeOwner(params.Principal, existing, "update"); err != nil {
		return
	}

	schedule, err = s.schedules.UpdateSchedule(ctx, applyScheduleInput(existing, input))
	if errors.Is(err, ErrNotFound) {
		err = notFound("schedule not found")
	}
	return
}

// DeleteSchedule removes a schedule and its answers. Only the owner or an
// administrator may do so. The deleted schedule is returned.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, principal Principal, id int64) (schedule Schedule, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DeleteSchedule", "principal_id", principal.UserID, "schedule_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "schedule deletion failed", "schedule deleted")
	}()

	if schedule, err = s.getSchedule(ctx, id); err != nil {
		return
	}
	if err = authorizeOwner(principal, schedule, "delete"); err != nil {
		return
	}
	if err = s.schedules.DeleteSchedule(ctx, id); errors.Is(err, ErrNotFound) {
		err = notFound("schedule not found")
	}
	return
}

func (s *ScheduleService) getSchedule(ctx context.Context, id int64) (Schedule, error) {
	schedule, err := s.schedules.GetSchedule(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Schedule{}, notFound("schedule not found")
	}
	return schedule, err
}

func authorizeOwner(principal Principal, schedule Schedule, action string) error {
	if principal.IsAdmin || principal.UserID == schedule.CreatedBy {
		return nil
	}
	return forbidden("only the creator or an administrator may " + action + " this schedule")
}

func applyScheduleInput(schedule Schedule, input ScheduleInput) Schedule {
	schedule.Title = input.Title
	schedule.Description = input.Description
	schedule.Date = input.Date
	schedule.StartTime = input.StartTime
	schedule.EndTime = input.EndTime
	schedule.Location = input.Location
	schedule.LocationDetail = input.LocationDetail
	return schedule
}
