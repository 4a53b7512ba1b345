package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/meetup-scheduler/internal/persistence"
)

// ParticipationRepository implements persistence.ParticipationRepository using SQLite
type ParticipationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	now    func() time.Time
}

// NewParticipationRepository creates a new SQLite participation repository
func NewParticipationRepository(pool *ConnectionPool) *ParticipationRepository {
	return &ParticipationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		now:    time.Now,
	}
}

// UpsertParticipation records a status for the (schedule, user) pair,
// updating the existing row in place when there is one.
func (r *ParticipationRepository) UpsertParticipation(ctx context.Context, participation persistence.Participation) (persistence.Participation, error) {
	now := formatTimestamp(r.now())

	var createdAtStr, updatedAtStr string
	err := r.helper.QueryRow(ctx, `
		INSERT INTO schedule_participants (schedule_id, user_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (schedule_id, user_id)
		DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at
		RETURNING status, created_at, updated_at
	`,
		participation.ScheduleID,
		participation.UserID,
		participation.Status,
		now,
		now,
	).Scan(&participation.Status, &createdAtStr, &updatedAtStr)
	if err != nil {
		return persistence.Participation{}, r.mapper.MapError(err)
	}

	if participation.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return persistence.Participation{}, err
	}
	if participation.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return persistence.Participation{}, err
	}

	return participation, nil
}

// DeleteParticipation removes the row for the pair entirely.
func (r *ParticipationRepository) DeleteParticipation(ctx context.Context, scheduleID, userID int64) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM schedule_participants WHERE schedule_id = ? AND user_id = ?`, scheduleID, userID)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// ListParticipants returns a schedule's participations joined with member
// identity, in the order they were first recorded.
func (r *ParticipationRepository) ListParticipants(ctx context.Context, scheduleID int64) ([]persistence.Participant, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT sp.schedule_id, sp.user_id, sp.status, sp.created_at, sp.updated_at, u.name, u.phone
		FROM schedule_participants sp
		JOIN users u ON u.id = sp.user_id
		WHERE sp.schedule_id = ?
		ORDER BY sp.created_at ASC, sp.id ASC
	`, scheduleID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	participants := make([]persistence.Participant, 0)
	for rows.Next() {
		var p persistence.Participant
		var createdAtStr, updatedAtStr string
		if err := rows.Scan(&p.ScheduleID, &p.UserID, &p.Status, &createdAtStr, &updatedAtStr, &p.UserName, &p.UserPhone); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if p.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
			return nil, err
		}
		if p.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return participants, nil
}

// ListUserParticipations returns every schedule the member has a row for,
// with their own status, ordered by date and start time.
func (r *ParticipationRepository) ListUserParticipations(ctx context.Context, userID int64) ([]persistence.MyParticipation, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT `+scheduleColumns+`, sp.status
		FROM schedule_participants sp
		JOIN schedules s ON s.id = sp.schedule_id
		LEFT JOIN users u ON u.id = s.created_by
		WHERE sp.user_id = ?
		ORDER BY s.date ASC, s.start_time ASC, s.id ASC
	`, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	participations := make([]persistence.MyParticipation, 0)
	for rows.Next() {
		var mine persistence.MyParticipation
		schedule, err := scanSchedule(rows, &mine.Status)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		mine.Schedule = schedule
		participations = append(participations, mine)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return participations, nil
}
