package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/meetup-scheduler/internal/persistence"
)

const scheduleColumns = `
	s.id, s.title, s.description, s.date, s.start_time, s.end_time,
	s.location, s.location_detail, s.created_by, COALESCE(u.name, ''),
	s.created_at, s.updated_at`

// ScheduleRepository implements persistence.ScheduleRepository using SQLite
type ScheduleRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	now    func() time.Time
}

// NewScheduleRepository creates a new SQLite schedule repository
func NewScheduleRepository(pool *ConnectionPool) *ScheduleRepository {
	return &ScheduleRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		now:    time.Now,
	}
}

// CreateSchedule inserts a schedule and returns it joined with the creator name.
func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule persistence.Schedule) (persistence.Schedule, error) {
	if schedule.CreatedBy <= 0 {
		return persistence.Schedule{}, persistence.ErrConstraintViolation
	}

	now := formatTimestamp(r.now())
	result, err := r.helper.Exec(ctx, `
		INSERT INTO schedules (title, description, date, start_time, end_time, location, location_detail, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		schedule.Title,
		nullableString(schedule.Description),
		schedule.Date,
		schedule.StartTime,
		schedule.EndTime,
		nullableString(schedule.Location),
		nullableString(schedule.LocationDetail),
		schedule.CreatedBy,
		now,
		now,
	)
	if err != nil {
		return persistence.Schedule{}, r.mapper.MapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Schedule{}, fmt.Errorf("failed to read inserted id: %w", err)
	}

	return r.GetSchedule(ctx, id)
}

// GetSchedule retrieves a schedule by ID
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id int64) (persistence.Schedule, error) {
	if id <= 0 {
		return persistence.Schedule{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules s
		LEFT JOIN users u ON u.id = s.created_by
		WHERE s.id = ?
	`, id)

	schedule, err := scanSchedule(row)
	if err != nil {
		return persistence.Schedule{}, r.mapper.MapError(err)
	}
	return schedule, nil
}

// ListSchedules returns schedules matching filter ordered by date and start
// time, each with its participant and attending counts.
func (r *ScheduleRepository) ListSchedules(ctx context.Context, filter persistence.ScheduleFilter) ([]persistence.ScheduleSummary, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT `+scheduleColumns+`,
			COUNT(sp.id),
			COALESCE(SUM(CASE WHEN sp.status = ? THEN 1 ELSE 0 END), 0)
		FROM schedules s
		LEFT JOIN users u ON u.id = s.created_by
		LEFT JOIN schedule_participants sp ON sp.schedule_id = s.id
		WHERE s.date LIKE ?
		GROUP BY s.id
		ORDER BY s.date ASC, s.start_time ASC, s.id ASC
	`, persistence.StatusAttending, datePattern(filter))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	summaries := make([]persistence.ScheduleSummary, 0)
	for rows.Next() {
		var summary persistence.ScheduleSummary
		schedule, err := scanSchedule(rows, &summary.ParticipantCount, &summary.ConfirmedCount)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		summary.Schedule = schedule
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return summaries, nil
}

// UpdateSchedule replaces every editable field of an existing schedule.
func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, schedule persistence.Schedule) (persistence.Schedule, error) {
	if schedule.ID <= 0 {
		return persistence.Schedule{}, persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE schedules
		SET title = ?, description = ?, date = ?, start_time = ?, end_time = ?,
			location = ?, location_detail = ?, updated_at = ?
		WHERE id = ?
	`,
		schedule.Title,
		nullableString(schedule.Description),
		schedule.Date,
		schedule.StartTime,
		schedule.EndTime,
		nullableString(schedule.Location),
		nullableString(schedule.LocationDetail),
		formatTimestamp(r.now()),
		schedule.ID,
	)
	if err != nil {
		return persistence.Schedule{}, r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.Schedule{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.Schedule{}, persistence.ErrNotFound
	}

	return r.GetSchedule(ctx, schedule.ID)
}

// DeleteSchedule removes a schedule; participations cascade.
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id int64) error {
	if id <= 0 {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM schedules WHERE id = ?`, id)
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

// datePattern renders the LIKE pattern matching stored YYYY-MM-DD dates. A
// month without a year does not narrow the result.
func datePattern(filter persistence.ScheduleFilter) string {
	switch {
	case filter.Year > 0 && filter.Month > 0:
		return fmt.Sprintf("%04d-%02d-%%", filter.Year, filter.Month)
	case filter.Year > 0:
		return fmt.Sprintf("%04d-%%", filter.Year)
	default:
		return "%"
	}
}

func scanSchedule(row rowScanner, extra ...any) (persistence.Schedule, error) {
	var schedule persistence.Schedule
	var description, location, locationDetail sql.NullString
	var createdAtStr, updatedAtStr string

	dest := []any{
		&schedule.ID,
		&schedule.Title,
		&description,
		&schedule.Date,
		&schedule.StartTime,
		&schedule.EndTime,
		&location,
		&locationDetail,
		&schedule.CreatedBy,
		&schedule.CreatorName,
		&createdAtStr,
		&updatedAtStr,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return persistence.Schedule{}, err
	}

	schedule.Description = stringPtr(description)
	schedule.Location = stringPtr(location)
	schedule.LocationDetail = stringPtr(locationDetail)

	var err error
	if schedule.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return persistence.Schedule{}, err
	}
	if schedule.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return persistence.Schedule{}, err
	}

	return schedule, nil
}
