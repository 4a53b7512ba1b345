package application

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryStore is an in-memory stand-in for the SQLite repositories.
type memoryStore struct {
	mu             sync.Mutex
	now            time.Time
	nextUserID     int64
	nextScheduleID int64
	users          map[int64]User
	schedules      map[int64]Schedule
	participations []Participation

	failWith error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		now:       time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC),
		users:     map[int64]User{},
		schedules: map[int64]Schedule{},
	}
}

func (m *memoryStore) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memoryStore) CreateUser(ctx context.Context, user User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return User{}, m.failWith
	}
	for _, existing := range m.users {
		if existing.Phone == user.Phone {
			return User{}, NewError(KindConflict, "", errors.New("duplicate phone"))
		}
	}
	if len(m.users) == 0 {
		user.IsApproved = true
		user.IsAdmin = true
	}
	m.nextUserID++
	user.ID = m.nextUserID
	user.CreatedAt = m.tick()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryStore) GetUser(ctx context.Context, id int64) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return User{}, m.failWith
	}
	user, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (m *memoryStore) GetUserByCredentials(ctx context.Context, name, phone string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Name == name && user.Phone == phone {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *memoryStore) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, user)
	}
	slices.SortFunc(out, func(a, b User) int { return cmp.Compare(b.ID, a.ID) })
	return out, nil
}

func (m *memoryStore) ListPendingUsers(ctx context.Context) ([]User, error) {
	all, _ := m.ListUsers(ctx)
	var out []User
	for _, user := range all {
		if !user.IsApproved {
			out = append(out, user)
		}
	}
	slices.SortFunc(out, func(a, b User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *memoryStore) UpdateUser(ctx context.Context, id int64, patch UserPatch) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if patch.Phone != nil {
		for otherID, other := range m.users {
			if otherID != id && other.Phone == *patch.Phone {
				return User{}, NewError(KindConflict, "", errors.New("duplicate phone"))
			}
		}
		user.Phone = *patch.Phone
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.IsApproved != nil {
		user.IsApproved = *patch.IsApproved
	}
	if patch.IsAdmin != nil {
		user.IsAdmin = *patch.IsAdmin
	}
	user.UpdatedAt = m.tick()
	m.users[id] = user
	return user, nil
}

func (m *memoryStore) DeleteUser(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	for sid, schedule := range m.schedules {
		if schedule.CreatedBy == id {
			m.dropSchedule(sid)
		}
	}
	m.participations = slices.DeleteFunc(m.participations, func(p Participation) bool { return p.UserID == id })
	return nil
}

func (m *memoryStore) CreateSchedule(ctx context.Context, schedule Schedule) (Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return Schedule{}, m.failWith
	}
	owner, ok := m.users[schedule.CreatedBy]
	if !ok {
		return Schedule{}, ErrNotFound
	}
	m.nextScheduleID++
	schedule.ID = m.nextScheduleID
	schedule.CreatorName = owner.Name
	schedule.CreatedAt = m.tick()
	schedule.UpdatedAt = schedule.CreatedAt
	m.schedules[schedule.ID] = schedule
	return schedule, nil
}

func (m *memoryStore) GetSchedule(ctx context.Context, id int64) (Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	schedule, ok := m.schedules[id]
	if !ok {
		return Schedule{}, ErrNotFound
	}
	return schedule, nil
}

func (m *memoryStore) ListSchedules(ctx context.Context, filter ScheduleFilter) ([]ScheduleSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := ""
	switch {
	case filter.Year != 0 && filter.Month != 0:
		prefix = fmt.Sprintf("%04d-%02d-", filter.Year, filter.Month)
	case filter.Year != 0:
		prefix = fmt.Sprintf("%04d-", filter.Year)
	}
	var out []ScheduleSummary
	for _, schedule := range m.schedules {
		if !strings.HasPrefix(schedule.Date, prefix) {
			continue
		}
		summary := ScheduleSummary{Schedule: schedule}
		for _, p := range m.participations {
			if p.ScheduleID == schedule.ID {
				summary.ParticipantCount++
				if p.Status == StatusAttending {
					summary.ConfirmedCount++
				}
			}
		}
		out = append(out, summary)
	}
	slices.SortFunc(out, func(a, b ScheduleSummary) int {
		return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.StartTime, b.StartTime), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (m *memoryStore) UpdateSchedule(ctx context.Context, schedule Schedule) (Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[schedule.ID]; !ok {
		return Schedule{}, ErrNotFound
	}
	schedule.UpdatedAt = m.tick()
	m.schedules[schedule.ID] = schedule
	return schedule, nil
}

func (m *memoryStore) DeleteSchedule(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return ErrNotFound
	}
	m.dropSchedule(id)
	return nil
}

func (m *memoryStore) dropSchedule(id int64) {
	delete(m.schedules, id)
	m.participations = slices.DeleteFunc(m.participations, func(p Participation) bool { return p.ScheduleID == id })
}

func (m *memoryStore) UpsertParticipation(ctx context.Context, participation Participation) (Participation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[participation.ScheduleID]; !ok {
		return Participation{}, ErrNotFound
	}
	now := m.tick()
	for i, existing := range m.participations {
		if existing.ScheduleID == participation.ScheduleID && existing.UserID == participation.UserID {
			existing.Status = participation.Status
			existing.UpdatedAt = now
			m.participations[i] = existing
			return existing, nil
		}
	}
	participation.CreatedAt = now
	participation.UpdatedAt = now
	m.participations = append(m.participations, participation)
	return participation, nil
}

func (m *memoryStore) DeleteParticipation(ctx context.Context, scheduleID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.participations)
	m.participations = slices.DeleteFunc(m.participations, func(p Participation) bool {
		return p.ScheduleID == scheduleID && p.UserID == userID
	})
	if len(m.participations) == before {
		return ErrNotFound
	}
	return nil
}

func (m *memoryStore) ListParticipants(ctx context.Context, scheduleID int64) ([]Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Participant
	for _, p := range m.participations {
		if p.ScheduleID != scheduleID {
			continue
		}
		user := m.users[p.UserID]
		out = append(out, Participant{
			UserID:    p.UserID,
			UserName:  user.Name,
			UserPhone: user.Phone,
			Status:    p.Status,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		})
	}
	return out, nil
}

func (m *memoryStore) ListUserParticipations(ctx context.Context, userID int64) ([]MyParticipation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MyParticipation
	for _, p := range m.participations {
		if p.UserID == userID {
			out = append(out, MyParticipation{Schedule: m.schedules[p.ScheduleID], Status: p.Status})
		}
	}
	slices.SortFunc(out, func(a, b MyParticipation) int {
		return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.StartTime, b.StartTime))
	})
	return out, nil
}

// tokenStub issues "token-<id>" and verifies the same format.
type tokenStub struct {
	issued    []int64
	issueErr  error
	verifyErr error
}

func (t *tokenStub) Issue(userID int64) (string, time.Time, error) {
	if t.issueErr != nil {
		return "", time.Time{}, t.issueErr
	}
	t.issued = append(t.issued, userID)
	return fmt.Sprintf("token-%d", userID), time.Date(2025, time.June, 8, 9, 0, 0, 0, time.UTC), nil
}

func (t *tokenStub) Verify(token string) (int64, error) {
	if t.verifyErr != nil {
		return 0, t.verifyErr
	}
	var id int64
	if _, err := fmt.Sscanf(token, "token-%d", &id); err != nil {
		return 0, NewError(KindInvalidToken, "invalid token", err)
	}
	return id, nil
}

// seedUser registers a member directly in the store and optionally approves it.
func seedUser(store *memoryStore, name, phone string, approved bool) User {
	user, err := store.CreateUser(context.Background(), User{Name: name, Phone: phone})
	if err != nil {
		panic(err)
	}
	if approved != user.IsApproved {
		user, _ = store.UpdateUser(context.Background(), user.ID, UserPatch{IsApproved: &approved})
	}
	return user
}

func seedSchedule(store *memoryStore, owner User, date, start, end string) Schedule {
	schedule, err := store.CreateSchedule(context.Background(), Schedule{
		Title:     "Practice",
		Date:      date,
		StartTime: start,
		EndTime:   end,
		CreatedBy: owner.ID,
	})
	if err != nil {
		panic(err)
	}
	return schedule
}
