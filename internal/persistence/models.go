package persistence

import "time"

// User represents a member account.
type User struct {
	ID         int64
	Name       string
	Phone      string
	IsApproved bool
	IsAdmin    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserPatch lists the user columns an administrator may override. Nil fields
// are left untouched.
type UserPatch struct {
	Name       *string
	Phone      *string
	IsApproved *bool
	IsAdmin    *bool
}

// IsEmpty reports whether the patch carries no overrides.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Phone == nil && p.IsApproved == nil && p.IsAdmin == nil
}

// Schedule represents a meetup stored in persistence. Date is stored as
// YYYY-MM-DD and times as zero padded HH:MM so lexical order matches
// chronological order.
type Schedule struct {
	ID             int64
	Title          string
	Description    *string
	Date           string
	StartTime      string
	EndTime        string
	Location       *string
	LocationDetail *string
	CreatedBy      int64
	CreatorName    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ScheduleSummary annotates a schedule with participation counters.
type ScheduleSummary struct {
	Schedule
	ParticipantCount int
	ConfirmedCount   int
}

// ScheduleFilter narrows schedule listings. Zero values disable a bound.
type ScheduleFilter struct {
	Year  int
	Month int
}

// Participation status values as stored in the status column.
const (
	StatusAttending    = "Attending"
	StatusNotAttending = "NotAttending"
	StatusUndecided    = "Undecided"
)

// Participation is one user's attendance record for one schedule.
type Participation struct {
	ScheduleID int64
	UserID     int64
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Participant is a participation row joined with the member's identity.
type Participant struct {
	Participation
	UserName  string
	UserPhone string
}

// MyParticipation is a schedule annotated with one member's own status.
type MyParticipation struct {
	Schedule
	Status string
}
