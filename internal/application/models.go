package application

import (
	"strings"
	"time"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  int64
	Name    string
	IsAdmin bool
}

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

// Principal returns the acting identity for the user.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Name: u.Name, IsAdmin: u.IsAdmin}
}

// UserPatch carries optional overrides for an administrator edit. Nil fields
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

// Credentials identify a member at registration and login.
type Credentials struct {
	Name  string
	Phone string
}

// AuthResult is returned by registration and login. Token is empty when no
// token was issued.
type AuthResult struct {
	User      User
	Token     string
	ExpiresAt time.Time
}

// UpdateUserParams wraps an administrator edit of another member.
type UpdateUserParams struct {
	Principal Principal
	UserID    int64
	Patch     UserPatch
}

// ParticipationStatus is a member's attendance answer for a schedule.
type ParticipationStatus string

const (
	StatusAttending    ParticipationStatus = "Attending"
	StatusNotAttending ParticipationStatus = "NotAttending"
	StatusUndecided    ParticipationStatus = "Undecided"
)

var statusAliases = map[string]ParticipationStatus{
	"attending":    StatusAttending,
	"notattending": StatusNotAttending,
	"undecided":    StatusUndecided,
	"참여":           StatusAttending,
	"불참":           StatusNotAttending,
	"미정":           StatusUndecided,
}

// ParseParticipationStatus resolves user input to a status. Matching ignores
// case and surrounding space and accepts the Korean labels.
func ParseParticipationStatus(raw string) (ParticipationStatus, bool) {
	status, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]
	return status, ok
}

// Schedule represents a meetup. Date is YYYY-MM-DD; times are HH:MM.
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

// ScheduleSummary is a list row annotated with attendance counts.
type ScheduleSummary struct {
	Schedule
	ParticipantCount int
	ConfirmedCount   int
}

// ScheduleDetail is a schedule with its participants in answer order.
type ScheduleDetail struct {
	Schedule
	Participants     []Participant
	ParticipantCount int
	ConfirmedCount   int
}

// ScheduleInput captures the editable schedule fields. Updates replace every
// field.
type ScheduleInput struct {
	Title          string
	Description    *string
	Date           string
	StartTime      string
	EndTime        string
	Location       *string
	LocationDetail *string
}

// CreateScheduleParams wraps the data required to create a schedule.
type CreateScheduleParams struct {
	Principal Principal
	Input     ScheduleInput
}

// UpdateScheduleParams wraps the data required to replace a schedule.
type UpdateScheduleParams struct {
	Principal  Principal
	ScheduleID int64
	Input      ScheduleInput
}

// ListSchedulesParams holds the raw year and month query values.
type ListSchedulesParams struct {
	Year  string
	Month string
}

// ScheduleFilter is the validated form of ListSchedulesParams. Zero means
// unset.
type ScheduleFilter struct {
	Year  int
	Month int
}

// Participation is one member's answer for one schedule.
type Participation struct {
	ScheduleID int64
	UserID     int64
	UserName   string
	Status     ParticipationStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Participant is a participation joined with the member's contact fields.
type Participant struct {
	UserID    int64
	UserName  string
	UserPhone string
	Status    ParticipationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MyParticipation is a schedule annotated with the caller's own status.
type MyParticipation struct {
	Schedule
	Status ParticipationStatus
}

// SetStatusParams sets the acting user's status, or the target user's when
// TargetUserID is non-zero.
type SetStatusParams struct {
	Principal    Principal
	ScheduleID   int64
	TargetUserID int64
	Status       string
}
