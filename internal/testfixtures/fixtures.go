package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/meetup-scheduler/internal/application"
	"github.com/example/meetup-scheduler/internal/persistence"
)

var (
	userCounter     uint64
	scheduleCounter uint64
)

var referenceTime = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic member whose phone number is unique across
// the test binary.
type UserFixture struct {
	Name       string
	Phone      string
	IsApproved bool
	IsAdmin    bool
}

// UserOption configures a UserFixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a member fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	fixture := UserFixture{
		Name:  fmt.Sprintf("Member %03d", idx),
		Phone: fmt.Sprintf("010%08d", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserName overrides the generated name.
func WithUserName(name string) UserOption {
	return func(f *UserFixture) {
		f.Name = name
	}
}

// WithUserPhone overrides the generated phone number.
func WithUserPhone(phone string) UserOption {
	return func(f *UserFixture) {
		f.Phone = phone
	}
}

// WithUserApproved marks the member approved.
func WithUserApproved() UserOption {
	return func(f *UserFixture) {
		f.IsApproved = true
	}
}

// WithUserAdmin marks the member an approved administrator.
func WithUserAdmin() UserOption {
	return func(f *UserFixture) {
		f.IsApproved = true
		f.IsAdmin = true
	}
}

// Credentials returns the login pair for the fixture.
func (f UserFixture) Credentials() application.Credentials {
	return application.Credentials{Name: f.Name, Phone: f.Phone}
}

// Application converts the fixture into an application user.
func (f UserFixture) Application() application.User {
	return application.User{Name: f.Name, Phone: f.Phone, IsApproved: f.IsApproved, IsAdmin: f.IsAdmin}
}

// Persistence converts the fixture into a persistence user.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{Name: f.Name, Phone: f.Phone, IsApproved: f.IsApproved, IsAdmin: f.IsAdmin}
}

// --------------------------- Schedule fixtures ---------------------------

// ScheduleFixture is a deterministic meetup. Each fixture lands on its own
// day so listings have a stable order.
type ScheduleFixture struct {
	Title          string
	Description    *string
	Date           string
	StartTime      string
	EndTime        string
	Location       *string
	LocationDetail *string
	CreatedBy      int64
}

// ScheduleOption configures a ScheduleFixture.
type ScheduleOption func(*ScheduleFixture)

// NewScheduleFixture returns a schedule fixture with optional overrides.
func NewScheduleFixture(opts ...ScheduleOption) ScheduleFixture {
	idx := atomic.AddUint64(&scheduleCounter, 1)
	location := "Central Park Court 3"
	fixture := ScheduleFixture{
		Title:     fmt.Sprintf("Practice %03d", idx),
		Date:      referenceTime.AddDate(0, 0, int(idx)).Format("2006-01-02"),
		StartTime: "09:00",
		EndTime:   "11:00",
		Location:  &location,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithScheduleTitle overrides the generated title.
func WithScheduleTitle(title string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.Title = title
	}
}

// WithScheduleDate overrides the generated date.
func WithScheduleDate(date string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.Date = date
	}
}

// WithScheduleTimes overrides the start and end times.
func WithScheduleTimes(start, end string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.StartTime = start
		f.EndTime = end
	}
}

// WithScheduleOwner sets the creating member.
func WithScheduleOwner(userID int64) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.CreatedBy = userID
	}
}

// Input converts the fixture into the service input shape.
func (f ScheduleFixture) Input() application.ScheduleInput {
	return application.ScheduleInput{
		Title:          f.Title,
		Description:    f.Description,
		Date:           f.Date,
		StartTime:      f.StartTime,
		EndTime:        f.EndTime,
		Location:       f.Location,
		LocationDetail: f.LocationDetail,
	}
}

// Persistence converts the fixture into a persistence schedule.
func (f ScheduleFixture) Persistence() persistence.Schedule {
	return persistence.Schedule{
		Title:          f.Title,
		Description:    f.Description,
		Date:           f.Date,
		StartTime:      f.StartTime,
		EndTime:        f.EndTime,
		Location:       f.Location,
		LocationDetail: f.LocationDetail,
		CreatedBy:      f.CreatedBy,
	}
}
