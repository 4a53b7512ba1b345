package application

import (
	"errors"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "010-1111-2222", want: "01011112222", ok: true},
		{in: "01011112222", want: "01011112222", ok: true},
		{in: " 010-1111-2222 ", want: "01011112222", ok: true},
		{in: "011-1111-2222", ok: false},
		{in: "010-111-2222", ok: false},
		{in: "010-1111-22223", ok: false},
		{in: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := NormalizePhone(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("NormalizePhone(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNormalizeCredentials(t *testing.T) {
	t.Parallel()

	creds, err := normalizeCredentials(Credentials{Name: "  김철수 ", Phone: "010-1234-5678"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.Name != "김철수" || creds.Phone != "01012345678" {
		t.Fatalf("unexpected normalized credentials %+v", creds)
	}

	_, err = normalizeCredentials(Credentials{Name: "K", Phone: "12345"})
	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := appErr.FieldErrors["name"]; !ok {
		t.Fatalf("expected name field error, got %v", appErr.FieldErrors)
	}
	if _, ok := appErr.FieldErrors["phone"]; !ok {
		t.Fatalf("expected phone field error, got %v", appErr.FieldErrors)
	}

	if _, err := normalizeCredentials(Credentials{Name: strings.Repeat("a", 51), Phone: "01012345678"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected over-long name to fail, got %v", err)
	}
}

func TestNormalizeScheduleInput(t *testing.T) {
	t.Parallel()

	valid := ScheduleInput{
		Title:       " Practice ",
		Description: strPtr("  "),
		Date:        "2025-06-01",
		StartTime:   "9:00",
		EndTime:     "10:30",
		Location:    strPtr("Court 3"),
	}

	t.Run("normalizes fields", func(t *testing.T) {
		t.Parallel()
		got, err := normalizeScheduleInput(valid)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Title != "Practice" || got.StartTime != "09:00" || got.EndTime != "10:30" {
			t.Fatalf("unexpected normalized input %+v", got)
		}
		if got.Description != nil {
			t.Fatalf("expected blank description to become nil")
		}
		if got.Location == nil || *got.Location != "Court 3" {
			t.Fatalf("expected location to be kept")
		}
	})

	cases := []struct {
		name   string
		mutate func(*ScheduleInput)
		field  string
	}{
		{name: "empty title", mutate: func(in *ScheduleInput) { in.Title = " " }, field: "title"},
		{name: "long title", mutate: func(in *ScheduleInput) { in.Title = strings.Repeat("t", 201) }, field: "title"},
		{name: "bad date", mutate: func(in *ScheduleInput) { in.Date = "2025/06/01" }, field: "date"},
		{name: "impossible date", mutate: func(in *ScheduleInput) { in.Date = "2025-02-30" }, field: "date"},
		{name: "bad start", mutate: func(in *ScheduleInput) { in.StartTime = "25:00" }, field: "startTime"},
		{name: "bad end", mutate: func(in *ScheduleInput) { in.EndTime = "10:5" }, field: "endTime"},
		{name: "long location", mutate: func(in *ScheduleInput) { in.Location = strPtr(strings.Repeat("l", 501)) }, field: "location"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			in := valid
			tc.mutate(&in)
			_, err := normalizeScheduleInput(in)
			var appErr *Error
			if !errors.As(err, &appErr) || appErr.Kind != KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := appErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected %s field error, got %v", tc.field, appErr.FieldErrors)
			}
		})
	}

	for _, times := range [][2]string{{"18:00", "18:00"}, {"19:00", "18:00"}} {
		t.Run("rejects "+times[0]+"-"+times[1], func(t *testing.T) {
			t.Parallel()
			in := valid
			in.StartTime, in.EndTime = times[0], times[1]
			if _, err := normalizeScheduleInput(in); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestParseScheduleFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  ListSchedulesParams
		want    ScheduleFilter
		wantErr bool
	}{
		{name: "empty", params: ListSchedulesParams{}, want: ScheduleFilter{}},
		{name: "year", params: ListSchedulesParams{Year: "2025"}, want: ScheduleFilter{Year: 2025}},
		{name: "year and month", params: ListSchedulesParams{Year: "2025", Month: "6"}, want: ScheduleFilter{Year: 2025, Month: 6}},
		{name: "month alone ignored", params: ListSchedulesParams{Month: "6"}, want: ScheduleFilter{}},
		{name: "bad year", params: ListSchedulesParams{Year: "twenty"}, wantErr: true},
		{name: "bad month", params: ListSchedulesParams{Year: "2025", Month: "13"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseScheduleFilter(tt.params)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParseParticipationStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]ParticipationStatus{
		"Attending":    StatusAttending,
		"notattending": StatusNotAttending,
		" Undecided ":  StatusUndecided,
		"참여":           StatusAttending,
		"불참":           StatusNotAttending,
		"미정":           StatusUndecided,
	}
	for in, want := range tests {
		got, ok := ParseParticipationStatus(in)
		if !ok || got != want {
			t.Fatalf("ParseParticipationStatus(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}

	if _, ok := ParseParticipationStatus("Maybe"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}
