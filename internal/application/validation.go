package application

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minNameLength     = 2
	maxNameLength     = 50
	maxTitleLength    = 200
	maxLocationLength = 500

	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var phonePattern = regexp.MustCompile(`^010-?\d{4}-?\d{4}$`)

// NormalizePhone validates a mobile number written as 010-XXXX-XXXX (hyphens
// optional) and returns its digits.
func NormalizePhone(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if !phonePattern.MatchString(raw) {
		return "", false
	}
	return strings.ReplaceAll(raw, "-", ""), true
}

func normalizeName(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(name)
	return name, n >= minNameLength && n <= maxNameLength
}

func normalizeCredentials(creds Credentials) (Credentials, error) {
	errs := fieldErrors{}
	name, ok := normalizeName(creds.Name)
	if !ok {
		errs.add("name", "name must be between 2 and 50 characters")
	}
	phone, ok := NormalizePhone(creds.Phone)
	if !ok {
		errs.add("phone", "phone must look like 010-1234-5678")
	}
	if err := errs.err(); err != nil {
		return Credentials{}, err
	}
	return Credentials{Name: name, Phone: phone}, nil
}

func normalizeDate(raw string) (string, bool) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return parsed.Format(dateLayout), true
}

// normalizeClock accepts H:MM or HH:MM and returns zero-padded HH:MM.
func normalizeClock(raw string) (string, bool) {
	parsed, err := time.Parse(timeLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return parsed.Format(timeLayout), true
}

func optionalText(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeScheduleInput(in ScheduleInput) (ScheduleInput, error) {
	errs := fieldErrors{}
	out := ScheduleInput{
		Title:          strings.TrimSpace(in.Title),
		Description:    optionalText(in.Description),
		Location:       optionalText(in.Location),
		LocationDetail: optionalText(in.LocationDetail),
	}

	if n := utf8.RuneCountInString(out.Title); n < 1 || n > maxTitleLength {
		errs.add("title", "title must be between 1 and 200 characters")
	}

	var ok bool
	if out.Date, ok = normalizeDate(in.Date); !ok {
		errs.add("date", "date must be formatted as YYYY-MM-DD")
	}
	if out.StartTime, ok = normalizeClock(in.StartTime); !ok {
		errs.add("startTime", "start time must be formatted as HH:MM")
	}
	if out.EndTime, ok = normalizeClock(in.EndTime); !ok {
		errs.add("endTime", "end time must be formatted as HH:MM")
	}
	if out.Location != nil && utf8.RuneCountInString(*out.Location) > maxLocationLength {
		errs.add("location", "location must be at most 500 characters")
	}

	if err := errs.err(); err != nil {
		return ScheduleInput{}, err
	}
	if out.StartTime >= out.EndTime {
		return ScheduleInput{}, validationError("end time must be later than start time")
	}
	return out, nil
}

// parseScheduleFilter validates the list query. A month without a year is
// ignored.
func parseScheduleFilter(params ListSchedulesParams) (ScheduleFilter, error) {
	errs := fieldErrors{}
	var filter ScheduleFilter

	if raw := strings.TrimSpace(params.Year); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < 1 || year > 9999 {
			errs.add("year", "year must be a number between 1 and 9999")
		}
		filter.Year = year
	}
	if raw := strings.TrimSpace(params.Month); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil || month < 1 || month > 12 {
			errs.add("month", "month must be a number between 1 and 12")
		}
		filter.Month = month
	}

	if err := errs.err(); err != nil {
		return ScheduleFilter{}, err
	}
	if filter.Year == 0 {
		filter.Month = 0
	}
	return filter, nil
}
