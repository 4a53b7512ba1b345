package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/example/meetup-scheduler/internal/metrics"
	"github.com/example/meetup-scheduler/internal/testfixtures"
)

type testServer struct {
	handler  http.Handler
	metrics  *metrics.Metrics
	services *testfixtures.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := discardLogger()
	services := testfixtures.NewServiceFactory().Build(t)
	m := metrics.New()

	handler := NewRouter(RouterConfig{
		Auth:           NewAuthHandler(services.Auth, logger),
		Users:          NewUserHandler(services.Users, logger),
		Schedules:      NewScheduleHandler(services.Schedules, logger),
		Participations: NewParticipationHandler(services.Participations, logger),
		Health:         NewHealthHandler(services.Harness.Storage, nil, logger),
		Authenticator:  services.Auth,
		Metrics:        m,
		Logger:         logger,
		Middleware: []func(http.Handler) http.Handler{
			RequestLogger(logger),
			Instrument(m),
			Recover(logger),
		},
	})
	return &testServer{handler: handler, metrics: m, services: services}
}

type apiResponse struct {
	Status  int               `json:"-"`
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Errors  map[string]string `json:"errors"`
	Data    json.RawMessage   `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) apiResponse {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	resp := apiResponse{Status: rec.Code}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: response is not JSON: %v (%s)", method, path, err, rec.Body.String())
	}
	return resp
}

func (r apiResponse) decode(t *testing.T, dst any) {
	t.Helper()
	if err := json.Unmarshal(r.Data, dst); err != nil {
		t.Fatalf("failed to decode data %s: %v", r.Data, err)
	}
}

func expectStatus(t *testing.T, resp apiResponse, status int, code string) {
	t.Helper()
	if resp.Status != status || resp.Code != code {
		t.Fatalf("got %d %q (%s), want %d %q", resp.Status, resp.Code, resp.Message, status, code)
	}
}

type authData struct {
	UserID     int64   `json:"userId"`
	IsApproved bool    `json:"isApproved"`
	IsAdmin    bool    `json:"isAdmin"`
	Token      *string `json:"token"`
}

func (s *testServer) register(t *testing.T, name, phone string) authData {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"name": name, "phone": phone})
	expectStatus(t, resp, http.StatusCreated, "")
	var data authData
	resp.decode(t, &data)
	return data
}

func (s *testServer) login(t *testing.T, name, phone string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"name": name, "phone": phone})
	expectStatus(t, resp, http.StatusOK, "")
	var data authData
	resp.decode(t, &data)
	if data.Token == nil || *data.Token == "" {
		t.Fatalf("login returned no token")
	}
	return *data.Token
}

func TestRouter_MeetupFlow(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	admin := srv.register(t, "Kim Admin", "010-1111-2222")
	if !admin.IsAdmin || !admin.IsApproved || admin.Token == nil {
		t.Fatalf("first member should be an approved admin with a token: %#v", admin)
	}
	adminToken := *admin.Token

	member := srv.register(t, "Lee Member", "01033334444")
	if member.IsApproved || member.Token != nil {
		t.Fatalf("second member should be pending without a token: %#v", member)
	}

	resp := srv.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "Park Dup", "phone": "010-3333-4444"})
	expectStatus(t, resp, http.StatusConflict, "CONFLICT")

	resp = srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"name": "Lee Member", "phone": "01033334444"})
	expectStatus(t, resp, http.StatusForbidden, "PENDING_APPROVAL")

	resp = srv.do(t, http.MethodGet, "/api/users/pending", adminToken, nil)
	expectStatus(t, resp, http.StatusOK, "")
	var pending []struct {
		UserID int64 `json:"userId"`
	}
	resp.decode(t, &pending)
	if len(pending) != 1 || pending[0].UserID != member.UserID {
		t.Fatalf("unexpected pending list: %#v", pending)
	}

	resp = srv.do(t, http.MethodPatch, fmt.Sprintf("/api/users/%d/approve", member.UserID), adminToken, nil)
	expectStatus(t, resp, http.StatusOK, "")
	memberToken := srv.login(t, "Lee Member", "010-3333-4444")

	resp = srv.do(t, http.MethodGet, "/api/users", memberToken, nil)
	expectStatus(t, resp, http.StatusForbidden, "FORBIDDEN")

	resp = srv.do(t, http.MethodPost, "/api/schedules", memberToken, map[string]any{
		"title":     "Saturday doubles",
		"date":      "2025-03-08",
		"startTime": "09:00",
		"endTime":   "08:00",
	})
	expectStatus(t, resp, http.StatusBadRequest, "VALIDATION")

	resp = srv.do(t, http.MethodPost, "/api/schedules", memberToken, map[string]any{
		"title":     "Saturday doubles",
		"date":      "2025-03-08",
		"startTime": "09:00",
		"endTime":   "11:00",
		"location":  "Riverside Court 2",
	})
	expectStatus(t, resp, http.StatusCreated, "")
	var created struct {
		ID            int64  `json:"id"`
		CreatedBy     int64  `json:"createdBy"`
		CreatedByName string `json:"createdByName"`
	}
	resp.decode(t, &created)
	if created.CreatedBy != member.UserID || created.CreatedByName != "Lee Member" {
		t.Fatalf("unexpected schedule owner: %#v", created)
	}
	schedulePath := fmt.Sprintf("/api/schedules/%d", created.ID)

	resp = srv.do(t, http.MethodPost, schedulePath+"/participate", memberToken, map[string]string{"status": "참여"})
	expectStatus(t, resp, http.StatusOK, "")
	resp = srv.do(t, http.MethodPost, schedulePath+"/participate", memberToken, map[string]string{"status": "maybe"})
	expectStatus(t, resp, http.StatusBadRequest, "VALIDATION")

	resp = srv.do(t, http.MethodPost, fmt.Sprintf("%s/participate/%d", schedulePath, admin.UserID), memberToken, map[string]string{"status": "Attending"})
	expectStatus(t, resp, http.StatusForbidden, "FORBIDDEN")
	resp = srv.do(t, http.MethodPost, fmt.Sprintf("%s/participate/%d", schedulePath, admin.UserID), adminToken, map[string]string{"status": "Undecided"})
	expectStatus(t, resp, http.StatusOK, "")

	resp = srv.do(t, http.MethodGet, schedulePath, memberToken, nil)
	expectStatus(t, resp, http.StatusOK, "")
	var detail struct {
		ParticipantCount int `json:"participantCount"`
		ConfirmedCount   int `json:"confirmedCount"`
		Participants     []struct {
			UserID int64  `json:"userId"`
			Status string `json:"status"`
		} `json:"participants"`
	}
	resp.decode(t, &detail)
	if detail.ParticipantCount != 2 || detail.ConfirmedCount != 1 || len(detail.Participants) != 2 {
		t.Fatalf("unexpected detail counts: %#v", detail)
	}
	if detail.Participants[0].UserID != member.UserID || detail.Participants[0].Status != "Attending" {
		t.Fatalf("participants should be in answer order: %#v", detail.Participants)
	}

	resp = srv.do(t, http.MethodGet, "/api/schedules?year=2025&month=3", memberToken, nil)
	expectStatus(t, resp, http.StatusOK, "")
	var listed []struct {
		ID             int64 `json:"id"`
		ConfirmedCount int   `json:"confirmedCount"`
	}
	resp.decode(t, &listed)
	if len(listed) != 1 || listed[0].ID != created.ID || listed[0].ConfirmedCount != 1 {
		t.Fatalf("unexpected listing: %#v", listed)
	}
	resp = srv.do(t, http.MethodGet, "/api/schedules?year=2025&month=13", memberToken, nil)
	expectStatus(t, resp, http.StatusBadRequest, "VALIDATION")

	resp = srv.do(t, http.MethodGet, "/api/schedules/my-participations", memberToken, nil)
	expectStatus(t, resp, http.StatusOK, "")
	var mine []struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	resp.decode(t, &mine)
	if len(mine) != 1 || mine[0].ID != created.ID || mine[0].Status != "Attending" {
		t.Fatalf("unexpected projection: %#v", mine)
	}

	other := srv.register(t, "Choi Other", "010-5555-6666")
	resp = srv.do(t, http.MethodPatch, fmt.Sprintf("/api/users/%d/approve", other.UserID), adminToken, nil)
	expectStatus(t, resp, http.StatusOK, "")
	otherToken := srv.login(t, "Choi Other", "01055556666")

	replacement := map[string]any{
		"title":     "Sunday singles",
		"date":      "2025-03-09",
		"startTime": "10:00",
		"endTime":   "12:00",
	}
	resp = srv.do(t, http.MethodPut, schedulePath, otherToken, replacement)
	expectStatus(t, resp, http.StatusForbidden, "FORBIDDEN")
	resp = srv.do(t, http.MethodPut, schedulePath, adminToken, replacement)
	expectStatus(t, resp, http.StatusOK, "")
	var updated struct {
		Title    string  `json:"title"`
		Location *string `json:"location"`
	}
	resp.decode(t, &updated)
	if updated.Title != "Sunday singles" || updated.Location != nil {
		t.Fatalf("update should replace every editable field: %#v", updated)
	}

	resp = srv.do(t, http.MethodDelete, schedulePath+"/participate", memberToken, nil)
	expectStatus(t, resp, http.StatusOK, "")
	resp = srv.do(t, http.MethodDelete, schedulePath+"/participate", memberToken, nil)
	expectStatus(t, resp, http.StatusNotFound, "NOT_FOUND")

	resp = srv.do(t, http.MethodDelete, schedulePath, memberToken, nil)
	expectStatus(t, resp, http.StatusOK, "")
	if !strings.Contains(resp.Message, "Sunday singles") {
		t.Fatalf("delete message should name the schedule: %q", resp.Message)
	}
	resp = srv.do(t, http.MethodGet, schedulePath, memberToken, nil)
	expectStatus(t, resp, http.StatusNotFound, "NOT_FOUND")

	resp = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", member.UserID), adminToken, nil)
	expectStatus(t, resp, http.StatusOK, "")
	resp = srv.do(t, http.MethodGet, "/api/auth/me", memberToken, nil)
	expectStatus(t, resp, http.StatusUnauthorized, "INVALID_TOKEN")
}

func TestRouter_AuthErrors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/api/schedules", "", nil)
	expectStatus(t, resp, http.StatusUnauthorized, "INVALID_TOKEN")

	resp = srv.do(t, http.MethodGet, "/api/schedules", "not-a-jwt", nil)
	expectStatus(t, resp, http.StatusUnauthorized, "INVALID_TOKEN")

	resp = srv.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "K", "phone": "123"})
	expectStatus(t, resp, http.StatusBadRequest, "VALIDATION")
	if resp.Errors["name"] == "" || resp.Errors["phone"] == "" {
		t.Fatalf("expected field errors for name and phone: %#v", resp.Errors)
	}

	resp = srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"name": "Nobody", "phone": "010-0000-0000"})
	expectStatus(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestRouter_UnknownEndpointAndHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/api/nothing-here", "", nil)
	expectStatus(t, resp, http.StatusNotFound, "NOT_FOUND")
	if resp.Message != "the requested endpoint does not exist" {
		t.Fatalf("unexpected message %q", resp.Message)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	var health healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("health body is not JSON: %v", err)
	}
	if rec.Code != http.StatusOK || !health.Success || health.SchemaVersion != "003" {
		t.Fatalf("health check failed: %d %#v", rec.Code, health)
	}

	if got := testutil.ToFloat64(srv.metrics.RequestsTotal.WithLabelValues(http.MethodGet, "GET /health", "200")); got != 1 {
		t.Fatalf("health requests counted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(srv.metrics.RequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")); got != 1 {
		t.Fatalf("unmatched requests counted = %v, want 1", got)
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is closed") }

func TestHealthHandler_DatabaseDown(t *testing.T) {
	t.Parallel()

	handler := NewHealthHandler(failingPinger{}, nil, discardLogger())
	rec := httptest.NewRecorder()
	handler.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusInternalServerError || decodeEnvelope(t, rec).Code != "DATABASE" {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_AdminUserManagement(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	admin := srv.register(t, "Kim Admin", "010-1111-2222")
	adminToken := *admin.Token
	member := srv.register(t, "Lee Member", "010-3333-4444")
	userPath := fmt.Sprintf("/api/users/%d", member.UserID)

	resp := srv.do(t, http.MethodPatch, userPath+"/approve", adminToken, nil)
	expectStatus(t, resp, http.StatusOK, "")
	resp = srv.do(t, http.MethodPatch, userPath+"/approve", adminToken, nil)
	expectStatus(t, resp, http.StatusBadRequest, "VALIDATION")
	resp = srv.do(t, http.MethodPatch, fmt.Sprintf("/api/users/%d/revoke", admin.UserID), adminToken, nil)
	expectStatus(t, resp, http.StatusBadRequest, "VALIDATION")
	resp = srv.do(t, http.MethodPatch, "/api/users/9999/approve", adminToken, nil)
	expectStatus(t, resp, http.StatusNotFound, "NOT_FOUND")
	resp = srv.do(t, http.MethodPatch, "/api/users/abc/approve", adminToken, nil)
	expectStatus(t, resp, http.StatusBadRequest, "VALIDATION")

	resp = srv.do(t, http.MethodPut, userPath, adminToken, map[string]any{"name": "Lee Renamed"})
	expectStatus(t, resp, http.StatusOK, "")
	var renamed struct {
		Name       string `json:"name"`
		Phone      string `json:"phone"`
		IsApproved bool   `json:"isApproved"`
	}
	resp.decode(t, &renamed)
	if renamed.Name != "Lee Renamed" || renamed.Phone != "01033334444" || !renamed.IsApproved {
		t.Fatalf("patch should only rename: %#v", renamed)
	}
	resp = srv.do(t, http.MethodPut, userPath, adminToken, map[string]any{"phone": "010-1111-2222"})
	expectStatus(t, resp, http.StatusConflict, "CONFLICT")
	resp = srv.do(t, http.MethodPut, userPath, adminToken, map[string]any{})
	expectStatus(t, resp, http.StatusBadRequest, "VALIDATION")

	// Another administrator keeps their approval until demoted.
	resp = srv.do(t, http.MethodPut, userPath, adminToken, map[string]any{"isAdmin": true})
	expectStatus(t, resp, http.StatusOK, "")
	resp = srv.do(t, http.MethodPut, userPath, adminToken, map[string]any{"isApproved": false})
	expectStatus(t, resp, http.StatusBadRequest, "VALIDATION")
	resp = srv.do(t, http.MethodPatch, userPath+"/revoke", adminToken, nil)
	expectStatus(t, resp, http.StatusBadRequest, "VALIDATION")
	resp = srv.do(t, http.MethodPut, userPath, adminToken, map[string]any{"isAdmin": false})
	expectStatus(t, resp, http.StatusOK, "")
	var demoted struct {
		IsAdmin    bool `json:"isAdmin"`
		IsApproved bool `json:"isApproved"`
	}
	resp.decode(t, &demoted)
	if demoted.IsAdmin || !demoted.IsApproved {
		t.Fatalf("demotion should keep approval: %#v", demoted)
	}

	resp = srv.do(t, http.MethodGet, "/api/users", adminToken, nil)
	expectStatus(t, resp, http.StatusOK, "")
	var users []struct {
		UserID int64 `json:"userId"`
	}
	resp.decode(t, &users)
	if len(users) != 2 {
		t.Fatalf("expected two members, got %#v", users)
	}

	resp = srv.do(t, http.MethodPost, "/api/schedules", adminToken, map[string]any{
		"title":     "Night rally",
		"date":      "2025-04-02",
		"startTime": "19:00",
		"endTime":   "21:00",
	})
	expectStatus(t, resp, http.StatusCreated, "")
	var schedule struct {
		ID int64 `json:"id"`
	}
	resp.decode(t, &schedule)
	onBehalf := fmt.Sprintf("/api/schedules/%d/participate/%d", schedule.ID, member.UserID)

	resp = srv.do(t, http.MethodPost, onBehalf, adminToken, map[string]string{"status": "불참"})
	expectStatus(t, resp, http.StatusOK, "")
	var answered struct {
		UserName string `json:"userName"`
		Status   string `json:"status"`
	}
	resp.decode(t, &answered)
	if answered.UserName != "Lee Renamed" || answered.Status != "NotAttending" {
		t.Fatalf("unexpected on-behalf answer: %#v", answered)
	}

	resp = srv.do(t, http.MethodDelete, onBehalf, adminToken, nil)
	expectStatus(t, resp, http.StatusOK, "")
	resp = srv.do(t, http.MethodDelete, onBehalf, adminToken, nil)
	expectStatus(t, resp, http.StatusNotFound, "NOT_FOUND")

	resp = srv.do(t, http.MethodPatch, userPath+"/revoke", adminToken, nil)
	expectStatus(t, resp, http.StatusOK, "")
	resp = srv.do(t, http.MethodPost, onBehalf, adminToken, map[string]string{"status": "Attending"})
	expectStatus(t, resp, http.StatusNotFound, "NOT_FOUND")

	resp = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", admin.UserID), adminToken, nil)
	expectStatus(t, resp, http.StatusBadRequest, "VALIDATION")
}
