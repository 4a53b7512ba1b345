package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/meetup-scheduler/internal/application"
)

type scheduleService interface {
	CreateSchedule(ctx context.Context, params application.CreateScheduleParams) (application.Schedule, error)
	GetSchedule(ctx context.Context, id int64) (application.ScheduleDetail, error)
	ListSchedules(ctx context.Context, params application.ListSchedulesParams) ([]application.ScheduleSummary, error)
	UpdateSchedule(ctx context.Context, params application.UpdateScheduleParams) (application.Schedule, error)
	DeleteSchedule(ctx context.Context, principal application.Principal, id int64) (application.Schedule, error)
}

type ScheduleHandler struct {
	service   scheduleService
	responder responder
	logger    *slog.Logger
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	base := defaultLogger(logger)
	return &ScheduleHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ScheduleHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ScheduleHandler", operation, attrs...)
}

func (h *ScheduleHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// List handles GET /api/schedules?year=&month=.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	query := r.URL.Query()
	schedules, err := h.service.ListSchedules(r.Context(), application.ListSchedulesParams{
		Year:  query.Get("year"),
		Month: query.Get("month"),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]scheduleSummaryDTO, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, scheduleSummaryDTO{
			scheduleDTO:      toScheduleDTO(s.Schedule),
			ParticipantCount: s.ParticipantCount,
			ConfirmedCount:   s.ConfirmedCount,
		})
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "", out)
}

// Get handles GET /api/schedules/{id}.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := pathID(r, "id", "schedule")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	detail, err := h.service.GetSchedule(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	participants := make([]participantDTO, 0, len(detail.Participants))
	for _, p := range detail.Participants {
		participants = append(participants, participantDTO{
			UserID:    p.UserID,
			UserName:  p.UserName,
			UserPhone: p.UserPhone,
			Status:    string(p.Status),
			CreatedAt: formatTime(p.CreatedAt),
			UpdatedAt: formatTime(p.UpdatedAt),
		})
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "", scheduleDetailDTO{
		scheduleDTO:      toScheduleDTO(detail.Schedule),
		ParticipantCount: detail.ParticipantCount,
		ConfirmedCount:   detail.ConfirmedCount,
		Participants:     participants,
	})
}

// Create handles POST /api/schedules.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.responder.handleServiceError(r.Context(), w, application.NewError(application.KindInvalidToken, "access token is required", nil))
		return
	}

	var req scheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	schedule, err := h.service.CreateSchedule(r.Context(), application.CreateScheduleParams{
		Principal: user.Principal(),
		Input:     req.input(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "schedule_id", schedule.ID).InfoContext(r.Context(), "schedule created")
	h.responder.writeData(r.Context(), w, http.StatusCreated, "schedule created", toScheduleDTO(schedule))
}

// Update handles PUT /api/schedules/{id}.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.responder.handleServiceError(r.Context(), w, application.NewError(application.KindInvalidToken, "access token is required", nil))
		return
	}
	id, err := pathID(r, "id", "schedule")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var req scheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	schedule, err := h.service.UpdateSchedule(r.Context(), application.UpdateScheduleParams{
		Principal:  user.Principal(),
		ScheduleID: id,
		Input:      req.input(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "schedule updated", toScheduleDTO(schedule))
}

// Delete handles DELETE /api/schedules/{id}.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.responder.handleServiceError(r.Context(), w, application.NewError(application.KindInvalidToken, "access token is required", nil))
		return
	}
	id, err := pathID(r, "id", "schedule")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	schedule, err := h.service.DeleteSchedule(r.Context(), user.Principal(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "schedule '"+schedule.Title+"' deleted", nil)
}

type scheduleRequest struct {
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Date           string  `json:"date"`
	StartTime      string  `json:"startTime"`
	EndTime        string  `json:"endTime"`
	Location       *string `json:"location"`
	LocationDetail *string `json:"locationDetail"`
}

func (s scheduleRequest) input() application.ScheduleInput {
	return application.ScheduleInput{
		Title:          s.Title,
		Description:    s.Description,
		Date:           s.Date,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		Location:       s.Location,
		LocationDetail: s.LocationDetail,
	}
}

type scheduleDTO struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Date           string  `json:"date"`
	StartTime      string  `json:"startTime"`
	EndTime        string  `json:"endTime"`
	Location       *string `json:"location"`
	LocationDetail *string `json:"locationDetail"`
	CreatedBy      int64   `json:"createdBy"`
	CreatedByName  string  `json:"createdByName"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

type scheduleSummaryDTO struct {
	scheduleDTO
	ParticipantCount int `json:"participantCount"`
	ConfirmedCount   int `json:"confirmedCount"`
}

type scheduleDetailDTO struct {
	scheduleDTO
	ParticipantCount int              `json:"participantCount"`
	ConfirmedCount   int              `json:"confirmedCount"`
	Participants     []participantDTO `json:"participants"`
}

type participantDTO struct {
	UserID    int64  `json:"userId"`
	UserName  string `json:"userName"`
	UserPhone string `json:"userPhone"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toScheduleDTO(s application.Schedule) scheduleDTO {
	return scheduleDTO{
		ID:             s.ID,
		Title:          s.Title,
		Description:    s.Description,
		Date:           s.Date,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		Location:       s.Location,
		LocationDetail: s.LocationDetail,
		CreatedBy:      s.CreatedBy,
		CreatedByName:  s.CreatorName,
		CreatedAt:      formatTime(s.CreatedAt),
		UpdatedAt:      formatTime(s.UpdatedAt),
	}
}
