package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/meetup-scheduler/internal/application"
)

type participationService interface {
	SetStatus(ctx context.Context, params application.SetStatusParams) (application.Participation, error)
	Withdraw(ctx context.Context, principal application.Principal, scheduleID, targetUserID int64) (application.Participation, error)
	MyParticipations(ctx context.Context, principal application.Principal) ([]application.MyParticipation, error)
}

type ParticipationHandler struct {
	service   participationService
	responder responder
	logger    *slog.Logger
}

func NewParticipationHandler(service participationService, logger *slog.Logger) *ParticipationHandler {
	base := defaultLogger(logger)
	return &ParticipationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ParticipationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ParticipationHandler", operation, attrs...)
}

// request resolves the acting member, the schedule id and, when present, the
// target user id from the path.
func (h *ParticipationHandler) request(w http.ResponseWriter, r *http.Request) (application.Principal, int64, int64, bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return application.Principal{}, 0, 0, false
	}
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.responder.handleServiceError(r.Context(), w, application.NewError(application.KindInvalidToken, "access token is required", nil))
		return application.Principal{}, 0, 0, false
	}
	scheduleID, err := pathID(r, "id", "schedule")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return application.Principal{}, 0, 0, false
	}
	var targetID int64
	if r.PathValue("userId") != "" {
		if targetID, err = pathID(r, "userId", "user"); err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return application.Principal{}, 0, 0, false
		}
	}
	return user.Principal(), scheduleID, targetID, true
}

// SetStatus handles POST /api/schedules/{id}/participate and its
// administrator variant POST /api/schedules/{id}/participate/{userId}.
func (h *ParticipationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	principal, scheduleID, targetID, ok := h.request(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	participation, err := h.service.SetStatus(r.Context(), application.SetStatusParams{
		Principal:    principal,
		ScheduleID:   scheduleID,
		TargetUserID: targetID,
		Status:       req.Status,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "SetStatus",
		"schedule_id", scheduleID,
		"user_id", participation.UserID,
	).InfoContext(r.Context(), "participation status set", "status", participation.Status)

	dto := participationDTO{
		ScheduleID: participation.ScheduleID,
		UserID:     participation.UserID,
		Status:     string(participation.Status),
	}
	if targetID != 0 {
		dto.UserName = participation.UserName
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "participation status set", dto)
}

// Withdraw handles DELETE /api/schedules/{id}/participate and its
// administrator variant DELETE /api/schedules/{id}/participate/{userId}.
func (h *ParticipationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	principal, scheduleID, targetID, ok := h.request(w, r)
	if !ok {
		return
	}

	participation, err := h.service.Withdraw(r.Context(), principal, scheduleID, targetID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dto := participationDTO{ScheduleID: participation.ScheduleID, UserID: participation.UserID}
	if targetID != 0 {
		dto.UserName = participation.UserName
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "participation removed", dto)
}

// Mine handles GET /api/schedules/my-participations.
func (h *ParticipationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.responder.handleServiceError(r.Context(), w, application.NewError(application.KindInvalidToken, "access token is required", nil))
		return
	}

	rows, err := h.service.MyParticipations(r.Context(), user.Principal())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]myParticipationDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, myParticipationDTO{scheduleDTO: toScheduleDTO(row.Schedule), Status: string(row.Status)})
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "", out)
}

type statusRequest struct {
	Status string `json:"status"`
}

type participationDTO struct {
	ScheduleID int64  `json:"scheduleId"`
	UserID     int64  `json:"userId"`
	UserName   string `json:"userName,omitempty"`
	Status     string `json:"status,omitempty"`
}

type myParticipationDTO struct {
	scheduleDTO
	Status string `json:"status"`
}
