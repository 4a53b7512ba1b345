package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/meetup-scheduler/internal/application"
)

type userService interface {
	ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error)
	ListPendingUsers(ctx context.Context, principal application.Principal) ([]application.User, error)
	ApproveUser(ctx context.Context, principal application.Principal, userID int64) (application.User, error)
	RevokeUser(ctx context.Context, principal application.Principal, userID int64) (application.User, error)
	UpdateUser(ctx context.Context, params application.UpdateUserParams) (application.User, error)
	DeleteUser(ctx context.Context, principal application.Principal, userID int64) (application.User, error)
}

type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

// principal returns the acting member or writes a 401 envelope.
func (h *UserHandler) principal(w http.ResponseWriter, r *http.Request) (application.Principal, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.responder.handleServiceError(r.Context(), w, application.NewError(application.KindInvalidToken, "access token is required", nil))
		return application.Principal{}, false
	}
	return user.Principal(), true
}

func (h *UserHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	users, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "", toUserDTOs(users))
}

// ListPending handles GET /api/users/pending.
func (h *UserHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	users, err := h.service.ListPendingUsers(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "", toUserDTOs(users))
}

// Approve handles PATCH /api/users/{id}/approve.
func (h *UserHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.changeApproval(w, r, "Approve")
}

// Revoke handles PATCH /api/users/{id}/revoke.
func (h *UserHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	h.changeApproval(w, r, "Revoke")
}

func (h *UserHandler) changeApproval(w http.ResponseWriter, r *http.Request, operation string) {
	if !h.ready(w) {
		return
	}
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	userID, err := pathID(r, "id", "user")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var (
		user    application.User
		message string
	)
	if operation == "Approve" {
		user, err = h.service.ApproveUser(r.Context(), principal, userID)
		message = user.Name + " has been approved"
	} else {
		user, err = h.service.RevokeUser(r.Context(), principal, userID)
		message = user.Name + "'s approval has been revoked"
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), operation, "user_id", userID).InfoContext(r.Context(), "approval changed", "is_approved", user.IsApproved)
	h.responder.writeData(r.Context(), w, http.StatusOK, message, toUserDTO(user))
}

// Update handles PUT /api/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	userID, err := pathID(r, "id", "user")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var req userPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), application.UpdateUserParams{
		Principal: principal,
		UserID:    userID,
		Patch: application.UserPatch{
			Name:       req.Name,
			Phone:      req.Phone,
			IsApproved: req.IsApproved,
			IsAdmin:    req.IsAdmin,
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "user updated", toUserDTO(user))
}

// Delete handles DELETE /api/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	userID, err := pathID(r, "id", "user")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	user, err := h.service.DeleteUser(r.Context(), principal, userID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, user.Name+" has been deleted", nil)
}

type userPatchRequest struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	IsApproved *bool   `json:"isApproved"`
	IsAdmin    *bool   `json:"isAdmin"`
}

type userDTO struct {
	UserID     int64  `json:"userId"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	IsApproved bool   `json:"isApproved"`
	IsAdmin    bool   `json:"isAdmin"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		UserID:     user.ID,
		Name:       user.Name,
		Phone:      user.Phone,
		IsApproved: user.IsApproved,
		IsAdmin:    user.IsAdmin,
		CreatedAt:  formatTime(user.CreatedAt),
		UpdatedAt:  formatTime(user.UpdatedAt),
	}
}

func toUserDTOs(users []application.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for _, user := range users {
		out = append(out, toUserDTO(user))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
