package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/meetup-scheduler/internal/application"
)

type authService interface {
	Register(ctx context.Context, creds application.Credentials) (application.AuthResult, error)
	Login(ctx context.Context, creds application.Credentials) (application.AuthResult, error)
}

type AuthHandler struct {
	service   authService
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service authService, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	result, err := h.service.Register(r.Context(), req.credentials())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	message := "registration complete, please wait for administrator approval"
	if result.User.IsApproved {
		message = "registration complete"
	}
	h.log(r.Context(), "Register", "user_id", result.User.ID).InfoContext(r.Context(), "member registered")
	h.responder.writeData(r.Context(), w, http.StatusCreated, message, toAuthDTO(result))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.credentials())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Login", "user_id", result.User.ID).InfoContext(r.Context(), "member logged in")
	h.responder.writeData(r.Context(), w, http.StatusOK, "login succeeded", toAuthDTO(result))
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	user, ok := UserFromContext(r.Context())
	if !ok {
		h.responder.handleServiceError(r.Context(), w, application.NewError(application.KindInvalidToken, "access token is required", nil))
		return
	}
	h.responder.writeData(r.Context(), w, http.StatusOK, "", toUserDTO(user))
}

type credentialsRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (c credentialsRequest) credentials() application.Credentials {
	return application.Credentials{Name: c.Name, Phone: c.Phone}
}

type authDTO struct {
	UserID     int64   `json:"userId"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	IsApproved bool    `json:"isApproved"`
	IsAdmin    bool    `json:"isAdmin"`
	Token      *string `json:"token"`
	ExpiresAt  *string `json:"expiresAt,omitempty"`
}

func toAuthDTO(result application.AuthResult) authDTO {
	dto := authDTO{
		UserID:     result.User.ID,
		Name:       result.User.Name,
		Phone:      result.User.Phone,
		IsApproved: result.User.IsApproved,
		IsAdmin:    result.User.IsAdmin,
	}
	if result.Token != "" {
		token := result.Token
		expires := formatTime(result.ExpiresAt)
		dto.Token = &token
		dto.ExpiresAt = &expires
	}
	return dto
}
