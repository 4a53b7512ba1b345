package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// UserRepository captures the persistence interactions for member accounts.
// CreateUser grants approval and the admin role when the store is empty.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByCredentials(ctx context.Context, name, phone string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListPendingUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id int64, patch UserPatch) (User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// AuthService coordinates registration, login and token validation.
type AuthService struct {
	users       UserRepository
	tokens      TokenManager
	autoApprove bool
	logger      *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users UserRepository, tokens TokenManager, autoApprove bool) *AuthService {
	return NewAuthServiceWithLogger(users, tokens, autoApprove, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(users UserRepository, tokens TokenManager, autoApprove bool, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		autoApprove: autoApprove,
		logger:      defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	if s.tokens == nil {
		return fmt.Errorf("token manager not configured")
	}
	return nil
}

// Register creates a member. A token is issued only when the new account is
// already approved, which is the case for the first member and when
// auto-approval is enabled.
func (s *AuthService) Register(ctx context.Context, creds Credentials) (result AuthResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Register")
	defer func() {
		logOutcome(ctx, logger, err, "registration failed", "member registered",
			"user_id", result.User.ID,
			"is_approved", result.User.IsApproved,
			"is_admin", result.User.IsAdmin,
		)
	}()

	creds, err = normalizeCredentials(creds)
	if err != nil {
		return
	}

	var created User
	created, err = s.users.CreateUser(ctx, User{
		Name:       creds.Name,
		Phone:      creds.Phone,
		IsApproved: s.autoApprove,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			err = NewError(KindConflict, "phone number is already registered", err)
		}
		return
	}

	result.User = created
	if !created.IsApproved {
		return
	}
	result.Token, result.ExpiresAt, err = s.tokens.Issue(created.ID)
	return
}

// Login resolves a member by name and phone and issues a token.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (result AuthResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Login")
	defer func() {
		logOutcome(ctx, logger, err, "login failed", "login succeeded", "user_id", result.User.ID)
	}()

	creds, err = normalizeCredentials(creds)
	if err != nil {
		return
	}

	var user User
	user, err = s.users.GetUserByCredentials(ctx, creds.Name, creds.Phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = NewError(KindNotFound, "no member matches that name and phone number", err)
		}
		return
	}
	if !user.IsApproved {
		err = NewError(KindPendingApproval, "account is pending administrator approval", nil)
		return
	}

	result.User = user
	result.Token, result.ExpiresAt, err = s.tokens.Issue(user.ID)
	return
}

// Authenticate resolves a bearer token to the current state of its member.
// Approval is re-checked on every call.
func (s *AuthService) Authenticate(ctx context.Context, token string) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}

	var userID int64
	userID, err = s.tokens.Verify(token)
	if err != nil {
		return
	}

	user, err = s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = NewError(KindInvalidToken, "member for this token no longer exists", err)
		}
		return
	}
	if !user.IsApproved {
		err = NewError(KindPendingApproval, "account is pending administrator approval", nil)
		return
	}
	return
}

