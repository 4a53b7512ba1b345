package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// UserService implements the administrator views and edits of member accounts.
type UserService struct {
	users  UserRepository
	logger *slog.Logger
}

// NewUserService constructs a UserService.
func NewUserService(users UserRepository) *UserService {
	return NewUserServiceWithLogger(users, nil)
}

// NewUserServiceWithLogger constructs a UserService with a specified logger.
func NewUserServiceWithLogger(users UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

func (s *UserService) authorize(principal Principal) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	if !principal.IsAdmin {
		return forbidden("administrator privileges are required")
	}
	return nil
}

// ListUsers returns every member, newest first.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if err := s.authorize(principal); err != nil {
		return nil, err
	}
	return s.users.ListUsers(ctx)
}

// ListPendingUsers returns members awaiting approval, oldest first.
func (s *UserService) ListPendingUsers(ctx context.Context, principal Principal) ([]User, error) {
	if err := s.authorize(principal); err != nil {
		return nil, err
	}
	return s.users.ListPendingUsers(ctx)
}

// ApproveUser grants approval to a pending member.
func (s *UserService) ApproveUser(ctx context.Context, principal Principal, userID int64) (user User, err error) {
	if err = s.authorize(principal); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ApproveUser", "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, err, "user approval failed", "user approved")
	}()

	var target User
	if target, err = s.getUser(ctx, userID); err != nil {
		return
	}
	if target.IsApproved {
		err = validationError("user is already approved")
		return
	}

	approved := true
	user, err = s.users.UpdateUser(ctx, userID, UserPatch{IsApproved: &approved})
	return
}

// RevokeUser withdraws approval from a member. Administrators and the caller
// cannot be revoked.
func (s *UserService) RevokeUser(ctx context.Context, principal Principal, userID int64) (user User, err error) {
	if err = s.authorize(principal); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "RevokeUser", "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, err, "user revocation failed", "user approval revoked")
	}()

	if userID == principal.UserID {
		err = validationError("you cannot revoke your own approval")
		return
	}

	var target User
	if target, err = s.getUser(ctx, userID); err != nil {
		return
	}
	if target.IsAdmin {
		err = validationError("an administrator's approval cannot be revoked")
		return
	}

	approved := false
	user, err = s.users.UpdateUser(ctx, userID, UserPatch{IsApproved: &approved})
	return
}

// UpdateUser applies an administrator patch. Only supplied fields change.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	principal := params.Principal
	if err = s.authorize(principal); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser", "principal_id", principal.UserID, "user_id", params.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "user update failed", "user updated")
	}()

	patch := params.Patch
	if params.UserID == principal.UserID {
		if patch.IsAdmin != nil {
			err = validationError("you cannot change your own administrator role")
			return
		}
		if patch.IsApproved != nil && !*patch.IsApproved {
			err = validationError("you cannot revoke your own approval")
			return
		}
	}

	if patch, err = normalizePatch(patch); err != nil {
		return
	}
	if patch.IsEmpty() {
		err = validationError("no fields to update")
		return
	}

	target, err := s.getUser(ctx, params.UserID)
	if err != nil {
		return
	}
	if patch.IsApproved != nil && !*patch.IsApproved && target.IsAdmin && (patch.IsAdmin == nil || *patch.IsAdmin) {
		err = validationError("an administrator's approval cannot be revoked")
		return
	}

	user, err = s.users.UpdateUser(ctx, params.UserID, patch)
	if errors.Is(err, ErrConflict) {
		err = NewError(KindConflict, "phone number is already in use", err)
	}
	return
}

// DeleteUser removes a member together with their schedules and answers.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID int64) (user User, err error) {
	if err = s.authorize(principal); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DeleteUser", "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, err, "user deletion failed", "user deleted")
	}()

	if userID == principal.UserID {
		err = validationError("you cannot delete your own account")
		return
	}
	if user, err = s.getUser(ctx, userID); err != nil {
		return
	}
	if err = s.users.DeleteUser(ctx, userID); errors.Is(err, ErrNotFound) {
		err = notFound("user not found")
	}
	return
}

func (s *UserService) getUser(ctx context.Context, id int64) (User, error) {
	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return User{}, notFound("user not found")
	}
	return user, err
}

func normalizePatch(patch UserPatch) (UserPatch, error) {
	errs := fieldErrors{}
	if patch.Name != nil {
		name, ok := normalizeName(*patch.Name)
		if !ok {
			errs.add("name", "name must be between 2 and 50 characters")
		}
		patch.Name = &name
	}
	if patch.Phone != nil {
		phone, ok := NormalizePhone(*patch.Phone)
		if !ok {
			errs.add("phone", "phone must look like 010-1234-5678")
		}
		patch.Phone = &phone
	}
	if err := errs.err(); err != nil {
		return UserPatch{}, err
	}
	return patch, nil
}
