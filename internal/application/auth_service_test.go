package application

import (
	"context"
	"errors"
	"testing"
)

func newTestAuthService(store *memoryStore, tokens *tokenStub, autoApprove bool) *AuthService {
	return NewAuthServiceWithLogger(store, tokens, autoApprove, discardLogger())
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	t.Run("first member becomes approved admin with token", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		tokens := &tokenStub{}
		svc := newTestAuthService(store, tokens, false)

		result, err := svc.Register(context.Background(), Credentials{Name: "Kim", Phone: "010-1111-2222"})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if !result.User.IsApproved || !result.User.IsAdmin {
			t.Fatalf("expected bootstrap admin, got %+v", result.User)
		}
		if result.User.Phone != "01011112222" {
			t.Fatalf("expected normalized phone, got %q", result.User.Phone)
		}
		if result.Token == "" {
			t.Fatalf("expected token for approved member")
		}
	})

	t.Run("later member waits for approval without token", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		tokens := &tokenStub{}
		svc := newTestAuthService(store, tokens, false)
		seedUser(store, "Kim", "01011112222", true)

		result, err := svc.Register(context.Background(), Credentials{Name: "Lee", Phone: "01033334444"})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if result.User.IsApproved || result.User.IsAdmin {
			t.Fatalf("expected pending member, got %+v", result.User)
		}
		if result.Token != "" {
			t.Fatalf("expected no token, got %q", result.Token)
		}
		if len(tokens.issued) != 0 {
			t.Fatalf("expected no token issuance, got %v", tokens.issued)
		}
	})

	t.Run("auto approve issues token", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		svc := newTestAuthService(store, &tokenStub{}, true)
		seedUser(store, "Kim", "01011112222", true)

		result, err := svc.Register(context.Background(), Credentials{Name: "Lee", Phone: "01033334444"})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if !result.User.IsApproved || result.User.IsAdmin || result.Token == "" {
			t.Fatalf("expected approved non-admin with token, got %+v", result)
		}
	})

	t.Run("duplicate phone regardless of hyphens", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		svc := newTestAuthService(store, &tokenStub{}, false)
		if _, err := svc.Register(context.Background(), Credentials{Name: "Kim", Phone: "010-1111-2222"}); err != nil {
			t.Fatalf("first Register failed: %v", err)
		}

		_, err := svc.Register(context.Background(), Credentials{Name: "Park", Phone: "01011112222"})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		if got := MessageOf(err); got != "phone number is already registered" {
			t.Fatalf("unexpected message %q", got)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(newMemoryStore(), &tokenStub{}, false)
		if _, err := svc.Register(context.Background(), Credentials{Name: "K", Phone: "010-1111-2222"}); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("nil service", func(t *testing.T) {
		t.Parallel()

		var svc *AuthService
		if _, err := svc.Register(context.Background(), Credentials{}); err == nil {
			t.Fatalf("expected error from nil service")
		}
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	tokens := &tokenStub{}
	svc := newTestAuthService(store, tokens, false)
	kim := seedUser(store, "Kim", "01011112222", true)
	seedUser(store, "Lee", "01033334444", false)

	t.Run("approved member receives token", func(t *testing.T) {
		result, err := svc.Login(context.Background(), Credentials{Name: "Kim", Phone: "010-1111-2222"})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if result.User.ID != kim.ID || result.Token != "token-1" {
			t.Fatalf("unexpected result %+v", result)
		}
	})

	t.Run("pending member is refused without token", func(t *testing.T) {
		result, err := svc.Login(context.Background(), Credentials{Name: "Lee", Phone: "01033334444"})
		if !errors.Is(err, ErrPendingApproval) {
			t.Fatalf("expected ErrPendingApproval, got %v", err)
		}
		if result.Token != "" {
			t.Fatalf("expected no token")
		}
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := svc.Login(context.Background(), Credentials{Name: "Kim", Phone: "01099998888"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	svc := newTestAuthService(store, &tokenStub{}, false)
	kim := seedUser(store, "Kim", "01011112222", true)
	lee := seedUser(store, "Lee", "01033334444", false)

	user, err := svc.Authenticate(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user.ID != kim.ID || !user.IsAdmin {
		t.Fatalf("expected Kim, got %+v", user)
	}

	if _, err := svc.Authenticate(context.Background(), "token-2"); !errors.Is(err, ErrPendingApproval) {
		t.Fatalf("expected ErrPendingApproval for %s, got %v", lee.Name, err)
	}
	if _, err := svc.Authenticate(context.Background(), "token-99"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for missing member, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for malformed token, got %v", err)
	}

	expired := newTestAuthService(store, &tokenStub{verifyErr: NewError(KindTokenExpired, "", nil)}, false)
	if _, err := expired.Authenticate(context.Background(), "token-1"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}
