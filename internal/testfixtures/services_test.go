package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/meetup-scheduler/internal/application"
)

func TestServiceFactoryBuild(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	factory := NewServiceFactory(WithTokenTTL(time.Hour))
	services := factory.Build(t)

	admin := NewUserFixture(WithUserName("Kim Admin"))
	registered, err := services.Auth.Register(ctx, admin.Credentials())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if !registered.User.IsAdmin || registered.Token == "" {
		t.Fatalf("first member should be an admin with a token, got %#v", registered)
	}

	member := NewUserFixture()
	pending, err := services.Auth.Register(ctx, member.Credentials())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if pending.User.IsApproved || pending.Token != "" {
		t.Fatalf("second member should wait for approval, got %#v", pending)
	}

	factory.Clock.Advance(2 * time.Hour)
	if _, err := services.Auth.Authenticate(ctx, registered.Token); !errors.Is(err, application.ErrTokenExpired) {
		t.Fatalf("expected expired token after advancing the clock, got %v", err)
	}
}

func TestServiceFactoryAutoApprove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	services := NewServiceFactory(WithAutoApprove()).Build(t)
	services.Harness.CreateUser(t, NewUserFixture(WithUserAdmin()))

	result, err := services.Auth.Register(ctx, NewUserFixture().Credentials())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if !result.User.IsApproved || result.User.IsAdmin || result.Token == "" {
		t.Fatalf("auto approved member should get a token without admin, got %#v", result)
	}
}
