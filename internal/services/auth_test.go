package services

import (
	"context"
	"errors"
	"testing"

	"github.com/teamtrack/apiserver/internal/logger"
	"github.com/teamtrack/apiserver/types"
)

func newAuthService(users *fakeUserRepo, activateOnSignup bool) *AuthService {
	return NewAuthService(users, activateOnSignup, nil, logger.Nop())
}

func registerUser(t *testing.T, svc *AuthService, role, username, email, password string) types.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterParams{
		Role:     role,
		Username: username,
		Email:    email,
		Password: password,
		Name:     "Test",
		Surname:  "User",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func TestRegisterStartsInactive(t *testing.T) {
	svc := newAuthService(newFakeUserRepo(), false)

	user := registerUser(t, svc, types.RoleMember, "alice", "alice@example.com", "secret123")

	if user.Status != types.StatusInactive {
		t.Fatalf("expected status %s, got %s", types.StatusInactive, user.Status)
	}
	if user.PasswordHash == "secret123" {
		t.Fatal("password stored in plaintext")
	}
}

func TestRegisterActivateOnSignup(t *testing.T) {
	svc := newAuthService(newFakeUserRepo(), true)

	user := registerUser(t, svc, types.RoleMember, "alice", "alice@example.com", "secret123")

	if user.Status != types.StatusActive {
		t.Fatalf("expected status %s, got %s", types.StatusActive, user.Status)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(newFakeUserRepo(), false)
	registerUser(t, svc, types.RoleMember, "alice", "alice@example.com", "secret123")

	_, err := svc.Register(context.Background(), RegisterParams{
		Role:     types.RoleMember,
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestRegisterInvalidRole(t *testing.T) {
	svc := newAuthService(newFakeUserRepo(), false)

	_, err := svc.Register(context.Background(), RegisterParams{
		Role:     "SUPERUSER",
		Username: "eve",
		Email:    "eve@example.com",
		Password: "secret123",
	})
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users, false)
	admin := types.Session{UserID: 99, Role: types.RoleAdmin}

	registerUser(t, svc, types.RoleMember, "alice", "alice@example.com", "secret123")
	registerUser(t, svc, types.RoleTeamLeader, "bob", "bob@example.com", "hunter22")

	if err := svc.Activate(context.Background(), admin, "alice"); err != nil {
		t.Fatalf("activate alice: %v", err)
	}

	tests := []struct {
		name     string
		role     string
		email    string
		password string
		wantErr  error
	}{
		{"active account logs in", types.RoleMember, "alice@example.com", "secret123", nil},
		{"wrong password", types.RoleMember, "alice@example.com", "wrong", ErrInvalidCredential},
		{"wrong role path", types.RoleTeamLeader, "alice@example.com", "secret123", ErrNotFound},
		{"unknown email", types.RoleMember, "nobody@example.com", "secret123", ErrNotFound},
		{"inactive account", types.RoleTeamLeader, "bob@example.com", "hunter22", ErrNotActivated},
		{"invalid role", "SUPERUSER", "alice@example.com", "secret123", ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.Login(context.Background(), tt.role, tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("login failed: %v", err)
			}
			if session.Email != tt.email || session.Role != tt.role {
				t.Fatalf("unexpected session: %+v", session)
			}
			if session.UserID == 0 {
				t.Fatal("session has no user id")
			}
		})
	}
}

func TestDeactivateBlocksLogin(t *testing.T) {
	svc := newAuthService(newFakeUserRepo(), true)
	admin := types.Session{UserID: 99, Role: types.RoleAdmin}

	registerUser(t, svc, types.RoleMember, "alice", "alice@example.com", "secret123")

	if _, err := svc.Login(context.Background(), types.RoleMember, "alice@example.com", "secret123"); err != nil {
		t.Fatalf("login before deactivation: %v", err)
	}

	if err := svc.Deactivate(context.Background(), admin, "alice"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := svc.Login(context.Background(), types.RoleMember, "alice@example.com", "secret123")
	if !errors.Is(err, ErrNotActivated) {
		t.Fatalf("expected ErrNotActivated, got %v", err)
	}
}

func TestActivateUnknownUser(t *testing.T) {
	svc := newAuthService(newFakeUserRepo(), false)
	admin := types.Session{UserID: 99, Role: types.RoleAdmin}

	err := svc.Activate(context.Background(), admin, "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChangeRole(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users, true)
	admin := types.Session{UserID: 99, Role: types.RoleAdmin}

	registerUser(t, svc, types.RoleMember, "alice", "alice@example.com", "secret123")

	if err := svc.ChangeRole(context.Background(), admin, "alice", "MANAGER"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	if err := svc.ChangeRole(context.Background(), admin, "alice", types.RoleTeamLeader); err != nil {
		t.Fatalf("change role: %v", err)
	}

	user, err := users.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("reload alice: %v", err)
	}
	if user.Role != types.RoleTeamLeader {
		t.Fatalf("expected role %s, got %s", types.RoleTeamLeader, user.Role)
	}

	// The new role takes effect on the next login.
	session, err := svc.Login(context.Background(), types.RoleTeamLeader, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("login under new role: %v", err)
	}
	if session.Role != types.RoleTeamLeader {
		t.Fatalf("unexpected session role %s", session.Role)
	}
}
