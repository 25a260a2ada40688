package services

import (
	"context"
	"errors"
	"strings"

	"github.com/teamtrack/apiserver/internal/events"
	"github.com/teamtrack/apiserver/internal/logger"
	"github.com/teamtrack/apiserver/internal/store"
	"github.com/teamtrack/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByEmailAndRole(ctx context.Context, email, role string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByUsernameAndRole(ctx context.Context, username, role string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateStatus(ctx context.Context, username, status string) error
	UpdateRole(ctx context.Context, username, role string) error
	List(ctx context.Context) ([]types.User, error)
}

// RegisterParams carries a signup request.
type RegisterParams struct {
	Role     string
	Username string
	Email    string
	Password string
	Name     string
	Surname  string
}

// AuthService owns account registration, credential verification, and the
// admin-facing account controls.
type AuthService struct {
	users            UserRepository
	activateOnSignup bool
	publisher        events.Publisher
	log              *logger.Logger
}

func NewAuthService(users UserRepository, activateOnSignup bool, publisher events.Publisher, log *logger.Logger) *AuthService {
	return &AuthService{
		users:            users,
		activateOnSignup: activateOnSignup,
		publisher:        publisher,
		log:              log,
	}
}

// Register creates an account for the given role. New accounts start
// INACTIVE and await admin activation unless the deployment opts into
// activate-on-signup.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (types.User, error) {
	if !types.ValidRole(params.Role) {
		return types.User{}, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	status := types.StatusInactive
	if s.activateOnSignup {
		status = types.StatusActive
	}

	user, err := s.users.Create(ctx, types.User{
		Username:     strings.TrimSpace(params.Username),
		Email:        strings.TrimSpace(params.Email),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(params.Name),
		Surname:      strings.TrimSpace(params.Surname),
		Role:         params.Role,
		Status:       status,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, err
	}
	return user, nil
}

// Login verifies a role-scoped credential. It fails with ErrNotFound when
// no account carries the email under that role, ErrInvalidCredential on a
// password mismatch, and ErrNotActivated for INACTIVE accounts.
func (s *AuthService) Login(ctx context.Context, role, email, password string) (types.Session, error) {
	if !types.ValidRole(role) {
		return types.Session{}, ErrInvalidRole
	}

	user, err := s.users.GetByEmailAndRole(ctx, strings.TrimSpace(email), role)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Session{}, ErrNotFound
		}
		return types.Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.Session{}, ErrInvalidCredential
	}

	if user.Status != types.StatusActive {
		return types.Session{}, ErrNotActivated
	}

	return types.Session{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// Activate marks an account ACTIVE and stamps its updated_at.
func (s *AuthService) Activate(ctx context.Context, actor types.Session, username string) error {
	if err := s.setStatus(ctx, username, types.StatusActive); err != nil {
		return err
	}
	publishAsync(s.publisher, s.log, events.New(events.TypeUserActivated, actor.UserID, map[string]any{"username": username}))
	return nil
}

// Deactivate marks an account INACTIVE.
func (s *AuthService) Deactivate(ctx context.Context, actor types.Session, username string) error {
	if err := s.setStatus(ctx, username, types.StatusInactive); err != nil {
		return err
	}
	publishAsync(s.publisher, s.log, events.New(events.TypeUserDeactivated, actor.UserID, map[string]any{"username": username}))
	return nil
}

// ChangeRole reassigns an account's role. Sessions issued under the old
// role stay valid until they expire; that is a documented limitation, not
// an oversight to patch here.
func (s *AuthService) ChangeRole(ctx context.Context, actor types.Session, username, newRole string) error {
	if !types.ValidRole(newRole) {
		return ErrInvalidRole
	}
	if err := s.users.UpdateRole(ctx, username, newRole); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	publishAsync(s.publisher, s.log, events.New(events.TypeUserRoleChanged, actor.UserID, map[string]any{
		"username": username,
		"role":     newRole,
	}))
	return nil
}

// ListUsers returns every account for the admin management view.
func (s *AuthService) ListUsers(ctx context.Context) ([]types.User, error) {
	return s.users.List(ctx)
}

// GetUser loads a single account by id.
func (s *AuthService) GetUser(ctx context.Context, id int) (types.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (s *AuthService) setStatus(ctx context.Context, username, status string) error {
	if err := s.users.UpdateStatus(ctx, username, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
