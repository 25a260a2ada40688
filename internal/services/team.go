package services

import (
	"context"
	"errors"
	"strings"

	"github.com/teamtrack/apiserver/internal/events"
	"github.com/teamtrack/apiserver/internal/logger"
	"github.com/teamtrack/apiserver/internal/store"
	"github.com/teamtrack/apiserver/types"
)

// TeamRepository defines persistence operations for teams and membership.
type TeamRepository interface {
	Create(ctx context.Context, team types.Team) (types.Team, error)
	Get(ctx context.Context, id int) (types.Team, error)
	GetDetail(ctx context.Context, id int) (types.TeamDetail, error)
	Members(ctx context.Context, teamID int) ([]types.TeamMember, error)
	AddMember(ctx context.Context, teamID, userID int) error
	RemoveMember(ctx context.Context, teamID, userID int) error
	Delete(ctx context.Context, teamID int) error
	ListForUser(ctx context.Context, userID int) ([]types.TeamSummary, error)
	ListAll(ctx context.Context) ([]types.TeamOverview, error)
}

// TeamService owns team creation, membership, and visibility.
type TeamService struct {
	teams     TeamRepository
	users     UserRepository
	publisher events.Publisher
	log       *logger.Logger
}

func NewTeamService(teams TeamRepository, users UserRepository, publisher events.Publisher, log *logger.Logger) *TeamService {
	return &TeamService{
		teams:     teams,
		users:     users,
		publisher: publisher,
		log:       log,
	}
}

// Create inserts a team led by the named user. The leader username must
// resolve to an account with the TEAM_LEADER role.
func (s *TeamService) Create(ctx context.Context, actor types.Session, name, description, leaderUsername string) (types.Team, error) {
	leader, err := s.users.GetByUsernameAndRole(ctx, strings.TrimSpace(leaderUsername), types.RoleTeamLeader)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Team{}, ErrLeaderNotFound
		}
		return types.Team{}, err
	}

	team, err := s.teams.Create(ctx, types.Team{
		Name:        strings.TrimSpace(name),
		Description: description,
		LeaderID:    leader.ID,
	})
	if err != nil {
		return types.Team{}, err
	}

	publishAsync(s.publisher, s.log, events.New(events.TypeTeamCreated, actor.UserID, map[string]any{
		"team_id": team.ID,
		"name":    team.Name,
		"leader":  leader.Username,
	}))
	return team, nil
}

// AddMember resolves an email and inserts a membership row. Adding an
// existing member is a no-op.
func (s *TeamService) AddMember(ctx context.Context, actor types.Session, teamID int, memberEmail string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(memberEmail))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.teams.AddMember(ctx, teamID, user.ID); err != nil {
		return err
	}

	publishAsync(s.publisher, s.log, events.New(events.TypeMemberAdded, actor.UserID, map[string]any{
		"team_id": teamID,
		"user_id": user.ID,
	}))
	return nil
}

// RemoveMember resolves an email and deletes the membership row if one
// exists.
func (s *TeamService) RemoveMember(ctx context.Context, actor types.Session, teamID int, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.teams.RemoveMember(ctx, teamID, user.ID); err != nil {
		return err
	}

	publishAsync(s.publisher, s.log, events.New(events.TypeMemberRemoved, actor.UserID, map[string]any{
		"team_id": teamID,
		"user_id": user.ID,
	}))
	return nil
}

// Delete removes a team and all of its membership rows atomically.
func (s *TeamService) Delete(ctx context.Context, actor types.Session, teamID int) error {
	if err := s.teams.Delete(ctx, teamID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	publishAsync(s.publisher, s.log, events.New(events.TypeTeamDeleted, actor.UserID, map[string]any{"team_id": teamID}))
	return nil
}

// Get loads a team with its leader and roster.
func (s *TeamService) Get(ctx context.Context, teamID int) (types.TeamDetail, error) {
	detail, err := s.teams.GetDetail(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.TeamDetail{}, ErrNotFound
		}
		return types.TeamDetail{}, err
	}
	return detail, nil
}

// ListFor returns the teams a user leads or belongs to.
func (s *TeamService) ListFor(ctx context.Context, userID int) ([]types.TeamSummary, error) {
	return s.teams.ListForUser(ctx, userID)
}

// ListAll returns every team with aggregated member names. Admin view.
func (s *TeamService) ListAll(ctx context.Context) ([]types.TeamOverview, error) {
	return s.teams.ListAll(ctx)
}
