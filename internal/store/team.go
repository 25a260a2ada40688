package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/teamtrack/apiserver/types"
)

// TeamRepository handles persistence for teams and team membership.
type TeamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(ctx context.Context, team types.Team) (types.Team, error) {
	team.CreatedAt = time.Now()

	const query = `
		INSERT INTO teams (name, description, leader_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING team_id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		team.Name,
		team.Description,
		team.LeaderID,
		team.CreatedAt,
	).Scan(&team.ID)
	if err != nil {
		return types.Team{}, err
	}
	return team, nil
}

func (r *TeamRepository) Get(ctx context.Context, id int) (types.Team, error) {
	const query = `
		SELECT team_id, name, description, leader_id, created_at
		FROM teams
		WHERE team_id = $1`
	var team types.Team
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.LeaderID,
		&team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Team{}, ErrNotFound
		}
		return types.Team{}, err
	}
	return team, nil
}

// GetDetail loads a team with its leader's username and full member
// roster.
func (r *TeamRepository) GetDetail(ctx context.Context, id int) (types.TeamDetail, error) {
	const teamQuery = `
		SELECT t.team_id, t.name, t.description, t.leader_id, t.created_at, u.username
		FROM teams t
		LEFT JOIN users u ON t.leader_id = u.user_id
		WHERE t.team_id = $1`
	var detail types.TeamDetail
	err := r.db.QueryRowContext(ctx, teamQuery, id).Scan(
		&detail.Team.ID,
		&detail.Team.Name,
		&detail.Team.Description,
		&detail.Team.LeaderID,
		&detail.Team.CreatedAt,
		&detail.Leader,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.TeamDetail{}, ErrNotFound
		}
		return types.TeamDetail{}, err
	}

	members, err := r.Members(ctx, id)
	if err != nil {
		return types.TeamDetail{}, err
	}
	detail.Members = members
	return detail, nil
}

// Members returns the roster for a team, leadership excluded unless the
// leader also holds a membership row.
func (r *TeamRepository) Members(ctx context.Context, teamID int) ([]types.TeamMember, error) {
	const query = `
		SELECT u.user_id, u.username, u.email, u.role, u.status
		FROM team_members tm
		JOIN users u ON tm.user_id = u.user_id
		WHERE tm.team_id = $1
		ORDER BY u.username`
	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []types.TeamMember
	for rows.Next() {
		var m types.TeamMember
		if err := rows.Scan(&m.UserID, &m.Username, &m.Email, &m.Role, &m.Status); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember inserts a membership row. Duplicate pairs are ignored, so the
// operation is idempotent.
func (r *TeamRepository) AddMember(ctx context.Context, teamID, userID int) error {
	const query = `
		INSERT INTO team_members (team_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, teamID, userID)
	return err
}

// RemoveMember deletes a membership row. Removing an absent member is a
// no-op.
func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID int) error {
	const query = `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, teamID, userID)
	return err
}

// Delete removes a team's membership rows and the team row in one
// transaction, so neither can outlive the other.
func (r *TeamRepository) Delete(ctx context.Context, teamID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM teams WHERE team_id = $1`, teamID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit team delete: %w", err)
	}
	return nil
}

// ListForUser returns the teams visible to a user: the union of teams they
// lead and teams they hold a membership row in.
func (r *TeamRepository) ListForUser(ctx context.Context, userID int) ([]types.TeamSummary, error) {
	const query = `
		SELECT
			t.team_id,
			t.name,
			t.description,
			COALESCE(u.username, ''),
			COUNT(tm.user_id),
			t.leader_id = $1
		FROM teams t
		LEFT JOIN users u ON t.leader_id = u.user_id
		LEFT JOIN team_members tm ON t.team_id = tm.team_id
		WHERE t.team_id IN (
			SELECT team_id FROM team_members WHERE user_id = $1
			UNION
			SELECT team_id FROM teams WHERE leader_id = $1
		)
		GROUP BY t.team_id, t.name, t.description, t.leader_id, u.username
		ORDER BY t.name`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []types.TeamSummary
	for rows.Next() {
		var s types.TeamSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.LeaderName, &s.MemberCount, &s.IsLeader); err != nil {
			return nil, err
		}
		teams = append(teams, s)
	}
	return teams, rows.Err()
}

// ListAll returns every team with an aggregated member-name list, newest
// first. Admin view.
func (r *TeamRepository) ListAll(ctx context.Context) ([]types.TeamOverview, error) {
	const query = `
		SELECT
			t.team_id,
			t.name,
			t.description,
			COALESCE(u.username, ''),
			COALESCE(STRING_AGG(m.username, ', '), '')
		FROM teams t
		LEFT JOIN users u ON t.leader_id = u.user_id
		LEFT JOIN team_members tm ON t.team_id = tm.team_id
		LEFT JOIN users m ON tm.user_id = m.user_id
		GROUP BY t.team_id, t.name, t.description, u.username, t.created_at
		ORDER BY t.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []types.TeamOverview
	for rows.Next() {
		var o types.TeamOverview
		if err := rows.Scan(&o.ID, &o.Name, &o.Description, &o.LeaderName, &o.Members); err != nil {
			return nil, err
		}
		teams = append(teams, o)
	}
	return teams, rows.Err()
}
