package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/teamtrack/apiserver/types"
)

// TaskRepository handles persistence for tasks.
type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task types.Task) (types.Task, error) {
	task.CreatedAt = time.Now()

	const query = `
		INSERT INTO tasks (title, description, status, priority, due_date, created_by, assigned_to, team_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING task_id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.CreatedBy,
		task.AssignedTo,
		task.TeamID,
		task.CreatedAt,
	).Scan(&task.ID)
	if err != nil {
		return types.Task{}, err
	}
	return task, nil
}

// Get loads a task with creator and assignee usernames joined in.
func (r *TaskRepository) Get(ctx context.Context, id int) (types.TaskDetail, error) {
	const query = `
		SELECT
			t.task_id, t.title, t.description, t.status, t.priority, t.due_date,
			t.created_by, t.assigned_to, t.team_id, t.created_at,
			cu.username, au.username
		FROM tasks t
		JOIN users cu ON t.created_by = cu.user_id
		JOIN users au ON t.assigned_to = au.user_id
		WHERE t.task_id = $1`
	var d types.TaskDetail
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&d.Status,
		&d.Priority,
		&d.DueDate,
		&d.CreatedBy,
		&d.AssignedTo,
		&d.TeamID,
		&d.CreatedAt,
		&d.CreatedByName,
		&d.AssignedToName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.TaskDetail{}, ErrNotFound
		}
		return types.TaskDetail{}, err
	}
	return d, nil
}

// Update overwrites every mutable field of a task.
func (r *TaskRepository) Update(ctx context.Context, task types.Task) error {
	const query = `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, due_date = $4, priority = $5
		WHERE task_id = $6`
	return execExpectingRow(ctx, r.db, query, task.Title, task.Description, task.Status, task.DueDate, task.Priority, task.ID)
}

// UpdateStatus overwrites only the status field.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	const query = `UPDATE tasks SET status = $1 WHERE task_id = $2`
	return execExpectingRow(ctx, r.db, query, status, id)
}

// Delete removes a task together with its comments and attachments in one
// transaction, and returns the object-storage keys of the deleted
// attachments so callers can clean up the file store.
func (r *TaskRepository) Delete(ctx context.Context, id int) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT file_path FROM attachments WHERE task_id = $1`, id)
	if err != nil {
		return nil, err
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE task_id = $1`, id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE task_id = $1`, id); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE task_id = $1`, id)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit task delete: %w", err)
	}
	return keys, nil
}

// ListForTeam returns a team's tasks, newest first, with assignee names.
func (r *TaskRepository) ListForTeam(ctx context.Context, teamID int) ([]types.TaskDetail, error) {
	const query = `
		SELECT
			t.task_id, t.title, t.description, t.status, t.priority, t.due_date,
			t.created_by, t.assigned_to, t.team_id, t.created_at,
			cu.username, COALESCE(au.username, '')
		FROM tasks t
		JOIN users cu ON t.created_by = cu.user_id
		LEFT JOIN users au ON t.assigned_to = au.user_id
		WHERE t.team_id = $1
		ORDER BY t.created_at DESC`
	return r.queryDetails(ctx, query, teamID)
}

// ListForAssignee returns the tasks assigned to a user ordered by due
// date, with the owning team and its leader joined in.
func (r *TaskRepository) ListForAssignee(ctx context.Context, userID int) ([]types.TaskDetail, error) {
	const query = `
		SELECT
			t.task_id, t.title, t.description, t.status, t.priority, t.due_date,
			t.created_by, t.assigned_to, t.team_id, t.created_at,
			cu.username, au.username, COALESCE(tm.name, ''), COALESCE(lu.username, '')
		FROM tasks t
		JOIN users cu ON t.created_by = cu.user_id
		JOIN users au ON t.assigned_to = au.user_id
		LEFT JOIN teams tm ON t.team_id = tm.team_id
		LEFT JOIN users lu ON tm.leader_id = lu.user_id
		WHERE t.assigned_to = $1
		ORDER BY t.due_date ASC`
	return r.queryTeamDetails(ctx, query, userID)
}

// ListForLeader returns every task across the teams a user leads, grouped
// by team name and ordered by due date inside each team.
func (r *TaskRepository) ListForLeader(ctx context.Context, leaderID int) ([]types.TaskDetail, error) {
	const query = `
		SELECT
			t.task_id, t.title, t.description, t.status, t.priority, t.due_date,
			t.created_by, t.assigned_to, t.team_id, t.created_at,
			cu.username, COALESCE(au.username, ''), tm.name, COALESCE(lu.username, '')
		FROM tasks t
		JOIN users cu ON t.created_by = cu.user_id
		LEFT JOIN users au ON t.assigned_to = au.user_id
		JOIN teams tm ON t.team_id = tm.team_id
		LEFT JOIN users lu ON tm.leader_id = lu.user_id
		WHERE tm.leader_id = $1
		ORDER BY tm.name ASC, t.due_date ASC`
	return r.queryTeamDetails(ctx, query, leaderID)
}

// ListAll returns every task, newest first. Admin view.
func (r *TaskRepository) ListAll(ctx context.Context) ([]types.TaskDetail, error) {
	const query = `
		SELECT
			t.task_id, t.title, t.description, t.status, t.priority, t.due_date,
			t.created_by, t.assigned_to, t.team_id, t.created_at,
			cu.username, COALESCE(au.username, ''), COALESCE(tm.name, ''), ''
		FROM tasks t
		JOIN users cu ON t.created_by = cu.user_id
		LEFT JOIN users au ON t.assigned_to = au.user_id
		LEFT JOIN teams tm ON t.team_id = tm.team_id
		ORDER BY t.created_at DESC`
	return r.queryTeamDetails(ctx, query)
}

// DeadlinesForAssignee returns the user's non-DONE tasks that carry a due
// date, soonest first.
func (r *TaskRepository) DeadlinesForAssignee(ctx context.Context, userID int) ([]types.Deadline, error) {
	const query = `
		SELECT title, due_date, status, priority
		FROM tasks
		WHERE assigned_to = $1
		  AND due_date IS NOT NULL
		  AND status != 'DONE'
		ORDER BY due_date ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deadlines []types.Deadline
	for rows.Next() {
		var d types.Deadline
		if err := rows.Scan(&d.Title, &d.DueDate, &d.Status, &d.Priority); err != nil {
			return nil, err
		}
		deadlines = append(deadlines, d)
	}
	return deadlines, rows.Err()
}

func (r *TaskRepository) queryDetails(ctx context.Context, query string, args ...any) ([]types.TaskDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []types.TaskDetail
	for rows.Next() {
		var d types.TaskDetail
		if err := rows.Scan(
			&d.ID, &d.Title, &d.Description, &d.Status, &d.Priority, &d.DueDate,
			&d.CreatedBy, &d.AssignedTo, &d.TeamID, &d.CreatedAt,
			&d.CreatedByName, &d.AssignedToName,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, d)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) queryTeamDetails(ctx context.Context, query string, args ...any) ([]types.TaskDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []types.TaskDetail
	for rows.Next() {
		var d types.TaskDetail
		if err := rows.Scan(
			&d.ID, &d.Title, &d.Description, &d.Status, &d.Priority, &d.DueDate,
			&d.CreatedBy, &d.AssignedTo, &d.TeamID, &d.CreatedAt,
			&d.CreatedByName, &d.AssignedToName, &d.TeamName, &d.LeaderName,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, d)
	}
	return tasks, rows.Err()
}
