package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/teamtrack/apiserver/internal/events"
	"github.com/teamtrack/apiserver/internal/logger"
	"github.com/teamtrack/apiserver/internal/storage"
	"github.com/teamtrack/apiserver/internal/store"
	"github.com/teamtrack/apiserver/types"
)

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task types.Task) (types.Task, error)
	Get(ctx context.Context, id int) (types.TaskDetail, error)
	Update(ctx context.Context, task types.Task) error
	UpdateStatus(ctx context.Context, id int, status string) error
	Delete(ctx context.Context, id int) ([]string, error)
	ListForTeam(ctx context.Context, teamID int) ([]types.TaskDetail, error)
	ListForAssignee(ctx context.Context, userID int) ([]types.TaskDetail, error)
	ListForLeader(ctx context.Context, leaderID int) ([]types.TaskDetail, error)
	ListAll(ctx context.Context) ([]types.TaskDetail, error)
	DeadlinesForAssignee(ctx context.Context, userID int) ([]types.Deadline, error)
}

// CreateTaskParams carries a task creation request.
type CreateTaskParams struct {
	TeamID        int
	Title         string
	Description   string
	AssigneeEmail string
	DueDate       *time.Time
	Priority      string
}

// EditTaskParams carries a full overwrite of a task's mutable fields.
type EditTaskParams struct {
	Title       string
	Description string
	Status      string
	DueDate     *time.Time
	Priority    string
}

// TaskService owns the task lifecycle: creation, edits, status changes,
// and deletion.
type TaskService struct {
	tasks     TaskRepository
	users     UserRepository
	files     storage.ObjectStorage
	publisher events.Publisher
	log       *logger.Logger
}

func NewTaskService(tasks TaskRepository, users UserRepository, files storage.ObjectStorage, publisher events.Publisher, log *logger.Logger) *TaskService {
	return &TaskService{
		tasks:     tasks,
		users:     users,
		files:     files,
		publisher: publisher,
		log:       log,
	}
}

// Create inserts a task for a team. The acting leader is resolved from
// the session email and the assignee from the supplied email; either miss
// rejects the request. Priority is normalized to upper case and the
// initial status is always TODO.
func (s *TaskService) Create(ctx context.Context, actor types.Session, params CreateTaskParams) (types.Task, error) {
	leader, err := s.users.GetByEmail(ctx, actor.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Task{}, ErrLeaderNotFound
		}
		return types.Task{}, err
	}

	assignee, err := s.users.GetByEmail(ctx, strings.TrimSpace(params.AssigneeEmail))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Task{}, ErrAssigneeNotFound
		}
		return types.Task{}, err
	}

	task, err := s.tasks.Create(ctx, types.Task{
		Title:       strings.TrimSpace(params.Title),
		Description: params.Description,
		Status:      types.StatusTodo,
		Priority:    strings.ToUpper(strings.TrimSpace(params.Priority)),
		DueDate:     params.DueDate,
		CreatedBy:   leader.ID,
		AssignedTo:  assignee.ID,
		TeamID:      params.TeamID,
	})
	if err != nil {
		return types.Task{}, err
	}

	publishAsync(s.publisher, s.log, events.New(events.TypeTaskCreated, actor.UserID, map[string]any{
		"task_id":  task.ID,
		"team_id":  task.TeamID,
		"assignee": assignee.Username,
	}))
	return task, nil
}

// Edit overwrites every mutable field of a task. The status value is
// validated against the three-element set, matching the status-change
// endpoint.
func (s *TaskService) Edit(ctx context.Context, actor types.Session, taskID int, params EditTaskParams) error {
	if !types.ValidTaskStatus(params.Status) {
		return ErrInvalidStatus
	}

	err := s.tasks.Update(ctx, types.Task{
		ID:          taskID,
		Title:       strings.TrimSpace(params.Title),
		Description: params.Description,
		Status:      params.Status,
		DueDate:     params.DueDate,
		Priority:    strings.ToUpper(strings.TrimSpace(params.Priority)),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	publishAsync(s.publisher, s.log, events.New(events.TypeTaskUpdated, actor.UserID, map[string]any{"task_id": taskID}))
	return nil
}

// ChangeStatus moves a task to any value in {TODO, IN_PROGRESS, DONE}.
// No ordering is enforced between the three.
func (s *TaskService) ChangeStatus(ctx context.Context, actor types.Session, taskID int, newStatus string) error {
	if !types.ValidTaskStatus(newStatus) {
		return ErrInvalidStatus
	}

	if err := s.tasks.UpdateStatus(ctx, taskID, newStatus); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	publishAsync(s.publisher, s.log, events.New(events.TypeTaskStatusChanged, actor.UserID, map[string]any{
		"task_id": taskID,
		"status":  newStatus,
	}))
	return nil
}

// Delete removes a task with its comments and attachments in one
// transaction, then best-effort removes the attachment objects from the
// file store.
func (s *TaskService) Delete(ctx context.Context, actor types.Session, taskID int) error {
	keys, err := s.tasks.Delete(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	for _, key := range keys {
		if s.files == nil {
			break
		}
		if err := s.files.Delete(ctx, key); err != nil {
			s.log.Warnw("failed to remove attachment object", "key", key, "error", err)
		}
	}

	publishAsync(s.publisher, s.log, events.New(events.TypeTaskDeleted, actor.UserID, map[string]any{"task_id": taskID}))
	return nil
}

// Get loads a task with creator and assignee names.
func (s *TaskService) Get(ctx context.Context, taskID int) (types.TaskDetail, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.TaskDetail{}, ErrNotFound
		}
		return types.TaskDetail{}, err
	}
	return task, nil
}

// ListForTeam returns a team's tasks, newest first.
func (s *TaskService) ListForTeam(ctx context.Context, teamID int) ([]types.TaskDetail, error) {
	return s.tasks.ListForTeam(ctx, teamID)
}

// ListForAssignee returns the tasks assigned to a user ordered by due
// date.
func (s *TaskService) ListForAssignee(ctx context.Context, userID int) ([]types.TaskDetail, error) {
	return s.tasks.ListForAssignee(ctx, userID)
}

// ListForLeader returns every task across the teams a user leads.
func (s *TaskService) ListForLeader(ctx context.Context, leaderID int) ([]types.TaskDetail, error) {
	return s.tasks.ListForLeader(ctx, leaderID)
}

// ListAll returns every task, newest first. Admin view.
func (s *TaskService) ListAll(ctx context.Context) ([]types.TaskDetail, error) {
	return s.tasks.ListAll(ctx)
}
