package types

import "time"

// Task statuses. A task may move freely between the three values; no
// ordering is enforced.
const (
	StatusTodo       = "TODO"
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

// ValidTaskStatus reports whether status is one of TODO, IN_PROGRESS, DONE.
func ValidTaskStatus(status string) bool {
	switch status {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task is a unit of work belonging to exactly one team, created by a team
// leader and assigned to a user.
type Task struct {
	ID          int        `json:"id" db:"task_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      string     `json:"status" db:"status"`
	Priority    string     `json:"priority" db:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedBy   int        `json:"created_by" db:"created_by"`
	AssignedTo  int        `json:"assigned_to" db:"assigned_to"`
	TeamID      int        `json:"team_id" db:"team_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// TaskDetail is a task joined with display names for its creator and
// assignee, and the owning team.
type TaskDetail struct {
	Task
	CreatedByName  string `json:"created_by_name"`
	AssignedToName string `json:"assigned_to_name"`
	TeamName       string `json:"team_name,omitempty"`
	LeaderName     string `json:"leader_name,omitempty"`
}
