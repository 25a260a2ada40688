package types

import "time"

// Comment is an append-only note on a task. Comments are never edited or
// deleted through the API.
type Comment struct {
	ID        int       `json:"id" db:"comment_id"`
	TaskID    int       `json:"task_id" db:"task_id"`
	AuthorID  int       `json:"author_id" db:"author_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// AuthorName is joined in for list projections.
	AuthorName string `json:"author_name,omitempty" db:"-"`
}

// CommentNotification is a recent comment authored by someone else on a
// task assigned to the notified user.
type CommentNotification struct {
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	AuthorName string    `json:"author_name"`
	TaskTitle  string    `json:"task_title"`
}

// Deadline is a non-DONE assigned task with a due date.
type Deadline struct {
	Title    string    `json:"title"`
	DueDate  time.Time `json:"due_date"`
	Status   string    `json:"status"`
	Priority string    `json:"priority"`
}

// Notifications aggregates what a user should see on their activity page.
// It is a read-only projection, not a delivery mechanism.
type Notifications struct {
	Comments  []CommentNotification `json:"comments"`
	Deadlines []Deadline            `json:"deadlines"`
}
