package types

import "time"

// Attachment is an uploaded file tied to a task, and optionally to a
// specific comment on that task. FilePath is the object-storage key the
// bytes were written under.
type Attachment struct {
	ID         int       `json:"id" db:"attachment_id"`
	FileName   string    `json:"file_name" db:"file_name"`
	FilePath   string    `json:"file_path" db:"file_path"`
	UploadedBy int       `json:"uploaded_by" db:"uploaded_by"`
	TaskID     int       `json:"task_id" db:"task_id"`
	CommentID  *int      `json:"comment_id,omitempty" db:"comment_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// TaskAttachments groups a task's attachments by owning comment.
// Attachments without a comment form the ungrouped bucket.
type TaskAttachments struct {
	ByComment map[int][]Attachment `json:"by_comment"`
	Ungrouped []Attachment         `json:"ungrouped"`
}
