package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/teamtrack/apiserver/types"
)

// CommentRepository handles persistence for comments and their attached
// files.
type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment types.Comment) (types.Comment, error) {
	comment.CreatedAt = time.Now()

	const query = `
		INSERT INTO comments (task_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING comment_id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		comment.TaskID,
		comment.AuthorID,
		comment.Content,
		comment.CreatedAt,
	).Scan(&comment.ID)
	if err != nil {
		return types.Comment{}, err
	}
	return comment, nil
}

// CreateWithAttachment inserts a comment and its attachment as one atomic
// unit. The upload callback writes the file bytes to the object store and
// runs before commit: if the upload fails, both rows are rolled back; if
// the commit fails, the caller is expected to remove the uploaded object.
func (r *CommentRepository) CreateWithAttachment(
	ctx context.Context,
	comment types.Comment,
	attachment types.Attachment,
	upload func(ctx context.Context) error,
) (types.Comment, types.Attachment, error) {
	now := time.Now()
	comment.CreatedAt = now
	attachment.CreatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Comment{}, types.Attachment{}, err
	}
	defer tx.Rollback()

	const commentQuery = `
		INSERT INTO comments (task_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING comment_id`
	err = tx.QueryRowContext(
		ctx,
		commentQuery,
		comment.TaskID,
		comment.AuthorID,
		comment.Content,
		comment.CreatedAt,
	).Scan(&comment.ID)
	if err != nil {
		return types.Comment{}, types.Attachment{}, err
	}

	attachment.CommentID = &comment.ID

	const attachmentQuery = `
		INSERT INTO attachments (file_name, file_path, uploaded_by, task_id, comment_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING attachment_id`
	err = tx.QueryRowContext(
		ctx,
		attachmentQuery,
		attachment.FileName,
		attachment.FilePath,
		attachment.UploadedBy,
		attachment.TaskID,
		attachment.CommentID,
		attachment.CreatedAt,
	).Scan(&attachment.ID)
	if err != nil {
		return types.Comment{}, types.Attachment{}, err
	}

	if err := upload(ctx); err != nil {
		return types.Comment{}, types.Attachment{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Comment{}, types.Attachment{}, fmt.Errorf("commit comment with attachment: %w", err)
	}
	return comment, attachment, nil
}

// ListForTask returns a task's comments, newest first, with author
// usernames joined in.
func (r *CommentRepository) ListForTask(ctx context.Context, taskID int) ([]types.Comment, error) {
	const query = `
		SELECT c.comment_id, c.task_id, c.author_id, c.content, c.created_at, u.username
		FROM comments c
		JOIN users u ON c.author_id = u.user_id
		WHERE c.task_id = $1
		ORDER BY c.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []types.Comment
	for rows.Next() {
		var c types.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.AuthorName); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// RecentForAssignee returns the most recent comments written by other
// users on tasks assigned to the given user.
func (r *CommentRepository) RecentForAssignee(ctx context.Context, userID, limit int) ([]types.CommentNotification, error) {
	const query = `
		SELECT c.content, c.created_at, u.username, t.title
		FROM comments c
		JOIN tasks t ON c.task_id = t.task_id
		JOIN users u ON c.author_id = u.user_id
		WHERE t.assigned_to = $1 AND c.author_id <> $1
		ORDER BY c.created_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []types.CommentNotification
	for rows.Next() {
		var n types.CommentNotification
		if err := rows.Scan(&n.Content, &n.CreatedAt, &n.AuthorName, &n.TaskTitle); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
