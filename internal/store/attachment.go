package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/teamtrack/apiserver/types"
)

// AttachmentRepository handles persistence for standalone attachments,
// that is, files tied to a task but not to a specific comment.
type AttachmentRepository struct {
	db *sql.DB
}

func NewAttachmentRepository(db *sql.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// CreateWithUpload inserts an attachment row and runs the upload callback
// before commit, so a failed object-store write leaves no database record.
func (r *AttachmentRepository) CreateWithUpload(
	ctx context.Context,
	attachment types.Attachment,
	upload func(ctx context.Context) error,
) (types.Attachment, error) {
	attachment.CreatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Attachment{}, err
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO attachments (file_name, file_path, uploaded_by, task_id, comment_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING attachment_id`
	err = tx.QueryRowContext(
		ctx,
		query,
		attachment.FileName,
		attachment.FilePath,
		attachment.UploadedBy,
		attachment.TaskID,
		attachment.CommentID,
		attachment.CreatedAt,
	).Scan(&attachment.ID)
	if err != nil {
		return types.Attachment{}, err
	}

	if err := upload(ctx); err != nil {
		return types.Attachment{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Attachment{}, fmt.Errorf("commit attachment: %w", err)
	}
	return attachment, nil
}

// ListForTask returns a task's attachments, oldest first.
func (r *AttachmentRepository) ListForTask(ctx context.Context, taskID int) ([]types.Attachment, error) {
	const query = `
		SELECT attachment_id, file_name, file_path, uploaded_by, task_id, comment_id, created_at
		FROM attachments
		WHERE task_id = $1
		ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []types.Attachment
	for rows.Next() {
		var a types.Attachment
		if err := rows.Scan(&a.ID, &a.FileName, &a.FilePath, &a.UploadedBy, &a.TaskID, &a.CommentID, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
