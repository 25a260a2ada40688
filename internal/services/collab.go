package services

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/teamtrack/apiserver/internal/events"
	"github.com/teamtrack/apiserver/internal/logger"
	"github.com/teamtrack/apiserver/internal/storage"
	"github.com/teamtrack/apiserver/types"
)

// notificationCommentLimit bounds the recent-comment feed.
const notificationCommentLimit = 10

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment types.Comment) (types.Comment, error)
	CreateWithAttachment(ctx context.Context, comment types.Comment, attachment types.Attachment, upload func(ctx context.Context) error) (types.Comment, types.Attachment, error)
	ListForTask(ctx context.Context, taskID int) ([]types.Comment, error)
	RecentForAssignee(ctx context.Context, userID, limit int) ([]types.CommentNotification, error)
}

// AttachmentRepository defines persistence operations for standalone
// attachments.
type AttachmentRepository interface {
	CreateWithUpload(ctx context.Context, attachment types.Attachment, upload func(ctx context.Context) error) (types.Attachment, error)
	ListForTask(ctx context.Context, taskID int) ([]types.Attachment, error)
}

// Upload carries an incoming file: the client-supplied name and the raw
// bytes.
type Upload struct {
	Filename string
	Data     []byte
}

// CollabService owns comments, attachments, and the notification
// aggregation.
type CollabService struct {
	comments    CommentRepository
	attachments AttachmentRepository
	tasks       TaskRepository
	files       storage.ObjectStorage
	allowedExts map[string]struct{}
	publisher   events.Publisher
	log         *logger.Logger
}

func NewCollabService(
	comments CommentRepository,
	attachments AttachmentRepository,
	tasks TaskRepository,
	files storage.ObjectStorage,
	allowedExtensions []string,
	publisher events.Publisher,
	log *logger.Logger,
) *CollabService {
	exts := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &CollabService{
		comments:    comments,
		attachments: attachments,
		tasks:       tasks,
		files:       files,
		allowedExts: exts,
		publisher:   publisher,
		log:         log,
	}
}

// AddComment appends a comment to a task. Blank content is rejected.
func (s *CollabService) AddComment(ctx context.Context, actor types.Session, taskID int, content string) (types.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return types.Comment{}, ErrEmptyContent
	}

	comment, err := s.comments.Create(ctx, types.Comment{
		TaskID:   taskID,
		AuthorID: actor.UserID,
		Content:  content,
	})
	if err != nil {
		return types.Comment{}, err
	}

	publishAsync(s.publisher, s.log, events.New(events.TypeCommentAdded, actor.UserID, map[string]any{
		"task_id":    taskID,
		"comment_id": comment.ID,
	}))
	return comment, nil
}

// AddCommentWithFile appends a comment and its attachment as one atomic
// unit: the comment row, the attachment row, and the object-store write
// commit together or not at all.
func (s *CollabService) AddCommentWithFile(ctx context.Context, actor types.Session, taskID int, content string, upload Upload) (types.Comment, types.Attachment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return types.Comment{}, types.Attachment{}, ErrEmptyContent
	}

	name, key, err := s.validateUpload(taskID, upload.Filename)
	if err != nil {
		return types.Comment{}, types.Attachment{}, err
	}

	comment, attachment, err := s.comments.CreateWithAttachment(
		ctx,
		types.Comment{TaskID: taskID, AuthorID: actor.UserID, Content: content},
		types.Attachment{FileName: name, FilePath: key, UploadedBy: actor.UserID, TaskID: taskID},
		s.uploadFunc(key, name, upload.Data),
	)
	if err != nil {
		// The transaction rolled back; make sure no orphan object
		// survives a failed commit.
		s.removeObject(ctx, key)
		return types.Comment{}, types.Attachment{}, err
	}

	publishAsync(s.publisher, s.log, events.New(events.TypeCommentAdded, actor.UserID, map[string]any{
		"task_id":       taskID,
		"comment_id":    comment.ID,
		"attachment_id": attachment.ID,
	}))
	return comment, attachment, nil
}

// AttachFile stores a file against a task, optionally tied to an existing
// comment. The database record and the object-store write commit
// together or not at all.
func (s *CollabService) AttachFile(ctx context.Context, actor types.Session, taskID int, commentID *int, upload Upload) (types.Attachment, error) {
	name, key, err := s.validateUpload(taskID, upload.Filename)
	if err != nil {
		return types.Attachment{}, err
	}

	attachment, err := s.attachments.CreateWithUpload(
		ctx,
		types.Attachment{FileName: name, FilePath: key, UploadedBy: actor.UserID, TaskID: taskID, CommentID: commentID},
		s.uploadFunc(key, name, upload.Data),
	)
	if err != nil {
		s.removeObject(ctx, key)
		return types.Attachment{}, err
	}
	return attachment, nil
}

// ListComments returns a task's comments, newest first.
func (s *CollabService) ListComments(ctx context.Context, taskID int) ([]types.Comment, error) {
	return s.comments.ListForTask(ctx, taskID)
}

// ListAttachments returns a task's attachments grouped by owning comment.
func (s *CollabService) ListAttachments(ctx context.Context, taskID int) (types.TaskAttachments, error) {
	rows, err := s.attachments.ListForTask(ctx, taskID)
	if err != nil {
		return types.TaskAttachments{}, err
	}

	grouped := types.TaskAttachments{ByComment: make(map[int][]types.Attachment)}
	for _, a := range rows {
		if a.CommentID == nil {
			grouped.Ungrouped = append(grouped.Ungrouped, a)
			continue
		}
		grouped.ByComment[*a.CommentID] = append(grouped.ByComment[*a.CommentID], a)
	}
	return grouped, nil
}

// Notifications aggregates what a user should see: the most recent
// comments by others on their assigned tasks, and their open deadlines.
func (s *CollabService) Notifications(ctx context.Context, userID int) (types.Notifications, error) {
	comments, err := s.comments.RecentForAssignee(ctx, userID, notificationCommentLimit)
	if err != nil {
		return types.Notifications{}, err
	}

	deadlines, err := s.tasks.DeadlinesForAssignee(ctx, userID)
	if err != nil {
		return types.Notifications{}, err
	}

	return types.Notifications{Comments: comments, Deadlines: deadlines}, nil
}

func (s *CollabService) validateUpload(taskID int, rawFilename string) (name, key string, err error) {
	name = SanitizeFilename(rawFilename)
	if name == "" {
		return "", "", ErrInvalidFilename
	}

	ext := fileExtension(name)
	if ext == "" {
		return "", "", ErrInvalidFilename
	}
	if _, ok := s.allowedExts[ext]; !ok {
		return "", "", ErrDisallowedExtension
	}

	return name, fmt.Sprintf("tasks/%d/%s", taskID, name), nil
}

func (s *CollabService) uploadFunc(key, name string, data []byte) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		contentType := mime.TypeByExtension("." + fileExtension(name))
		return s.files.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	}
}

// removeObject is the best-effort cleanup after a failed commit. The
// object may never have been written; a miss here is not an error worth
// surfacing.
func (s *CollabService) removeObject(ctx context.Context, key string) {
	if s.files == nil {
		return
	}
	if err := s.files.Delete(ctx, key); err != nil {
		s.log.Debugw("attachment object cleanup", "key", key, "error", err)
	}
}
