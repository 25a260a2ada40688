package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teamtrack/apiserver/internal/logger"
	"github.com/teamtrack/apiserver/types"
)

var testExtensions = []string{"png", "jpg", "jpeg", "gif", "pdf"}

func newCollabFixture(t *testing.T) (*CollabService, *fakeCommentRepo, *fakeAttachmentRepo, *fakeTaskRepo, *fakeStorage) {
	t.Helper()
	attachments := newFakeAttachmentRepo()
	comments := newFakeCommentRepo(attachments)
	tasks := newFakeTaskRepo()
	files := newFakeStorage()
	svc := NewCollabService(comments, attachments, tasks, files, testExtensions, nil, logger.Nop())
	return svc, comments, attachments, tasks, files
}

func TestAddComment(t *testing.T) {
	svc, _, _, _, _ := newCollabFixture(t)
	session := types.Session{UserID: 3, Role: types.RoleMember}

	comment, err := svc.AddComment(context.Background(), session, 7, "  looks good  ")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if comment.Content != "looks good" {
		t.Fatalf("content not trimmed: %q", comment.Content)
	}
	if comment.AuthorID != 3 || comment.TaskID != 7 {
		t.Fatalf("unexpected comment: %+v", comment)
	}

	if _, err := svc.AddComment(context.Background(), session, 7, "   "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestAddCommentWithFile(t *testing.T) {
	svc, _, _, _, files := newCollabFixture(t)
	session := types.Session{UserID: 3, Role: types.RoleMember}

	comment, attachment, err := svc.AddCommentWithFile(context.Background(), session, 7, "see attached", Upload{
		Filename: "design doc.pdf",
		Data:     []byte("pdf bytes"),
	})
	if err != nil {
		t.Fatalf("add comment with file: %v", err)
	}

	if attachment.FileName != "design_doc.pdf" {
		t.Fatalf("filename not sanitized: %q", attachment.FileName)
	}
	if attachment.CommentID == nil || *attachment.CommentID != comment.ID {
		t.Fatalf("attachment not linked to comment: %+v", attachment)
	}
	if attachment.FilePath != "tasks/7/design_doc.pdf" {
		t.Fatalf("unexpected object key: %q", attachment.FilePath)
	}
	if _, ok := files.objects[attachment.FilePath]; !ok {
		t.Fatal("object not written to storage")
	}
}

func TestAddCommentWithFileUploadFailure(t *testing.T) {
	svc, comments, attachments, _, files := newCollabFixture(t)
	session := types.Session{UserID: 3, Role: types.RoleMember}

	files.putErr = errors.New("storage unavailable")

	_, _, err := svc.AddCommentWithFile(context.Background(), session, 7, "see attached", Upload{
		Filename: "plan.pdf",
		Data:     []byte("pdf bytes"),
	})
	if err == nil {
		t.Fatal("expected upload failure to surface")
	}

	// Nothing survives a failed upload: no comment, no attachment row,
	// no object.
	rows, err := comments.ListForTask(context.Background(), 7)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("comment persisted despite failed upload: %+v", rows)
	}
	stored, err := attachments.ListForTask(context.Background(), 7)
	if err != nil {
		t.Fatalf("list attachments: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("attachment persisted despite failed upload: %+v", stored)
	}
	if len(files.objects) != 0 {
		t.Fatalf("orphan object left behind: %v", files.objects)
	}
}

func TestUploadValidation(t *testing.T) {
	svc, _, _, _, _ := newCollabFixture(t)
	session := types.Session{UserID: 3, Role: types.RoleMember}

	tests := []struct {
		name     string
		filename string
		wantErr  error
	}{
		{"no extension", "report", ErrInvalidFilename},
		{"dotfile only", "...", ErrInvalidFilename},
		{"empty after sanitizing", "///", ErrInvalidFilename},
		{"executable", "virus.exe", ErrDisallowedExtension},
		{"script", "run.sh", ErrDisallowedExtension},
		{"pdf allowed", "plan.pdf", nil},
		{"uppercase extension allowed", "PHOTO.PNG", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AttachFile(context.Background(), session, 7, nil, Upload{
				Filename: tt.filename,
				Data:     []byte("data"),
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAttachFileToComment(t *testing.T) {
	svc, _, _, _, _ := newCollabFixture(t)
	session := types.Session{UserID: 3, Role: types.RoleMember}

	comment, err := svc.AddComment(context.Background(), session, 7, "context here")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}

	attachment, err := svc.AttachFile(context.Background(), session, 7, &comment.ID, Upload{
		Filename: "screenshot.png",
		Data:     []byte("png bytes"),
	})
	if err != nil {
		t.Fatalf("attach file: %v", err)
	}
	if attachment.CommentID == nil || *attachment.CommentID != comment.ID {
		t.Fatalf("attachment not linked: %+v", attachment)
	}
}

func TestListAttachmentsGrouping(t *testing.T) {
	svc, _, _, _, _ := newCollabFixture(t)
	session := types.Session{UserID: 3, Role: types.RoleMember}

	comment, err := svc.AddComment(context.Background(), session, 7, "with file")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if _, err := svc.AttachFile(context.Background(), session, 7, &comment.ID, Upload{Filename: "a.png", Data: []byte("x")}); err != nil {
		t.Fatalf("attach linked file: %v", err)
	}
	if _, err := svc.AttachFile(context.Background(), session, 7, nil, Upload{Filename: "b.pdf", Data: []byte("y")}); err != nil {
		t.Fatalf("attach loose file: %v", err)
	}

	grouped, err := svc.ListAttachments(context.Background(), 7)
	if err != nil {
		t.Fatalf("list attachments: %v", err)
	}
	if len(grouped.ByComment[comment.ID]) != 1 {
		t.Fatalf("expected one attachment under comment %d: %+v", comment.ID, grouped.ByComment)
	}
	if len(grouped.Ungrouped) != 1 || grouped.Ungrouped[0].FileName != "b.pdf" {
		t.Fatalf("unexpected ungrouped attachments: %+v", grouped.Ungrouped)
	}
}

func TestNotifications(t *testing.T) {
	svc, comments, _, tasks, _ := newCollabFixture(t)

	comments.notifications = []types.CommentNotification{
		{Content: "done with review", AuthorName: "lead", TaskTitle: "Ship it"},
	}
	tasks.deadlines = []types.Deadline{
		{Title: "Ship it", DueDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), Status: types.StatusInProgress, Priority: "HIGH"},
	}

	notifications, err := svc.Notifications(context.Background(), 3)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if len(notifications.Comments) != 1 || len(notifications.Deadlines) != 1 {
		t.Fatalf("unexpected notifications: %+v", notifications)
	}
}
