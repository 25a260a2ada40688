package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/teamtrack/apiserver/internal/services"
	"github.com/teamtrack/apiserver/types"
)

const (
	// Memory ceiling for multipart parsing; larger parts spill to disk.
	maxMultipartMemory = 8 << 20

	formFieldContent   = "content"
	formFieldFile      = "file"
	formFieldCommentID = "comment_id"
)

// CollabHandler serves comments, attachments, and notifications.
type CollabHandler struct {
	collabService  *services.CollabService
	maxUploadBytes int64
}

func NewCollabHandler(collabService *services.CollabService, maxUploadBytes int64) *CollabHandler {
	return &CollabHandler{collabService: collabService, maxUploadBytes: maxUploadBytes}
}

// CollabRouter registers the per-task comment and attachment routes.
// Mounted under /tasks/{taskID} behind RequireAuth.
func CollabRouter(r chi.Router, handler *CollabHandler) {
	r.Route("/comments", func(r chi.Router) {
		r.Get("/", handler.ListComments)
		r.Post("/", handler.AddComment)
	})
	r.Route("/attachments", func(r chi.Router) {
		r.Get("/", handler.ListAttachments)
		r.Post("/", handler.AttachFile)
	})
}

type CommentWithAttachmentResponse struct {
	Comment    types.Comment     `json:"comment"`
	Attachment *types.Attachment `json:"attachment,omitempty"`
}

// AddComment creates a comment on a task. The request is multipart form
// data with a required content field and an optional file part; when a
// file is present the comment and its attachment are created together.
func (h *CollabHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	taskID, err := parseIDParam(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	content := r.FormValue(formFieldContent)

	upload, hasFile, err := h.parseUpload(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !hasFile {
		comment, err := h.collabService.AddComment(r.Context(), session, taskID, content)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, CommentWithAttachmentResponse{Comment: comment})
		return
	}

	comment, attachment, err := h.collabService.AddCommentWithFile(r.Context(), session, taskID, content, upload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CommentWithAttachmentResponse{
		Comment:    comment,
		Attachment: &attachment,
	})
}

// ListComments returns a task's comments, newest first.
func (h *CollabHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseIDParam(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comments, err := h.collabService.ListComments(r.Context(), taskID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list comments")
		return
	}
	if comments == nil {
		comments = []types.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

// AttachFile stores a standalone attachment on a task. The multipart
// form carries the file and an optional comment_id to link it to an
// existing comment.
func (h *CollabHandler) AttachFile(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	taskID, err := parseIDParam(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	upload, hasFile, err := h.parseUpload(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !hasFile {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}

	commentID, err := parseOptionalID(r.FormValue(formFieldCommentID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	attachment, err := h.collabService.AttachFile(r.Context(), session, taskID, commentID, upload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attachment)
}

// ListAttachments returns a task's attachments grouped by comment.
func (h *CollabHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseIDParam(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	attachments, err := h.collabService.ListAttachments(r.Context(), taskID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list attachments")
		return
	}
	writeJSON(w, http.StatusOK, attachments)
}

// Notifications returns recent comments on the caller's tasks plus
// upcoming deadlines.
func (h *CollabHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	notifications, err := h.collabService.Notifications(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *CollabHandler) parseUpload(form *multipart.Form) (services.Upload, bool, error) {
	if form == nil {
		return services.Upload{}, false, nil
	}

	files := form.File[formFieldFile]
	if len(files) == 0 {
		return services.Upload{}, false, nil
	}
	if len(files) > 1 {
		return services.Upload{}, false, errors.New("only one file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return services.Upload{}, false, errors.New("failed to read upload")
	}

	data, err := readFileLimited(file, h.maxUploadBytes)
	_ = file.Close()
	if err != nil {
		return services.Upload{}, false, err
	}

	return services.Upload{Filename: fileHeader.Filename, Data: data}, true, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}

func parseOptionalID(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(value)
	if err != nil || id < 1 {
		return nil, errors.New("invalid id")
	}
	return &id, nil
}
