package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/teamtrack/apiserver/internal/services"
	"github.com/teamtrack/apiserver/types"
)

// TaskHandler provides task detail, editing, deletion, status changes,
// and the per-user task listings.
type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// TaskRouter registers task routes, including the per-task comment and
// attachment routes. Mounted behind RequireAuth.
func TaskRouter(r chi.Router, handler *TaskHandler, collab *CollabHandler) {
	r.Get("/assigned", handler.ListAssigned)
	r.With(RequireRole(types.RoleTeamLeader)).Get("/leading", handler.ListLeading)

	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", handler.GetTask)

		leaders := r.With(RequireRole(types.RoleTeamLeader))
		leaders.Put("/", handler.EditTask)
		leaders.Delete("/", handler.DeleteTask)

		r.With(RequireRole(types.RoleMember)).Post("/status", handler.ChangeStatus)

		CollabRouter(r, collab)
	})
}

// ListAssigned returns the caller's assigned tasks ordered by due date.
func (h *TaskHandler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tasks, err := h.taskService.ListForAssignee(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []types.TaskDetail{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// ListLeading returns every task across the teams the caller leads.
func (h *TaskHandler) ListLeading(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tasks, err := h.taskService.ListForLeader(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []types.TaskDetail{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// GetTask returns a task with creator and assignee names.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseIDParam(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.taskService.Get(r.Context(), taskID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type EditTaskRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"required"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
}

// EditTask overwrites every mutable field of a task.
func (h *TaskHandler) EditTask(w http.ResponseWriter, r *http.Request) {
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

	var req EditTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.taskService.Edit(r.Context(), session, taskID, services.EditTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     dueDate,
		Priority:    req.Priority,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "task updated"})
}

// DeleteTask removes a task together with its comments and attachments.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
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

	if err := h.taskService.Delete(r.Context(), session, taskID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "task deleted"})
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ChangeStatus moves a task to any value in the status set.
func (h *TaskHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
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

	var req ChangeStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.taskService.ChangeStatus(r.Context(), session, taskID, req.Status); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "status updated to " + req.Status})
}
