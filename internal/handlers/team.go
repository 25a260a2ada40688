package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/teamtrack/apiserver/internal/services"
	"github.com/teamtrack/apiserver/types"
)

// TeamHandler provides the team views shared by leaders and members, and
// the leader-only membership and task-creation endpoints.
type TeamHandler struct {
	teamService *services.TeamService
	taskService *services.TaskService
}

func NewTeamHandler(teamService *services.TeamService, taskService *services.TaskService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
		taskService: taskService,
	}
}

// TeamRouter registers team routes. Mounted behind RequireAuth; listing
// and detail are open to any authenticated role, membership and task
// creation to leaders only.
func TeamRouter(r chi.Router, handler *TeamHandler) {
	r.Get("/", handler.ListMyTeams)
	r.Route("/{teamID}", func(r chi.Router) {
		r.Get("/", handler.GetTeam)
		r.Get("/tasks", handler.ListTeamTasks)

		leaders := r.With(RequireRole(types.RoleTeamLeader))
		leaders.Post("/members", handler.AddMember)
		leaders.Delete("/members", handler.RemoveMember)
		leaders.Post("/tasks", handler.CreateTask)
	})
}

// ListMyTeams returns the teams the caller leads or belongs to.
func (h *TeamHandler) ListMyTeams(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	teams, err := h.teamService.ListFor(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list teams")
		return
	}
	if teams == nil {
		teams = []types.TeamSummary{}
	}
	writeJSON(w, http.StatusOK, teams)
}

// GetTeam returns a team's details and roster.
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := parseIDParam(r, "teamID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.teamService.Get(r.Context(), teamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ListTeamTasks returns a team's tasks, newest first.
func (h *TeamHandler) ListTeamTasks(w http.ResponseWriter, r *http.Request) {
	teamID, err := parseIDParam(r, "teamID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := h.taskService.ListForTeam(r.Context(), teamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []types.TaskDetail{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

type MemberRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AddMember adds a user to the team by email. Adding an existing member
// is a no-op.
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	teamID, err := parseIDParam(r, "teamID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req MemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.teamService.AddMember(r.Context(), session, teamID, req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "member added"})
}

// RemoveMember removes a user from the team by email.
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	teamID, err := parseIDParam(r, "teamID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req MemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.teamService.RemoveMember(r.Context(), session, teamID, req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "member removed"})
}

type CreateTaskRequest struct {
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description"`
	AssigneeEmail string `json:"assignee_email" validate:"required,email"`
	DueDate       string `json:"due_date"`
	Priority      string `json:"priority"`
}

// CreateTask inserts a task for the team, assigned by the acting leader.
func (h *TeamHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	teamID, err := parseIDParam(r, "teamID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.taskService.Create(r.Context(), session, services.CreateTaskParams{
		TeamID:        teamID,
		Title:         req.Title,
		Description:   req.Description,
		AssigneeEmail: req.AssigneeEmail,
		DueDate:       dueDate,
		Priority:      req.Priority,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}
