package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/teamtrack/apiserver/internal/services"
	"github.com/teamtrack/apiserver/types"
)

// AdminHandler provides the admin-only management endpoints: account
// controls, team administration, and the all-tasks overview.
type AdminHandler struct {
	authService *services.AuthService
	teamService *services.TeamService
	taskService *services.TaskService
}

func NewAdminHandler(authService *services.AuthService, teamService *services.TeamService, taskService *services.TaskService) *AdminHandler {
	return &AdminHandler{
		authService: authService,
		teamService: teamService,
		taskService: taskService,
	}
}

// AdminRouter registers admin routes. The caller is expected to mount it
// behind RequireAuth + RequireRole(ADMIN).
func AdminRouter(r chi.Router, handler *AdminHandler) {
	r.Get("/users", handler.ListUsers)
	r.Post("/users/{username}/activate", handler.ActivateUser)
	r.Post("/users/{username}/deactivate", handler.DeactivateUser)
	r.Post("/users/{username}/role", handler.ChangeRole)

	r.Get("/teams", handler.ListTeams)
	r.Post("/teams", handler.CreateTeam)
	r.Get("/teams/{teamID}", handler.GetTeam)
	r.Delete("/teams/{teamID}", handler.DeleteTeam)

	r.Get("/tasks", handler.ListTasks)
}

// ListUsers returns every account ordered by username.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// ActivateUser flips an account to ACTIVE so it can log in.
func (h *AdminHandler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	username := chi.URLParam(r, "username")
	if err := h.authService.Activate(r.Context(), session, username); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "user " + username + " activated"})
}

// DeactivateUser flips an account to INACTIVE.
func (h *AdminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	username := chi.URLParam(r, "username")
	if err := h.authService.Deactivate(r.Context(), session, username); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "user " + username + " deactivated"})
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// ChangeRole reassigns an account's role.
func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ChangeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	username := chi.URLParam(r, "username")
	if err := h.authService.ChangeRole(r.Context(), session, username, req.Role); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "role for " + username + " changed to " + req.Role})
}

// ListTeams returns every team with aggregated member names.
func (h *AdminHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list teams")
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

type CreateTeamRequest struct {
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description" validate:"required"`
	LeaderUsername string `json:"leader_username" validate:"required"`
}

// CreateTeam inserts a team led by the named team leader.
func (h *AdminHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	team, err := h.teamService.Create(r.Context(), session, req.Name, req.Description, req.LeaderUsername)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

// GetTeam returns a team with its leader and roster.
func (h *AdminHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
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

// DeleteTeam removes a team and its membership rows atomically.
func (h *AdminHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
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

	if err := h.teamService.Delete(r.Context(), session, teamID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "team deleted"})
}

// ListTasks returns every task in the system, newest first.
func (h *AdminHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []types.TaskDetail{}
	}
	writeJSON(w, http.StatusOK, tasks)
}
