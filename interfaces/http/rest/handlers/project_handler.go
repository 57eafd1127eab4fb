package handlers

import (
	"net/http"
	"time"

	"agentdev-backend/application/commands"
	"agentdev-backend/application/commands/bus"
	"agentdev-backend/application/queries"
	querybus "agentdev-backend/application/queries/bus"
	"agentdev-backend/domain/project"
	"agentdev-backend/pkg/auth"
	"agentdev-backend/pkg/common"
	pkgerrors "agentdev-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProjectHandler handles project HTTP requests
type ProjectHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errs,
		logger:     logger,
	}
}

// CreateProjectRequest is the body of POST /projects. The id is always
// generated by the store.
type CreateProjectRequest struct {
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	ProjectType  string                 `json:"project_type,omitempty"`
	Complexity   string                 `json:"complexity,omitempty"`
	Requirements []project.Requirement  `json:"requirements,omitempty"`
	Metadata     project.Metadata       `json:"metadata"`
	Deadline     *time.Time             `json:"deadline,omitempty"`
	TeamMembers  []string               `json:"team_members,omitempty"`
	Settings     map[string]interface{} `json:"settings,omitempty"`
}

// UpdateProjectRequest is the body of PUT /projects/{id}. Absent fields are
// left unchanged.
type UpdateProjectRequest struct {
	Name               *string                 `json:"name,omitempty"`
	Description        *string                 `json:"description,omitempty"`
	Status             *string                 `json:"status,omitempty"`
	ProjectType        *string                 `json:"project_type,omitempty"`
	Complexity         *string                 `json:"complexity,omitempty"`
	Requirements       *[]project.Requirement  `json:"requirements,omitempty"`
	Metadata           *project.Metadata       `json:"metadata,omitempty"`
	Deadline           *time.Time              `json:"deadline,omitempty"`
	TeamMembers        *[]string               `json:"team_members,omitempty"`
	Settings           *map[string]interface{} `json:"settings,omitempty"`
	ProgressPercentage *float64                `json:"progress_percentage,omitempty"`
}

func (req UpdateProjectRequest) input() project.UpdateInput {
	in := project.UpdateInput{
		Name:               req.Name,
		Description:        req.Description,
		Requirements:       req.Requirements,
		Metadata:           req.Metadata,
		Deadline:           req.Deadline,
		TeamMembers:        req.TeamMembers,
		Settings:           req.Settings,
		ProgressPercentage: req.ProgressPercentage,
	}
	if req.Status != nil {
		s := project.Status(*req.Status)
		in.Status = &s
	}
	if req.ProjectType != nil {
		t := project.Type(*req.ProjectType)
		in.ProjectType = &t
	}
	if req.Complexity != nil {
		c := project.Complexity(*req.Complexity)
		in.Complexity = &c
	}
	return in
}

// CreateProject handles POST /projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := common.ParseJSONBody(w, r, &req, common.DefaultMaxBodyBytes); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.CreateProjectCommand{
		UserID:       user.UserID,
		Name:         req.Name,
		Description:  req.Description,
		ProjectType:  req.ProjectType,
		Complexity:   req.Complexity,
		Requirements: req.Requirements,
		Metadata:     req.Metadata,
		Deadline:     req.Deadline,
		TeamMembers:  req.TeamMembers,
		Settings:     req.Settings,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, result)
}

// GetProject handles GET /projects/{projectID}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetProjectQuery{
		UserID:    user.UserID,
		ProjectID: chi.URLParam(r, "projectID"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// UpdateProject handles PUT /projects/{projectID}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := common.ParseJSONBody(w, r, &req, common.DefaultMaxBodyBytes); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.UpdateProjectCommand{
		UserID:    user.UserID,
		ProjectID: chi.URLParam(r, "projectID"),
		Input:     req.input(),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// DeleteProject handles DELETE /projects/{projectID}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	if _, err := h.commandBus.Send(r.Context(), commands.DeleteProjectCommand{
		UserID:    user.UserID,
		ProjectID: chi.URLParam(r, "projectID"),
	}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondNoContent(w)
}

// ListProjects handles GET /projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	params, err := common.ExtractPaginationParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListProjectsQuery{
		UserID:   user.UserID,
		Status:   r.URL.Query().Get("status"),
		Page:     params.Page,
		PageSize: params.PageSize,
		Cursor:   params.Cursor,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// ProjectStats handles GET /projects/stats/summary
func (h *ProjectHandler) ProjectStats(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ProjectStatsQuery{UserID: user.UserID})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// StartProject handles POST /projects/{projectID}/start
func (h *ProjectHandler) StartProject(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.StartProjectCommand{
		UserID:    user.UserID,
		ProjectID: chi.URLParam(r, "projectID"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// CompleteProject handles POST /projects/{projectID}/complete
func (h *ProjectHandler) CompleteProject(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.CompleteProjectCommand{
		UserID:    user.UserID,
		ProjectID: chi.URLParam(r, "projectID"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

func (h *ProjectHandler) user(w http.ResponseWriter, r *http.Request) (*auth.UserContext, bool) {
	return currentUser(w, r, h.errors)
}

// currentUser reads the authenticated caller, writing a 401 when absent.
func currentUser(w http.ResponseWriter, r *http.Request, errs *pkgerrors.ErrorHandler) (*auth.UserContext, bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Unauthorized").WithCause(err))
		return nil, false
	}
	return user, true
}
