package handlers

import (
	"context"

	"agentdev-backend/application/ports"
	"agentdev-backend/application/queries"
	"agentdev-backend/application/services"
	"agentdev-backend/domain/project"

	"go.uber.org/zap"
)

// GetProjectHandler handles single project reads
type GetProjectHandler struct {
	access *services.ProjectAccessService
}

// NewGetProjectHandler creates a new get project handler
func NewGetProjectHandler(access *services.ProjectAccessService) *GetProjectHandler {
	return &GetProjectHandler{access: access}
}

// Handle returns the project when the caller owns it or is a team member.
func (h *GetProjectHandler) Handle(ctx context.Context, query queries.GetProjectQuery) (*project.Project, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return h.access.LoadForRead(ctx, query.ProjectID, query.UserID)
}

// ListProjectsHandler handles project listing
type ListProjectsHandler struct {
	repo   ports.ProjectRepository
	logger *zap.Logger
}

// NewListProjectsHandler creates a new list projects handler
func NewListProjectsHandler(repo ports.ProjectRepository, logger *zap.Logger) *ListProjectsHandler {
	return &ListProjectsHandler{repo: repo, logger: logger}
}

// Handle lists projects owned by the caller. Projects shared through team
// membership are not listed.
func (h *ListProjectsHandler) Handle(ctx context.Context, query queries.ListProjectsQuery) (*queries.ListProjectsResult, error) {
	if query.Page == 0 {
		query.Page = 1
	}
	if query.PageSize == 0 {
		query.PageSize = queries.DefaultPageSize
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	page, err := h.repo.List(ctx, query.Options())
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Projects listed",
		zap.String("userID", query.UserID),
		zap.Int("count", page.Count),
		zap.String("status", query.Status),
	)

	return &queries.ListProjectsResult{
		Projects:   page.Items,
		Total:      page.Count,
		Page:       query.Page,
		PageSize:   query.PageSize,
		HasNext:    page.HasNext(),
		NextCursor: page.NextCursor,
	}, nil
}

// ProjectStatsHandler handles the stats summary
type ProjectStatsHandler struct {
	repo ports.ProjectRepository
}

// NewProjectStatsHandler creates a new stats handler
func NewProjectStatsHandler(repo ports.ProjectRepository) *ProjectStatsHandler {
	return &ProjectStatsHandler{repo: repo}
}

func (h *ProjectStatsHandler) Handle(ctx context.Context, query queries.ProjectStatsQuery) (*ports.Stats, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return h.repo.Stats(ctx, query.UserID)
}
