package queries

import (
	"agentdev-backend/application/ports"
	"agentdev-backend/domain/project"
	"agentdev-backend/pkg/utils"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// GetProjectQuery represents a query to get a single project
type GetProjectQuery struct {
	UserID    string `validate:"required"`
	ProjectID string `validate:"required"`
}

// Validate validates the GetProjectQuery
func (q GetProjectQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// ListProjectsQuery lists the caller's projects newest first.
// Page is echoed back; Cursor drives the actual paging.
type ListProjectsQuery struct {
	UserID   string `json:"user_id" validate:"required"`
	Status   string `json:"status" validate:"omitempty,oneof=draft active paused completed cancelled"`
	Page     int    `json:"page" validate:"gte=1"`
	PageSize int    `json:"page_size" validate:"gte=1,lte=100"`
	Cursor   string `json:"cursor"`
}

// Validate validates the query
func (q ListProjectsQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// Options converts the query to store list options.
func (q ListProjectsQuery) Options() ports.ListOptions {
	return ports.ListOptions{
		UserID: q.UserID,
		Status: project.Status(q.Status),
		Limit:  q.PageSize,
		Cursor: q.Cursor,
	}
}

// ListProjectsResult represents one page of listed projects
type ListProjectsResult struct {
	Projects   []*project.Project `json:"projects"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	HasNext    bool               `json:"has_next"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// ProjectStatsQuery summarises the caller's projects.
type ProjectStatsQuery struct {
	UserID string `validate:"required"`
}

func (q ProjectStatsQuery) Validate() error {
	return utils.ValidateStruct(q)
}
