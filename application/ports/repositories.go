package ports

import (
	"context"

	"agentdev-backend/domain/events"
	"agentdev-backend/domain/project"
)

// ProjectRepository is the persistence contract for projects. Implementations
// hold no per-call state; consistency relies on single-item conditional writes.
type ProjectRepository interface {
	// Create assigns an id when missing, stamps created_at/updated_at and
	// writes only if the id is new. A duplicate id is a VALIDATION error.
	Create(ctx context.Context, p *project.Project) (*project.Project, error)

	// Get returns (nil, nil) when the project does not exist.
	Get(ctx context.Context, projectID string) (*project.Project, error)

	// Update stamps updated_at, applies changes and returns the record as
	// stored after the write.
	Update(ctx context.Context, projectID string, changes project.Changes) (*project.Project, error)

	// Delete reports false when there was nothing to delete.
	Delete(ctx context.Context, projectID string) (bool, error)

	List(ctx context.Context, opts ListOptions) (*Page, error)

	// Stats reads every matching record on each call.
	Stats(ctx context.Context, userID string) (*Stats, error)
}

// ListOptions selects a page of projects. An empty UserID lists the whole table.
// The status filter is applied after a page is read, so a filtered page may be
// short while NextCursor is still set.
type ListOptions struct {
	UserID string
	Status project.Status
	Limit  int
	Cursor string
}

// Page is one page of listed projects.
type Page struct {
	Items      []*project.Project `json:"items"`
	Count      int                `json:"count"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// HasNext reports whether another page may exist.
func (p *Page) HasNext() bool {
	return p.NextCursor != ""
}

// Stats summarises a set of projects. Paused and cancelled projects are only
// counted in TotalProjects.
type Stats struct {
	TotalProjects         int     `json:"total_projects"`
	ActiveProjects        int     `json:"active_projects"`
	CompletedProjects     int     `json:"completed_projects"`
	DraftProjects         int     `json:"draft_projects"`
	TotalTasks            int     `json:"total_tasks"`
	CompletedTasks        int     `json:"completed_tasks"`
	AverageCompletionRate float64 `json:"average_completion_rate"`
}

// EventPublisher delivers domain events to the outside world.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
