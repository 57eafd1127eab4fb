package handlers

import (
	"context"
	"errors"
	"fmt"

	"agentdev-backend/application/ports"
	"agentdev-backend/application/queries"
	querybus "agentdev-backend/application/queries/bus"
	"agentdev-backend/application/services"

	"go.uber.org/zap"
)

// ErrInvalidQuery is returned when a handler receives the wrong query type.
var ErrInvalidQuery = errors.New("invalid query type")

// ProjectQueryHandlers groups the project query handlers.
type ProjectQueryHandlers struct {
	Get   *GetProjectHandler
	List  *ListProjectsHandler
	Stats *ProjectStatsHandler
}

// NewProjectQueryHandlers builds every project query handler over one store.
func NewProjectQueryHandlers(repo ports.ProjectRepository, access *services.ProjectAccessService, logger *zap.Logger) *ProjectQueryHandlers {
	return &ProjectQueryHandlers{
		Get:   NewGetProjectHandler(access),
		List:  NewListProjectsHandler(repo, logger),
		Stats: NewProjectStatsHandler(repo),
	}
}

// Register binds the handlers to their query types on b.
func (h *ProjectQueryHandlers) Register(b *querybus.QueryBus) error {
	if err := b.Register(queries.GetProjectQuery{}, querybus.QueryHandlerFunc(func(ctx context.Context, q querybus.Query) (interface{}, error) {
		query, ok := q.(queries.GetProjectQuery)
		if !ok {
			return nil, ErrInvalidQuery
		}
		return h.Get.Handle(ctx, query)
	})); err != nil {
		return fmt.Errorf("register GetProjectQuery: %w", err)
	}

	if err := b.Register(queries.ListProjectsQuery{}, querybus.QueryHandlerFunc(func(ctx context.Context, q querybus.Query) (interface{}, error) {
		query, ok := q.(queries.ListProjectsQuery)
		if !ok {
			return nil, ErrInvalidQuery
		}
		return h.List.Handle(ctx, query)
	})); err != nil {
		return fmt.Errorf("register ListProjectsQuery: %w", err)
	}

	if err := b.Register(queries.ProjectStatsQuery{}, querybus.QueryHandlerFunc(func(ctx context.Context, q querybus.Query) (interface{}, error) {
		query, ok := q.(queries.ProjectStatsQuery)
		if !ok {
			return nil, ErrInvalidQuery
		}
		return h.Stats.Handle(ctx, query)
	})); err != nil {
		return fmt.Errorf("register ProjectStatsQuery: %w", err)
	}
	return nil
}
