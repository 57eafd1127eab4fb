package handlers

import (
	"context"
	"sort"

	"agentdev-backend/application/commands"
	"agentdev-backend/application/ports"
	"agentdev-backend/application/services"
	"agentdev-backend/domain/events"
	"agentdev-backend/domain/project"

	"go.uber.org/zap"
)

// UpdateProjectHandler handles partial project updates
type UpdateProjectHandler struct {
	repo      ports.ProjectRepository
	access    *services.ProjectAccessService
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewUpdateProjectHandler creates a new update project handler
func NewUpdateProjectHandler(
	repo ports.ProjectRepository,
	access *services.ProjectAccessService,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *UpdateProjectHandler {
	return &UpdateProjectHandler{
		repo:      repo,
		access:    access,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle checks ownership on the current record, then writes the changes.
func (h *UpdateProjectHandler) Handle(ctx context.Context, cmd commands.UpdateProjectCommand) (*project.Project, error) {
	changes, err := cmd.Input.Changes()
	if err != nil {
		return nil, err
	}

	if _, err := h.access.LoadForWrite(ctx, cmd.ProjectID, cmd.UserID); err != nil {
		return nil, err
	}

	updated, err := h.repo.Update(ctx, cmd.ProjectID, changes)
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(changes))
	for f := range changes {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	h.logger.Info("Project updated",
		zap.String("projectID", cmd.ProjectID),
		zap.Strings("fields", fields),
	)
	publishEvent(ctx, h.publisher, h.logger, events.NewProjectUpdated(updated.ProjectID, updated.UserID, fields, updated.UpdatedAt))
	return updated, nil
}
