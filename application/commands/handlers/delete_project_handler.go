package handlers

import (
	"context"

	"agentdev-backend/application/commands"
	"agentdev-backend/application/ports"
	"agentdev-backend/application/services"
	"agentdev-backend/domain/events"
	"agentdev-backend/domain/project"
	pkgerrors "agentdev-backend/pkg/errors"
	"agentdev-backend/pkg/utils"

	"go.uber.org/zap"
)

// DeleteProjectHandler handles project deletion commands
type DeleteProjectHandler struct {
	repo      ports.ProjectRepository
	access    *services.ProjectAccessService
	publisher ports.EventPublisher
	clock     utils.Clock
	logger    *zap.Logger
}

// NewDeleteProjectHandler creates a new delete project handler
func NewDeleteProjectHandler(
	repo ports.ProjectRepository,
	access *services.ProjectAccessService,
	publisher ports.EventPublisher,
	clock utils.Clock,
	logger *zap.Logger,
) *DeleteProjectHandler {
	return &DeleteProjectHandler{
		repo:      repo,
		access:    access,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// Handle deletes the project if the caller owns it. A project that vanished
// between the ownership check and the delete is reported as NOT_FOUND.
func (h *DeleteProjectHandler) Handle(ctx context.Context, cmd commands.DeleteProjectCommand) error {
	p, err := h.access.LoadForWrite(ctx, cmd.ProjectID, cmd.UserID)
	if err != nil {
		return err
	}

	deleted, err := h.repo.Delete(ctx, cmd.ProjectID)
	if err != nil {
		return err
	}
	if !deleted {
		return pkgerrors.NewNotFoundError("project").WithCause(project.ErrNotFound)
	}

	h.logger.Info("Project deleted",
		zap.String("projectID", cmd.ProjectID),
		zap.String("userID", cmd.UserID),
	)
	publishEvent(ctx, h.publisher, h.logger, events.NewProjectDeleted(p.ProjectID, p.UserID, h.clock()))
	return nil
}
