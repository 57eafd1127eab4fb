package handlers

import (
	"context"
	"time"

	"agentdev-backend/application/commands"
	"agentdev-backend/application/ports"
	"agentdev-backend/application/services"
	"agentdev-backend/domain/events"
	"agentdev-backend/domain/project"
	"agentdev-backend/pkg/utils"

	"go.uber.org/zap"
)

// LifecycleHandler handles start and complete transitions. Neither checks
// the current status.
type LifecycleHandler struct {
	repo      ports.ProjectRepository
	access    *services.ProjectAccessService
	publisher ports.EventPublisher
	clock     utils.Clock
	logger    *zap.Logger
}

// NewLifecycleHandler creates a new lifecycle handler
func NewLifecycleHandler(
	repo ports.ProjectRepository,
	access *services.ProjectAccessService,
	publisher ports.EventPublisher,
	clock utils.Clock,
	logger *zap.Logger,
) *LifecycleHandler {
	return &LifecycleHandler{
		repo:      repo,
		access:    access,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// HandleStart sets status active and started_at.
func (h *LifecycleHandler) HandleStart(ctx context.Context, cmd commands.StartProjectCommand) (*project.Project, error) {
	p, err := h.transition(ctx, cmd.ProjectID, cmd.UserID, project.StartChanges)
	if err != nil {
		return nil, err
	}
	publishEvent(ctx, h.publisher, h.logger, events.NewProjectStarted(p.ProjectID, p.UserID, p.UpdatedAt))
	return p, nil
}

// HandleComplete sets status completed, completed_at and progress 100.
func (h *LifecycleHandler) HandleComplete(ctx context.Context, cmd commands.CompleteProjectCommand) (*project.Project, error) {
	p, err := h.transition(ctx, cmd.ProjectID, cmd.UserID, project.CompleteChanges)
	if err != nil {
		return nil, err
	}
	publishEvent(ctx, h.publisher, h.logger, events.NewProjectCompleted(p.ProjectID, p.UserID, p.UpdatedAt))
	return p, nil
}

func (h *LifecycleHandler) transition(ctx context.Context, projectID, userID string, changes func(now time.Time) project.Changes) (*project.Project, error) {
	current, err := h.access.LoadForWrite(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	updated, err := h.repo.Update(ctx, projectID, changes(h.clock()))
	if err != nil {
		return nil, err
	}

	h.logger.Info("Project status changed",
		zap.String("projectID", projectID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
	)
	return updated, nil
}
