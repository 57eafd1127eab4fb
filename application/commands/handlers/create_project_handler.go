package handlers

import (
	"context"

	"agentdev-backend/application/commands"
	"agentdev-backend/application/ports"
	"agentdev-backend/domain/events"
	"agentdev-backend/domain/project"
	"agentdev-backend/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProjectHandler handles project creation
type CreateProjectHandler struct {
	repo      ports.ProjectRepository
	publisher ports.EventPublisher
	clock     utils.Clock
	logger    *zap.Logger
}

// NewCreateProjectHandler creates a new create project handler
func NewCreateProjectHandler(
	repo ports.ProjectRepository,
	publisher ports.EventPublisher,
	clock utils.Clock,
	logger *zap.Logger,
) *CreateProjectHandler {
	return &CreateProjectHandler{
		repo:      repo,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// Handle builds the draft project, validates it and writes it once.
func (h *CreateProjectHandler) Handle(ctx context.Context, cmd commands.CreateProjectCommand) (*project.Project, error) {
	p := project.New(cmd.UserID, cmd.Input())

	now := h.clock()
	for i := range p.Requirements {
		if p.Requirements[i].ID == "" {
			p.Requirements[i].ID = uuid.NewString()
		}
		if p.Requirements[i].CreatedAt.IsZero() {
			p.Requirements[i].CreatedAt = now
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	created, err := h.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	h.logger.Info("Project created",
		zap.String("projectID", created.ProjectID),
		zap.String("userID", created.UserID),
	)
	publishEvent(ctx, h.publisher, h.logger, events.NewProjectCreated(created.ProjectID, created.UserID, created.CreatedAt))
	return created, nil
}

// publishEvent delivers e best effort. The store write already succeeded,
// so a publish failure is only logged.
func publishEvent(ctx context.Context, publisher ports.EventPublisher, logger *zap.Logger, e events.DomainEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, e); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("eventType", e.GetEventType()),
			zap.String("aggregateID", e.GetAggregateID()),
			zap.Error(err),
		)
	}
}
