package handlers

import (
	"context"
	"fmt"

	"agentdev-backend/application/commands"
	"agentdev-backend/application/commands/bus"
	"agentdev-backend/application/ports"
	"agentdev-backend/application/services"
	"agentdev-backend/pkg/utils"

	"go.uber.org/zap"
)

// ProjectHandlers groups the project command handlers.
type ProjectHandlers struct {
	Create    *CreateProjectHandler
	Update    *UpdateProjectHandler
	Delete    *DeleteProjectHandler
	Lifecycle *LifecycleHandler
}

// NewProjectHandlers builds every project command handler over one store.
func NewProjectHandlers(
	repo ports.ProjectRepository,
	access *services.ProjectAccessService,
	publisher ports.EventPublisher,
	clock utils.Clock,
	logger *zap.Logger,
) *ProjectHandlers {
	return &ProjectHandlers{
		Create:    NewCreateProjectHandler(repo, publisher, clock, logger),
		Update:    NewUpdateProjectHandler(repo, access, publisher, logger),
		Delete:    NewDeleteProjectHandler(repo, access, publisher, clock, logger),
		Lifecycle: NewLifecycleHandler(repo, access, publisher, clock, logger),
	}
}

// Register binds the handlers to their command types on b.
func (h *ProjectHandlers) Register(b *bus.CommandBus) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandlerFunc
	}{
		{commands.CreateProjectCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			c, ok := cmd.(commands.CreateProjectCommand)
			if !ok {
				return nil, commands.ErrInvalidCommand
			}
			return h.Create.Handle(ctx, c)
		}},
		{commands.UpdateProjectCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			c, ok := cmd.(commands.UpdateProjectCommand)
			if !ok {
				return nil, commands.ErrInvalidCommand
			}
			return h.Update.Handle(ctx, c)
		}},
		{commands.DeleteProjectCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			c, ok := cmd.(commands.DeleteProjectCommand)
			if !ok {
				return nil, commands.ErrInvalidCommand
			}
			return nil, h.Delete.Handle(ctx, c)
		}},
		{commands.StartProjectCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			c, ok := cmd.(commands.StartProjectCommand)
			if !ok {
				return nil, commands.ErrInvalidCommand
			}
			return h.Lifecycle.HandleStart(ctx, c)
		}},
		{commands.CompleteProjectCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			c, ok := cmd.(commands.CompleteProjectCommand)
			if !ok {
				return nil, commands.ErrInvalidCommand
			}
			return h.Lifecycle.HandleComplete(ctx, c)
		}},
	}

	for _, reg := range registrations {
		if err := b.Register(reg.cmd, reg.handler); err != nil {
			return fmt.Errorf("register %T: %w", reg.cmd, err)
		}
	}
	return nil
}
