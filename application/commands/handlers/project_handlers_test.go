package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"agentdev-backend/application/commands"
	"agentdev-backend/application/services"
	"agentdev-backend/domain/events"
	"agentdev-backend/domain/project"
	pkgerrors "agentdev-backend/pkg/errors"
	"agentdev-backend/tests/fixtures"
	"agentdev-backend/tests/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type handlerDeps struct {
	repo      *mocks.MockProjectRepository
	publisher *mocks.MockEventPublisher
	access    *services.ProjectAccessService
}

func newDeps() *handlerDeps {
	repo := new(mocks.MockProjectRepository)
	return &handlerDeps{
		repo:      repo,
		publisher: new(mocks.MockEventPublisher),
		access:    services.NewProjectAccessService(repo, zap.NewNop()),
	}
}

func eventOfType(eventType string) interface{} {
	return mock.MatchedBy(func(e events.DomainEvent) bool {
		return e.GetEventType() == eventType
	})
}

func TestCreateProjectHandler_Handle(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		deps := newDeps()
		handler := NewCreateProjectHandler(deps.repo, deps.publisher, fixedClock, zap.NewNop())

		cmd := commands.CreateProjectCommand{
			UserID:      "user_123",
			Name:        "Todo App",
			Description: "A simple todo app",
			Requirements: []project.Requirement{
				{Title: "Login"},
			},
		}

		deps.repo.On("Create", mock.Anything, mock.MatchedBy(func(p *project.Project) bool {
			return p.UserID == "user_123" &&
				p.Status == project.StatusDraft &&
				p.ProjectType == project.TypeWebApplication &&
				p.Complexity == project.ComplexityMedium &&
				len(p.Requirements) == 1 &&
				p.Requirements[0].ID != "" &&
				p.Requirements[0].Priority == "medium" &&
				p.Requirements[0].CreatedAt.Equal(fixedNow)
		})).Return(fixtures.NewProjectBuilder().
			WithID("proj_a1b2c3d4e5f6").
			WithUserID("user_123").
			WithName("Todo App").
			Build(), nil)
		deps.publisher.On("Publish", mock.Anything, eventOfType(events.TypeProjectCreated)).Return(nil)

		created, err := handler.Handle(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, "proj_a1b2c3d4e5f6", created.ProjectID)
		assert.Equal(t, "Todo App", created.Name)
		deps.repo.AssertExpectations(t)
		deps.publisher.AssertExpectations(t)
	})

	t.Run("invalid requirement never reaches the store", func(t *testing.T) {
		deps := newDeps()
		handler := NewCreateProjectHandler(deps.repo, deps.publisher, fixedClock, zap.NewNop())

		cmd := commands.CreateProjectCommand{
			UserID:       "user_123",
			Name:         "Todo App",
			Requirements: []project.Requirement{{ID: "req-1"}},
		}

		_, err := handler.Handle(context.Background(), cmd)

		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
		deps.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate id", func(t *testing.T) {
		deps := newDeps()
		handler := NewCreateProjectHandler(deps.repo, deps.publisher, fixedClock, zap.NewNop())

		dup := pkgerrors.NewValidationError("project with this ID already exists").
			WithCode("PROJECT_EXISTS").
			WithCause(project.ErrAlreadyExists)
		deps.repo.On("Create", mock.Anything, mock.Anything).Return(nil, dup)

		_, err := handler.Handle(context.Background(), commands.CreateProjectCommand{
			UserID: "user_123", ProjectID: "proj_taken", Name: "X",
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, project.ErrAlreadyExists)
		deps.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("publish failure does not fail the command", func(t *testing.T) {
		deps := newDeps()
		handler := NewCreateProjectHandler(deps.repo, deps.publisher, fixedClock, zap.NewNop())

		stored := fixtures.NewProjectBuilder().WithUserID("user_123").Build()
		deps.repo.On("Create", mock.Anything, mock.Anything).Return(stored, nil)
		deps.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("bus down"))

		created, err := handler.Handle(context.Background(), commands.CreateProjectCommand{
			UserID: "user_123", Name: "Test Project",
		})

		require.NoError(t, err)
		assert.Equal(t, stored.ProjectID, created.ProjectID)
	})

	t.Run("nil publisher", func(t *testing.T) {
		deps := newDeps()
		handler := NewCreateProjectHandler(deps.repo, nil, fixedClock, zap.NewNop())

		stored := fixtures.NewProjectBuilder().Build()
		deps.repo.On("Create", mock.Anything, mock.Anything).Return(stored, nil)

		_, err := handler.Handle(context.Background(), commands.CreateProjectCommand{
			UserID: stored.UserID, Name: stored.Name,
		})
		require.NoError(t, err)
	})
}

func TestUpdateProjectHandler_Handle(t *testing.T) {
	name := "Renamed"

	t.Run("owner updates", func(t *testing.T) {
		deps := newDeps()
		handler := NewUpdateProjectHandler(deps.repo, deps.access, deps.publisher, zap.NewNop())

		existing := fixtures.NewProjectBuilder().WithUserID("owner").Build()
		updated := fixtures.NewProjectBuilder().WithID(existing.ProjectID).WithUserID("owner").WithName(name).Build()

		deps.repo.On("Get", mock.Anything, existing.ProjectID).Return(existing, nil)
		deps.repo.On("Update", mock.Anything, existing.ProjectID, project.Changes{project.FieldName: name}).Return(updated, nil)
		deps.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.ProjectEvent) bool {
			return e.EventType == events.TypeProjectUpdated && len(e.Fields) == 1 && e.Fields[0] == "name"
		})).Return(nil)

		got, err := handler.Handle(context.Background(), commands.UpdateProjectCommand{
			UserID:    "owner",
			ProjectID: existing.ProjectID,
			Input:     project.UpdateInput{Name: &name},
		})

		require.NoError(t, err)
		assert.Equal(t, name, got.Name)
		deps.repo.AssertExpectations(t)
		deps.publisher.AssertExpectations(t)
	})

	t.Run("team member can read but not write", func(t *testing.T) {
		deps := newDeps()
		handler := NewUpdateProjectHandler(deps.repo, deps.access, deps.publisher, zap.NewNop())

		existing := fixtures.NewProjectBuilder().WithUserID("A").WithTeamMembers("B").Build()
		deps.repo.On("Get", mock.Anything, existing.ProjectID).Return(existing, nil)

		_, err := deps.access.LoadForRead(context.Background(), existing.ProjectID, "B")
		require.NoError(t, err)

		_, err = handler.Handle(context.Background(), commands.UpdateProjectCommand{
			UserID:    "B",
			ProjectID: existing.ProjectID,
			Input:     project.UpdateInput{Name: &name},
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsForbidden(err))

		_, err = deps.access.LoadForRead(context.Background(), existing.ProjectID, "C")
		assert.True(t, pkgerrors.IsForbidden(err))

		deps.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing project", func(t *testing.T) {
		deps := newDeps()
		handler := NewUpdateProjectHandler(deps.repo, deps.access, deps.publisher, zap.NewNop())

		deps.repo.On("Get", mock.Anything, "proj_missing").Return(nil, nil)

		_, err := handler.Handle(context.Background(), commands.UpdateProjectCommand{
			UserID:    "anyone",
			ProjectID: "proj_missing",
			Input:     project.UpdateInput{Name: &name},
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("invalid input", func(t *testing.T) {
		deps := newDeps()
		handler := NewUpdateProjectHandler(deps.repo, deps.access, deps.publisher, zap.NewNop())

		bad := project.Status("archived")
		_, err := handler.Handle(context.Background(), commands.UpdateProjectCommand{
			UserID:    "owner",
			ProjectID: "proj_1",
			Input:     project.UpdateInput{Status: &bad},
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
		deps.repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestDeleteProjectHandler_Handle(t *testing.T) {
	t.Run("owner deletes", func(t *testing.T) {
		deps := newDeps()
		handler := NewDeleteProjectHandler(deps.repo, deps.access, deps.publisher, fixedClock, zap.NewNop())

		existing := fixtures.NewProjectBuilder().WithUserID("owner").Build()
		deps.repo.On("Get", mock.Anything, existing.ProjectID).Return(existing, nil)
		deps.repo.On("Delete", mock.Anything, existing.ProjectID).Return(true, nil)
		deps.publisher.On("Publish", mock.Anything, eventOfType(events.TypeProjectDeleted)).Return(nil)

		err := handler.Handle(context.Background(), commands.DeleteProjectCommand{UserID: "owner", ProjectID: existing.ProjectID})

		require.NoError(t, err)
		deps.repo.AssertExpectations(t)
		deps.publisher.AssertExpectations(t)
	})

	t.Run("deleted concurrently", func(t *testing.T) {
		deps := newDeps()
		handler := NewDeleteProjectHandler(deps.repo, deps.access, deps.publisher, fixedClock, zap.NewNop())

		existing := fixtures.NewProjectBuilder().WithUserID("owner").Build()
		deps.repo.On("Get", mock.Anything, existing.ProjectID).Return(existing, nil)
		deps.repo.On("Delete", mock.Anything, existing.ProjectID).Return(false, nil)

		err := handler.Handle(context.Background(), commands.DeleteProjectCommand{UserID: "owner", ProjectID: existing.ProjectID})

		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
		deps.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("non owner", func(t *testing.T) {
		deps := newDeps()
		handler := NewDeleteProjectHandler(deps.repo, deps.access, deps.publisher, fixedClock, zap.NewNop())

		existing := fixtures.NewProjectBuilder().WithUserID("owner").WithTeamMembers("member").Build()
		deps.repo.On("Get", mock.Anything, existing.ProjectID).Return(existing, nil)

		err := handler.Handle(context.Background(), commands.DeleteProjectCommand{UserID: "member", ProjectID: existing.ProjectID})

		assert.True(t, pkgerrors.IsForbidden(err))
		deps.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestLifecycleHandler(t *testing.T) {
	t.Run("start from any status", func(t *testing.T) {
		deps := newDeps()
		handler := NewLifecycleHandler(deps.repo, deps.access, deps.publisher, fixedClock, zap.NewNop())

		existing := fixtures.NewProjectBuilder().WithUserID("owner").WithStatus(project.StatusCompleted).Build()
		started := fixtures.NewProjectBuilder().WithID(existing.ProjectID).WithUserID("owner").WithStatus(project.StatusActive).Build()

		deps.repo.On("Get", mock.Anything, existing.ProjectID).Return(existing, nil)
		deps.repo.On("Update", mock.Anything, existing.ProjectID, project.StartChanges(fixedNow)).Return(started, nil)
		deps.publisher.On("Publish", mock.Anything, eventOfType(events.TypeProjectStarted)).Return(nil)

		got, err := handler.HandleStart(context.Background(), commands.StartProjectCommand{UserID: "owner", ProjectID: existing.ProjectID})

		require.NoError(t, err)
		assert.Equal(t, project.StatusActive, got.Status)
		deps.repo.AssertExpectations(t)
	})

	t.Run("complete", func(t *testing.T) {
		deps := newDeps()
		handler := NewLifecycleHandler(deps.repo, deps.access, deps.publisher, fixedClock, zap.NewNop())

		existing := fixtures.NewProjectBuilder().WithUserID("owner").Build()
		done := fixtures.NewProjectBuilder().WithID(existing.ProjectID).WithUserID("owner").WithStatus(project.StatusCompleted).Build()
		done.ProgressPercentage = 100

		deps.repo.On("Get", mock.Anything, existing.ProjectID).Return(existing, nil)
		deps.repo.On("Update", mock.Anything, existing.ProjectID, mock.MatchedBy(func(c project.Changes) bool {
			return c[project.FieldStatus] == "completed" && c[project.FieldProgressPercentage] == 100.0
		})).Return(done, nil)
		deps.publisher.On("Publish", mock.Anything, eventOfType(events.TypeProjectCompleted)).Return(nil)

		got, err := handler.HandleComplete(context.Background(), commands.CompleteProjectCommand{UserID: "owner", ProjectID: existing.ProjectID})

		require.NoError(t, err)
		assert.Equal(t, 100.0, got.ProgressPercentage)
		deps.publisher.AssertExpectations(t)
	})

	t.Run("update failure is returned", func(t *testing.T) {
		deps := newDeps()
		handler := NewLifecycleHandler(deps.repo, deps.access, deps.publisher, fixedClock, zap.NewNop())

		existing := fixtures.NewProjectBuilder().WithUserID("owner").Build()
		deps.repo.On("Get", mock.Anything, existing.ProjectID).Return(existing, nil)
		deps.repo.On("Update", mock.Anything, existing.ProjectID, mock.Anything).
			Return(nil, pkgerrors.NewDatabaseError("update_project", errors.New("throttled")))

		_, err := handler.HandleStart(context.Background(), commands.StartProjectCommand{UserID: "owner", ProjectID: existing.ProjectID})

		assert.True(t, pkgerrors.IsDatabase(err))
		deps.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}
