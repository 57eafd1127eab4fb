package mocks

import (
	"context"

	"agentdev-backend/application/ports"
	"agentdev-backend/domain/events"
	"agentdev-backend/domain/project"

	"github.com/stretchr/testify/mock"
)

// MockProjectRepository is a testify mock of ports.ProjectRepository.
type MockProjectRepository struct {
	mock.Mock
}

var _ ports.ProjectRepository = (*MockProjectRepository)(nil)

func (m *MockProjectRepository) Create(ctx context.Context, p *project.Project) (*project.Project, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockProjectRepository) Get(ctx context.Context, projectID string) (*project.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockProjectRepository) Update(ctx context.Context, projectID string, changes project.Changes) (*project.Project, error) {
	args := m.Called(ctx, projectID, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockProjectRepository) Delete(ctx context.Context, projectID string) (bool, error) {
	args := m.Called(ctx, projectID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProjectRepository) List(ctx context.Context, opts ports.ListOptions) (*ports.Page, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Page), args.Error(1)
}

func (m *MockProjectRepository) Stats(ctx context.Context, userID string) (*ports.Stats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Stats), args.Error(1)
}

// MockEventPublisher is a testify mock of ports.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

var _ ports.EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}
