package services

import (
	"context"

	"agentdev-backend/application/ports"
	"agentdev-backend/domain/project"
	pkgerrors "agentdev-backend/pkg/errors"

	"go.uber.org/zap"
)

// ProjectAccessService loads a project and applies the access policy to it.
// Absence is always reported before any policy decision.
type ProjectAccessService struct {
	repo   ports.ProjectRepository
	logger *zap.Logger
}

// NewProjectAccessService creates a new access service
func NewProjectAccessService(repo ports.ProjectRepository, logger *zap.Logger) *ProjectAccessService {
	return &ProjectAccessService{repo: repo, logger: logger}
}

// Load returns the project or a NOT_FOUND error.
func (s *ProjectAccessService) Load(ctx context.Context, projectID string) (*project.Project, error) {
	p, err := s.repo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, pkgerrors.NewNotFoundError("project").WithCause(project.ErrNotFound)
	}
	return p, nil
}

// LoadForRead allows the owner and team members.
func (s *ProjectAccessService) LoadForRead(ctx context.Context, projectID, callerID string) (*project.Project, error) {
	p, err := s.Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := project.AuthorizeRead(p, callerID); err != nil {
		s.denied("read", projectID, callerID)
		return nil, err
	}
	return p, nil
}

// LoadForWrite allows only the owner.
func (s *ProjectAccessService) LoadForWrite(ctx context.Context, projectID, callerID string) (*project.Project, error) {
	p, err := s.Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := project.AuthorizeWrite(p, callerID); err != nil {
		s.denied("write", projectID, callerID)
		return nil, err
	}
	return p, nil
}

func (s *ProjectAccessService) denied(access, projectID, callerID string) {
	s.logger.Warn("Project access denied",
		zap.String("access", access),
		zap.String("projectID", projectID),
		zap.String("userID", callerID),
	)
}
