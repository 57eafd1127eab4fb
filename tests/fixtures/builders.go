package fixtures

import (
	"strings"
	"time"

	"agentdev-backend/domain/project"

	"github.com/google/uuid"
)

// ProjectBuilder helps create test projects with default values.
type ProjectBuilder struct {
	p *project.Project
}

func NewProjectBuilder() *ProjectBuilder {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := project.New("test-user-123", project.CreateInput{
		ProjectID:   project.IDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Name:        "Test Project",
		Description: "Test description",
	})
	p.CreatedAt = now
	p.UpdatedAt = now
	return &ProjectBuilder{p: p}
}

func (b *ProjectBuilder) WithID(id string) *ProjectBuilder {
	b.p.ProjectID = id
	return b
}

func (b *ProjectBuilder) WithUserID(userID string) *ProjectBuilder {
	b.p.UserID = userID
	return b
}

func (b *ProjectBuilder) WithName(name string) *ProjectBuilder {
	b.p.Name = name
	return b
}

func (b *ProjectBuilder) WithStatus(status project.Status) *ProjectBuilder {
	b.p.Status = status
	return b
}

func (b *ProjectBuilder) WithTasks(total, completed int) *ProjectBuilder {
	b.p.TotalTasks = total
	b.p.CompletedTasks = completed
	return b
}

func (b *ProjectBuilder) WithTeamMembers(members ...string) *ProjectBuilder {
	b.p.TeamMembers = members
	return b
}

func (b *ProjectBuilder) WithCreatedAt(t time.Time) *ProjectBuilder {
	b.p.CreatedAt = t
	b.p.UpdatedAt = t
	return b
}

// Build returns the project. Each call returns a fresh copy.
func (b *ProjectBuilder) Build() *project.Project {
	cp := *b.p
	cp.TeamMembers = append([]string{}, b.p.TeamMembers...)
	return &cp
}
