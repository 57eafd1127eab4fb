package project

import (
	"fmt"
	"time"

	pkgerrors "agentdev-backend/pkg/errors"
)

// Status is the lifecycle state of a project. Transitions are caller driven.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Type is the kind of software a project builds.
type Type string

const (
	TypeWebApplication Type = "web_application"
	TypeMobileApp      Type = "mobile_app"
	TypeAPIService     Type = "api_service"
	TypeDataPipeline   Type = "data_pipeline"
	TypeInfrastructure Type = "infrastructure"
	TypeOther          Type = "other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeWebApplication, TypeMobileApp, TypeAPIService, TypeDataPipeline, TypeInfrastructure, TypeOther:
		return true
	}
	return false
}

// Complexity is the estimated size of a project.
type Complexity string

const (
	ComplexityLow        Complexity = "low"
	ComplexityMedium     Complexity = "medium"
	ComplexityHigh       Complexity = "high"
	ComplexityEnterprise Complexity = "enterprise"
)

func (c Complexity) Valid() bool {
	switch c {
	case ComplexityLow, ComplexityMedium, ComplexityHigh, ComplexityEnterprise:
		return true
	}
	return false
}

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 1000
	DefaultBranch        = "main"
	IDPrefix             = "proj_"
)

// Requirement is one entry of a project's requirement list.
type Requirement struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Priority           string    `json:"priority"`
	Category           string    `json:"category"`
	AcceptanceCriteria []string  `json:"acceptance_criteria"`
	CreatedAt          time.Time `json:"created_at"`
}

// Metadata is stored as a single nested value.
type Metadata struct {
	Tags            []string `json:"tags"`
	TechStack       []string `json:"tech_stack"`
	TargetAudience  string   `json:"target_audience"`
	BusinessGoals   []string `json:"business_goals"`
	Constraints     []string `json:"constraints"`
	SuccessCriteria []string `json:"success_criteria"`
}

// Project is the only entity with real structure in the platform.
type Project struct {
	ProjectID   string     `json:"project_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	UserID      string     `json:"user_id"`
	Status      Status     `json:"status"`
	ProjectType Type       `json:"project_type"`
	Complexity  Complexity `json:"complexity"`

	Requirements []Requirement `json:"requirements"`
	Metadata     Metadata      `json:"metadata"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`

	ProgressPercentage float64 `json:"progress_percentage"`
	TotalTasks         int     `json:"total_tasks"`
	CompletedTasks     int     `json:"completed_tasks"`

	AssignedAgents []string `json:"assigned_agents"`
	ActiveAgents   []string `json:"active_agents"`
	TeamMembers    []string `json:"team_members"`
	Channels       []string `json:"channels"`

	Settings map[string]interface{} `json:"settings"`

	RepositoryURL    *string `json:"repository_url,omitempty"`
	RepositoryBranch string  `json:"repository_branch"`
}

// CreateInput holds the caller supplied fields of a new project.
type CreateInput struct {
	ProjectID    string
	Name         string
	Description  string
	ProjectType  Type
	Complexity   Complexity
	Requirements []Requirement
	Metadata     Metadata
	Deadline     *time.Time
	TeamMembers  []string
	Settings     map[string]interface{}
}

// New builds a draft project owned by ownerID with defaults applied.
// ProjectID and timestamps are left to the store unless given.
func New(ownerID string, in CreateInput) *Project {
	p := &Project{
		ProjectID:        in.ProjectID,
		Name:             in.Name,
		Description:      in.Description,
		UserID:           ownerID,
		Status:           StatusDraft,
		ProjectType:      in.ProjectType,
		Complexity:       in.Complexity,
		Requirements:     in.Requirements,
		Metadata:         in.Metadata,
		Deadline:         in.Deadline,
		TeamMembers:      in.TeamMembers,
		Settings:         in.Settings,
		RepositoryBranch: DefaultBranch,
	}
	if p.ProjectType == "" {
		p.ProjectType = TypeWebApplication
	}
	if p.Complexity == "" {
		p.Complexity = ComplexityMedium
	}
	for i := range p.Requirements {
		p.Requirements[i] = p.Requirements[i].withDefaults()
	}
	p.normalize()
	return p
}

func (r Requirement) withDefaults() Requirement {
	if r.Priority == "" {
		r.Priority = "medium"
	}
	if r.Category == "" {
		r.Category = "functional"
	}
	if r.AcceptanceCriteria == nil {
		r.AcceptanceCriteria = []string{}
	}
	return r
}

// normalize replaces nil collections with empty ones so they are stored as
// "[]" and "{}" rather than "null".
func (p *Project) normalize() {
	if p.Requirements == nil {
		p.Requirements = []Requirement{}
	}
	if p.AssignedAgents == nil {
		p.AssignedAgents = []string{}
	}
	if p.ActiveAgents == nil {
		p.ActiveAgents = []string{}
	}
	if p.TeamMembers == nil {
		p.TeamMembers = []string{}
	}
	if p.Channels == nil {
		p.Channels = []string{}
	}
	if p.Settings == nil {
		p.Settings = map[string]interface{}{}
	}
	m := &p.Metadata
	for _, s := range []*[]string{&m.Tags, &m.TechStack, &m.BusinessGoals, &m.Constraints, &m.SuccessCriteria} {
		if *s == nil {
			*s = []string{}
		}
	}
}

// Validate checks field level constraints. completed_tasks may exceed
// total_tasks; both are caller supplied counters.
func (p *Project) Validate() error {
	switch {
	case p.UserID == "":
		return invalid("user_id is required")
	case len([]rune(p.Name)) < 1 || len([]rune(p.Name)) > MaxNameLength:
		return invalid(fmt.Sprintf("name must be between 1 and %d characters", MaxNameLength))
	case len([]rune(p.Description)) > MaxDescriptionLength:
		return invalid(fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength))
	case !p.Status.Valid():
		return invalid(fmt.Sprintf("unknown status %q", p.Status))
	case !p.ProjectType.Valid():
		return invalid(fmt.Sprintf("unknown project_type %q", p.ProjectType))
	case !p.Complexity.Valid():
		return invalid(fmt.Sprintf("unknown complexity %q", p.Complexity))
	case p.ProgressPercentage < 0 || p.ProgressPercentage > 100:
		return invalid("progress_percentage must be between 0 and 100")
	case p.TotalTasks < 0 || p.CompletedTasks < 0:
		return invalid("task counts must not be negative")
	}
	for _, r := range p.Requirements {
		if r.ID == "" || r.Title == "" {
			return invalid("requirements need an id and a title")
		}
	}
	return nil
}

func invalid(msg string) error {
	return pkgerrors.NewValidationError(msg).WithCode("PROJECT_INVALID").WithCause(ErrInvalid)
}
