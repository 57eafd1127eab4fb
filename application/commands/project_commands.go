package commands

import (
	"errors"
	"time"

	"agentdev-backend/domain/project"
	pkgerrors "agentdev-backend/pkg/errors"
	"agentdev-backend/pkg/utils"
)

// CreateProjectCommand creates a draft project owned by UserID.
type CreateProjectCommand struct {
	UserID       string                 `json:"user_id" validate:"required"`
	ProjectID    string                 `json:"project_id,omitempty" validate:"omitempty,max=64"`
	Name         string                 `json:"name" validate:"required,min=1,max=100"`
	Description  string                 `json:"description" validate:"max=1000"`
	ProjectType  string                 `json:"project_type,omitempty" validate:"omitempty,oneof=web_application mobile_app api_service data_pipeline infrastructure other"`
	Complexity   string                 `json:"complexity,omitempty" validate:"omitempty,oneof=low medium high enterprise"`
	Requirements []project.Requirement  `json:"requirements"`
	Metadata     project.Metadata       `json:"metadata"`
	Deadline     *time.Time             `json:"deadline,omitempty"`
	TeamMembers  []string               `json:"team_members" validate:"dive,required"`
	Settings     map[string]interface{} `json:"settings"`
}

func (c CreateProjectCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// Input converts the command to the domain create input.
func (c CreateProjectCommand) Input() project.CreateInput {
	return project.CreateInput{
		ProjectID:    c.ProjectID,
		Name:         c.Name,
		Description:  c.Description,
		ProjectType:  project.Type(c.ProjectType),
		Complexity:   project.Complexity(c.Complexity),
		Requirements: c.Requirements,
		Metadata:     c.Metadata,
		Deadline:     c.Deadline,
		TeamMembers:  c.TeamMembers,
		Settings:     c.Settings,
	}
}

// UpdateProjectCommand applies a partial update. Only the owner may send it.
type UpdateProjectCommand struct {
	UserID    string `validate:"required"`
	ProjectID string `validate:"required"`
	Input     project.UpdateInput
}

func (c UpdateProjectCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	changes, err := c.Input.Changes()
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return pkgerrors.NewValidationError("no fields to update").
			WithCode("EMPTY_UPDATE").
			WithCause(project.ErrEmptyUpdate)
	}
	return nil
}

// DeleteProjectCommand removes a project.
type DeleteProjectCommand struct {
	UserID    string `validate:"required"`
	ProjectID string `validate:"required"`
}

func (c DeleteProjectCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// StartProjectCommand moves a project to active from any status.
type StartProjectCommand struct {
	UserID    string `validate:"required"`
	ProjectID string `validate:"required"`
}

func (c StartProjectCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// CompleteProjectCommand moves a project to completed from any status.
type CompleteProjectCommand struct {
	UserID    string `validate:"required"`
	ProjectID string `validate:"required"`
}

func (c CompleteProjectCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ErrInvalidCommand is returned when a handler receives the wrong command type.
var ErrInvalidCommand = errors.New("invalid command type")
