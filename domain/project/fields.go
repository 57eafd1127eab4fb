package project

import (
	"encoding/json"
	"fmt"
	"time"
)

// Field is the stored attribute name of a project property.
type Field string

const (
	FieldProjectID          Field = "project_id"
	FieldName               Field = "name"
	FieldDescription        Field = "description"
	FieldUserID             Field = "user_id"
	FieldStatus             Field = "status"
	FieldProjectType        Field = "project_type"
	FieldComplexity         Field = "complexity"
	FieldRequirements       Field = "requirements"
	FieldMetadata           Field = "metadata"
	FieldCreatedAt          Field = "created_at"
	FieldUpdatedAt          Field = "updated_at"
	FieldStartedAt          Field = "started_at"
	FieldCompletedAt        Field = "completed_at"
	FieldDeadline           Field = "deadline"
	FieldProgressPercentage Field = "progress_percentage"
	FieldTotalTasks         Field = "total_tasks"
	FieldCompletedTasks     Field = "completed_tasks"
	FieldAssignedAgents     Field = "assigned_agents"
	FieldActiveAgents       Field = "active_agents"
	FieldTeamMembers        Field = "team_members"
	FieldChannels           Field = "channels"
	FieldSettings           Field = "settings"
	FieldRepositoryURL      Field = "repository_url"
	FieldRepositoryBranch   Field = "repository_branch"
)

// Immutable reports whether f is fixed once a project has been created.
func (f Field) Immutable() bool {
	return f == FieldProjectID || f == FieldUserID || f == FieldCreatedAt
}

// Changes is a partial update keyed by field.
type Changes map[Field]interface{}

// Check rejects empty change sets and writes to immutable fields.
func (c Changes) Check() error {
	if len(c) == 0 {
		return ErrEmptyUpdate
	}
	for f := range c {
		if f.Immutable() {
			return fmt.Errorf("%w: %s", ErrImmutableField, f)
		}
	}
	return nil
}

// ToRecord flattens p into the record mapping consumed by the codec.
// Optional timestamps and repository_url are present only when set.
func (p *Project) ToRecord() map[string]interface{} {
	p.normalize()
	rec := map[string]interface{}{
		string(FieldProjectID):          p.ProjectID,
		string(FieldName):               p.Name,
		string(FieldDescription):        p.Description,
		string(FieldUserID):             p.UserID,
		string(FieldStatus):             string(p.Status),
		string(FieldProjectType):        string(p.ProjectType),
		string(FieldComplexity):         string(p.Complexity),
		string(FieldRequirements):       p.Requirements,
		string(FieldMetadata):           p.Metadata,
		string(FieldCreatedAt):          p.CreatedAt,
		string(FieldUpdatedAt):          p.UpdatedAt,
		string(FieldProgressPercentage): p.ProgressPercentage,
		string(FieldTotalTasks):         p.TotalTasks,
		string(FieldCompletedTasks):     p.CompletedTasks,
		string(FieldAssignedAgents):     p.AssignedAgents,
		string(FieldActiveAgents):       p.ActiveAgents,
		string(FieldTeamMembers):        p.TeamMembers,
		string(FieldChannels):           p.Channels,
		string(FieldSettings):           p.Settings,
		string(FieldRepositoryBranch):   p.RepositoryBranch,
	}
	if p.StartedAt != nil {
		rec[string(FieldStartedAt)] = *p.StartedAt
	}
	if p.CompletedAt != nil {
		rec[string(FieldCompletedAt)] = *p.CompletedAt
	}
	if p.Deadline != nil {
		rec[string(FieldDeadline)] = *p.Deadline
	}
	if p.RepositoryURL != nil {
		rec[string(FieldRepositoryURL)] = *p.RepositoryURL
	}
	return rec
}

// FromRecord rebuilds a project from a decoded record. Fields the codec could
// not parse back (raw timestamp or JSON strings) make the record undecodable.
func FromRecord(rec map[string]interface{}) (*Project, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var p Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode project %v: %w", rec[string(FieldProjectID)], err)
	}
	p.normalize()
	return &p, nil
}

// UpdateInput is a caller supplied partial update. Nil pointers are unset.
type UpdateInput struct {
	Name               *string
	Description        *string
	Status             *Status
	ProjectType        *Type
	Complexity         *Complexity
	Requirements       *[]Requirement
	Metadata           *Metadata
	Deadline           *time.Time
	TeamMembers        *[]string
	Settings           *map[string]interface{}
	ProgressPercentage *float64
}

// Changes validates the set fields and converts them to a change set.
func (in UpdateInput) Changes() (Changes, error) {
	c := Changes{}
	if in.Name != nil {
		if n := len([]rune(*in.Name)); n < 1 || n > MaxNameLength {
			return nil, invalid(fmt.Sprintf("name must be between 1 and %d characters", MaxNameLength))
		}
		c[FieldName] = *in.Name
	}
	if in.Description != nil {
		if len([]rune(*in.Description)) > MaxDescriptionLength {
			return nil, invalid(fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength))
		}
		c[FieldDescription] = *in.Description
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, invalid(fmt.Sprintf("unknown status %q", *in.Status))
		}
		c[FieldStatus] = string(*in.Status)
	}
	if in.ProjectType != nil {
		if !in.ProjectType.Valid() {
			return nil, invalid(fmt.Sprintf("unknown project_type %q", *in.ProjectType))
		}
		c[FieldProjectType] = string(*in.ProjectType)
	}
	if in.Complexity != nil {
		if !in.Complexity.Valid() {
			return nil, invalid(fmt.Sprintf("unknown complexity %q", *in.Complexity))
		}
		c[FieldComplexity] = string(*in.Complexity)
	}
	if in.Requirements != nil {
		reqs := make([]Requirement, 0, len(*in.Requirements))
		for _, r := range *in.Requirements {
			if r.ID == "" || r.Title == "" {
				return nil, invalid("requirements need an id and a title")
			}
			reqs = append(reqs, r.withDefaults())
		}
		c[FieldRequirements] = reqs
	}
	if in.Metadata != nil {
		md := Project{Metadata: *in.Metadata}
		md.normalize()
		c[FieldMetadata] = md.Metadata
	}
	if in.Deadline != nil {
		c[FieldDeadline] = *in.Deadline
	}
	if in.TeamMembers != nil {
		members := *in.TeamMembers
		if members == nil {
			members = []string{}
		}
		c[FieldTeamMembers] = members
	}
	if in.Settings != nil {
		settings := *in.Settings
		if settings == nil {
			settings = map[string]interface{}{}
		}
		c[FieldSettings] = settings
	}
	if in.ProgressPercentage != nil {
		if v := *in.ProgressPercentage; v < 0 || v > 100 {
			return nil, invalid("progress_percentage must be between 0 and 100")
		}
		c[FieldProgressPercentage] = *in.ProgressPercentage
	}
	return c, nil
}
