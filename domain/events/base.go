package events

import "time"

// SourceBackend is the EventBridge source of every event this service emits.
const SourceBackend = "agentdev.backend"

// Event types
const (
	TypeProjectCreated   = "project.created"
	TypeProjectUpdated   = "project.updated"
	TypeProjectStarted   = "project.started"
	TypeProjectCompleted = "project.completed"
	TypeProjectDeleted   = "project.deleted"
)

// DomainEvent is something that has already happened to an aggregate.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides the common event fields.
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// ProjectEvent is raised after a successful project mutation.
type ProjectEvent struct {
	BaseEvent
	ProjectID string   `json:"project_id"`
	UserID    string   `json:"user_id"`
	Status    string   `json:"status,omitempty"`
	Fields    []string `json:"fields,omitempty"`
}

func newProjectEvent(eventType, projectID, userID string, at time.Time) ProjectEvent {
	return ProjectEvent{
		BaseEvent: BaseEvent{
			AggregateID: projectID,
			EventType:   eventType,
			Timestamp:   at,
			Version:     1,
		},
		ProjectID: projectID,
		UserID:    userID,
	}
}

// NewProjectCreated is raised once the conditional create succeeded.
func NewProjectCreated(projectID, userID string, at time.Time) ProjectEvent {
	e := newProjectEvent(TypeProjectCreated, projectID, userID, at)
	e.Status = "draft"
	return e
}

// NewProjectUpdated lists the fields that were written.
func NewProjectUpdated(projectID, userID string, fields []string, at time.Time) ProjectEvent {
	e := newProjectEvent(TypeProjectUpdated, projectID, userID, at)
	e.Fields = fields
	return e
}

func NewProjectStarted(projectID, userID string, at time.Time) ProjectEvent {
	e := newProjectEvent(TypeProjectStarted, projectID, userID, at)
	e.Status = "active"
	return e
}

func NewProjectCompleted(projectID, userID string, at time.Time) ProjectEvent {
	e := newProjectEvent(TypeProjectCompleted, projectID, userID, at)
	e.Status = "completed"
	return e
}

func NewProjectDeleted(projectID, userID string, at time.Time) ProjectEvent {
	return newProjectEvent(TypeProjectDeleted, projectID, userID, at)
}
