package handlers

import (
	"net/http"
	"strings"
	"time"

	"agentdev-backend/pkg/common"
	pkgerrors "agentdev-backend/pkg/errors"
	"agentdev-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// The agent, message and artifact endpoints serve static data. Nothing is
// persisted; created entities are echoed back with a generated id.

const defaultProjectID = "proj_001"

// Agent is an AI agent attached to a project
type Agent struct {
	AgentID      string   `json:"agent_id"`
	Name         string   `json:"name"`
	AgentType    string   `json:"agent_type"`
	Status       string   `json:"status"`
	ProjectID    *string  `json:"project_id"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

// CreateAgentRequest is the body of POST /agents
type CreateAgentRequest struct {
	Name        string  `json:"name" validate:"required"`
	AgentType   string  `json:"agent_type" validate:"required"`
	ProjectID   *string `json:"project_id,omitempty"`
	Description string  `json:"description"`
}

// Channel is a message channel
type Channel struct {
	ChannelID    string    `json:"channel_id"`
	Name         string    `json:"name"`
	ProjectID    string    `json:"project_id"`
	ChannelType  string    `json:"channel_type"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// Message is one message in a channel
type Message struct {
	MessageID       string    `json:"message_id"`
	ChannelID       string    `json:"channel_id"`
	SenderID        string    `json:"sender_id"`
	SenderName      string    `json:"sender_name"`
	Content         string    `json:"content"`
	MessageType     string    `json:"message_type"`
	Timestamp       time.Time `json:"timestamp"`
	ParentMessageID *string   `json:"parent_message_id"`
	Attachments     []string  `json:"attachments"`
}

// CreateMessageRequest is the body of POST /messages
type CreateMessageRequest struct {
	ChannelID       string   `json:"channel_id" validate:"required"`
	Content         string   `json:"content" validate:"required"`
	MessageType     string   `json:"message_type"`
	ParentMessageID *string  `json:"parent_message_id,omitempty"`
	Attachments     []string `json:"attachments"`
}

// Artifact is a file produced for a project
type Artifact struct {
	ArtifactID   string    `json:"artifact_id"`
	Name         string    `json:"name"`
	ArtifactType string    `json:"artifact_type"`
	ProjectID    string    `json:"project_id"`
	FilePath     string    `json:"file_path"`
	FileSize     int64     `json:"file_size"`
	ContentType  string    `json:"content_type"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      string    `json:"version"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
}

// CreateArtifactRequest is the body of POST /artifacts
type CreateArtifactRequest struct {
	Name         string   `json:"name" validate:"required"`
	ArtifactType string   `json:"artifact_type" validate:"required"`
	ProjectID    string   `json:"project_id" validate:"required"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
}

// CollaboratorHandler serves the mock agent, message and artifact endpoints
type CollaboratorHandler struct {
	errors *pkgerrors.ErrorHandler
	clock  utils.Clock
	logger *zap.Logger
}

// NewCollaboratorHandler creates a collaborator handler
func NewCollaboratorHandler(errs *pkgerrors.ErrorHandler, clock utils.Clock, logger *zap.Logger) *CollaboratorHandler {
	if clock == nil {
		clock = utils.SystemClock
	}
	return &CollaboratorHandler{errors: errs, clock: clock, logger: logger}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ListAgents handles GET /agents
func (h *CollaboratorHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r, h.errors); !ok {
		return
	}
	projectID := optional(r.URL.Query().Get("project_id"))

	common.RespondJSON(w, http.StatusOK, []Agent{
		{
			AgentID:      "agent_pm_001",
			Name:         "Project Manager Agent",
			AgentType:    "pm",
			Status:       "active",
			ProjectID:    projectID,
			Description:  "AI-powered project management agent",
			Capabilities: []string{"project_planning", "task_management", "risk_assessment"},
		},
		{
			AgentID:      "agent_arch_001",
			Name:         "Software Architect Agent",
			AgentType:    "architect",
			Status:       "active",
			ProjectID:    projectID,
			Description:  "AI-powered software architecture agent",
			Capabilities: []string{"system_design", "technology_selection", "architecture_review"},
		},
		{
			AgentID:      "agent_sec_001",
			Name:         "Security Agent",
			AgentType:    "security",
			Status:       "active",
			ProjectID:    projectID,
			Description:  "AI-powered security analysis agent",
			Capabilities: []string{"security_review", "vulnerability_assessment", "compliance_check"},
		},
	})
}

// CreateAgent handles POST /agents
func (h *CollaboratorHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r, h.errors); !ok {
		return
	}
	var req CreateAgentRequest
	if !h.decode(w, r, &req) {
		return
	}

	agent := Agent{
		AgentID:      "agent_" + req.AgentType + "_" + shortID(),
		Name:         req.Name,
		AgentType:    req.AgentType,
		Status:       "active",
		ProjectID:    req.ProjectID,
		Description:  req.Description,
		Capabilities: []string{},
	}
	h.logger.Info("Agent created", zap.String("agentID", agent.AgentID), zap.String("agentType", agent.AgentType))
	common.RespondJSON(w, http.StatusOK, agent)
}

// GetAgent handles GET /agents/{agentID}
func (h *CollaboratorHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r, h.errors); !ok {
		return
	}
	common.RespondJSON(w, http.StatusOK, Agent{
		AgentID:      chi.URLParam(r, "agentID"),
		Name:         "Test Agent",
		AgentType:    "pm",
		Status:       "active",
		Description:  "Test agent description",
		Capabilities: []string{},
	})
}

// ListChannels handles GET /messages/channels
func (h *CollaboratorHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r, h.errors); !ok {
		return
	}
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		projectID = defaultProjectID
	}
	now := h.clock()

	common.RespondJSON(w, http.StatusOK, []Channel{
		{
			ChannelID:    "channel_001",
			Name:         "General Discussion",
			ProjectID:    projectID,
			ChannelType:  "general",
			Participants: []string{"user_123", "agent_pm_001"},
			CreatedAt:    now,
		},
		{
			ChannelID:    "channel_002",
			Name:         "Agent Collaboration",
			ProjectID:    projectID,
			ChannelType:  "agent",
			Participants: []string{"agent_pm_001", "agent_arch_001", "agent_sec_001"},
			CreatedAt:    now,
		},
	})
}

// ListMessages handles GET /messages/{channelID}
func (h *CollaboratorHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r, h.errors); !ok {
		return
	}
	channelID := chi.URLParam(r, "channelID")
	now := h.clock()

	common.RespondJSON(w, http.StatusOK, []Message{
		{
			MessageID:   "msg_001",
			ChannelID:   channelID,
			SenderID:    "user_123",
			SenderName:  "Admin User",
			Content:     "Hello, let's start the project planning.",
			MessageType: "text",
			Timestamp:   now,
			Attachments: []string{},
		},
		{
			MessageID:   "msg_002",
			ChannelID:   channelID,
			SenderID:    "agent_pm_001",
			SenderName:  "Project Manager Agent",
			Content:     "I'll analyze the requirements and create a project plan. What are the key objectives?",
			MessageType: "text",
			Timestamp:   now,
			Attachments: []string{},
		},
	})
}

// SendMessage handles POST /messages
func (h *CollaboratorHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.errors)
	if !ok {
		return
	}
	var req CreateMessageRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.MessageType == "" {
		req.MessageType = "text"
	}
	if req.Attachments == nil {
		req.Attachments = []string{}
	}

	msg := Message{
		MessageID:       "msg_" + shortID(),
		ChannelID:       req.ChannelID,
		SenderID:        user.UserID,
		SenderName:      user.Name,
		Content:         req.Content,
		MessageType:     req.MessageType,
		Timestamp:       h.clock(),
		ParentMessageID: req.ParentMessageID,
		Attachments:     req.Attachments,
	}
	h.logger.Info("Message sent",
		zap.String("messageID", msg.MessageID),
		zap.String("channelID", msg.ChannelID),
		zap.String("senderID", msg.SenderID),
	)
	common.RespondJSON(w, http.StatusOK, msg)
}

// ListArtifacts handles GET /artifacts
func (h *CollaboratorHandler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.errors)
	if !ok {
		return
	}
	q := r.URL.Query()
	projectID := q.Get("project_id")
	if projectID == "" {
		projectID = defaultProjectID
	}
	now := h.clock()

	all := []Artifact{
		{
			ArtifactID:   "artifact_001",
			Name:         "Requirements Document",
			ArtifactType: "document",
			ProjectID:    projectID,
			FilePath:     "s3://bucket/requirements.pdf",
			FileSize:     1024000,
			ContentType:  "application/pdf",
			CreatedBy:    user.UserID,
			CreatedAt:    now,
			UpdatedAt:    now,
			Version:      "1.0",
			Description:  "Project requirements specification",
			Tags:         []string{"requirements", "specification"},
		},
		{
			ArtifactID:   "artifact_002",
			Name:         "System Architecture",
			ArtifactType: "diagram",
			ProjectID:    projectID,
			FilePath:     "s3://bucket/architecture.png",
			FileSize:     512000,
			ContentType:  "image/png",
			CreatedBy:    "agent_arch_001",
			CreatedAt:    now,
			UpdatedAt:    now,
			Version:      "1.0",
			Description:  "System architecture diagram",
			Tags:         []string{"architecture", "design"},
		},
	}

	artifactType := q.Get("artifact_type")
	if artifactType == "" {
		common.RespondJSON(w, http.StatusOK, all)
		return
	}
	filtered := make([]Artifact, 0, len(all))
	for _, a := range all {
		if a.ArtifactType == artifactType {
			filtered = append(filtered, a)
		}
	}
	common.RespondJSON(w, http.StatusOK, filtered)
}

// GetArtifact handles GET /artifacts/{artifactID}
func (h *CollaboratorHandler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.errors)
	if !ok {
		return
	}
	now := h.clock()
	common.RespondJSON(w, http.StatusOK, Artifact{
		ArtifactID:   chi.URLParam(r, "artifactID"),
		Name:         "Test Artifact",
		ArtifactType: "document",
		ProjectID:    defaultProjectID,
		FilePath:     "s3://bucket/test.pdf",
		FileSize:     1024,
		ContentType:  "application/pdf",
		CreatedBy:    user.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      "1.0",
		Description:  "Test artifact",
		Tags:         []string{},
	})
}

// CreateArtifact handles POST /artifacts
func (h *CollaboratorHandler) CreateArtifact(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.errors)
	if !ok {
		return
	}
	var req CreateArtifactRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}
	now := h.clock()

	artifact := Artifact{
		ArtifactID:   "artifact_" + shortID(),
		Name:         req.Name,
		ArtifactType: req.ArtifactType,
		ProjectID:    req.ProjectID,
		FilePath:     "s3://bucket/" + strings.ReplaceAll(strings.ToLower(req.Name), " ", "_") + ".pdf",
		FileSize:     1024,
		ContentType:  "application/pdf",
		CreatedBy:    user.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      "1.0",
		Description:  req.Description,
		Tags:         req.Tags,
	}
	h.logger.Info("Artifact created", zap.String("artifactID", artifact.ArtifactID), zap.String("name", artifact.Name))
	common.RespondJSON(w, http.StatusOK, artifact)
}

func (h *CollaboratorHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.ParseJSONBody(w, r, v, common.DefaultMaxBodyBytes); err != nil {
		h.errors.Handle(w, r, err)
		return false
	}
	if err := utils.ValidateStruct(v); err != nil {
		h.errors.Handle(w, r, err)
		return false
	}
	return true
}
