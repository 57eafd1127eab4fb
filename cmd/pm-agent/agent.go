package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"agentdev-backend/pkg/utils"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	agentID   = "pm_agent_001"
	agentType = "pm"
)

// Invocation is the request body sent to the agent.
type Invocation struct {
	ProjectData map[string]interface{} `json:"project_data"`
	Message     string                 `json:"message"`
	SessionID   string                 `json:"session_id"`
}

// Envelope wraps every successful answer.
type Envelope struct {
	AgentID   string   `json:"agent_id"`
	AgentType string   `json:"agent_type"`
	SessionID string   `json:"session_id"`
	Response  Response `json:"response"`
	Timestamp string   `json:"timestamp"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type pmAgent struct {
	logger     *zap.Logger
	clock      utils.Clock
	newSession func() string
}

func newPMAgent(logger *zap.Logger) *pmAgent {
	return &pmAgent{
		logger:     logger,
		clock:      utils.SystemClock,
		newSession: uuid.NewString,
	}
}

// Handle answers one API Gateway request. Failures are reported as a 500
// response, never as a Lambda error.
func (a *pmAgent) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	in, err := decodeInvocation(req)
	if err != nil {
		a.logger.Error("Failed to decode agent request",
			zap.Error(err),
			zap.String("requestID", req.RequestContext.RequestID),
		)
		return a.failure(err), nil
	}

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = a.newSession()
	}

	intent, resp := respond(in.ProjectData, in.Message)
	a.logger.Info("PM agent invoked",
		zap.String("sessionID", sessionID),
		zap.String("intent", string(intent)),
		zap.String("requestID", req.RequestContext.RequestID),
	)

	body, err := json.Marshal(Envelope{
		AgentID:   agentID,
		AgentType: agentType,
		SessionID: sessionID,
		Response:  resp,
		Timestamp: a.clock().UTC().Format(time.RFC3339),
	})
	if err != nil {
		a.logger.Error("Failed to encode agent response", zap.Error(err))
		return a.failure(err), nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": "POST, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type, Authorization",
		},
		Body: string(body),
	}, nil
}

func (a *pmAgent) failure(err error) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(errorBody{Error: "Internal server error", Message: err.Error()})
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusInternalServerError,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(body),
	}
}

// decodeInvocation reads the body, which may be base64 encoded. An empty
// body is an empty invocation.
func decodeInvocation(req events.APIGatewayProxyRequest) (Invocation, error) {
	var in Invocation
	raw := req.Body
	if req.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return in, fmt.Errorf("decode base64 body: %w", err)
		}
		raw = string(b)
	}
	if strings.TrimSpace(raw) == "" {
		return in, nil
	}
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return in, fmt.Errorf("invalid request body: %w", err)
	}
	return in, nil
}
