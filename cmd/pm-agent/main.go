// Package main implements the project-manager agent Lambda. It answers chat
// messages about a project with canned planning and risk responses.
package main

import (
	"context"
	"log"
	"os"

	"agentdev-backend/infrastructure/config"
	"agentdev-backend/infrastructure/di"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	agent := newPMAgent(logger.With(zap.String("agentID", agentID)))

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(agent.Handle)
		return
	}

	// Local run: answer one sample message and print it.
	resp, err := agent.Handle(context.Background(), events.APIGatewayProxyRequest{
		Body: `{"project_data":{"name":"Local Project"},"message":"Create a project plan"}`,
	})
	if err != nil {
		log.Fatalf("Sample invocation failed: %v", err)
	}
	log.Printf("status=%d body=%s", resp.StatusCode, resp.Body)
}
