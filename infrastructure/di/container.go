package di

import (
	"net/http"

	"agentdev-backend/application/commands/bus"
	querybus "agentdev-backend/application/queries/bus"
	"agentdev-backend/infrastructure/config"
	"agentdev-backend/infrastructure/persistence/dynamodb"
	"agentdev-backend/interfaces/http/rest"
	"agentdev-backend/pkg/auth"
	"agentdev-backend/pkg/observability"

	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	DynamoDB   *awsdynamodb.Client
	Repository *dynamodb.ProjectRepository
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Tokens     *auth.TokenService
	Collector  *observability.Collector
	Tracer     *observability.Tracer
	Router     *rest.Router
}

// Handler returns the fully configured HTTP handler.
func (c *Container) Handler() http.Handler {
	return c.Router.Setup()
}

// Shutdown flushes the logger.
func (c *Container) Shutdown() {
	_ = c.Logger.Sync()
}
