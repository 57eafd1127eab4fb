package di

import (
	"context"
	"fmt"
	"time"

	"agentdev-backend/application/commands/bus"
	commandhandlers "agentdev-backend/application/commands/handlers"
	"agentdev-backend/application/ports"
	querybus "agentdev-backend/application/queries/bus"
	queryhandlers "agentdev-backend/application/queries/handlers"
	"agentdev-backend/application/services"
	"agentdev-backend/infrastructure/config"
	"agentdev-backend/infrastructure/messaging/eventbridge"
	"agentdev-backend/infrastructure/persistence/dynamodb"
	"agentdev-backend/interfaces/http/rest"
	"agentdev-backend/interfaces/http/rest/handlers"
	"agentdev-backend/pkg/auth"
	pkgerrors "agentdev-backend/pkg/errors"
	"agentdev-backend/pkg/observability"
	"agentdev-backend/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogger creates the process logger. Production gets JSON output,
// everything else the development console encoder.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(
		zap.String("service", cfg.AppName),
		zap.String("environment", cfg.Environment),
	), nil
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(cfg.AppName, cfg.EnableTracing)
}

// ProvideAWSConfig creates AWS configuration with SDK calls traced when
// tracing is on.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config, tracer *observability.Tracer) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	tracer.InstrumentAWS(&awsCfg)
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client. DYNAMODB_ENDPOINT points
// it at a local table.
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("agentdev")
}

// ProvideStoreClient wraps the raw client with metrics and a circuit breaker.
// Breaker rejections are observed as failures too.
func ProvideStoreClient(client *awsdynamodb.Client, collector *observability.Collector, logger *zap.Logger) dynamodb.Client {
	instrumented := dynamodb.NewInstrumentedClient(client, collector)
	return dynamodb.NewBreakerClient(instrumented, dynamodb.DefaultBreakerConfig("dynamodb-projects"), logger)
}

// ProvideProjectRepository creates the project store
func ProvideProjectRepository(client dynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamodb.ProjectRepository {
	return dynamodb.NewProjectRepository(client, cfg.ProjectsTable, cfg.UserProjectsIndex, logger)
}

// ProvideRepository exposes the store through its port
func ProvideRepository(repo *dynamodb.ProjectRepository) ports.ProjectRepository {
	return repo
}

// ProvideHealthChecker exposes the store's table check to /health
func ProvideHealthChecker(repo *dynamodb.ProjectRepository) handlers.HealthChecker {
	return repo
}

// ProvideEventPublisher publishes to EventBridge when EVENT_BUS_NAME is set
// and only logs events otherwise.
func ProvideEventPublisher(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return eventbridge.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideMetrics creates the CloudWatch command metrics. Outside Lambda, or
// with metrics off, nothing is sent.
func ProvideMetrics(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("AgentDev/%s", cfg.Environment)
	if !cfg.EnableMetrics || !cfg.IsLambda {
		return observability.NewMetrics(namespace, nil, logger)
	}
	return observability.NewMetrics(namespace, awscloudwatch.NewFromConfig(awsCfg), logger)
}

// ProvideClock returns the wall clock
func ProvideClock() utils.Clock {
	return utils.SystemClock
}

// ProvideAccessService creates the load-then-authorize helper
func ProvideAccessService(repo ports.ProjectRepository, logger *zap.Logger) *services.ProjectAccessService {
	return services.NewProjectAccessService(repo, logger)
}

// ProvideCommandHandlers creates the project command handlers
func ProvideCommandHandlers(
	repo ports.ProjectRepository,
	access *services.ProjectAccessService,
	publisher ports.EventPublisher,
	clock utils.Clock,
	logger *zap.Logger,
) *commandhandlers.ProjectHandlers {
	return commandhandlers.NewProjectHandlers(repo, access, publisher, clock, logger)
}

// ProvideQueryHandlers creates the project query handlers
func ProvideQueryHandlers(repo ports.ProjectRepository, access *services.ProjectAccessService, logger *zap.Logger) *queryhandlers.ProjectQueryHandlers {
	return queryhandlers.NewProjectQueryHandlers(repo, access, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	projectHandlers *commandhandlers.ProjectHandlers,
	collector *observability.Collector,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(&zapLoggerAdapter{logger}),
		bus.MetricsMiddleware(collector),
		bus.MetricsMiddleware(metrics),
	)
	if err := projectHandlers.Register(commandBus); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	queryHandlers *queryhandlers.ProjectQueryHandlers,
	collector *observability.Collector,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.LoggingMiddleware(&zapLoggerAdapter{logger}),
		querybus.MetricsMiddleware(&queryMetrics{collector}),
	)
	if err := queryHandlers.Register(queryBus); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// ProvideTokenService creates the access token service
func ProvideTokenService(cfg *config.Config) (*auth.TokenService, error) {
	return auth.NewTokenService(cfg.Secret(), cfg.JWTIssuer, time.Duration(cfg.AccessTokenExpireMinutes)*time.Minute)
}

// ProvideRateLimiter keeps counters in DynamoDB under Lambda, where
// instances do not share memory, and in process otherwise.
func ProvideRateLimiter(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) auth.RateLimiter {
	if cfg.IsLambda && cfg.RateLimitTable != "" {
		logger.Info("Using distributed rate limiter", zap.String("table", cfg.RateLimitTable))
		return auth.NewDistributedIPRateLimiter(client, cfg.RateLimitTable, cfg.RateLimitPerMinute)
	}
	return auth.NewKeyedLimiter(cfg.RateLimitPerMinute)
}

// ProvideErrorHandler creates the HTTP error renderer. Development responses
// carry stack traces.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	tokens *auth.TokenService,
	limiter auth.RateLimiter,
	errs *pkgerrors.ErrorHandler,
	collector *observability.Collector,
	tracer *observability.Tracer,
	health handlers.HealthChecker,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(cfg, commandBus, queryBus, tokens, limiter, errs, collector, tracer, health, logger)
}

// queryMetrics feeds query bus timings into the Prometheus collector
type queryMetrics struct {
	collector *observability.Collector
}

func (m *queryMetrics) StartTimer(_, label string) querybus.Timer {
	return promTimer{m.collector.StartQueryTimer(label)}
}

func (m *queryMetrics) Increment(metric, label string) {
	m.collector.CountQuery(label, metric)
}

type promTimer struct {
	timer *prometheus.Timer
}

func (t promTimer) Stop() {
	t.timer.ObserveDuration()
}

// zapLoggerAdapter adapts zap.Logger to the bus Logger interfaces
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Debug(msg string, fields ...interface{}) {
	a.logger.Debug(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) Info(msg string, fields ...interface{}) {
	a.logger.Info(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) Error(msg string, fields ...interface{}) {
	a.logger.Error(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) fieldsToZap(fields ...interface{}) []zap.Field {
	var zapFields []zap.Field
	for i := 0; i+1 < len(fields); i += 2 {
		key, _ := fields[i].(string)
		if err, ok := fields[i+1].(error); ok {
			zapFields = append(zapFields, zap.NamedError(key, err))
			continue
		}
		zapFields = append(zapFields, zap.Any(key, fields[i+1]))
	}
	return zapFields
}
