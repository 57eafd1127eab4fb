package di

import (
	"errors"
	"testing"

	"agentdev-backend/infrastructure/config"
	"agentdev-backend/infrastructure/messaging/eventbridge"
	"agentdev-backend/pkg/auth"
	"agentdev-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestProvideLogger(t *testing.T) {
	cfg := config.Defaults()
	cfg.LogLevel = "warn"
	logger, err := ProvideLogger(cfg)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	cfg.LogLevel = "loud"
	_, err = ProvideLogger(cfg)
	assert.Error(t, err)
}

func TestProvideRateLimiter(t *testing.T) {
	cfg := config.Defaults()
	_, ok := ProvideRateLimiter(nil, cfg, zap.NewNop()).(*auth.KeyedLimiter)
	assert.True(t, ok)

	cfg.IsLambda = true
	cfg.RateLimitTable = "agentdev-rate-limits"
	limiter, ok := ProvideRateLimiter(nil, cfg, zap.NewNop()).(*auth.DistributedRateLimiter)
	require.True(t, ok)
	assert.Equal(t, cfg.RateLimitPerMinute, limiter.Limit())
}

func TestProvideEventPublisher(t *testing.T) {
	cfg := config.Defaults()
	_, ok := ProvideEventPublisher(aws.Config{}, cfg, zap.NewNop()).(*eventbridge.LogPublisher)
	assert.True(t, ok)

	cfg.EventBusName = "agentdev-events"
	_, ok = ProvideEventPublisher(aws.Config{Region: "us-east-1"}, cfg, zap.NewNop()).(*eventbridge.Publisher)
	assert.True(t, ok)
}

func TestProvideTokenService(t *testing.T) {
	cfg := config.Defaults()
	tokens, err := ProvideTokenService(cfg)
	require.NoError(t, err)
	assert.Equal(t, 30*60.0, tokens.TTL().Seconds())
}

func TestQueryMetrics(t *testing.T) {
	c := observability.NewCollector("agentdev")
	m := &queryMetrics{c}

	timer := m.StartTimer("query_duration", "ListProjectsQuery")
	m.Increment("query_count", "ListProjectsQuery")
	timer.Stop()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Queries.WithLabelValues("ListProjectsQuery", "query_count")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.QueryDuration))
}

func TestZapLoggerAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	a := &zapLoggerAdapter{zap.New(core)}

	a.Error("Command failed", "type", "CreateProjectCommand", "error", errors.New("boom"), "dangling")

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "CreateProjectCommand", ctx["type"])
	assert.Equal(t, "boom", ctx["error"])
	assert.Len(t, ctx, 2)
}
