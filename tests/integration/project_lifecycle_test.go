package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"agentdev-backend/application/commands/bus"
	commandhandlers "agentdev-backend/application/commands/handlers"
	"agentdev-backend/application/ports"
	"agentdev-backend/application/queries"
	querybus "agentdev-backend/application/queries/bus"
	queryhandlers "agentdev-backend/application/queries/handlers"
	"agentdev-backend/application/services"
	"agentdev-backend/domain/events"
	"agentdev-backend/domain/project"
	"agentdev-backend/infrastructure/config"
	"agentdev-backend/infrastructure/messaging/eventbridge"
	"agentdev-backend/infrastructure/persistence/dynamodb"
	"agentdev-backend/interfaces/http/rest"
	"agentdev-backend/interfaces/http/rest/handlers"
	"agentdev-backend/pkg/auth"
	pkgerrors "agentdev-backend/pkg/errors"
	"agentdev-backend/pkg/observability"
	"agentdev-backend/pkg/utils"
	"agentdev-backend/tests/mocks"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingBus struct {
	mu      sync.Mutex
	entries []string
}

func (b *recordingBus) PutEvents(_ context.Context, in *awseventbridge.PutEventsInput, _ ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range in.Entries {
		b.entries = append(b.entries, aws.ToString(e.DetailType))
	}
	return &awseventbridge.PutEventsOutput{}, nil
}

func (b *recordingBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.entries...)
}

type app struct {
	server    *httptest.Server
	tokens    *auth.TokenService
	collector *observability.Collector
	events    *recordingBus
	store     *mocks.FakeDynamoDB
}

func newApp(t *testing.T) *app {
	t.Helper()
	logger := zap.NewNop()

	cfg := config.Defaults()
	cfg.Environment = "test"
	cfg.RateLimitPerMinute = 1000

	store := mocks.NewFakeDynamoDB("project_id").AddIndex(cfg.UserProjectsIndex, "user_id", "created_at")
	collector := observability.NewCollector("agentdev")
	repo := dynamodb.NewProjectRepository(dynamodb.NewInstrumentedClient(store, collector), cfg.ProjectsTable, cfg.UserProjectsIndex, logger)
	access := services.NewProjectAccessService(repo, logger)

	rec := &recordingBus{}
	publisher := eventbridge.NewPublisher(rec, "agentdev-test-bus", logger)

	commandBus := bus.NewCommandBus(bus.MetricsMiddleware(collector))
	require.NoError(t, commandhandlers.NewProjectHandlers(repo, access, publisher, utils.SystemClock, logger).Register(commandBus))
	queryBus := querybus.NewQueryBus()
	require.NoError(t, queryhandlers.NewProjectQueryHandlers(repo, access, logger).Register(queryBus))

	tokens, err := auth.NewTokenService("integration-secret", cfg.JWTIssuer, time.Duration(cfg.AccessTokenExpireMinutes)*time.Minute)
	require.NoError(t, err)

	router := rest.NewRouter(
		cfg,
		commandBus,
		queryBus,
		tokens,
		auth.NewKeyedLimiter(cfg.RateLimitPerMinute),
		pkgerrors.NewErrorHandler(logger, false),
		collector,
		observability.NewTracer("agentdev-test", false),
		repo,
		logger,
	)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)
	return &app{server: server, tokens: tokens, collector: collector, events: rec, store: store}
}

func (a *app) call(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func (a *app) login(t *testing.T) string {
	t.Helper()
	resp, body := a.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var tok handlers.TokenResponse
	require.NoError(t, json.Unmarshal(body, &tok))
	return tok.AccessToken
}

func (a *app) tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := a.tokens.Issue(auth.UserContext{UserID: userID, Email: userID + "@example.com"})
	require.NoError(t, err)
	return token
}

func TestProjectLifecycle(t *testing.T) {
	a := newApp(t)
	ownerToken := a.login(t)
	memberToken := a.tokenFor(t, "user_b")
	strangerToken := a.tokenFor(t, "user_c")

	resp, body := a.call(t, http.MethodPost, "/api/v1/projects", ownerToken, map[string]interface{}{
		"name":         "Agent Platform",
		"description":  "Multi-agent delivery",
		"complexity":   "high",
		"team_members": []string{"user_b"},
		"requirements": []map[string]interface{}{{"title": "Login"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created project.Project
	require.NoError(t, json.Unmarshal(body, &created))
	assert.True(t, strings.HasPrefix(created.ProjectID, project.IDPrefix))
	assert.Equal(t, "user_123", created.UserID)
	assert.Equal(t, project.StatusDraft, created.Status)
	assert.Equal(t, project.TypeWebApplication, created.ProjectType)
	assert.Equal(t, project.ComplexityHigh, created.Complexity)
	require.Len(t, created.Requirements, 1)
	assert.NotEmpty(t, created.Requirements[0].ID)
	assert.Equal(t, "medium", created.Requirements[0].Priority)
	path := "/api/v1/projects/" + created.ProjectID

	t.Run("read policy", func(t *testing.T) {
		resp, _ := a.call(t, http.MethodGet, path, memberToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, body := a.call(t, http.MethodGet, path, strangerToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		var errBody pkgerrors.ErrorResponse
		require.NoError(t, json.Unmarshal(body, &errBody))
		assert.True(t, errBody.Error)
		assert.NotEmpty(t, errBody.RequestID)
	})

	t.Run("write policy", func(t *testing.T) {
		resp, _ := a.call(t, http.MethodPut, path, memberToken, map[string]string{"name": "Hijacked"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp, _ = a.call(t, http.MethodPost, path+"/start", strangerToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("owner updates", func(t *testing.T) {
		resp, body := a.call(t, http.MethodPut, path, ownerToken, map[string]interface{}{
			"name":                "Agent Platform v2",
			"progress_percentage": 40,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		var updated project.Project
		require.NoError(t, json.Unmarshal(body, &updated))
		assert.Equal(t, "Agent Platform v2", updated.Name)
		assert.Equal(t, 40.0, updated.ProgressPercentage)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
	})

	t.Run("start then complete", func(t *testing.T) {
		resp, body := a.call(t, http.MethodPost, path+"/start", ownerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		var started project.Project
		require.NoError(t, json.Unmarshal(body, &started))
		assert.Equal(t, project.StatusActive, started.Status)
		require.NotNil(t, started.StartedAt)

		resp, body = a.call(t, http.MethodPost, path+"/complete", ownerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		var completed project.Project
		require.NoError(t, json.Unmarshal(body, &completed))
		assert.Equal(t, project.StatusCompleted, completed.Status)
		assert.Equal(t, 100.0, completed.ProgressPercentage)
		require.NotNil(t, completed.CompletedAt)
	})

	t.Run("list and stats", func(t *testing.T) {
		resp, body := a.call(t, http.MethodGet, "/api/v1/projects?status=completed", ownerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		var list queries.ListProjectsResult
		require.NoError(t, json.Unmarshal(body, &list))
		require.Len(t, list.Projects, 1)
		assert.Equal(t, created.ProjectID, list.Projects[0].ProjectID)
		assert.Equal(t, 1, list.Page)
		assert.Equal(t, queries.DefaultPageSize, list.PageSize)
		assert.False(t, list.HasNext)

		resp, body = a.call(t, http.MethodGet, "/api/v1/projects/stats/summary", ownerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		var stats ports.Stats
		require.NoError(t, json.Unmarshal(body, &stats))
		assert.Equal(t, 1, stats.TotalProjects)
		assert.Equal(t, 1, stats.CompletedProjects)

		resp, body = a.call(t, http.MethodGet, "/api/v1/projects", memberToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.Unmarshal(body, &list))
		assert.Empty(t, list.Projects)
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := a.call(t, http.MethodDelete, path, memberToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp, _ = a.call(t, http.MethodDelete, path, ownerToken, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = a.call(t, http.MethodGet, path, ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, _ = a.call(t, http.MethodDelete, path, ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, 0, a.store.Len())
	})

	assert.Equal(t, []string{
		events.TypeProjectCreated,
		events.TypeProjectUpdated,
		events.TypeProjectStarted,
		events.TypeProjectCompleted,
		events.TypeProjectDeleted,
	}, a.events.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(a.collector.ProjectsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.collector.ProjectsDeleted))
}

func TestPublicEndpoints(t *testing.T) {
	a := newApp(t)

	resp, body := a.call(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"healthy"`)
	assert.Equal(t, "v1", resp.Header.Get("X-API-Version"))

	resp, body = a.call(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = a.call(t, http.MethodGet, "/api/v1/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = a.call(t, http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = a.call(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "agentdev_http_requests_total")
	assert.Contains(t, string(body), `route="/health"`)
}

func TestHealth_TableMissing(t *testing.T) {
	a := newApp(t)
	a.store.WithoutTable()

	resp, body := a.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), `"dynamodb":"unhealthy"`)
}
