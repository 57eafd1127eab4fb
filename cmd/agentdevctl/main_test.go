package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"agentdev-backend/domain/project"
	"agentdev-backend/infrastructure/config"
	"agentdev-backend/infrastructure/persistence/dynamodb"
	"agentdev-backend/pkg/auth"
	"agentdev-backend/tests/fixtures"
	"agentdev-backend/tests/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(fake *mocks.FakeDynamoDB) *app {
	return &app{
		cfg:    config.Defaults(),
		logger: zap.NewNop(),
		client: func(context.Context) (dynamodb.Client, error) { return fake, nil },
	}
}

func run(t *testing.T, a *app, args ...string) (map[string]interface{}, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		return nil, err
	}
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	return body, nil
}

func TestTableCreate(t *testing.T) {
	fake := mocks.NewFakeDynamoDB("project_id").WithoutTable()
	a := newTestApp(fake)

	body, err := run(t, a, "table", "create")
	require.NoError(t, err)
	assert.Equal(t, true, body["created"])
	assert.Equal(t, a.cfg.ProjectsTable, body["table"])

	body, err = run(t, a, "table", "create")
	require.NoError(t, err)
	assert.Equal(t, false, body["created"])
}

func TestTableDescribe(t *testing.T) {
	a := newTestApp(mocks.NewFakeDynamoDB("project_id"))

	body, err := run(t, a, "table", "describe")
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", body["status"])
	assert.Equal(t, 0.0, body["item_count"])

	_, err = run(t, newTestApp(mocks.NewFakeDynamoDB("project_id").WithoutTable()), "table", "describe")
	assert.Error(t, err)
}

func TestProjectsStats(t *testing.T) {
	fake := mocks.NewFakeDynamoDB("project_id").AddIndex("user-projects-index", "user_id", "created_at")
	a := newTestApp(fake)
	repo, err := a.repository(context.Background())
	require.NoError(t, err)

	seed := []*project.Project{
		fixtures.NewProjectBuilder().WithID("p1").WithUserID("u1").WithStatus(project.StatusActive).WithTasks(4, 1).Build(),
		fixtures.NewProjectBuilder().WithID("p2").WithUserID("u1").WithStatus(project.StatusCompleted).WithTasks(4, 4).Build(),
		fixtures.NewProjectBuilder().WithID("p3").WithUserID("u2").Build(),
	}
	for _, p := range seed {
		_, err := repo.Create(context.Background(), p)
		require.NoError(t, err)
	}

	body, err := run(t, a, "projects", "stats")
	require.NoError(t, err)
	assert.Equal(t, 3.0, body["total_projects"])

	body, err = run(t, a, "projects", "stats", "--user", "u1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, body["total_projects"])
	assert.Equal(t, 1.0, body["active_projects"])
	assert.Equal(t, 1.0, body["completed_projects"])
	assert.InDelta(t, 62.5, body["average_completion_rate"], 0.001)
}

func TestTokenIssue(t *testing.T) {
	a := newTestApp(nil)

	body, err := run(t, a, "token", "issue", "--user", "user_123", "--email", "admin@example.com", "--role", "admin")
	require.NoError(t, err)
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, 1800.0, body["expires_in"])

	tokens, err := auth.NewTokenService(a.cfg.Secret(), a.cfg.JWTIssuer, time.Duration(a.cfg.AccessTokenExpireMinutes)*time.Minute)
	require.NoError(t, err)
	user, err := tokens.Validate(body["access_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "user_123", user.UserID)
	assert.Equal(t, "admin", user.Role)

	_, err = run(t, a, "token", "issue")
	assert.Error(t, err)
}
