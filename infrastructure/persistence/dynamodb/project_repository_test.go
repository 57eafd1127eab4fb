package dynamodb

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"agentdev-backend/application/ports"
	"agentdev-backend/domain/project"
	pkgerrors "agentdev-backend/pkg/errors"
	"agentdev-backend/tests/fixtures"
	"agentdev-backend/tests/mocks"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testTable = "agentdev-test-projects"
	testIndex = "user-projects-index"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestRepository(t *testing.T) (*ProjectRepository, *mocks.FakeDynamoDB, *testClock) {
	t.Helper()
	fake := mocks.NewFakeDynamoDB("project_id").AddIndex(testIndex, "user_id", "created_at")
	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	repo := NewProjectRepository(fake, testTable, testIndex, zap.NewNop(), WithClock(clock.Now))
	return repo, fake, clock
}

func TestProjectRepository_CreateAssignsIDAndTimestamps(t *testing.T) {
	repo, fake, clock := newTestRepository(t)
	p := project.New("user_123", project.CreateInput{Name: "First"})

	created, err := repo.Create(context.Background(), p)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^proj_[0-9a-f]{12}$`), created.ProjectID)
	assert.Equal(t, clock.now, created.CreatedAt)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Equal(t, 1, fake.Len())

	got, err := repo.Get(context.Background(), created.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestProjectRepository_CreateReturnsStoredForm(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	zone := time.FixedZone("CEST", 2*60*60)
	deadline := time.Date(2024, 6, 1, 10, 0, 0, 123456789, zone)
	p := project.New("user_123", project.CreateInput{Name: "Zoned", Deadline: &deadline})

	created, err := repo.Create(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, created.Deadline)
	assert.Equal(t, time.Date(2024, 6, 1, 8, 0, 0, 123456000, time.UTC), *created.Deadline)

	got, err := repo.Get(context.Background(), created.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestProjectRepository_CreateRejectsDuplicateID(t *testing.T) {
	repo, fake, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, fixtures.NewProjectBuilder().WithID("proj_000000000001").Build())
	require.NoError(t, err)

	_, err = repo.Create(ctx, fixtures.NewProjectBuilder().WithID("proj_000000000001").WithName("Other").Build())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.True(t, errors.Is(err, project.ErrAlreadyExists))
	assert.Equal(t, "PROJECT_EXISTS", pkgerrors.GetAppError(err).Code)

	assert.Equal(t, 1, fake.Len())
	stored, err := repo.Get(ctx, "proj_000000000001")
	require.NoError(t, err)
	assert.Equal(t, "Test Project", stored.Name, "the first write wins")
}

func TestProjectRepository_GetMissingReturnsNil(t *testing.T) {
	repo, _, _ := newTestRepository(t)

	got, err := repo.Get(context.Background(), "proj_missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProjectRepository_UpdateStampsUpdatedAt(t *testing.T) {
	repo, _, clock := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, project.New("user_123", project.CreateInput{Name: "Before"}))
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	updated, err := repo.Update(ctx, created.ProjectID, project.Changes{
		project.FieldName:     "After",
		project.FieldSettings: map[string]interface{}{"theme": "dark"},
	})
	require.NoError(t, err)

	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, map[string]interface{}{"theme": "dark"}, updated.Settings)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, clock.now, updated.UpdatedAt)
	assert.Equal(t, created.Description, updated.Description, "untouched fields survive")
}

func TestProjectRepository_UpdateMissingIsNotFound(t *testing.T) {
	repo, fake, _ := newTestRepository(t)

	_, err := repo.Update(context.Background(), "proj_missing", project.Changes{project.FieldName: "x"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.True(t, errors.Is(err, project.ErrNotFound))
	assert.Equal(t, 0, fake.Len(), "no item is created by an update")
}

func TestProjectRepository_UpdateRejectsInvalidChangeSets(t *testing.T) {
	repo, fake, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Update(ctx, "proj_1", project.Changes{})
	assert.True(t, pkgerrors.IsValidation(err))
	assert.True(t, errors.Is(err, project.ErrEmptyUpdate))

	_, err = repo.Update(ctx, "proj_1", project.Changes{project.FieldUserID: "someone_else"})
	assert.True(t, pkgerrors.IsValidation(err))
	assert.True(t, errors.Is(err, project.ErrImmutableField))

	assert.Zero(t, fake.Calls["UpdateItem"])
}

func TestProjectRepository_Delete(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	deleted, err := repo.Delete(ctx, "proj_000000000001")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.Create(ctx, fixtures.NewProjectBuilder().WithID("proj_000000000001").Build())
	require.NoError(t, err)

	deleted, err = repo.Delete(ctx, "proj_000000000001")
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := repo.Get(ctx, "proj_000000000001")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func seedOwned(t *testing.T, repo *ProjectRepository, clock *testClock, userID string, names ...string) []*project.Project {
	t.Helper()
	var out []*project.Project
	for _, name := range names {
		p, err := repo.Create(context.Background(), project.New(userID, project.CreateInput{Name: name}))
		require.NoError(t, err)
		out = append(out, p)
		clock.Advance(time.Minute)
	}
	return out
}

func TestProjectRepository_ListByUserNewestFirst(t *testing.T) {
	repo, _, clock := newTestRepository(t)
	seedOwned(t, repo, clock, "user_123", "t1", "t2", "t3")
	seedOwned(t, repo, clock, "user_999", "foreign")

	page, err := repo.List(context.Background(), ports.ListOptions{UserID: "user_123"})
	require.NoError(t, err)

	require.Len(t, page.Items, 3)
	assert.Equal(t, 3, page.Count)
	assert.Equal(t, []string{"t3", "t2", "t1"}, names(page.Items))
	assert.False(t, page.HasNext())
}

func TestProjectRepository_ListPaginatesWithCursor(t *testing.T) {
	repo, _, clock := newTestRepository(t)
	seedOwned(t, repo, clock, "user_123", "t1", "t2", "t3")
	ctx := context.Background()

	first, err := repo.List(ctx, ports.ListOptions{UserID: "user_123", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"t3", "t2"}, names(first.Items))
	require.True(t, first.HasNext())

	second, err := repo.List(ctx, ports.ListOptions{UserID: "user_123", Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, names(second.Items))
	assert.False(t, second.HasNext())
}

func TestProjectRepository_ListStatusFilterAppliesAfterPage(t *testing.T) {
	repo, _, clock := newTestRepository(t)
	ctx := context.Background()
	seeded := seedOwned(t, repo, clock, "user_123", "t1", "t2", "t3")
	_, err := repo.Update(ctx, seeded[0].ProjectID, project.StartChanges(clock.now))
	require.NoError(t, err)

	// newest two are drafts, so the first filtered page is empty but not final
	first, err := repo.List(ctx, ports.ListOptions{UserID: "user_123", Status: project.StatusActive, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, first.Items)
	require.True(t, first.HasNext())

	second, err := repo.List(ctx, ports.ListOptions{UserID: "user_123", Status: project.StatusActive, Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, names(second.Items))
}

func TestProjectRepository_ListWithoutUserScansTable(t *testing.T) {
	repo, fake, clock := newTestRepository(t)
	seedOwned(t, repo, clock, "user_123", "a")
	seedOwned(t, repo, clock, "user_456", "b")

	page, err := repo.List(context.Background(), ports.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 1, fake.Calls["Scan"])
	assert.Zero(t, fake.Calls["Query"])
}

func TestProjectRepository_ListRejectsMalformedCursor(t *testing.T) {
	repo, _, _ := newTestRepository(t)

	_, err := repo.List(context.Background(), ports.ListOptions{UserID: "user_123", Cursor: "%%%"})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestProjectRepository_Stats(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()
	for _, p := range []*project.Project{
		fixtures.NewProjectBuilder().WithUserID("user_123").WithStatus(project.StatusActive).WithTasks(10, 8).Build(),
		fixtures.NewProjectBuilder().WithUserID("user_123").WithStatus(project.StatusCompleted).WithTasks(5, 5).Build(),
		fixtures.NewProjectBuilder().WithUserID("user_123").WithStatus(project.StatusDraft).WithTasks(3, 0).Build(),
		fixtures.NewProjectBuilder().WithUserID("user_999").WithStatus(project.StatusPaused).WithTasks(100, 1).Build(),
	} {
		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
	}

	stats, err := repo.Stats(ctx, "user_123")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalProjects)
	assert.Equal(t, 1, stats.ActiveProjects)
	assert.Equal(t, 1, stats.CompletedProjects)
	assert.Equal(t, 1, stats.DraftProjects)
	assert.Equal(t, 18, stats.TotalTasks)
	assert.Equal(t, 13, stats.CompletedTasks)
	assert.InDelta(t, 72.222, stats.AverageCompletionRate, 0.01)

	all, err := repo.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 4, all.TotalProjects)
	assert.Equal(t, 1, all.ActiveProjects, "paused only counts towards the total")
	assert.Equal(t, 118, all.TotalTasks)
}

func TestProjectRepository_StatsEmpty(t *testing.T) {
	repo, _, _ := newTestRepository(t)

	stats, err := repo.Stats(context.Background(), "user_123")
	require.NoError(t, err)
	assert.Equal(t, &ports.Stats{}, stats)
}

func TestProjectRepository_CompletedAboveTotalIsStored(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	p, err := repo.Create(ctx, fixtures.NewProjectBuilder().WithTasks(2, 7).Build())
	require.NoError(t, err)

	got, err := repo.Get(ctx, p.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.CompletedTasks)
}

func TestProjectRepository_UnreadableStoredRecord(t *testing.T) {
	repo, fake, _ := newTestRepository(t)
	fake.PutRaw(map[string]types.AttributeValue{
		"project_id": &types.AttributeValueMemberS{Value: "proj_broken"},
		"created_at": &types.AttributeValueMemberS{Value: "not-a-date"},
	})

	_, err := repo.Get(context.Background(), "proj_broken")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsInternal(err))
}

func TestProjectRepository_StoreFailureIsDatabaseError(t *testing.T) {
	repo, fake, _ := newTestRepository(t)
	fake.Err = errors.New("connection reset")

	_, err := repo.Get(context.Background(), "proj_1")
	assert.True(t, pkgerrors.IsDatabase(err))

	_, err = repo.Create(context.Background(), fixtures.NewProjectBuilder().Build())
	assert.True(t, pkgerrors.IsDatabase(err))

	_, err = repo.Delete(context.Background(), "proj_1")
	assert.True(t, pkgerrors.IsDatabase(err))
}

func TestProjectRepository_HealthCheck(t *testing.T) {
	repo, fake, _ := newTestRepository(t)
	require.NoError(t, repo.HealthCheck(context.Background()))

	fake.Err = errors.New("unreachable")
	err := repo.HealthCheck(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
}

func TestSummarize(t *testing.T) {
	stats := Summarize([]map[string]interface{}{
		{"status": "active", "total_tasks": float64(4), "completed_tasks": float64(1)},
		{"status": "cancelled"},
	})
	assert.Equal(t, 2, stats.TotalProjects)
	assert.Equal(t, 1, stats.ActiveProjects)
	assert.InDelta(t, 25.0, stats.AverageCompletionRate, 0.0001)
}

func names(items []*project.Project) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.Name)
	}
	return out
}
