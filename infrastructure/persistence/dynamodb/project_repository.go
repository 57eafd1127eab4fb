package dynamodb

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"agentdev-backend/application/ports"
	"agentdev-backend/domain/project"
	pkgerrors "agentdev-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	DefaultListLimit = 20
	idRandomBytes    = 6 // hex encodes to 12 characters
)

// ProjectRepository stores projects in a single table keyed by project_id,
// with a user_id/created_at secondary index for owner listings.
type ProjectRepository struct {
	client    Client
	tableName string
	userIndex string
	codec     *Codec
	updates   *UpdateBuilder
	logger    *zap.Logger
	now       func() time.Time
}

// RepositoryOption customises a ProjectRepository.
type RepositoryOption func(*ProjectRepository)

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *ProjectRepository) { r.now = now }
}

// NewProjectRepository creates a repository over client.
func NewProjectRepository(client Client, tableName, userIndex string, logger *zap.Logger, opts ...RepositoryOption) *ProjectRepository {
	codec := NewCodec()
	r := &ProjectRepository{
		client:    client,
		tableName: tableName,
		userIndex: userIndex,
		codec:     codec,
		updates:   NewUpdateBuilder(codec),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectID returns "proj_" followed by 12 random hex characters.
func NewProjectID() (string, error) {
	b := make([]byte, idRandomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate project id: %w", err)
	}
	return project.IDPrefix + hex.EncodeToString(b), nil
}

func (r *ProjectRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func (r *ProjectRepository) key(projectID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		string(project.FieldProjectID): &types.AttributeValueMemberS{Value: projectID},
	}
}

// Create writes p only if no project with the same id exists. A retried
// create whose first attempt landed surfaces as the duplicate error.
func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) (*project.Project, error) {
	if p.ProjectID == "" {
		id, err := NewProjectID()
		if err != nil {
			return nil, pkgerrors.NewInternalError("failed to assign project id").WithCause(err)
		}
		p.ProjectID = id
	}
	now := r.timestamp()
	p.CreatedAt = now
	p.UpdatedAt = now

	item, err := r.codec.Serialize(p.ToRecord())
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to encode project").WithCause(err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name(string(project.FieldProjectID)).AttributeNotExists()).
		Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build condition").WithCause(err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailed(err) {
			r.logger.Warn("Project id already exists", zap.String("projectID", p.ProjectID))
			return nil, pkgerrors.NewValidationError("project with this ID already exists").
				WithCode("PROJECT_EXISTS").
				WithCause(project.ErrAlreadyExists)
		}
		r.logger.Error("Failed to create project", zap.Error(err), zap.String("projectID", p.ProjectID))
		return nil, pkgerrors.NewDatabaseError("create_project", err)
	}

	r.logger.Debug("Project created",
		zap.String("projectID", p.ProjectID),
		zap.String("userID", p.UserID),
	)
	// Return what was stored, so timestamps carry the stored precision and zone.
	return r.decode(item)
}

// Get returns (nil, nil) when the project does not exist.
func (r *ProjectRepository) Get(ctx context.Context, projectID string) (*project.Project, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.key(projectID),
	})
	if err != nil {
		r.logger.Error("Failed to get project", zap.Error(err), zap.String("projectID", projectID))
		return nil, pkgerrors.NewDatabaseError("get_project", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return r.decode(out.Item)
}

// Update applies changes with updated_at refreshed. The merged record comes
// from the store (ALL_NEW); nothing is merged locally. A missing id is rejected
// by the store condition and reported as NOT_FOUND.
func (r *ProjectRepository) Update(ctx context.Context, projectID string, changes project.Changes) (*project.Project, error) {
	if err := changes.Check(); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error()).WithCode("PROJECT_UPDATE_INVALID").WithCause(err)
	}

	stamped := make(project.Changes, len(changes)+1)
	for f, v := range changes {
		stamped[f] = v
	}
	stamped[project.FieldUpdatedAt] = r.timestamp()

	exists := expression.Name(string(project.FieldProjectID)).AttributeExists()
	expr, err := r.updates.Build(stamped, &exists)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build update").WithCause(err)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       r.key(projectID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, pkgerrors.NewNotFoundError("project").WithCause(project.ErrNotFound)
		}
		r.logger.Error("Failed to update project", zap.Error(err), zap.String("projectID", projectID))
		return nil, pkgerrors.NewDatabaseError("update_project", err)
	}

	r.logger.Debug("Project updated",
		zap.String("projectID", projectID),
		zap.Int("fields", len(changes)),
	)
	return r.decode(out.Attributes)
}

// Delete removes the project if it exists. A failed existence condition
// is reported as false, not as an error.
func (r *ProjectRepository) Delete(ctx context.Context, projectID string) (bool, error) {
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name(string(project.FieldProjectID)).AttributeExists()).
		Build()
	if err != nil {
		return false, pkgerrors.NewInternalError("failed to build condition").WithCause(err)
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      r.key(projectID),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		r.logger.Error("Failed to delete project", zap.Error(err), zap.String("projectID", projectID))
		return false, pkgerrors.NewDatabaseError("delete_project", err)
	}

	r.logger.Debug("Project deleted", zap.String("projectID", projectID))
	return true, nil
}

// List returns one page. With a user it queries the owner index newest
// first; without one it scans. The status filter runs after the page is
// read, so a page can hold fewer than Limit items while more remain.
func (r *ProjectRepository) List(ctx context.Context, opts ports.ListOptions) (*ports.Page, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	startKey, err := decodeCursor(opts.Cursor)
	if err != nil {
		return nil, pkgerrors.NewValidationError("invalid cursor").WithCode("INVALID_CURSOR").WithCause(err)
	}

	builder := expression.NewBuilder()
	hasExpr := false
	if opts.Status != "" {
		builder = builder.WithFilter(expression.Name(string(project.FieldStatus)).Equal(expression.Value(string(opts.Status))))
		hasExpr = true
	}
	if opts.UserID != "" {
		builder = builder.WithKeyCondition(expression.Key(string(project.FieldUserID)).Equal(expression.Value(opts.UserID)))
		hasExpr = true
	}
	var expr expression.Expression
	if hasExpr {
		if expr, err = builder.Build(); err != nil {
			return nil, pkgerrors.NewInternalError("failed to build list expression").WithCause(err)
		}
	}

	var (
		items   []map[string]types.AttributeValue
		lastKey map[string]types.AttributeValue
	)
	if opts.UserID != "" {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(r.userIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(false),
			Limit:                     aws.Int32(int32(limit)),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			r.logger.Error("Failed to query projects", zap.Error(err), zap.String("userID", opts.UserID))
			return nil, pkgerrors.NewDatabaseError("list_projects", err)
		}
		items, lastKey = out.Items, out.LastEvaluatedKey
	} else {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(r.tableName),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Limit:                     aws.Int32(int32(limit)),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			r.logger.Error("Failed to scan projects", zap.Error(err))
			return nil, pkgerrors.NewDatabaseError("list_projects", err)
		}
		items, lastKey = out.Items, out.LastEvaluatedKey
	}

	page := &ports.Page{Items: make([]*project.Project, 0, len(items))}
	for _, item := range items {
		p, err := r.decode(item)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, p)
	}
	page.Count = len(page.Items)
	if page.NextCursor, err = encodeCursor(lastKey); err != nil {
		return nil, pkgerrors.NewInternalError("failed to encode cursor").WithCause(err)
	}

	r.logger.Debug("Projects listed",
		zap.String("userID", opts.UserID),
		zap.String("status", string(opts.Status)),
		zap.Int("count", page.Count),
		zap.Bool("hasNext", page.HasNext()),
	)
	return page, nil
}

// Stats reads every matching record, all pages, on each call.
func (r *ProjectRepository) Stats(ctx context.Context, userID string) (*ports.Stats, error) {
	projection := expression.NamesList(
		expression.Name(string(project.FieldStatus)),
		expression.Name(string(project.FieldTotalTasks)),
		expression.Name(string(project.FieldCompletedTasks)),
	)
	builder := expression.NewBuilder().WithProjection(projection)
	if userID != "" {
		builder = builder.WithKeyCondition(expression.Key(string(project.FieldUserID)).Equal(expression.Value(userID)))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build stats expression").WithCause(err)
	}

	var records []map[string]interface{}
	collect := func(items []map[string]types.AttributeValue) error {
		for _, item := range items {
			rec, err := r.codec.Deserialize(item)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	}

	if userID != "" {
		pager := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(r.userIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			ProjectionExpression:      expr.Projection(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		for pager.HasMorePages() {
			out, err := pager.NextPage(ctx)
			if err != nil {
				r.logger.Error("Failed to query project stats", zap.Error(err), zap.String("userID", userID))
				return nil, pkgerrors.NewDatabaseError("project_stats", err)
			}
			if err := collect(out.Items); err != nil {
				return nil, pkgerrors.NewInternalError("failed to decode project").WithCause(err)
			}
		}
	} else {
		pager := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
			TableName:                aws.String(r.tableName),
			ProjectionExpression:     expr.Projection(),
			ExpressionAttributeNames: expr.Names(),
		})
		for pager.HasMorePages() {
			out, err := pager.NextPage(ctx)
			if err != nil {
				r.logger.Error("Failed to scan project stats", zap.Error(err))
				return nil, pkgerrors.NewDatabaseError("project_stats", err)
			}
			if err := collect(out.Items); err != nil {
				return nil, pkgerrors.NewInternalError("failed to decode project").WithCause(err)
			}
		}
	}

	return Summarize(records), nil
}

// Summarize computes stats over decoded records. The completion rate is the
// task-weighted percentage, 0 when there are no tasks.
func Summarize(records []map[string]interface{}) *ports.Stats {
	s := &ports.Stats{TotalProjects: len(records)}
	for _, rec := range records {
		switch project.Status(stringValue(rec[string(project.FieldStatus)])) {
		case project.StatusActive:
			s.ActiveProjects++
		case project.StatusCompleted:
			s.CompletedProjects++
		case project.StatusDraft:
			s.DraftProjects++
		}
		s.TotalTasks += intValue(rec[string(project.FieldTotalTasks)])
		s.CompletedTasks += intValue(rec[string(project.FieldCompletedTasks)])
	}
	if s.TotalTasks > 0 {
		s.AverageCompletionRate = float64(s.CompletedTasks) / float64(s.TotalTasks) * 100
	}
	return s
}

func (r *ProjectRepository) decode(item map[string]types.AttributeValue) (*project.Project, error) {
	rec, err := r.codec.Deserialize(item)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to decode project").WithCause(err)
	}
	p, err := project.FromRecord(rec)
	if err != nil {
		r.logger.Error("Stored project is unreadable", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to decode project").WithCause(err)
	}
	return p, nil
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func intValue(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}
