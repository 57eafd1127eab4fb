package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"agentdev-backend/domain/project"
	pkgerrors "agentdev-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DefaultStatusIndex is the secondary index over status/created_at.
const DefaultStatusIndex = "status-created-index"

// TableDefinition describes the projects table: project_id hash key, an owner
// index and a status index, both sorted by created_at. Billing is on demand.
func TableDefinition(tableName, userIndex string) *dynamodb.CreateTableInput {
	index := func(name, hash string) types.GlobalSecondaryIndex {
		return types.GlobalSecondaryIndex{
			IndexName: aws.String(name),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(hash), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String(string(project.FieldCreatedAt)), KeyType: types.KeyTypeRange},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}
	}

	return &dynamodb.CreateTableInput{
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(string(project.FieldProjectID)), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(string(project.FieldUserID)), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(string(project.FieldStatus)), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(string(project.FieldCreatedAt)), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(string(project.FieldProjectID)), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			index(userIndex, string(project.FieldUserID)),
			index(DefaultStatusIndex, string(project.FieldStatus)),
		},
	}
}

// EnsureTable creates the table described by def unless it already exists.
// It reports whether a table was created.
func EnsureTable(ctx context.Context, client Client, def *dynamodb.CreateTableInput, logger *zap.Logger) (bool, error) {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: def.TableName})
	if err == nil {
		logger.Debug("Table already exists", zap.String("table", aws.ToString(def.TableName)))
		return false, nil
	}
	var missing *types.ResourceNotFoundException
	if !errors.As(err, &missing) {
		return false, fmt.Errorf("describe table %s: %w", aws.ToString(def.TableName), err)
	}

	if _, err := client.CreateTable(ctx, def); err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return false, nil
		}
		return false, fmt.Errorf("create table %s: %w", aws.ToString(def.TableName), err)
	}
	logger.Info("Table created", zap.String("table", aws.ToString(def.TableName)))
	return true, nil
}

// HealthCheck verifies the table is reachable.
func (r *ProjectRepository) HealthCheck(ctx context.Context) error {
	if _, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.tableName),
	}); err != nil {
		r.logger.Warn("Table health check failed", zap.Error(err), zap.String("table", r.tableName))
		return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
	}
	return nil
}

// TableName returns the table this repository writes to.
func (r *ProjectRepository) TableName() string {
	return r.tableName
}
