package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// CounterStore is the part of the DynamoDB API the distributed limiter needs.
type CounterStore interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DistributedRateLimiter counts requests per fixed window in a DynamoDB
// table so the limit holds across Lambda instances.
type DistributedRateLimiter struct {
	client    CounterStore
	tableName string
	limit     int
	window    time.Duration
	keyPrefix string
	now       func() time.Time
}

// RateLimitEntry represents a rate limit entry in DynamoDB
type RateLimitEntry struct {
	PK        string `dynamodbav:"PK"`
	Count     int    `dynamodbav:"Count"`
	WindowEnd string `dynamodbav:"WindowEnd"`
	TTL       int64  `dynamodbav:"TTL"`
}

var _ RateLimiter = (*DistributedRateLimiter)(nil)

// NewDistributedIPRateLimiter creates a per-minute rate limiter for IP addresses
func NewDistributedIPRateLimiter(client CounterStore, tableName string, requestsPerMinute int) *DistributedRateLimiter {
	return NewDistributedRateLimiter(client, tableName, requestsPerMinute, time.Minute, "IP")
}

// NewDistributedRateLimiter creates a generic distributed rate limiter
func NewDistributedRateLimiter(client CounterStore, tableName string, limit int, window time.Duration, keyPrefix string) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		client:    client,
		tableName: tableName,
		limit:     limit,
		window:    window,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

func (r *DistributedRateLimiter) windowKey(key string, now time.Time) (string, time.Time) {
	start := now.Truncate(r.window)
	return fmt.Sprintf("RATELIMIT#%s#%s#%d", r.keyPrefix, key, start.Unix()), start.Add(r.window)
}

func pkKey(pk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: pk}}
}

// Allow increments the window counter only while it is below the limit.
// Store errors fail open: the request is allowed and the error returned.
func (r *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.client == nil {
		return true, nil
	}

	pk, windowEnd := r.windowKey(key, r.now())
	count := expression.Name("Count")

	update := expression.
		Set(count, expression.Plus(count.IfNotExists(expression.Value(0)), expression.Value(1))).
		Set(expression.Name("WindowEnd"), expression.Value(windowEnd.UTC().Format(time.RFC3339))).
		Set(expression.Name("TTL"), expression.Value(windowEnd.Add(time.Hour).Unix()))
	cond := expression.Or(
		count.AttributeNotExists(),
		count.LessThan(expression.Value(r.limit)),
	)
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return true, fmt.Errorf("build rate limit expression: %w", err)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       pkKey(pk),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		return true, fmt.Errorf("rate limiter error (failing open): %w", err)
	}

	var e RateLimitEntry
	if err := attributevalue.UnmarshalMap(out.Attributes, &e); err != nil {
		return true, fmt.Errorf("failed to parse rate limit entry (failing open): %w", err)
	}
	return e.Count <= r.limit, nil
}

// Remaining returns the requests left in the current window and when it ends
func (r *DistributedRateLimiter) Remaining(ctx context.Context, key string) (int, time.Time, error) {
	pk, windowEnd := r.windowKey(key, r.now())
	if r.client == nil {
		return r.limit, windowEnd, nil
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       pkKey(pk),
	})
	if err != nil {
		return r.limit, windowEnd, fmt.Errorf("read rate limit entry: %w", err)
	}
	if out.Item == nil {
		return r.limit, windowEnd, nil
	}

	var e RateLimitEntry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return r.limit, windowEnd, fmt.Errorf("failed to parse rate limit entry: %w", err)
	}
	return max(r.limit-e.Count, 0), windowEnd, nil
}


// Limit returns the configured rate limit
func (r *DistributedRateLimiter) Limit() int {
	return r.limit
}
