package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig controls how quickly the table client trips.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the settings used by the API.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerClient guards every call with a circuit breaker. Failed conditions
// are outcomes of a healthy table and never count against it.
type BreakerClient struct {
	next Client
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerClient wraps next.
func NewBreakerClient(next Client, cfg BreakerConfig, logger *zap.Logger) *BreakerClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isConditionFailed(err)
		},
	})
	return &BreakerClient{next: next, cb: cb}
}

var _ Client = (*BreakerClient)(nil)

// State exposes the breaker state for health reporting.
func (c *BreakerClient) State() gobreaker.State {
	return c.cb.State()
}

func guard[T any](cb *gobreaker.CircuitBreaker, call func() (T, error)) (T, error) {
	out, err := cb.Execute(func() (interface{}, error) {
		return call()
	})
	v, _ := out.(T)
	return v, err
}

func (c *BreakerClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return guard(c.cb, func() (*dynamodb.GetItemOutput, error) { return c.next.GetItem(ctx, in, optFns...) })
}

func (c *BreakerClient) PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return guard(c.cb, func() (*dynamodb.PutItemOutput, error) { return c.next.PutItem(ctx, in, optFns...) })
}

func (c *BreakerClient) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return guard(c.cb, func() (*dynamodb.UpdateItemOutput, error) { return c.next.UpdateItem(ctx, in, optFns...) })
}

func (c *BreakerClient) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return guard(c.cb, func() (*dynamodb.DeleteItemOutput, error) { return c.next.DeleteItem(ctx, in, optFns...) })
}

func (c *BreakerClient) Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return guard(c.cb, func() (*dynamodb.QueryOutput, error) { return c.next.Query(ctx, in, optFns...) })
}

func (c *BreakerClient) Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return guard(c.cb, func() (*dynamodb.ScanOutput, error) { return c.next.Scan(ctx, in, optFns...) })
}

func (c *BreakerClient) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return guard(c.cb, func() (*dynamodb.DescribeTableOutput, error) { return c.next.DescribeTable(ctx, in, optFns...) })
}

func (c *BreakerClient) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	return guard(c.cb, func() (*dynamodb.CreateTableOutput, error) { return c.next.CreateTable(ctx, in, optFns...) })
}
