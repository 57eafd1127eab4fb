package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// OperationObserver receives the outcome of every table call.
type OperationObserver interface {
	ObserveDB(operation, table string, d time.Duration, err error)
}

// InstrumentedClient reports latency and outcome of each call. A failed
// condition is recorded as success.
type InstrumentedClient struct {
	next     Client
	observer OperationObserver
}

// NewInstrumentedClient wraps next.
func NewInstrumentedClient(next Client, observer OperationObserver) *InstrumentedClient {
	return &InstrumentedClient{next: next, observer: observer}
}

var _ Client = (*InstrumentedClient)(nil)

func (c *InstrumentedClient) observe(op string, table *string, start time.Time, err error) {
	if isConditionFailed(err) {
		err = nil
	}
	c.observer.ObserveDB(op, aws.ToString(table), time.Since(start), err)
}

func (c *InstrumentedClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	start := time.Now()
	out, err := c.next.GetItem(ctx, in, optFns...)
	c.observe("GetItem", in.TableName, start, err)
	return out, err
}

func (c *InstrumentedClient) PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	start := time.Now()
	out, err := c.next.PutItem(ctx, in, optFns...)
	c.observe("PutItem", in.TableName, start, err)
	return out, err
}

func (c *InstrumentedClient) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	start := time.Now()
	out, err := c.next.UpdateItem(ctx, in, optFns...)
	c.observe("UpdateItem", in.TableName, start, err)
	return out, err
}

func (c *InstrumentedClient) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	start := time.Now()
	out, err := c.next.DeleteItem(ctx, in, optFns...)
	c.observe("DeleteItem", in.TableName, start, err)
	return out, err
}

func (c *InstrumentedClient) Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	start := time.Now()
	out, err := c.next.Query(ctx, in, optFns...)
	c.observe("Query", in.TableName, start, err)
	return out, err
}

func (c *InstrumentedClient) Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	start := time.Now()
	out, err := c.next.Scan(ctx, in, optFns...)
	c.observe("Scan", in.TableName, start, err)
	return out, err
}

func (c *InstrumentedClient) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	start := time.Now()
	out, err := c.next.DescribeTable(ctx, in, optFns...)
	c.observe("DescribeTable", in.TableName, start, err)
	return out, err
}

func (c *InstrumentedClient) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	start := time.Now()
	out, err := c.next.CreateTable(ctx, in, optFns...)
	c.observe("CreateTable", in.TableName, start, err)
	return out, err
}
