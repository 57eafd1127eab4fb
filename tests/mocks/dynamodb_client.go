package mocks

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	assignPattern    = regexp.MustCompile(`(#\w+)\s*=\s*(:\w+)`)
	existsPattern    = regexp.MustCompile(`attribute_(not_)?exists\s*\(\s*(#\w+)\s*\)`)
	namePlaceholders = regexp.MustCompile(`#\w+`)
)

// FakeDynamoDB is an in-memory single table keyed by one string hash key.
// It understands the expressions the expression builder emits for equality
// key conditions and filters, SET updates, attribute_exists and
// attribute_not_exists conditions, and name projections. Secondary indexes
// are declared with AddIndex and sorted by their range key as strings.
type FakeDynamoDB struct {
	mu      sync.Mutex
	hashKey string
	items   map[string]map[string]types.AttributeValue
	indexes map[string][2]string
	exists  bool

	// Err, when set, is returned from every call.
	Err   error
	Calls map[string]int
}

// NewFakeDynamoDB creates an existing, empty table.
func NewFakeDynamoDB(hashKey string) *FakeDynamoDB {
	return &FakeDynamoDB{
		hashKey: hashKey,
		items:   map[string]map[string]types.AttributeValue{},
		indexes: map[string][2]string{},
		exists:  true,
		Calls:   map[string]int{},
	}
}

// AddIndex declares a secondary index with a hash and range attribute.
func (f *FakeDynamoDB) AddIndex(name, hash, rangeKey string) *FakeDynamoDB {
	f.indexes[name] = [2]string{hash, rangeKey}
	return f
}

// WithoutTable makes DescribeTable report a missing table until CreateTable.
func (f *FakeDynamoDB) WithoutTable() *FakeDynamoDB {
	f.exists = false
	return f
}

// Len returns the number of stored items.
func (f *FakeDynamoDB) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Raw returns a copy of a stored item.
func (f *FakeDynamoDB) Raw(key string) map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyItem(f.items[key])
}

// PutRaw stores an item as is, bypassing any codec.
func (f *FakeDynamoDB) PutRaw(item map[string]types.AttributeValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[stringAttr(item[f.hashKey])] = copyItem(item)
}

func (f *FakeDynamoDB) begin(op string) error {
	f.Calls[op]++
	return f.Err
}

func (f *FakeDynamoDB) keyOf(key map[string]types.AttributeValue) string {
	return stringAttr(key[f.hashKey])
}

func (f *FakeDynamoDB) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("GetItem"); err != nil {
		return nil, err
	}
	item, ok := f.items[f.keyOf(in.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *FakeDynamoDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("PutItem"); err != nil {
		return nil, err
	}
	key := f.keyOf(in.Item)
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, f.items[key]); err != nil {
		return nil, err
	}
	f.items[key] = copyItem(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *FakeDynamoDB) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdateItem"); err != nil {
		return nil, err
	}
	key := f.keyOf(in.Key)
	current := f.items[key]
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, current); err != nil {
		return nil, err
	}

	next := copyItem(current)
	if next == nil {
		next = copyItem(in.Key)
	}
	for _, m := range assignPattern.FindAllStringSubmatch(aws.ToString(in.UpdateExpression), -1) {
		name, ok := in.ExpressionAttributeNames[m[1]]
		if !ok {
			return nil, fmt.Errorf("unbound name placeholder %s", m[1])
		}
		value, ok := in.ExpressionAttributeValues[m[2]]
		if !ok {
			return nil, fmt.Errorf("unbound value placeholder %s", m[2])
		}
		next[name] = value
	}
	f.items[key] = next

	out := &dynamodb.UpdateItemOutput{}
	if in.ReturnValues == types.ReturnValueAllNew {
		out.Attributes = copyItem(next)
	}
	return out, nil
}

func (f *FakeDynamoDB) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteItem"); err != nil {
		return nil, err
	}
	key := f.keyOf(in.Key)
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, f.items[key]); err != nil {
		return nil, err
	}
	delete(f.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *FakeDynamoDB) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Query"); err != nil {
		return nil, err
	}
	keys, ok := f.indexes[aws.ToString(in.IndexName)]
	if !ok {
		return nil, fmt.Errorf("unknown index %q", aws.ToString(in.IndexName))
	}
	hashName, hashValue, err := equality(in.KeyConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	if hashName != keys[0] {
		return nil, fmt.Errorf("key condition on %s, index hash is %s", hashName, keys[0])
	}

	var matched []map[string]types.AttributeValue
	for _, item := range f.items {
		if stringAttr(item[hashName]) == stringAttr(hashValue) {
			matched = append(matched, item)
		}
	}
	forward := in.ScanIndexForward == nil || *in.ScanIndexForward
	sort.Slice(matched, func(i, j int) bool {
		a, b := stringAttr(matched[i][keys[1]]), stringAttr(matched[j][keys[1]])
		if a == b {
			a, b = stringAttr(matched[i][f.hashKey]), stringAttr(matched[j][f.hashKey])
		}
		if forward {
			return a < b
		}
		return a > b
	})

	page, last := f.page(matched, in.ExclusiveStartKey, in.Limit, keys[:])
	items, err := filterAndProject(page, in.FilterExpression, in.ProjectionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	return &dynamodb.QueryOutput{
		Items:            items,
		Count:            int32(len(items)),
		ScannedCount:     int32(len(page)),
		LastEvaluatedKey: last,
	}, nil
}

func (f *FakeDynamoDB) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Scan"); err != nil {
		return nil, err
	}
	all := make([]map[string]types.AttributeValue, 0, len(f.items))
	for _, item := range f.items {
		all = append(all, item)
	}
	sort.Slice(all, func(i, j int) bool {
		return stringAttr(all[i][f.hashKey]) < stringAttr(all[j][f.hashKey])
	})

	page, last := f.page(all, in.ExclusiveStartKey, in.Limit, nil)
	items, err := filterAndProject(page, in.FilterExpression, in.ProjectionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	return &dynamodb.ScanOutput{
		Items:            items,
		Count:            int32(len(items)),
		ScannedCount:     int32(len(page)),
		LastEvaluatedKey: last,
	}, nil
}

func (f *FakeDynamoDB) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DescribeTable"); err != nil {
		return nil, err
	}
	if !f.exists {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
		ItemCount:   aws.Int64(int64(len(f.items))),
	}}, nil
}

func (f *FakeDynamoDB) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateTable"); err != nil {
		return nil, err
	}
	if f.exists {
		return nil, &types.ResourceInUseException{Message: aws.String("table exists")}
	}
	f.exists = true
	for _, gsi := range in.GlobalSecondaryIndexes {
		var hash, rng string
		for _, k := range gsi.KeySchema {
			if k.KeyType == types.KeyTypeHash {
				hash = aws.ToString(k.AttributeName)
			} else {
				rng = aws.ToString(k.AttributeName)
			}
		}
		f.indexes[aws.ToString(gsi.IndexName)] = [2]string{hash, rng}
	}
	return &dynamodb.CreateTableOutput{TableDescription: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

// page applies ExclusiveStartKey and Limit before any filter, as DynamoDB does.
func (f *FakeDynamoDB) page(sorted []map[string]types.AttributeValue, start map[string]types.AttributeValue, limit *int32, indexKeys []string) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	from := 0
	if start != nil {
		startKey := f.keyOf(start)
		for i, item := range sorted {
			if stringAttr(item[f.hashKey]) == startKey {
				from = i + 1
				break
			}
		}
	}
	rest := sorted[from:]
	if limit == nil || int(*limit) >= len(rest) {
		return rest, nil
	}
	window := rest[:*limit]
	lastItem := window[len(window)-1]
	last := map[string]types.AttributeValue{f.hashKey: lastItem[f.hashKey]}
	for _, k := range indexKeys {
		if v, ok := lastItem[k]; ok {
			last[k] = v
		}
	}
	return window, last
}

func checkCondition(expr *string, names map[string]string, current map[string]types.AttributeValue) error {
	for _, m := range existsPattern.FindAllStringSubmatch(aws.ToString(expr), -1) {
		name := names[m[2]]
		_, present := current[name]
		wantAbsent := m[1] == "not_"
		if present == wantAbsent {
			return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	return nil
}

func equality(expr *string, names map[string]string, values map[string]types.AttributeValue) (string, types.AttributeValue, error) {
	m := assignPattern.FindStringSubmatch(aws.ToString(expr))
	if m == nil {
		return "", nil, fmt.Errorf("unsupported expression %q", aws.ToString(expr))
	}
	return names[m[1]], values[m[2]], nil
}

func filterAndProject(items []map[string]types.AttributeValue, filter, projection *string, names map[string]string, values map[string]types.AttributeValue) ([]map[string]types.AttributeValue, error) {
	var (
		filterName  string
		filterValue types.AttributeValue
	)
	if aws.ToString(filter) != "" {
		var err error
		if filterName, filterValue, err = equality(filter, names, values); err != nil {
			return nil, err
		}
	}
	var projected []string
	for _, p := range namePlaceholders.FindAllString(aws.ToString(projection), -1) {
		projected = append(projected, names[p])
	}

	out := make([]map[string]types.AttributeValue, 0, len(items))
	for _, item := range items {
		if filterName != "" && stringAttr(item[filterName]) != stringAttr(filterValue) {
			continue
		}
		if len(projected) == 0 {
			out = append(out, copyItem(item))
			continue
		}
		p := map[string]types.AttributeValue{}
		for _, name := range projected {
			if v, ok := item[name]; ok {
				p[name] = v
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func stringAttr(v types.AttributeValue) string {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value
	case *types.AttributeValueMemberN:
		return tv.Value
	case nil:
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
