package dynamodb

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"agentdev-backend/domain/project"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// FieldKind decides how a field is encoded on the wire.
type FieldKind int

const (
	KindScalar FieldKind = iota
	KindTimestamp
	KindStructuredJSON
)

func (k FieldKind) String() string {
	switch k {
	case KindTimestamp:
		return "timestamp"
	case KindStructuredJSON:
		return "structured_json"
	default:
		return "scalar"
	}
}

// ProjectSchema lists every stored project attribute and its kind. It is the
// single source both codec directions consult.
var ProjectSchema = map[project.Field]FieldKind{
	project.FieldProjectID:          KindScalar,
	project.FieldName:               KindScalar,
	project.FieldDescription:        KindScalar,
	project.FieldUserID:             KindScalar,
	project.FieldStatus:             KindScalar,
	project.FieldProjectType:        KindScalar,
	project.FieldComplexity:         KindScalar,
	project.FieldRequirements:       KindStructuredJSON,
	project.FieldMetadata:           KindStructuredJSON,
	project.FieldCreatedAt:          KindTimestamp,
	project.FieldUpdatedAt:          KindTimestamp,
	project.FieldStartedAt:          KindTimestamp,
	project.FieldCompletedAt:        KindTimestamp,
	project.FieldDeadline:           KindTimestamp,
	project.FieldProgressPercentage: KindScalar,
	project.FieldTotalTasks:         KindScalar,
	project.FieldCompletedTasks:     KindScalar,
	project.FieldAssignedAgents:     KindStructuredJSON,
	project.FieldActiveAgents:       KindStructuredJSON,
	project.FieldTeamMembers:        KindStructuredJSON,
	project.FieldChannels:           KindStructuredJSON,
	project.FieldSettings:           KindStructuredJSON,
	project.FieldRepositoryURL:      KindScalar,
	project.FieldRepositoryBranch:   KindScalar,
}

// TimestampLayout is fixed width in UTC so string order on the owner index
// matches time order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Layouts accepted when reading, including naive values without an offset.
var timestampReadLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// FormatTimestamp renders t the way the store writes it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Microsecond).Format(TimestampLayout)
}

// ParseTimestamp accepts any layout the store has ever written. Offset-less
// values are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampReadLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Codec converts project records to DynamoDB items and back.
type Codec struct {
	schema map[project.Field]FieldKind
}

// NewCodec creates a codec over ProjectSchema.
func NewCodec() *Codec {
	return &Codec{schema: ProjectSchema}
}

// Kind returns the schema kind of a field and whether the field is known.
func (c *Codec) Kind(field string) (FieldKind, bool) {
	k, ok := c.schema[project.Field(field)]
	return k, ok
}

// EncodeValue pre-encodes one value: timestamps become ISO-8601 strings and
// nested values become compact JSON text. Fields outside the schema are
// encoded by their Go type alone.
func (c *Codec) EncodeValue(field string, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	kind, known := c.Kind(field)

	switch tv := v.(type) {
	case time.Time:
		return FormatTimestamp(tv), nil
	case *time.Time:
		if tv == nil {
			return nil, nil
		}
		return FormatTimestamp(*tv), nil
	case string:
		// already encoded, or a plain string
		return tv, nil
	}

	if (known && kind == KindStructuredJSON) || isNested(v) {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", field, err)
		}
		return string(raw), nil
	}
	return v, nil
}

func isNested(v interface{}) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	}
	return false
}

// Serialize encodes a record into a DynamoDB item.
func (c *Codec) Serialize(rec map[string]interface{}) (map[string]types.AttributeValue, error) {
	encoded := make(map[string]interface{}, len(rec))
	for field, v := range rec {
		ev, err := c.EncodeValue(field, v)
		if err != nil {
			return nil, err
		}
		encoded[field] = ev
	}
	item, err := attributevalue.MarshalMap(encoded)
	if err != nil {
		return nil, fmt.Errorf("marshal item: %w", err)
	}
	return item, nil
}

// Deserialize decodes an item. Timestamp and structured fields that fail to
// parse are left as their raw strings; numbers come back as float64.
func (c *Codec) Deserialize(item map[string]types.AttributeValue) (map[string]interface{}, error) {
	rec := make(map[string]interface{}, len(item))
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	for field, v := range rec {
		s, ok := v.(string)
		if !ok {
			continue
		}
		kind, _ := c.Kind(field)
		switch kind {
		case KindTimestamp:
			if t, ok := ParseTimestamp(s); ok {
				rec[field] = t
			}
		case KindStructuredJSON:
			var nested interface{}
			if err := json.Unmarshal([]byte(s), &nested); err == nil {
				rec[field] = nested
			}
		}
	}
	return rec, nil
}
