package dynamodb

import (
	"fmt"
	"sort"

	"agentdev-backend/domain/project"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

// UpdateBuilder turns a change set into a SET update expression. Names and
// values are always bound through placeholders.
type UpdateBuilder struct {
	codec *Codec
}

// NewUpdateBuilder creates a builder that pre-encodes values with codec.
func NewUpdateBuilder(codec *Codec) *UpdateBuilder {
	return &UpdateBuilder{codec: codec}
}

// Build returns the update expression, optionally guarded by condition.
// Fields are added in sorted order so the placeholders are deterministic.
func (b *UpdateBuilder) Build(changes project.Changes, condition *expression.ConditionBuilder) (expression.Expression, error) {
	if len(changes) == 0 {
		return expression.Expression{}, project.ErrEmptyUpdate
	}

	fields := make([]string, 0, len(changes))
	for f := range changes {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	var update expression.UpdateBuilder
	for _, field := range fields {
		value, err := b.codec.EncodeValue(field, changes[project.Field(field)])
		if err != nil {
			return expression.Expression{}, err
		}
		update = update.Set(expression.Name(field), expression.Value(value))
	}

	builder := expression.NewBuilder().WithUpdate(update)
	if condition != nil {
		builder = builder.WithCondition(*condition)
	}
	expr, err := builder.Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("failed to build update expression: %w", err)
	}
	return expr, nil
}
