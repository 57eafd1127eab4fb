package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookupQuery struct{ ID string }

func (q lookupQuery) Validate() error {
	if q.ID == "" {
		return errors.New("id is required")
	}
	return nil
}

type countingMetrics struct{ counts map[string]int }

type noopTimer struct{}

func (noopTimer) Stop() {}

func (m *countingMetrics) StartTimer(string, string) Timer { return noopTimer{} }
func (m *countingMetrics) Increment(metric, _ string)      { m.counts[metric]++ }

func TestQueryBus_Ask(t *testing.T) {
	b := NewQueryBus()
	require.NoError(t, b.Register(lookupQuery{}, QueryHandlerFunc(func(_ context.Context, q Query) (interface{}, error) {
		return q.(lookupQuery).ID, nil
	})))

	result, err := b.Ask(context.Background(), lookupQuery{ID: "proj_1"})
	require.NoError(t, err)
	assert.Equal(t, "proj_1", result)

	_, err = b.Ask(context.Background(), lookupQuery{})
	assert.EqualError(t, err, "id is required")
}

func TestQueryBus_UnregisteredQuery(t *testing.T) {
	_, err := NewQueryBus().Ask(context.Background(), lookupQuery{ID: "x"})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestQueryBus_MetricsMiddleware(t *testing.T) {
	metrics := &countingMetrics{counts: map[string]int{}}
	failing := errors.New("store down")
	b := NewQueryBus(MetricsMiddleware(metrics))
	require.NoError(t, b.Register(lookupQuery{}, QueryHandlerFunc(func(_ context.Context, q Query) (interface{}, error) {
		if q.(lookupQuery).ID == "bad" {
			return nil, failing
		}
		return "ok", nil
	})))

	_, err := b.Ask(context.Background(), lookupQuery{ID: "good"})
	require.NoError(t, err)
	_, err = b.Ask(context.Background(), lookupQuery{ID: "bad"})
	assert.ErrorIs(t, err, failing)

	assert.Equal(t, map[string]int{"query_count": 2, "query_success": 1, "query_errors": 1}, metrics.counts)
}
