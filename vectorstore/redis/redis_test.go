package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vecmigrate/vecmigrate/record"
	"github.com/vecmigrate/vecmigrate/vectorstore"
)

func TestRedisMetricMapping(t *testing.T) {
	assert.Equal(t, "COSINE", redisMetric(vectorstore.MetricCosine))
	assert.Equal(t, "L2", redisMetric(vectorstore.MetricEuclidean))
	assert.Equal(t, "IP", redisMetric(vectorstore.MetricDotProduct))
}

func TestHeuristicFieldsClassifiesScalarTypes(t *testing.T) {
	items := []vectorstore.Item{
		{ID: "1", Metadata: map[string]record.Value{
			"name": "Ada", "age": int64(30), "score": 9.5, "tags": []record.Value{"x"},
		}},
	}
	fields := heuristicFields(items)
	assert.Equal(t, "TEXT", fields["name"])
	assert.Equal(t, "NUMERIC", fields["age"])
	assert.Equal(t, "NUMERIC", fields["score"])
	assert.NotContains(t, fields, "tags")
}

func TestHeuristicFieldsEmptyWhenNoItems(t *testing.T) {
	assert.Empty(t, heuristicFields(nil))
}

func TestIsBenignConflictDetectsAlreadyExists(t *testing.T) {
	assert.True(t, isBenignConflict(errAlreadyExists{}))
	assert.False(t, isBenignConflict(errOther{}))
}

type errAlreadyExists struct{}

func (errAlreadyExists) Error() string { return "Index already exists" }

type errOther struct{}

func (errOther) Error() string { return "connection refused" }
