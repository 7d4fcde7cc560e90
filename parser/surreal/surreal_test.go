package surreal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario1FromSpec(t *testing.T) {
	chunk := "-- TABLE DATA: person\n" +
		"INSERT [ { id: person:1, name: 'Ada', score: 9.5f } ]; "

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)

	assert.Equal(t, "person", recs[0].Table)
	assert.NotContains(t, recs[0].Fields, "id")
	assert.Equal(t, "Ada", recs[0].Fields["name"])
	assert.Equal(t, 9.5, recs[0].Fields["score"])
}

func TestParseExplicitIntoTableOverridesHeader(t *testing.T) {
	chunk := "-- TABLE DATA: person\n" +
		"INSERT INTO widget [ { id: widget:1, sku: 'W-1' } ];"

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "widget", recs[0].Table)
	assert.Equal(t, "W-1", recs[0].Fields["sku"])
}

func TestParseMultipleRecordsInOneStatement(t *testing.T) {
	chunk := "-- TABLE DATA: person\n" +
		"INSERT [ { id: person:1, name: 'Ada' }, { id: person:2, name: 'Bob' } ];"

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 2)
	assert.Equal(t, "Ada", recs[0].Fields["name"])
	assert.Equal(t, "Bob", recs[1].Fields["name"])
}

func TestParseFallsBackToUnknownTableWithoutHeader(t *testing.T) {
	chunk := "INSERT [ { name: 'Ada' } ];"

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "unknown_table", recs[0].Table)
}
