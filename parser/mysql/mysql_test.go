package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vecmigrate/vecmigrate/record"
)

func TestParseScenario2FromSpec(t *testing.T) {
	chunk := "CREATE TABLE t (id INT, payload JSON, note VARCHAR(10));\n" +
		`INSERT INTO t VALUES (1,'{"k":1}','hi'),(2,'[1,2]','');`

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 2)

	assert.Equal(t, "t", recs[0].Table)
	assert.NotContains(t, recs[0].Fields, "id")
	assert.Equal(t, map[string]record.Value{"k": int64(1)}, recs[0].Fields["payload"])
	assert.Equal(t, "hi", recs[0].Fields["note"])

	assert.Equal(t, []record.Value{int64(1), int64(2)}, recs[1].Fields["payload"])
	assert.Equal(t, "", recs[1].Fields["note"])
}

func TestParseWithExplicitColumnList(t *testing.T) {
	chunk := "INSERT INTO users (id, name, age) VALUES (1, 'Ada', 30);"
	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "Ada", recs[0].Fields["name"])
	assert.Equal(t, int64(30), recs[0].Fields["age"])
}

func TestParseColumnValueMismatchSkipsRow(t *testing.T) {
	chunk := "INSERT INTO users (id, name) VALUES (1, 'Ada', 'extra');"
	recs, errs := New().Parse(chunk)
	assert.Empty(t, recs)
	require.Len(t, errs, 1)
}

func TestParseFallsBackToSyntheticColumnNames(t *testing.T) {
	chunk := "INSERT INTO mystery VALUES (1, 'Ada', 'bio text');"
	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "Ada", recs[0].Fields["name"])
	assert.Equal(t, "bio text", recs[0].Fields["description"])
}

func TestParseIgnoresConstraintLines(t *testing.T) {
	chunk := "CREATE TABLE t (id INT, name VARCHAR(10), PRIMARY KEY (id), UNIQUE KEY name_idx (name));\n" +
		"INSERT INTO t VALUES (1, 'Ada');"
	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "Ada", recs[0].Fields["name"])
}

func TestParseNullAndEscapedString(t *testing.T) {
	chunk := `INSERT INTO t (a, b) VALUES (NULL, 'it\'s here');`
	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].Fields["a"])
	assert.Equal(t, "it's here", recs[0].Fields["b"])
}
