package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWithCreateTableColumns(t *testing.T) {
	chunk := `PRAGMA foreign_keys=OFF;
CREATE TABLE "person" ("id" INTEGER PRIMARY KEY, "name" TEXT, "score" REAL);
INSERT INTO "person" VALUES (1,'Ada',9.5);`

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "person", recs[0].Table)
	assert.NotContains(t, recs[0].Fields, "id")
	assert.Equal(t, "Ada", recs[0].Fields["name"])
	assert.Equal(t, 9.5, recs[0].Fields["score"])
}

func TestParseSkipsSqliteSequenceTable(t *testing.T) {
	chunk := `INSERT INTO sqlite_sequence VALUES('person',1);`

	recs, errs := New().Parse(chunk)
	assert.Empty(t, errs)
	assert.Empty(t, recs)
}

func TestParseIgnoresConstraintLines(t *testing.T) {
	chunk := `CREATE TABLE t (id INTEGER, name TEXT, UNIQUE(name), CHECK(id > 0));
INSERT INTO t VALUES (1, 'Ada');`

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "Ada", recs[0].Fields["name"])
}

func TestParseEscapedQuoteAndNull(t *testing.T) {
	chunk := `INSERT INTO t (a, b) VALUES (NULL, 'it''s here');`

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].Fields["a"])
	assert.Equal(t, "it's here", recs[0].Fields["b"])
}

func TestParseFallsBackToSyntheticColumnNames(t *testing.T) {
	chunk := `INSERT INTO mystery VALUES (1, 'Ada', 'bio text');`

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "Ada", recs[0].Fields["name"])
	assert.Equal(t, "bio text", recs[0].Fields["description"])
}
