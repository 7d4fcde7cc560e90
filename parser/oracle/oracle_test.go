package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario4FromSpec(t *testing.T) {
	chunk := `Insert into S.T ("A","B") values (42, to_timestamp('2024-01-02','YYYY-MM-DD'));`

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)

	assert.Equal(t, "T", recs[0].Table)
	assert.Equal(t, int64(42), recs[0].Fields["A"])
	assert.Equal(t, "2024-01-02", recs[0].Fields["B"])
}

func TestParseWithoutSchemaPrefix(t *testing.T) {
	chunk := `Insert into "PERSON" ("NAME") values ('Ada');`

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "PERSON", recs[0].Table)
	assert.Equal(t, "Ada", recs[0].Fields["NAME"])
}

func TestParseNullAndEscapedQuote(t *testing.T) {
	chunk := `Insert into T ("A","B") values (NULL, 'it''s here');`

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].Fields["A"])
	assert.Equal(t, "it's here", recs[0].Fields["B"])
}

func TestParseColumnValueMismatchSkipsRow(t *testing.T) {
	chunk := `Insert into T ("A","B") values (1, 2, 3);`

	recs, errs := New().Parse(chunk)
	assert.Empty(t, recs)
	require.Len(t, errs, 1)
}
