package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vecmigrate/vecmigrate/record"
)

func TestParseScenario3FromSpec(t *testing.T) {
	chunk := "COPY public.u (a,b) FROM stdin;\n1\tx\n2\t\\N\n\\.\n"

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 2)

	assert.Equal(t, "u", recs[0].Table)
	assert.Equal(t, "1", recs[0].Fields["a"])
	assert.Equal(t, "x", recs[0].Fields["b"])

	assert.Equal(t, "2", recs[1].Fields["a"])
	assert.Nil(t, recs[1].Fields["b"])
}

func TestParseUsesCreateTableColumnsWhenPresent(t *testing.T) {
	chunk := "CREATE TABLE widgets (id integer, name text, tags text);\n" +
		"COPY public.widgets (id, name, tags) FROM stdin;\n1\tgizmo\t{a,b}\n\\.\n"

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "widgets", recs[0].Table)
	assert.Equal(t, "gizmo", recs[0].Fields["name"])
	assert.Equal(t, []record.Value{"a", "b"}, recs[0].Fields["tags"])
}

func TestParseDecodesJSONColumn(t *testing.T) {
	chunk := `COPY public.docs (id,payload) FROM stdin;` + "\n" +
		`1` + "\t" + `{"k": 1}` + "\n" + `\.` + "\n"

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]record.Value{"k": int64(1)}, recs[0].Fields["payload"])
}

func TestParseDecodesPostgresArrayLiteralThatIsNotJSON(t *testing.T) {
	chunk := "COPY public.docs (id,tags) FROM stdin;\n1\t{a,\"b,c\",NULL}\n\\.\n"

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, []record.Value{"a", "b,c", nil}, recs[0].Fields["tags"])
}

func TestParseUnescapesBackslashSequences(t *testing.T) {
	chunk := "COPY public.docs (id,note) FROM stdin;\n1\tline one\\nline two\n\\.\n"

	recs, errs := New().Parse(chunk)
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "line one\nline two", recs[0].Fields["note"])
}

func TestParseMismatchedColumnCountYieldsError(t *testing.T) {
	chunk := "COPY public.u (a,b) FROM stdin;\n1\tx\ty\n\\.\n"

	recs, errs := New().Parse(chunk)
	assert.Empty(t, recs)
	require.Len(t, errs, 1)
}
