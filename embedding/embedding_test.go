package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vecmigrate/vecmigrate/record"
)

type fakeProvider struct {
	dim     int
	calls   int
	failN   int
	wrongAt int
}

func (f *fakeProvider) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failN > 0 {
		f.failN--
		return nil, assertErr{}
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		dim := f.dim
		if f.wrongAt > 0 && i == f.wrongAt {
			dim = dim + 1
		}
		out[i] = make([]float32, dim)
	}
	return out, nil
}

type assertErr struct{}

func (assertErr) Error() string { return "transient failure" }

func records(n int) []record.Record {
	recs := make([]record.Record, n)
	for i := range recs {
		recs[i] = record.Record{Table: "t", Fields: map[string]record.Value{"name": "x"}}
	}
	return recs
}

func TestRunProducesOnePreparedRecordPerInput(t *testing.T) {
	o := New(Params{ChunkSize: 2, Dimension: 4})
	prepared, err := o.Run(context.Background(), records(5), &fakeProvider{dim: 4})
	require.NoError(t, err)
	require.Len(t, prepared, 5)
	for _, p := range prepared {
		assert.Equal(t, "t", p.Table)
		assert.Len(t, p.Vector, 4)
		assert.NotEmpty(t, p.ID)
	}
}

func TestRunFailsOnDimensionMismatch(t *testing.T) {
	o := New(Params{ChunkSize: 10, Dimension: 4})
	_, err := o.Run(context.Background(), records(3), &fakeProvider{dim: 4, wrongAt: 1})
	require.Error(t, err)
	var dimErr *DimensionError
	assert.ErrorAs(t, err, &dimErr)
}

func TestRunRetriesTransientFailure(t *testing.T) {
	o := New(Params{ChunkSize: 10, Dimension: 4, MaxRetries: 2, RetryDelay: 0})
	provider := &fakeProvider{dim: 4, failN: 1}
	prepared, err := o.Run(context.Background(), records(2), provider)
	require.NoError(t, err)
	assert.Len(t, prepared, 2)
	assert.Equal(t, 2, provider.calls)
}

func TestRunAutodetectsDimensionWhenUnconfigured(t *testing.T) {
	o := New(Params{ChunkSize: 10, Dimension: 0})
	prepared, err := o.Run(context.Background(), records(4), &fakeProvider{dim: 7})
	require.NoError(t, err)
	require.Len(t, prepared, 4)
	for _, p := range prepared {
		assert.Len(t, p.Vector, 7)
	}
}

func TestRunFailsWhenAutodetectedDimensionIsInconsistent(t *testing.T) {
	o := New(Params{ChunkSize: 10, Dimension: 0})
	_, err := o.Run(context.Background(), records(3), &fakeProvider{dim: 7, wrongAt: 1})
	require.Error(t, err)
	var dimErr *DimensionError
	assert.ErrorAs(t, err, &dimErr)
}

func TestRunEmptyInputReturnsNoRecords(t *testing.T) {
	o := New(Params{})
	prepared, err := o.Run(context.Background(), nil, &fakeProvider{dim: 4})
	require.NoError(t, err)
	assert.Empty(t, prepared)
}

func TestTruncateAppliesTokenCap(t *testing.T) {
	o := New(Params{TokenCapChars: 3})
	assert.Equal(t, "abc", o.truncate("abcdef"))
	assert.Equal(t, "ab", o.truncate("ab"))
}
