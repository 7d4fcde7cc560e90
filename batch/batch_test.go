package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vecmigrate/vecmigrate/vectorstore"
)

type recordingDriver struct {
	calls [][]vectorstore.Item
	failAt int
}

func (d *recordingDriver) Store(ctx context.Context, table string, items []vectorstore.Item) error {
	if d.failAt == len(d.calls) {
		d.calls = append(d.calls, items)
		return errors.New("driver failure")
	}
	d.calls = append(d.calls, items)
	return nil
}

func items(n int, vecLen int) []vectorstore.Item {
	out := make([]vectorstore.Item, n)
	for i := range out {
		out[i] = vectorstore.Item{ID: "id", Vector: make([]float32, vecLen)}
	}
	return out
}

func TestFlushRespectsChunkSize(t *testing.T) {
	driver := &recordingDriver{failAt: -1}
	c := New(driver, Limits{ChunkSize: 2})

	err := c.Flush(context.Background(), map[string][]vectorstore.Item{"t": items(5, 4)})
	require.NoError(t, err)

	total := 0
	for _, call := range driver.calls {
		assert.LessOrEqual(t, len(call), 2)
		total += len(call)
	}
	assert.Equal(t, 5, total)
}

func TestFlushRespectsPayloadBudget(t *testing.T) {
	driver := &recordingDriver{failAt: -1}
	// each item: id "id" (2 bytes) + 4*4 (vector) = 18 bytes; budget 30 allows at most one item per batch with margin
	c := New(driver, Limits{PayloadBudget: 30})

	err := c.Flush(context.Background(), map[string][]vectorstore.Item{"t": items(3, 4)})
	require.NoError(t, err)

	for _, call := range driver.calls {
		assert.LessOrEqual(t, len(call), 1)
	}
}

func TestFlushStopsOnFirstDriverError(t *testing.T) {
	driver := &recordingDriver{failAt: 0}
	c := New(driver, Limits{ChunkSize: 1})

	err := c.Flush(context.Background(), map[string][]vectorstore.Item{"t": items(3, 4)})
	assert.Error(t, err)
	assert.Len(t, driver.calls, 1)
}

func TestPartitionSingleBatchWhenNoLimits(t *testing.T) {
	c := New(nil, Limits{})
	batches := c.partition(items(4, 4))
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 4)
}
