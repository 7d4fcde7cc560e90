// Package batch implements the Batch Controller (spec §4.8): it
// partitions a table's items into contiguous batches bounded by a
// payload-byte budget and a count ceiling, then flushes each batch
// through a vector store driver. Any driver error terminates the
// migration immediately.
package batch

import (
	"context"
	"encoding/json"

	"github.com/vecmigrate/vecmigrate/vectorstore"
	"golang.org/x/sync/errgroup"
)

// Limits bounds a single store_vector call: PayloadBudget is the
// cumulative serialized-size ceiling in bytes (id bytes + 4*D for the
// vector + JSON-encoded metadata bytes); ChunkSize is the count
// ceiling.
type Limits struct {
	PayloadBudget int
	ChunkSize     int
}

// Controller partitions and flushes batches of vectorstore.Item through
// a Driver, per table.
type Controller struct {
	Driver vectorstore.Driver
	Limits Limits
}

func New(driver vectorstore.Driver, limits Limits) *Controller {
	return &Controller{Driver: driver, Limits: limits}
}

// Flush partitions grouped items into batches respecting Limits and
// calls Driver.Store once per batch. Tables are flushed concurrently
// (errgroup); within a table, batches are flushed in order and the
// first driver error for that table aborts it. The first error across
// all tables is returned.
func (c *Controller) Flush(ctx context.Context, grouped map[string][]vectorstore.Item) error {
	g, gctx := errgroup.WithContext(ctx)
	for table, items := range grouped {
		table, items := table, items
		g.Go(func() error {
			for _, batch := range c.partition(items) {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := c.Driver.Store(gctx, table, batch); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (c *Controller) partition(items []vectorstore.Item) [][]vectorstore.Item {
	chunkSize := c.Limits.ChunkSize
	if chunkSize <= 0 {
		chunkSize = len(items)
		if chunkSize == 0 {
			chunkSize = 1
		}
	}
	budget := c.Limits.PayloadBudget

	var batches [][]vectorstore.Item
	var current []vectorstore.Item
	currentSize := 0

	for _, item := range items {
		size := itemSize(item)
		exceedsBudget := budget > 0 && len(current) > 0 && currentSize+size > budget
		exceedsCount := len(current) >= chunkSize
		if exceedsBudget || exceedsCount {
			batches = append(batches, current)
			current = nil
			currentSize = 0
		}
		current = append(current, item)
		currentSize += size
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// itemSize estimates the serialized size of an item per spec §4.8: id
// bytes + 4*D for the float32 vector + JSON-encoded metadata bytes.
func itemSize(item vectorstore.Item) int {
	size := len(item.ID) + 4*len(item.Vector)
	if item.Metadata != nil {
		if encoded, err := json.Marshal(item.Metadata); err == nil {
			size += len(encoded)
		}
	}
	return size
}
