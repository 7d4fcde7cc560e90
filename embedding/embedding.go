// Package embedding implements the Embedding Orchestrator (spec §4.6):
// it drives a pluggable Provider over chunked input with bounded
// concurrency and retry, validating every returned vector against the
// configured dimension before minting PreparedRecords.
package embedding

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vecmigrate/vecmigrate/record"
	"github.com/vecmigrate/vecmigrate/util"
)

// Provider is the single polymorphic capability every embedding backend
// implements: turn a batch of texts into a batch of equal-length vectors.
type Provider interface {
	GenerateBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Params holds the shared orchestrator parameters (spec §4.6): chunk
// size C, maximum concurrency K, request timeout T, maximum retry
// attempts R, retry delay Δ, target dimension D, and the character cap
// L applied to any single serialized record before it is sent.
type Params struct {
	ChunkSize     int
	Concurrency   int
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	Dimension     int
	TokenCapChars int
}

// DimensionError reports a provider returning a vector of the wrong
// length; per spec §4.6 this is always fatal at the orchestrator level
// ("dimension mismatches either fail ... or are zero-padded (drivers)" —
// the padding allowance belongs to the vector store drivers, not here).
type DimensionError struct {
	Want, Got int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding: expected dimension %d, got %d", e.Want, e.Got)
}

// CountMismatchError reports a provider returning a different number of
// vectors than texts requested.
type CountMismatchError struct {
	Want, Got int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("embedding: requested %d vectors, provider returned %d", e.Want, e.Got)
}

// Orchestrator runs a Provider over a list of Records, per Params.
type Orchestrator struct {
	Params Params
}

func New(params Params) *Orchestrator {
	return &Orchestrator{Params: params}
}

// Run embeds every record in recs via provider, returning PreparedRecords
// in the same order as recs. A failure on any chunk is fatal for the
// whole batch: no partial results are returned (spec §4.6).
func (o *Orchestrator) Run(ctx context.Context, recs []record.Record, provider Provider) ([]record.PreparedRecord, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	chunkSize := o.Params.ChunkSize
	if chunkSize <= 0 {
		chunkSize = len(recs)
	}

	var chunks [][]record.Record
	for i := 0; i < len(recs); i += chunkSize {
		end := i + chunkSize
		if end > len(recs) {
			end = len(recs)
		}
		chunks = append(chunks, recs[i:end])
	}

	// detectedDim implements spec §4.6.1's dimension autodetection: when
	// Params.Dimension is left at 0, the first vector any chunk observes
	// sets the dimension every other vector (in this chunk and every
	// other concurrently running chunk) is validated against.
	var detectedDim atomic.Int64

	results, err := util.ConcurrentMapFuncWithError(chunks, o.Params.Concurrency, func(chunk []record.Record) ([]record.PreparedRecord, error) {
		return o.runChunk(ctx, chunk, provider, &detectedDim)
	})
	if err != nil {
		return nil, err
	}

	var out []record.PreparedRecord
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (o *Orchestrator) runChunk(ctx context.Context, chunk []record.Record, provider Provider, detectedDim *atomic.Int64) ([]record.PreparedRecord, error) {
	texts := make([]string, len(chunk))
	for i, rec := range chunk {
		texts[i] = o.truncate(record.Text(rec))
	}

	vectors, err := o.generateWithRetry(ctx, provider, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, &CountMismatchError{Want: len(texts), Got: len(vectors)}
	}

	prepared := make([]record.PreparedRecord, len(chunk))
	for i, rec := range chunk {
		vec := vectors[i]
		if err := o.checkDimension(detectedDim, vec); err != nil {
			return nil, err
		}
		prepared[i] = record.PreparedRecord{
			Table:    rec.Table,
			ID:       record.NewID(),
			Vector:   vec,
			Metadata: rec.Fields,
		}
	}
	return prepared, nil
}

// checkDimension validates vec against the configured dimension, or,
// when Params.Dimension is 0, adopts the length of the first vector any
// chunk observes and validates every subsequent vector against it
// (spec §4.6.1, provider dimension autodetection).
func (o *Orchestrator) checkDimension(detectedDim *atomic.Int64, vec []float32) error {
	if o.Params.Dimension > 0 {
		if len(vec) != o.Params.Dimension {
			return &DimensionError{Want: o.Params.Dimension, Got: len(vec)}
		}
		return nil
	}

	if detectedDim.CompareAndSwap(0, int64(len(vec))) {
		return nil
	}
	want := int(detectedDim.Load())
	if len(vec) != want {
		return &DimensionError{Want: want, Got: len(vec)}
	}
	return nil
}

func (o *Orchestrator) generateWithRetry(ctx context.Context, provider Provider, texts []string) ([][]float32, error) {
	var vectors [][]float32

	op := func() error {
		callCtx := ctx
		var cancel context.CancelFunc
		if o.Params.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, o.Params.Timeout)
			defer cancel()
		}
		v, err := provider.GenerateBatch(callCtx, texts)
		if err != nil {
			return err
		}
		vectors = v
		return nil
	}

	maxRetries := o.Params.MaxRetries
	if maxRetries <= 0 {
		err := op()
		return vectors, err
	}

	delay := o.Params.RetryDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(maxRetries))
	err := backoff.Retry(op, backoff.WithContext(bo, ctx))
	return vectors, err
}

func (o *Orchestrator) truncate(s string) string {
	if o.Params.TokenCapChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= o.Params.TokenCapChars {
		return s
	}
	return string(runes[:o.Params.TokenCapChars])
}
