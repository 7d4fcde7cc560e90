// Package workflow implements the Workflow Coordinator (spec §4.9): it
// sequences the reader, detector, parser, optional embedding subprocess
// readiness wait, embedding orchestrator, and batch controller, and
// reports a final summary.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vecmigrate/vecmigrate/batch"
	"github.com/vecmigrate/vecmigrate/detect"
	"github.com/vecmigrate/vecmigrate/embedding"
	"github.com/vecmigrate/vecmigrate/exclude"
	"github.com/vecmigrate/vecmigrate/htmlclean"
	"github.com/vecmigrate/vecmigrate/parser"
	"github.com/vecmigrate/vecmigrate/reader"
	"github.com/vecmigrate/vecmigrate/record"
	"github.com/vecmigrate/vecmigrate/vectorstore"
	"github.com/k0kubun/pp/v3"
)

// Dialects maps every supported detect.Format to the parser.Dialect
// that decodes it. detect.Unknown has no entry; Run fails with
// ErrUnknownFormat when lookup misses.
type Dialects map[detect.Format]parser.Dialect

// ErrUnknownFormat is returned when the dump's detected format has no
// registered dialect parser.
type ErrUnknownFormat struct {
	Path string
}

func (e *ErrUnknownFormat) Error() string {
	return fmt.Sprintf("workflow: %s: could not determine dump dialect", e.Path)
}

// Progress holds the atomic counters external spinners poll while a
// migration runs (spec §4.9: "the coordinator does not implement
// [spinners], it drives the counters").
type Progress struct {
	TotalRecords     atomic.Int64
	ProcessedRecords atomic.Int64
}

// Summary is the coordinator's final report.
type Summary struct {
	TotalRecords     int64
	ProcessedRecords int64
	ElapsedSeconds   float64
}

// Coordinator wires the pipeline stages together.
type Coordinator struct {
	Dialects     Dialects
	Provider     embedding.Provider
	Orchestrator *embedding.Orchestrator
	Batch        *batch.Controller
	Rules        exclude.Rules
	ReadySignal  func(ctx context.Context) error // optional embedding-subprocess readiness wait (spec §4.9 step 3)
	Debug        bool                            // pretty-print parsed records before embedding

	Progress Progress
}

// Run executes the full pipeline against the dump at path.
func (c *Coordinator) Run(ctx context.Context, path string) (Summary, error) {
	start := time.Now()

	content, err := reader.Read(path)
	if err != nil {
		return Summary{}, err
	}

	format := detect.Detect(path, content)
	dialect, ok := c.Dialects[format]
	if !ok {
		return Summary{}, &ErrUnknownFormat{Path: path}
	}

	recs, parseErrs := dialect.Parse(content)
	for _, e := range parseErrs {
		slog.Warn("workflow: parse error, skipping fragment", "error", e)
	}

	recs = cleanAndFilter(c.Rules, recs)
	c.Progress.TotalRecords.Store(int64(len(recs)))

	if c.Debug {
		for _, r := range recs {
			pp.Println(r)
		}
	}

	if c.ReadySignal != nil {
		if err := c.ReadySignal(ctx); err != nil {
			return Summary{}, err
		}
	}

	prepared, err := c.Orchestrator.Run(ctx, recs, c.Provider)
	if err != nil {
		return Summary{}, err
	}

	grouped := vectorstore.FromPreparedRecords(prepared)
	if err := c.Batch.Flush(ctx, grouped); err != nil {
		return Summary{}, err
	}
	c.Progress.ProcessedRecords.Store(int64(len(prepared)))

	return Summary{
		TotalRecords:     int64(len(recs)),
		ProcessedRecords: int64(len(prepared)),
		ElapsedSeconds:   time.Since(start).Seconds(),
	}, nil
}

func cleanAndFilter(rules exclude.Rules, recs []record.Record) []record.Record {
	for i := range recs {
		recs[i] = htmlclean.Record(recs[i])
	}
	return exclude.Apply(rules, recs)
}
