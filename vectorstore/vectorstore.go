// Package vectorstore defines the Vector Store Driver abstraction
// (spec §4.7): a uniform store_vector(table, items) capability
// implemented by six heterogeneous backends, plus the shared metric
// mapping and vector-shaping helpers every driver applies before a
// write.
package vectorstore

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/vecmigrate/vecmigrate/record"
)

// Metric is the pipeline's backend-neutral distance metric.
type Metric string

const (
	MetricCosine    Metric = "cosine"
	MetricEuclidean Metric = "euclidean"
	MetricDotProduct Metric = "dotproduct"
)

// Item is one unit of work handed to a driver's Store call: a prepared
// record's id, vector, and metadata, already grouped by table.
type Item struct {
	ID       string
	Vector   []float32
	Metadata map[string]record.Value
}

// Driver is the uniform capability implemented by each of the six
// vector store backends (spec §4.7): store_vector(table, items). No
// read operations are specified.
type Driver interface {
	Store(ctx context.Context, table string, items []Item) error
}

// FromPreparedRecords groups PreparedRecords by table into the Item
// slices a Driver.Store call expects.
func FromPreparedRecords(recs []record.PreparedRecord) map[string][]Item {
	grouped := make(map[string][]Item)
	for _, r := range recs {
		grouped[r.Table] = append(grouped[r.Table], Item{ID: r.ID, Vector: r.Vector, Metadata: r.Metadata})
	}
	return grouped
}

// MapMetric normalizes a backend-foreign metric spelling into the
// pipeline's Metric, per spec §4.7's mapping table. Unknown spellings
// warn and default to cosine.
func MapMetric(raw string) Metric {
	switch raw {
	case "cosine", "Cosine", "COSINE":
		return MetricCosine
	case "euclidean", "l2", "Euclidean", "L2":
		return MetricEuclidean
	case "dotproduct", "ip", "Dot", "IP":
		return MetricDotProduct
	default:
		slog.Warn("vectorstore: unknown metric, defaulting to cosine", "metric", raw)
		return MetricCosine
	}
}

// ShapeVector pads or truncates vec to exactly dim elements with zeros,
// logging a warning when a shape change was needed (spec §4.7's vector
// shaping contract, shared by Chroma/Qdrant/Milvus/Pinecone/Redis).
func ShapeVector(driver, table string, vec []float32, dim int) []float32 {
	if len(vec) == dim {
		return vec
	}
	DriverLog(driver, table).Warn("vectorstore: vector length mismatch, reshaping", "got", len(vec), "want", dim)
	out := make([]float32, dim)
	copy(out, vec)
	return out
}

// StringifyMetadata flattens nested maps/lists in metadata to JSON-ish
// strings, for backends without structured payload support (Pinecone
// metadata, Chroma's scalar-only keys).
func StringifyMetadata(meta map[string]record.Value, keepScalarsOnly bool) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		switch v.(type) {
		case map[string]record.Value, []record.Value:
			if keepScalarsOnly {
				continue
			}
			out[k] = toJSONString(v)
		default:
			out[k] = v
		}
	}
	return out
}

func toJSONString(v record.Value) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
