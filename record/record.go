// Package record defines the Record and PreparedRecord types that flow
// through the migration pipeline: a parser emits Records, the embedding
// orchestrator turns them into PreparedRecords, and the vector store
// drivers consume PreparedRecords grouped by table.
package record

import (
	"strings"

	"github.com/google/uuid"
)

// Value is the dynamic type of a decoded dump field: nil, bool, int64,
// float64, string, []Value, or map[string]Value.
type Value = any

// Record is a single row recovered from a dump, tagged with its source
// table. Fields is the decoded column set excluding "table" and "id"
// (Invariant P2: any case-insensitive "id" key is stripped before the
// Record is considered complete).
type Record struct {
	Table  string
	Fields map[string]Value
}

// New creates a Record for table, stripping any case-insensitive "id"
// field from fields. Returns false if the record has no fields left
// after stripping (Invariant: table-only records are discarded).
func New(table string, fields map[string]Value) (Record, bool) {
	StripID(fields)
	if len(fields) == 0 {
		return Record{}, false
	}
	return Record{Table: table, Fields: fields}, true
}

// StripID removes any key that case-insensitively equals "id" from
// fields, in place. Upstream identifiers are never preserved; the
// embedding stage mints a fresh id for every PreparedRecord.
func StripID(fields map[string]Value) {
	for k := range fields {
		if strings.EqualFold(k, "id") {
			delete(fields, k)
		}
	}
}

// PreparedRecord is the output of the embedding stage: a Record paired
// with a freshly minted id and a dense embedding vector of the
// configured dimension D (Invariant P4, checked by the orchestrator
// before handing records to a driver).
type PreparedRecord struct {
	Table    string
	ID       string
	Vector   []float32
	Metadata map[string]Value
}

// NewID mints a fresh identifier for a PreparedRecord. Upstream row ids
// recovered from a dump are never reused (spec invariant P2).
func NewID() string {
	return uuid.NewString()
}

// Text renders a Record as a compact "key: value" blob for embedding,
// excluding the table tag and any remaining id-shaped field. Field
// order follows a stable, sorted traversal so the same Record always
// serializes to the same text.
func Text(r Record) string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		if strings.EqualFold(k, "id") {
			continue
		}
		keys = append(keys, k)
	}
	sortStrings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		writeValue(&sb, r.Fields[k])
	}
	return sb.String()
}

func writeValue(sb *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil:
		sb.WriteString("null")
	case string:
		sb.WriteString(x)
	case []Value:
		sb.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, e)
		}
		sb.WriteByte(']')
	case map[string]Value:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sortStrings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			writeValue(sb, x[k])
		}
		sb.WriteByte('}')
	default:
		sb.WriteString(toString(x))
	}
}

func sortStrings(s []string) {
	// small-N insertion sort keeps this allocation-free for typical row widths
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
