// Package surreal implements the SurrealDB dialect parser (spec §4.3.1):
// it locates `INSERT [INTO <table>] [ ... ];` statements, splits the
// array body into per-record fragments, rewrites each fragment from
// SurrealDB's relaxed object syntax into valid JSON, and decodes it.
// When the INTO clause is absent, the table name is carried forward
// from the most recent `-- TABLE DATA: <table>` header.
package surreal

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/vecmigrate/vecmigrate/parser"
	"github.com/vecmigrate/vecmigrate/record"
)

var (
	statementRe  = regexp.MustCompile(`(?is)--\s*TABLE DATA:\s*([\w$]+)|INSERT\s*(?:INTO\s+([\w$]+))?\s*\[(.*?)\]\s*;`)
	fragSplitRe  = regexp.MustCompile(`,\s*\{`)
	idFieldRe    = regexp.MustCompile(`(?i)\bid\b\s*:\s*(?:'[^']*'|"[^"]*"|[^,}]+),?\s*`)
	danglingComma = regexp.MustCompile(`,\s*([}\]])`)
	leadingComma = regexp.MustCompile(`([{\[])\s*,`)
	doubleComma  = regexp.MustCompile(`,\s*,`)
	bareKeyRe    = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)
	trailingFRe  = regexp.MustCompile(`([0-9])f\b`)
)

type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Parse(chunk string) ([]record.Record, []error) {
	tracker := parser.NewTableTracker("unknown_table")

	var records []record.Record
	var errs []error

	for _, m := range statementRe.FindAllStringSubmatch(chunk, -1) {
		if m[1] != "" {
			tracker.Set(m[1])
			continue
		}

		table := m[2]
		if table == "" {
			table = tracker.Get()
		}

		for _, frag := range splitFragments(m[3]) {
			fields, err := decodeFragment(frag)
			if err != nil {
				errs = append(errs, &parser.ParseError{Dialect: "surreal", Excerpt: frag, Err: err})
				continue
			}
			if rec, ok := record.New(table, fields); ok {
				records = append(records, rec)
			}
		}
	}

	return records, errs
}

func splitFragments(body string) []string {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	raw := fragSplitRe.Split(body, -1)
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		f = strings.TrimSpace(f)
		f = strings.Trim(f, ",")
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if !strings.HasPrefix(f, "{") {
			f = "{" + f
		}
		if !strings.HasSuffix(f, "}") {
			f = f + "}"
		}
		out = append(out, f)
	}
	return out
}

// decodeFragment rewrites one SurrealDB-style object literal into JSON
// and unmarshals it, following spec §4.3.1's rewrite pipeline in order:
// strip id, trim stray commas, quote bare keys, swap quotes, strip
// trailing float suffixes, parse.
func decodeFragment(frag string) (map[string]record.Value, error) {
	frag = idFieldRe.ReplaceAllString(frag, "")
	frag = danglingComma.ReplaceAllString(frag, "$1")
	frag = leadingComma.ReplaceAllString(frag, "$1")
	frag = doubleComma.ReplaceAllString(frag, ",")
	frag = bareKeyRe.ReplaceAllString(frag, `$1"$2"$3`)
	frag = strings.ReplaceAll(frag, "'", `"`)
	frag = trailingFRe.ReplaceAllString(frag, "$1")

	var raw map[string]any
	if err := json.Unmarshal([]byte(frag), &raw); err != nil {
		return nil, err
	}

	out := make(map[string]record.Value, len(raw))
	for k, v := range raw {
		out[k] = normalizeJSON(v)
	}
	return out, nil
}

func normalizeJSON(v any) record.Value {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]record.Value, len(x))
		for k, e := range x {
			out[k] = normalizeJSON(e)
		}
		return out
	case []any:
		out := make([]record.Value, len(x))
		for i, e := range x {
			out[i] = normalizeJSON(e)
		}
		return out
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
		return x
	default:
		return x
	}
}
