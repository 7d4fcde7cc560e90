// Package htmlclean implements the HTML-Text Cleaner (spec §4.4): a
// recursive traversal of a decoded Record value that replaces any string
// containing markup with whitespace-normalized plain text.
package htmlclean

import (
	"regexp"
	"strings"

	"github.com/vecmigrate/vecmigrate/record"
)

var (
	tagRe      = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// looksLikeMarkup matches spec §4.3/§4.4: a string containing both '<'
// and '>' is treated as markup.
func looksLikeMarkup(s string) bool {
	return strings.ContainsRune(s, '<') && strings.ContainsRune(s, '>')
}

// Clean strips markup from s and collapses whitespace. Calling Clean on a
// string with no markup is the identity function, and Clean is
// idempotent: Clean(Clean(s)) == Clean(s) byte-for-byte.
func Clean(s string) string {
	if !looksLikeMarkup(s) {
		return s
	}
	stripped := tagRe.ReplaceAllString(s, " ")
	stripped = strings.ReplaceAll(stripped, "\n", " ")
	stripped = whitespace.ReplaceAllString(stripped, " ")
	return strings.TrimSpace(stripped)
}

// Value recursively applies Clean to every string leaf of v, including
// list elements and nested map values. Non-string leaves are returned
// unchanged.
func Value(v record.Value) record.Value {
	switch x := v.(type) {
	case string:
		return Clean(x)
	case []record.Value:
		out := make([]record.Value, len(x))
		for i, e := range x {
			out[i] = Value(e)
		}
		return out
	case map[string]record.Value:
		out := make(map[string]record.Value, len(x))
		for k, e := range x {
			out[k] = Value(e)
		}
		return out
	default:
		return v
	}
}

// Record applies Value to every field of r, returning a new Record with
// the same table tag.
func Record(r record.Record) record.Record {
	out := make(map[string]record.Value, len(r.Fields))
	for k, v := range r.Fields {
		out[k] = Value(v)
	}
	return record.Record{Table: r.Table, Fields: out}
}
