// Package oracle implements the Oracle dialect parser (spec §4.3.4):
// `Insert into <schema.table> ("COL", ...) values (...);` statements,
// stripping schema prefixes and identifier quotes, with a paren-depth
// aware tokenizer so function-call values like to_timestamp(...) aren't
// split on their internal commas.
package oracle

import (
	"regexp"
	"strings"

	"github.com/vecmigrate/vecmigrate/parser"
	"github.com/vecmigrate/vecmigrate/record"
)

var insertRe = regexp.MustCompile(`(?is)Insert\s+into\s+(?:[\w$]+\.)?"?([\w$]+)"?\s*\(([^)]*)\)\s*values\s*\((.*?)\)\s*;`)

type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Parse(chunk string) ([]record.Record, []error) {
	var records []record.Record
	var errs []error

	for _, m := range insertRe.FindAllStringSubmatch(chunk, -1) {
		table := m[1]
		cols := splitColumnNames(m[2])
		vals := parser.SplitTopLevel(m[3], ',', 0)

		if len(vals) != len(cols) {
			errs = append(errs, &parser.ParseError{
				Dialect: "oracle",
				Excerpt: m[3],
				Err:     errMismatch(len(cols), len(vals)),
			})
			continue
		}

		fields := make(map[string]record.Value, len(cols))
		for i, col := range cols {
			fields[col] = decodeValue(strings.TrimSpace(vals[i]))
		}
		if rec, ok := record.New(table, fields); ok {
			records = append(records, rec)
		}
	}

	return records, errs
}

type mismatchError struct{ wantCols, gotVals int }

func (e *mismatchError) Error() string { return "column/value count mismatch" }

func errMismatch(wantCols, gotVals int) error {
	return &mismatchError{wantCols: wantCols, gotVals: gotVals}
}

func splitColumnNames(clause string) []string {
	var out []string
	for _, c := range strings.Split(clause, ",") {
		out = append(out, strings.Trim(strings.TrimSpace(c), `"`))
	}
	return out
}

// decodeValue handles bare numerics, quoted string literals, and
// function-call wrappers such as to_timestamp('2024-01-02','YYYY-MM-DD')
// by extracting the first quoted substring, matching the spec's
// "value recovered from the first string literal inside the call"
// rule for datetime/cast-style constructors in textual dumps.
func decodeValue(raw string) record.Value {
	if strings.EqualFold(raw, "NULL") {
		return nil
	}
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return unescapeString(raw[1 : len(raw)-1])
	}
	if v, ok := parser.DecodeNumeric(raw); ok {
		return v
	}
	if idx := strings.IndexByte(raw, '('); idx > 0 && strings.HasSuffix(raw, ")") {
		inner := raw[idx+1 : len(raw)-1]
		args := parser.SplitTopLevel(inner, ',', 0)
		if len(args) > 0 {
			first := strings.TrimSpace(args[0])
			if len(first) >= 2 && first[0] == '\'' && first[len(first)-1] == '\'' {
				return unescapeString(first[1 : len(first)-1])
			}
		}
	}
	return raw
}

func unescapeString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\'' && i+1 < len(s) && s[i+1] == '\'' {
			sb.WriteByte('\'')
			i++
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
