// Package sqlite implements the SQLite dialect parser (spec §4.3.5):
// harvests CREATE TABLE column lists (ignoring constraint lines) and
// decodes INSERT INTO ... VALUES rows against them, with '' string
// escaping. The sqlite_sequence bookkeeping table is always skipped.
package sqlite

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vecmigrate/vecmigrate/parser"
	"github.com/vecmigrate/vecmigrate/record"
)

var (
	createTableHeadRe = regexp.MustCompile(`(?i)CREATE TABLE\s+"?([\w$]+)"?\s*\(`)
	insertRe          = regexp.MustCompile(`(?is)INSERT INTO\s+"?([\w$]+)"?\s*(\([^)]*\))?\s*VALUES\s*(.*?);`)
)

var constraintPrefixes = []string{
	"PRIMARY KEY", "UNIQUE", "CHECK", "FOREIGN KEY", "CONSTRAINT",
}

type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Parse(chunk string) ([]record.Record, []error) {
	columns := harvestColumns(chunk)

	var records []record.Record
	var errs []error

	for _, m := range insertRe.FindAllStringSubmatch(chunk, -1) {
		table := m[1]
		if table == "sqlite_sequence" {
			continue
		}

		colClause := strings.Trim(strings.TrimSpace(m[2]), "()")
		valuesBlob := m[3]

		cols := splitColumnNames(colClause)
		if len(cols) == 0 {
			cols = columns[table]
		}

		for _, rowStr := range splitValueTuples(valuesBlob) {
			vals := parser.SplitTopLevel(rowStr, ',', 0)
			rowCols := cols
			if len(rowCols) == 0 {
				rowCols = syntheticColumnNames(len(vals))
			}
			if len(vals) != len(rowCols) {
				errs = append(errs, &parser.ParseError{
					Dialect: "sqlite",
					Excerpt: rowStr,
					Err:     errMismatch(len(rowCols), len(vals)),
				})
				continue
			}

			fields := make(map[string]record.Value, len(rowCols))
			for i, col := range rowCols {
				fields[col] = decodeValue(strings.TrimSpace(vals[i]))
			}
			if rec, ok := record.New(table, fields); ok {
				records = append(records, rec)
			}
		}
	}

	return records, errs
}

type mismatchError struct{ wantCols, gotVals int }

func (e *mismatchError) Error() string { return "column/value count mismatch" }

func errMismatch(wantCols, gotVals int) error {
	return &mismatchError{wantCols: wantCols, gotVals: gotVals}
}

func harvestColumns(chunk string) map[string][]string {
	out := make(map[string][]string)
	for _, loc := range createTableHeadRe.FindAllStringSubmatchIndex(chunk, -1) {
		table := chunk[loc[2]:loc[3]]
		body, ok := scanBalancedParens(chunk, loc[1]-1)
		if !ok {
			continue
		}
		var cols []string
		for _, line := range parser.SplitTopLevel(body, ',', 0) {
			line = strings.TrimSpace(line)
			if line == "" || isConstraintLine(line) {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			cols = append(cols, strings.Trim(fields[0], `"`))
		}
		out[table] = cols
	}
	return out
}

func scanBalancedParens(s string, openIdx int) (string, bool) {
	if openIdx < 0 || openIdx >= len(s) || s[openIdx] != '(' {
		return "", false
	}
	depth := 0
	var inQuote byte
	for i := openIdx; i < len(s); i++ {
		c := s[i]
		if inQuote != 0 {
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inQuote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[openIdx+1 : i], true
			}
		}
	}
	return "", false
}

func isConstraintLine(line string) bool {
	upper := strings.ToUpper(line)
	for _, prefix := range constraintPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}

func splitColumnNames(clause string) []string {
	if clause == "" {
		return nil
	}
	var out []string
	for _, c := range parser.SplitTopLevel(clause, ',', 0) {
		out = append(out, strings.Trim(strings.TrimSpace(c), `"`))
	}
	return out
}

func syntheticColumnNames(n int) []string {
	base := []string{"id", "name", "description"}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		if i < len(base) {
			out[i] = base[i]
		} else {
			out[i] = "column" + strconv.Itoa(i+1)
		}
	}
	return out
}

func splitValueTuples(blob string) []string {
	var out []string
	depth := 0
	var inQuote byte
	start := -1
	for i := 0; i < len(blob); i++ {
		c := blob[i]
		if inQuote != 0 {
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inQuote = c
		case '(':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ')':
			depth--
			if depth == 0 && start >= 0 {
				out = append(out, blob[start:i])
				start = -1
			}
		}
	}
	return out
}

func decodeValue(raw string) record.Value {
	if strings.EqualFold(raw, "NULL") {
		return nil
	}
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		unquoted := unescapeString(raw[1 : len(raw)-1])
		if v, ok := parser.TryJSON(unquoted); ok {
			return v
		}
		return unquoted
	}
	if v, ok := parser.DecodeNumeric(raw); ok {
		return v
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
