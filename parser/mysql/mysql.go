// Package mysql implements the MySQL dialect parser (spec §4.3.2): it
// harvests column lists from CREATE TABLE statements, then decodes
// INSERT INTO ... VALUES (...) rows against those columns.
package mysql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vecmigrate/vecmigrate/parser"
	"github.com/vecmigrate/vecmigrate/record"
)

var (
	createTableHeadRe = regexp.MustCompile("(?i)CREATE TABLE\\s+`?([\\w$]+)`?\\s*\\(")
	insertRe          = regexp.MustCompile(`(?is)INSERT INTO\s+\x60?([\w$]+)\x60?\s*(\([^)]*\))?\s*VALUES\s*(.*?);`)
)

var constraintPrefixes = []string{
	"PRIMARY KEY", "KEY ", "KEY(", "CONSTRAINT", "UNIQUE", "FULLTEXT", "SPATIAL", "FOREIGN KEY", "INDEX",
}

// Parser decodes a MySQL dialect dump chunk into records.
type Parser struct{}

func New() *Parser { return &Parser{} }

// Parse implements parser.Dialect.
func (p *Parser) Parse(chunk string) ([]record.Record, []error) {
	columns := harvestColumns(chunk)

	var records []record.Record
	var errs []error

	for _, m := range insertRe.FindAllStringSubmatch(chunk, -1) {
		table := m[1]
		colClause := strings.Trim(strings.TrimSpace(m[2]), "()")
		valuesBlob := m[3]

		cols := splitColumnNames(colClause)
		if len(cols) == 0 {
			cols = columns[table]
		}

		rowStrs := splitValueTuples(valuesBlob)
		for _, rowStr := range rowStrs {
			vals := parser.SplitTopLevel(rowStr, ',', '\\')
			rowCols := cols
			if len(rowCols) == 0 {
				rowCols = syntheticColumnNames(len(vals))
			}
			if len(vals) != len(rowCols) {
				errs = append(errs, &parser.ParseError{
					Dialect: "mysql",
					Excerpt: rowStr,
					Err:     fmt.Errorf("column/value count mismatch: %d columns, %d values", len(rowCols), len(vals)),
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

// harvestColumns scans every CREATE TABLE statement in chunk, returning a
// map of table name to its ordered, non-constraint column names. The
// table body is recovered with a balanced-parenthesis scan rather than a
// regex, since it may contain nested parens (VARCHAR(10), DECIMAL(10,2))
// and dumps don't reliably end the statement with "ENGINE=...".
func harvestColumns(chunk string) map[string][]string {
	out := make(map[string][]string)
	for _, loc := range createTableHeadRe.FindAllStringSubmatchIndex(chunk, -1) {
		table := chunk[loc[2]:loc[3]]
		bodyStart := loc[1] // index right after the opening '('
		body, ok := scanBalancedParens(chunk, bodyStart-1)
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
			cols = append(cols, strings.Trim(fields[0], "`"))
		}
		out[table] = cols
	}
	return out
}

// scanBalancedParens returns the text between the '(' at openIdx and its
// matching ')', tracking quotes so that a paren or quote char inside a
// string literal doesn't perturb the depth count.
func scanBalancedParens(s string, openIdx int) (string, bool) {
	if openIdx < 0 || openIdx >= len(s) || s[openIdx] != '(' {
		return "", false
	}
	depth := 0
	var inQuote byte
	for i := openIdx; i < len(s); i++ {
		c := s[i]
		if inQuote != 0 {
			if c == '\\' {
				i++
				continue
			}
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
		out = append(out, strings.Trim(strings.TrimSpace(c), "`"))
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

// splitValueTuples splits "(1,'a'),(2,'b')" into ["1,'a'", "2,'b'"],
// respecting nested quotes and parentheses.
func splitValueTuples(blob string) []string {
	var out []string
	depth := 0
	var inQuote byte
	start := -1
	for i := 0; i < len(blob); i++ {
		c := blob[i]
		if inQuote != 0 {
			if c == '\\' {
				i++
				continue
			}
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
		if c == '\\' && i+1 < len(s) {
			next := s[i+1]
			switch next {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"':
				sb.WriteByte(next)
			default:
				sb.WriteByte(next)
			}
			i++
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
