// Package mssql implements the MSSQL dialect parser (spec §4.3.6):
// `N'...'` unicode strings (doubled-quote escape), `CAST(value AS type)`
// unwrapping, NULL, signed numeric literals, and falling back to
// positional synthetic column names when no column list is given.
package mssql

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vecmigrate/vecmigrate/parser"
	"github.com/vecmigrate/vecmigrate/record"
)

var insertRe = regexp.MustCompile(`(?is)INSERT\s+(?:INTO\s+)?(?:\[?[\w$]+\]?\.)?\[?([\w$]+)\]?\s*(\([^)]*\))?\s*VALUES\s*\((.*?)\)\s*;`)

var castRe = regexp.MustCompile(`(?is)^CAST\s*\((.*)\s+AS\s+[\w()]+\)$`)

type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Parse(chunk string) ([]record.Record, []error) {
	var records []record.Record
	var errs []error

	for _, m := range insertRe.FindAllStringSubmatch(chunk, -1) {
		table := m[1]
		colClause := strings.Trim(strings.TrimSpace(m[2]), "()[]")
		cols := splitColumnNames(colClause)

		vals := parser.SplitTopLevel(m[3], ',', 0)
		if len(cols) == 0 {
			cols = syntheticColumnNames(len(vals))
		}
		if len(vals) != len(cols) {
			errs = append(errs, &parser.ParseError{
				Dialect: "mssql",
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
	if clause == "" {
		return nil
	}
	var out []string
	for _, c := range strings.Split(clause, ",") {
		out = append(out, strings.Trim(strings.TrimSpace(c), "[]"))
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

func decodeValue(raw string) record.Value {
	if m := castRe.FindStringSubmatch(raw); m != nil {
		return decodeValue(strings.TrimSpace(m[1]))
	}
	if strings.EqualFold(raw, "NULL") {
		return nil
	}
	if len(raw) >= 3 && (raw[0] == 'N' || raw[0] == 'n') && raw[1] == '\'' && raw[len(raw)-1] == '\'' {
		return unescapeNString(raw[2 : len(raw)-1])
	}
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return unescapeNString(raw[1 : len(raw)-1])
	}
	if v, ok := parser.DecodeNumeric(raw); ok {
		return v
	}
	return raw
}

func unescapeNString(s string) string {
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
