// Package postgres implements the Postgres dialect parser (spec §4.3.3):
// it targets `COPY public.<table> (cols) FROM stdin;` blocks terminated
// by a lone "\." line, decoding each tab-separated line against the
// column list. When a `CREATE TABLE` for the same table precedes the
// COPY block, its column list (recovered via pg_query_go, a real SQL
// parser, rather than a hand probe) takes precedence so generated
// columns / defaults omitted from the COPY clause are still named
// correctly.
package postgres

import (
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v2"
	"github.com/vecmigrate/vecmigrate/parser"
	"github.com/vecmigrate/vecmigrate/record"
)

var copyRe = regexp.MustCompile(`(?s)COPY\s+(?:public\.)?([\w$.\"]+)\s*\(([^)]*)\)\s*FROM stdin;\n(.*?)\n\\\.`)

type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Parse(chunk string) ([]record.Record, []error) {
	ddlColumns := harvestColumns(chunk)

	var records []record.Record
	var errs []error

	for _, m := range copyRe.FindAllStringSubmatch(chunk, -1) {
		table := unquoteIdent(m[1])
		cols := ddlColumns[table]
		if cols == nil {
			cols = splitColumnNames(m[2])
		}
		body := m[3]
		if body == "" {
			continue
		}
		for _, line := range strings.Split(body, "\n") {
			if line == "" {
				continue
			}
			fields := strings.Split(line, "\t")
			if len(fields) != len(cols) {
				errs = append(errs, &parser.ParseError{
					Dialect: "postgres",
					Excerpt: line,
					Err:     errMismatch(len(cols), len(fields)),
				})
				continue
			}
			rowFields := make(map[string]record.Value, len(cols))
			for i, col := range cols {
				rowFields[col] = decodeValue(fields[i])
			}
			if rec, ok := record.New(table, rowFields); ok {
				records = append(records, rec)
			}
		}
	}

	return records, errs
}

type mismatchError struct {
	wantCols, gotVals int
}

func (e *mismatchError) Error() string {
	return "column/value count mismatch"
}

func errMismatch(wantCols, gotVals int) error {
	return &mismatchError{wantCols: wantCols, gotVals: gotVals}
}

func unquoteIdent(s string) string {
	return strings.Trim(s, `"`)
}

func splitColumnNames(clause string) []string {
	var out []string
	for _, c := range strings.Split(clause, ",") {
		out = append(out, unquoteIdent(strings.TrimSpace(c)))
	}
	return out
}

// harvestColumns parses every CREATE TABLE statement preceding COPY
// blocks in chunk with pg_query_go's real Postgres grammar, returning the
// declared column order per table. CREATE TABLE statements that fail to
// parse (e.g. a fragment cut off mid-dump) are skipped rather than
// treated as fatal, matching the non-fatal per-chunk ParseError policy.
func harvestColumns(chunk string) map[string][]string {
	out := make(map[string][]string)
	for _, stmt := range splitStatements(chunk) {
		if !strings.Contains(strings.ToUpper(stmt), "CREATE TABLE") {
			continue
		}
		tree, err := pg_query.Parse(stmt)
		if err != nil {
			continue
		}
		for _, raw := range tree.Stmts {
			createStmt := raw.Stmt.GetCreateStmt()
			if createStmt == nil {
				continue
			}
			table := createStmt.Relation.Relname
			var cols []string
			for _, elt := range createStmt.TableElts {
				colDef := elt.GetColumnDef()
				if colDef == nil {
					continue
				}
				cols = append(cols, colDef.Colname)
			}
			if len(cols) > 0 {
				out[table] = cols
			}
		}
	}
	return out
}

// splitStatements performs a simple semicolon split; good enough to hand
// individual CREATE TABLE statements to pg_query_go one at a time so one
// malformed statement elsewhere in the dump doesn't block the others.
func splitStatements(chunk string) []string {
	return strings.Split(chunk, ";")
}

func decodeValue(raw string) record.Value {
	if raw == `\N` {
		return nil
	}
	unescaped := unescapeTSV(raw)

	if v, ok := parser.TryJSON(unescaped); ok {
		return v
	}
	if strings.HasPrefix(unescaped, "{") && strings.HasSuffix(unescaped, "}") {
		if arr, ok := parsePostgresArrayLiteral(unescaped); ok {
			return arr
		}
	}
	return unescaped
}

func unescapeTSV(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 't':
				sb.WriteByte('\t')
				i++
				continue
			case 'n':
				sb.WriteByte('\n')
				i++
				continue
			case '\\':
				sb.WriteByte('\\')
				i++
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// parsePostgresArrayLiteral decodes a Postgres array literal such as
// {a,b,"c,d",NULL} that failed to parse as JSON.
func parsePostgresArrayLiteral(s string) ([]record.Value, bool) {
	inner := s[1 : len(s)-1]
	if inner == "" {
		return []record.Value{}, true
	}
	parts := parser.SplitTopLevel(inner, ',', '\\')
	out := make([]record.Value, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if strings.EqualFold(p, "NULL") {
			out[i] = nil
			continue
		}
		if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
			out[i] = unescapeTSV(p[1 : len(p)-1])
			continue
		}
		out[i] = p
	}
	return out, true
}
