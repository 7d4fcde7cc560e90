// Package exclude implements the Field Excluder (spec §4.5): a set of
// per-table rules, loaded from YAML, that drop whole records or strip
// fields (including nested subkeys) before a Record reaches the
// embedding stage.
package exclude

import (
	"os"
	"regexp"
	"strings"

	"github.com/vecmigrate/vecmigrate/record"
	"gopkg.in/yaml.v2"
)

// FieldRule is the decoded form of one `exclude_fields` entry: either
// `all: true` (drop the whole field) or `subkeys: [...]` (drop the
// listed keys from a nested mapping, or best-effort from a
// stringified-JSON field).
type FieldRule struct {
	All     bool     `yaml:"all"`
	Subkeys []string `yaml:"subkeys"`
}

// TableRule is one table's entry in the rules file.
type TableRule struct {
	IgnoreTable   bool                 `yaml:"ignore_table"`
	ExcludeFields map[string]FieldRule `yaml:"exclude_fields"`
}

// Rules is the full set of per-table rules, keyed by table name.
type Rules map[string]TableRule

// Load reads a YAML rules file of the shape:
//
//	person:
//	  exclude_fields:
//	    bio: { all: true }
//	    profile: { subkeys: [ssn, password] }
//	secret_table:
//	  ignore_table: true
func Load(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// Apply filters recs in place per rules, dropping ignored tables
// entirely and stripping excluded fields from the remainder.
func Apply(rules Rules, recs []record.Record) []record.Record {
	if len(rules) == 0 {
		return recs
	}
	out := recs[:0]
	for _, r := range recs {
		rule, ok := rules[r.Table]
		if !ok {
			out = append(out, r)
			continue
		}
		if rule.IgnoreTable {
			continue
		}
		applyFieldRules(rule, r.Fields)
		if len(r.Fields) == 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

func applyFieldRules(rule TableRule, fields map[string]record.Value) {
	for field, fr := range rule.ExcludeFields {
		v, present := fields[field]
		if !present {
			continue
		}
		if fr.All {
			delete(fields, field)
			continue
		}
		if len(fr.Subkeys) > 0 {
			fields[field] = stripSubkeys(v, fr.Subkeys)
		}
	}
}

func stripSubkeys(v record.Value, subkeys []string) record.Value {
	switch x := v.(type) {
	case map[string]record.Value:
		for _, k := range subkeys {
			delete(x, k)
		}
		return x
	case string:
		return stripSubkeysFromJSONString(x, subkeys)
	default:
		return v
	}
}

// stripSubkeysFromJSONString best-effort removes `"key": <value>,` pairs
// from a stringified-JSON field without fully parsing it, per spec
// §4.5's "best-effort ... via pattern substitution" clause — the field
// may not even be valid JSON (a markup-cleaned blob that merely looks
// like it), so a full parse-mutate-reserialize round trip isn't assumed.
func stripSubkeysFromJSONString(s string, subkeys []string) string {
	for _, k := range subkeys {
		re := regexp.MustCompile(`"` + regexp.QuoteMeta(k) + `"\s*:\s*(?:"(?:[^"\\]|\\.)*"|[^,}]+),?\s*`)
		s = re.ReplaceAllString(s, "")
	}
	s = regexp.MustCompile(`,\s*([}\]])`).ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}
