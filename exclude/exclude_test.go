package exclude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vecmigrate/vecmigrate/record"
)

func TestApplyIgnoreTableDropsAllRecords(t *testing.T) {
	rules := Rules{
		"secret_table": TableRule{IgnoreTable: true},
	}
	recs := []record.Record{
		{Table: "secret_table", Fields: map[string]record.Value{"a": "1"}},
		{Table: "person", Fields: map[string]record.Value{"name": "Ada"}},
	}
	out := Apply(rules, recs)
	assert.Len(t, out, 1)
	assert.Equal(t, "person", out[0].Table)
}

func TestApplyAllRemovesField(t *testing.T) {
	rules := Rules{
		"person": TableRule{ExcludeFields: map[string]FieldRule{
			"bio": {All: true},
		}},
	}
	recs := []record.Record{
		{Table: "person", Fields: map[string]record.Value{"name": "Ada", "bio": "secret"}},
	}
	out := Apply(rules, recs)
	assert.Len(t, out, 1)
	assert.NotContains(t, out[0].Fields, "bio")
	assert.Equal(t, "Ada", out[0].Fields["name"])
}

func TestApplySubkeysFromNestedMap(t *testing.T) {
	rules := Rules{
		"person": TableRule{ExcludeFields: map[string]FieldRule{
			"profile": {Subkeys: []string{"ssn"}},
		}},
	}
	recs := []record.Record{
		{Table: "person", Fields: map[string]record.Value{
			"profile": map[string]record.Value{"ssn": "123-45-6789", "city": "NYC"},
		}},
	}
	out := Apply(rules, recs)
	profile := out[0].Fields["profile"].(map[string]record.Value)
	assert.NotContains(t, profile, "ssn")
	assert.Equal(t, "NYC", profile["city"])
}

func TestApplySubkeysFromStringifiedJSON(t *testing.T) {
	rules := Rules{
		"person": TableRule{ExcludeFields: map[string]FieldRule{
			"profile": {Subkeys: []string{"ssn"}},
		}},
	}
	recs := []record.Record{
		{Table: "person", Fields: map[string]record.Value{
			"profile": `{"ssn": "123-45-6789", "city": "NYC"}`,
		}},
	}
	out := Apply(rules, recs)
	assert.NotContains(t, out[0].Fields["profile"], "ssn")
	assert.Contains(t, out[0].Fields["profile"], "NYC")
}

func TestApplyDropsRecordThatCollapsesToEmpty(t *testing.T) {
	rules := Rules{
		"person": TableRule{ExcludeFields: map[string]FieldRule{
			"bio": {All: true},
		}},
	}
	recs := []record.Record{
		{Table: "person", Fields: map[string]record.Value{"bio": "secret"}},
	}
	out := Apply(rules, recs)
	assert.Empty(t, out)
}

func TestApplyNoRulesReturnsUnchanged(t *testing.T) {
	recs := []record.Record{
		{Table: "person", Fields: map[string]record.Value{"name": "Ada"}},
	}
	out := Apply(nil, recs)
	assert.Equal(t, recs, out)
}
