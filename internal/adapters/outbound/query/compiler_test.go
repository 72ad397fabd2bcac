package query_test

import (
	"encoding/json"
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenra-io/lenra-cli/internal/adapters/outbound/query"
	"github.com/lenra-io/lenra-cli/internal/domain"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&v))
	return v
}

const counterView = `{
	"_type": "flex",
	"children": [
		{"_type": "text", "value": "Counter: 1"},
		{"_type": "button", "text": "+"}
	]
}`

func TestCompile_Matching(t *testing.T) {
	rule, err := query.NewCompiler().Compile(domain.QueryRule{
		Name:   "childCount",
		Query:  ".children | length",
		Expect: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "childCount", rule.Name)
	assert.Equal(t, ".children | length matches 2", rule.Description)
	assert.Empty(t, rule.Evaluate(decode(t, counterView)))
}

func TestCompile_MismatchAtConfiguredLevel(t *testing.T) {
	rule, err := query.NewCompiler().Compile(domain.QueryRule{
		Name:   "types",
		Query:  "[.children[]._type]",
		Expect: []any{"text", "text"},
		Level:  "warning",
	})
	require.NoError(t, err)

	got := rule.Evaluate(decode(t, counterView))
	require.Len(t, got, 1)
	assert.Equal(t, domain.LevelWarning, got[0].Level)
	assert.Equal(t, `query [.children[]._type]: 1: expected "text" but found "button"`, got[0].Message)
}

func TestCompile_IntegersBeyondInt64(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		expect any
		equal  bool
	}{
		{"max uint64 from yaml", ".n", uint64(math.MaxUint64), true},
		{"max uint64 from json", ".n", json.Number("18446744073709551615"), true},
		{"jq arithmetic", ".n - 1", json.Number("18446744073709551614"), true},
		{"different value", ".n", json.Number("18446744073709551614"), false},
	}
	subject := decode(t, `{"n": 18446744073709551615}`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := query.NewCompiler().Compile(domain.QueryRule{Name: "big", Query: tt.query, Expect: tt.expect})
			require.NoError(t, err)

			got := rule.Evaluate(subject)
			if tt.equal {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Contains(t, got[0].Message, "expected 18446744073709551614 but found 18446744073709551615")
		})
	}
}

func TestCompile_ExpectsObject(t *testing.T) {
	rule, err := query.NewCompiler().Compile(domain.QueryRule{
		Name:   "firstChild",
		Query:  ".children[0]",
		Expect: map[string]any{"_type": "text", "value": "Counter: 1"},
	})
	require.NoError(t, err)
	assert.Empty(t, rule.Evaluate(decode(t, counterView)))
}

func TestCompile_NoOutput(t *testing.T) {
	rule, err := query.NewCompiler().Compile(domain.QueryRule{Name: "empty", Query: "empty", Expect: true})
	require.NoError(t, err)

	got := rule.Evaluate(decode(t, counterView))
	require.Len(t, got, 1)
	assert.Equal(t, domain.LevelError, got[0].Level)
	assert.Contains(t, got[0].Message, "produced no output")
}

func TestCompile_RuntimeError(t *testing.T) {
	rule, err := query.NewCompiler().Compile(domain.QueryRule{Name: "bad", Query: ".children[] | keys | .[0] + 1", Expect: 1})
	require.NoError(t, err)

	got := rule.Evaluate(decode(t, counterView))
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "failed")
}

func TestCompile_Halt(t *testing.T) {
	rule, err := query.NewCompiler().Compile(domain.QueryRule{Name: "halt", Query: `"stop" | halt_error`, Expect: 1})
	require.NoError(t, err)

	got := rule.Evaluate(map[string]any{})
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "halted with: stop")
}

func TestCompile_InvalidQuery(t *testing.T) {
	_, err := query.NewCompiler().Compile(domain.QueryRule{Name: "broken", Query: ".children[", Expect: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule broken")
}

func TestCompileAll(t *testing.T) {
	rules, err := query.NewCompiler().CompileAll([]domain.QueryRule{
		{Name: "a", Query: "._type", Expect: "flex"},
		{Name: "b", Query: ".children | length", Expect: 2},
	})
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "b", rules[1].Name)

	_, err = query.NewCompiler().CompileAll([]domain.QueryRule{{Name: "x", Query: "]"}})
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	got, err := query.Normalize(map[any]any{
		"int":   json.Number("3"),
		"float": json.Number("1.5"),
		"small": int32(7),
		"huge":  uint64(math.MaxUint64),
		"list":  []string{"a"},
		"f32":   float32(0.5),
	})
	require.NoError(t, err)

	m := got.(map[string]any)
	assert.Equal(t, 3, m["int"])
	assert.Equal(t, 1.5, m["float"])
	assert.Equal(t, 7, m["small"])
	assert.Equal(t, new(big.Int).SetUint64(math.MaxUint64), m["huge"])
	assert.Equal(t, []any{"a"}, m["list"])
	assert.Equal(t, 0.5, m["f32"])

	_, err = query.Normalize(struct{}{})
	assert.Error(t, err)
}
