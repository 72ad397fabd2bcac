// Package query turns configured jq rules into checker rules.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/lenra-io/lenra-cli/internal/domain"
	"github.com/lenra-io/lenra-cli/internal/domain/check"
	"github.com/lenra-io/lenra-cli/internal/domain/match"
)

// Compiler compiles query rules with gojq.
type Compiler struct{}

// NewCompiler creates a new query rule compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile parses the rule's jq query and returns a checker rule. The rule
// runs the query on the subject and matches the first output against the
// expected value; every mismatch is an outcome at the rule's level. No
// output, or a runtime error, is a single outcome at that level.
func (c *Compiler) Compile(rule domain.QueryRule) (check.Rule, error) {
	parsed, err := gojq.Parse(rule.Query)
	if err != nil {
		return check.Rule{}, fmt.Errorf("invalid jq expression in rule %s: %w", rule.Name, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return check.Rule{}, fmt.Errorf("failed to compile jq expression in rule %s: %w", rule.Name, err)
	}

	level := rule.Severity()
	expected := rule.Expect
	description := rule.Description
	if description == "" {
		description = fmt.Sprintf("%s matches %s", rule.Query, display(expected))
	}

	return check.Rule{
		Name:        rule.Name,
		Description: description,
		Evaluate: func(subject any) []domain.Outcome {
			input, err := Normalize(subject)
			if err != nil {
				return []domain.Outcome{{Level: level, Message: err.Error()}}
			}

			iter := code.Run(input)
			v, ok := iter.Next()
			if !ok {
				return []domain.Outcome{{Level: level, Message: fmt.Sprintf("query %s produced no output", rule.Query)}}
			}
			if err, isErr := v.(error); isErr {
				return []domain.Outcome{{Level: level, Message: formatJQError(rule.Query, err)}}
			}

			mismatches := match.Compare(v, expected)
			out := make([]domain.Outcome, 0, len(mismatches))
			for _, m := range mismatches {
				out = append(out, domain.Outcome{Level: level, Message: fmt.Sprintf("query %s: %s", rule.Query, m)})
			}
			return out
		},
	}, nil
}

// CompileAll compiles rules in order, stopping at the first error.
func (c *Compiler) CompileAll(rules []domain.QueryRule) ([]check.Rule, error) {
	out := make([]check.Rule, 0, len(rules))
	for _, r := range rules {
		compiled, err := c.Compile(r)
		if err != nil {
			return nil, err
		}
		out = append(out, compiled)
	}
	return out, nil
}

func formatJQError(query string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("query %s halted", query)
		}
		return fmt.Sprintf("query %s halted with: %v", query, haltErr.Value())
	}
	return fmt.Sprintf("query %s failed: %v", query, err)
}

// Normalize converts a decoded JSON or YAML value into the value types gojq
// accepts: json.Number and Go integers become int, *big.Int or float64,
// typed collections become []any and map[string]any.
func Normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, int, float64:
		return val, nil
	case json.Number:
		return normalizeNumber(string(val)), nil
	case *big.Int:
		if val == nil {
			return nil, nil
		}
		return val, nil
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt {
			return new(big.Int).SetUint64(u), nil
		}
		return int(u), nil
	case reflect.Float32:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			n, err := Normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			n, err := Normalize(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(iter.Key().Interface())] = n
		}
		return out, nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("value of type %T cannot be queried", v)
}

func normalizeNumber(s string) any {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil && i >= math.MinInt && i <= math.MaxInt {
			return int(i)
		}
		if b, ok := new(big.Int).SetString(s, 10); ok {
			return b
		}
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func display(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
