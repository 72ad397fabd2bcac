// Package match deep-compares semi-structured values (decoded JSON or YAML)
// and reports every structural deviation with its location.
package match

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Kind classifies a mismatch.
type Kind string

const (
	KindType       Kind = "type"
	KindValue      Kind = "value"
	KindAdditional Kind = "additional"
	KindMissing    Kind = "missing"
)

// Path locates a mismatch: mapping keys and decimal sequence indices, from
// the root down. The empty path is the root.
type Path []string

func (p Path) String() string { return strings.Join(p, ".") }

func (p Path) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// HasPrefix reports whether p starts with the given segments.
func (p Path) HasPrefix(segments ...string) bool {
	return len(p) >= len(segments) && slices.Equal(p[:len(segments)], segments)
}

// Last returns the last segment, or "" at the root.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

func (p Path) child(segment string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, segment)
}

// Mismatch is one located deviation between an actual and an expected value.
type Mismatch struct {
	Path         Path   `json:"path"`
	Kind         Kind   `json:"kind"`
	Actual       any    `json:"actual,omitempty"`
	Expected     any    `json:"expected,omitempty"`
	ActualType   string `json:"actual_type,omitempty"`
	ExpectedType string `json:"expected_type,omitempty"`
}

func (m Mismatch) String() string {
	where := m.Path.String()
	if where == "" {
		where = "(root)"
	}
	switch m.Kind {
	case KindType:
		return fmt.Sprintf("%s: expected %s but found %s %s", where, m.ExpectedType, m.ActualType, display(m.Actual))
	case KindValue:
		return fmt.Sprintf("%s: expected %s but found %s", where, display(m.Expected), display(m.Actual))
	case KindAdditional:
		return fmt.Sprintf("%s: unexpected entry %s", where, display(m.Actual))
	case KindMissing:
		return fmt.Sprintf("%s: missing entry, expected %s", where, display(m.Expected))
	default:
		return where + ": " + string(m.Kind)
	}
}

// Compare deep-compares actual against expected. Equal values yield no
// mismatch; values of different types yield a single type mismatch at the
// point where they differ, without descending further. Sequences compare
// positionally; mappings compare by key. Mismatches are ordered by document
// position, with mapping keys sorted.
func Compare(actual, expected any) []Mismatch {
	var out []Mismatch
	compare(nil, actual, expected, &out)
	return out
}

// Equal reports whether Compare finds no mismatch.
func Equal(actual, expected any) bool {
	return len(Compare(actual, expected)) == 0
}

func compare(path Path, actual, expected any, out *[]Mismatch) {
	at, et := TypeOf(actual), TypeOf(expected)
	if at != et {
		*out = append(*out, Mismatch{
			Path:         path,
			Kind:         KindType,
			Actual:       actual,
			Expected:     expected,
			ActualType:   typeName(actual),
			ExpectedType: typeName(expected),
		})
		return
	}

	switch at {
	case TypeNull:
	case TypeBool:
		if asBool(actual) != asBool(expected) {
			*out = append(*out, valueMismatch(path, actual, expected))
		}
	case TypeNumber:
		if !numbersEqual(actual, expected) {
			*out = append(*out, valueMismatch(path, actual, expected))
		}
	case TypeString:
		if asString(actual) != asString(expected) {
			*out = append(*out, valueMismatch(path, actual, expected))
		}
	case TypeSequence:
		compareSequences(path, asSequence(actual), asSequence(expected), out)
	case TypeMapping:
		compareMappings(path, asMapping(actual), asMapping(expected), out)
	default:
		if !reflect.DeepEqual(actual, expected) {
			*out = append(*out, valueMismatch(path, actual, expected))
		}
	}
}

func valueMismatch(path Path, actual, expected any) Mismatch {
	return Mismatch{Path: path, Kind: KindValue, Actual: actual, Expected: expected}
}

func compareSequences(path Path, actual, expected []any, out *[]Mismatch) {
	common := min(len(actual), len(expected))
	for i := 0; i < common; i++ {
		compare(path.child(strconv.Itoa(i)), actual[i], expected[i], out)
	}
	for i := common; i < len(actual); i++ {
		*out = append(*out, Mismatch{Path: path.child(strconv.Itoa(i)), Kind: KindAdditional, Actual: actual[i]})
	}
	for i := common; i < len(expected); i++ {
		*out = append(*out, Mismatch{Path: path.child(strconv.Itoa(i)), Kind: KindMissing, Expected: expected[i]})
	}
}

func compareMappings(path Path, actual, expected map[string]any, out *[]Mismatch) {
	for _, key := range sortedKeys(expected) {
		a, ok := actual[key]
		if !ok {
			*out = append(*out, Mismatch{Path: path.child(key), Kind: KindMissing, Expected: expected[key]})
			continue
		}
		compare(path.child(key), a, expected[key], out)
	}
	for _, key := range sortedKeys(actual) {
		if _, ok := expected[key]; !ok {
			*out = append(*out, Mismatch{Path: path.child(key), Kind: KindAdditional, Actual: actual[key]})
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
