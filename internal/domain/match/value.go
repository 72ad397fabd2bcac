package match

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
)

// Type is the six-way type tag of a semi-structured value, plus TypeOther for
// anything a JSON or YAML decoder may produce beyond those (timestamps,
// custom types).
type Type int

const (
	TypeNull Type = iota
	TypeBool
	TypeNumber
	TypeString
	TypeSequence
	TypeMapping
	TypeOther
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeSequence:
		return "sequence"
	case TypeMapping:
		return "mapping"
	default:
		return "other"
	}
}

// TypeOf returns the type tag of v.
func TypeOf(v any) Type {
	if v == nil {
		return TypeNull
	}
	switch n := v.(type) {
	case json.Number:
		return TypeNumber
	case *big.Int:
		if n == nil {
			return TypeNull
		}
		return TypeNumber
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return TypeBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return TypeNumber
	case reflect.String:
		return TypeString
	case reflect.Slice, reflect.Array:
		return TypeSequence
	case reflect.Map:
		if k := rv.Type().Key().Kind(); k == reflect.String || k == reflect.Interface {
			return TypeMapping
		}
		return TypeOther
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return TypeNull
		}
		return TypeOther
	default:
		return TypeOther
	}
}

// typeName is the name reported in type mismatches. Other values report
// their Go type so two different "other" types stay distinguishable.
func typeName(v any) string {
	t := TypeOf(v)
	if t == TypeOther {
		return fmt.Sprintf("%T", v)
	}
	return t.String()
}

func asSequence(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// asMapping returns v as a string-keyed mapping. YAML documents may decode
// into map[any]any; their keys are stringified.
func asMapping(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	rv := reflect.ValueOf(v)
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
	}
	return out
}

func asString(v any) string { return reflect.ValueOf(v).String() }

func asBool(v any) bool { return reflect.ValueOf(v).Bool() }

// display renders a value compactly for messages.
func display(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}

// StringKeys returns v with every map[any]any, at any depth, replaced by a
// map[string]any keyed the way Compare reads it. YAML decoders produce
// map[any]any for documents with non-string keys, which JSON encoders reject.
func StringKeys(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[fmt.Sprint(k)] = StringKeys(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = StringKeys(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = StringKeys(e)
		}
		return out
	default:
		return v
	}
}
