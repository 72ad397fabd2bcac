// Package schema validates app responses against the fixed result schemas
// (JSON Schema draft-07) embedded in the binary.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lenra-io/lenra-cli/internal/domain"
)

//go:embed schemas/*.json
var documents embed.FS

// sources maps each schema kind to its embedded document and its $id.
var sources = map[domain.SchemaKind]struct {
	file string
	url  string
}{
	domain.SchemaView: {"schemas/view.schema.json", "https://lenra.io/schemas/view.schema.json"},
	domain.SchemaJSON: {"schemas/json.schema.json", "https://lenra.io/schemas/json.schema.json"},
}

// Kinds returns the known schema kinds, sorted.
func Kinds() []domain.SchemaKind {
	kinds := make([]domain.SchemaKind, 0, len(sources))
	for k := range sources {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Document returns the raw JSON of a result schema.
func Document(kind domain.SchemaKind) ([]byte, error) {
	src, ok := sources[kind]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", kind)
	}
	return documents.ReadFile(src.file)
}

// Validator implements domain.SchemaValidator with compiled result schemas.
type Validator struct {
	schemas map[domain.SchemaKind]*jsonschema.Schema
}

var _ domain.SchemaValidator = (*Validator)(nil)

// New compiles the embedded schemas.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)

	v := &Validator{schemas: make(map[domain.SchemaKind]*jsonschema.Schema, len(sources))}
	for kind, src := range sources {
		data, err := documents.ReadFile(src.file)
		if err != nil {
			return nil, fmt.Errorf("reading %s schema: %w", kind, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parsing %s schema: %w", kind, err)
		}
		if err := compiler.AddResource(src.url, doc); err != nil {
			return nil, fmt.Errorf("adding %s schema resource: %w", kind, err)
		}
	}
	for kind, src := range sources {
		compiled, err := compiler.Compile(src.url)
		if err != nil {
			return nil, fmt.Errorf("compiling %s schema: %w", kind, err)
		}
		v.schemas[kind] = compiled
	}
	return v, nil
}

// Validate returns the violations of value against the schema of kind, sorted
// by location. A value the validator cannot read is itself a violation.
func (v *Validator) Validate(kind domain.SchemaKind, value any) []domain.Violation {
	sch, ok := v.schemas[kind]
	if !ok {
		return []domain.Violation{{Message: fmt.Sprintf("unknown schema %q", kind)}}
	}

	instance, err := normalize(value)
	if err != nil {
		return []domain.Violation{{Message: err.Error()}}
	}

	err = sch.Validate(instance)
	if err == nil {
		return nil
	}
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []domain.Violation{{Message: err.Error()}}
	}
	return flatten(validationErr)
}

// normalize round-trips value through JSON so that every number is a
// json.Number and every mapping is map[string]any.
func normalize(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON: %v", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// flatten collects the leaf errors of a validation error tree, dropping
// duplicates and the reference-following noise.
func flatten(err *jsonschema.ValidationError) []domain.Violation {
	seen := make(map[domain.Violation]bool)
	var out []domain.Violation
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if e.ErrorKind != nil && len(e.Causes) == 0 {
			msg := e.ErrorKind.LocalizedString(printer)
			if !strings.HasPrefix(msg, "$ref ") && !strings.HasPrefix(msg, "doesn't validate with") {
				v := domain.Violation{Path: pointer(e.InstanceLocation), Message: msg}
				if !seen[v] {
					seen[v] = true
					out = append(out, v)
				}
			}
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(err)
	if len(out) == 0 {
		return []domain.Violation{{Path: pointer(err.InstanceLocation), Message: err.Error()}}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Message < out[j].Message
	})
	return out
}

func pointer(location []string) string {
	if len(location) == 0 {
		return ""
	}
	return "/" + strings.Join(location, "/")
}
