// Package manifest models what a Lenra app declares it exposes: a single
// root view, or a table of view routes and JSON routes.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lenra-io/lenra-cli/internal/domain"
)

// RootPath is the path of the route a root-view manifest declares.
const RootPath = "/"

// Route maps a path to a view and the properties the view is called with.
type Route interface {
	Path() string
	View() string
	Props() map[string]any
	// Schema names the result schema the view response must satisfy.
	Schema() domain.SchemaKind
	route()
}

// RootViewRoute is the single route of a root-view manifest.
type RootViewRoute struct {
	Name string
}

func (r RootViewRoute) Path() string              { return RootPath }
func (r RootViewRoute) View() string              { return r.Name }
func (r RootViewRoute) Props() map[string]any     { return map[string]any{} }
func (r RootViewRoute) Schema() domain.SchemaKind { return domain.SchemaView }
func (RootViewRoute) route()                      {}

// ViewRef names a view and, optionally, the props it is called with.
type ViewRef struct {
	Name  string         `json:"name"`
	Props map[string]any `json:"props,omitempty"`
}

// LenraRoute serves a Lenra view component tree.
type LenraRoute struct {
	RoutePath string  `json:"path"`
	ViewRef   ViewRef `json:"view"`
}

func (r LenraRoute) Path() string { return r.RoutePath }
func (r LenraRoute) View() string { return r.ViewRef.Name }
func (r LenraRoute) Props() map[string]any {
	if r.ViewRef.Props == nil {
		return map[string]any{}
	}
	return r.ViewRef.Props
}
func (r LenraRoute) Schema() domain.SchemaKind { return domain.SchemaView }
func (LenraRoute) route()                      {}

// JSONRoute serves the raw JSON a view returns.
type JSONRoute struct {
	RoutePath string `json:"path"`
	ViewName  string `json:"view"`
}

func (r JSONRoute) Path() string              { return r.RoutePath }
func (r JSONRoute) View() string              { return r.ViewName }
func (r JSONRoute) Props() map[string]any     { return map[string]any{} }
func (r JSONRoute) Schema() domain.SchemaKind { return domain.SchemaJSON }
func (JSONRoute) route()                      {}

// Definition is the content of the "manifest" key. It is either a
// RootViewManifest or a RoutesManifest.
type Definition interface {
	Routes() []Route
	definition()
}

// RootViewManifest declares a single view served at RootPath.
type RootViewManifest struct {
	RootView string `json:"rootView"`
}

func (m RootViewManifest) Routes() []Route {
	return []Route{RootViewRoute{Name: m.RootView}}
}

func (RootViewManifest) definition() {}

// RoutesManifest declares view routes and JSON routes. Both lists may be empty.
type RoutesManifest struct {
	LenraRoutes []LenraRoute `json:"lenraRoutes,omitempty"`
	JSONRoutes  []JSONRoute  `json:"jsonRoutes,omitempty"`
}

// Routes returns the view routes followed by the JSON routes, in document order.
func (m RoutesManifest) Routes() []Route {
	routes := make([]Route, 0, len(m.LenraRoutes)+len(m.JSONRoutes))
	for _, r := range m.LenraRoutes {
		routes = append(routes, r)
	}
	for _, r := range m.JSONRoutes {
		routes = append(routes, r)
	}
	return routes
}

func (RoutesManifest) definition() {}

// ShapeError reports a manifest document that matches no known shape.
type ShapeError struct {
	Field  string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Field == "" {
		return "invalid manifest: " + e.Reason
	}
	return fmt.Sprintf("invalid manifest: %s: %s", e.Field, e.Reason)
}

// Parse decodes a manifest document, {"manifest": {...}}. The most specific
// shape wins: a rootView declaration, then a routes table. A document that
// matches neither is a *ShapeError.
func Parse(data []byte) (Definition, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ShapeError{Reason: "document is not an object"}
	}
	raw, ok := doc["manifest"]
	if !ok {
		return nil, &ShapeError{Field: "manifest", Reason: "not found"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, &ShapeError{Field: "manifest", Reason: "not an object"}
	}

	if rootView, ok := fields["rootView"]; ok {
		var m RootViewManifest
		if err := json.Unmarshal(rootView, &m.RootView); err != nil {
			return nil, &ShapeError{Field: "manifest.rootView", Reason: "not a string"}
		}
		if m.RootView == "" {
			return nil, &ShapeError{Field: "manifest.rootView", Reason: "empty view name"}
		}
		return m, nil
	}

	lenraRaw, hasLenra := fields["lenraRoutes"]
	jsonRaw, hasJSON := fields["jsonRoutes"]
	if !hasLenra && !hasJSON {
		return nil, &ShapeError{Field: "manifest", Reason: "expected rootView, lenraRoutes or jsonRoutes"}
	}

	var m RoutesManifest
	if hasLenra {
		if err := decodeRoutes(lenraRaw, &m.LenraRoutes); err != nil {
			return nil, &ShapeError{Field: "manifest.lenraRoutes", Reason: err.Error()}
		}
		for i, r := range m.LenraRoutes {
			if err := checkRoute(r.RoutePath, r.ViewRef.Name); err != nil {
				return nil, &ShapeError{Field: fmt.Sprintf("manifest.lenraRoutes.%d", i), Reason: err.Error()}
			}
		}
	}
	if hasJSON {
		if err := decodeRoutes(jsonRaw, &m.JSONRoutes); err != nil {
			return nil, &ShapeError{Field: "manifest.jsonRoutes", Reason: err.Error()}
		}
		for i, r := range m.JSONRoutes {
			if err := checkRoute(r.RoutePath, r.ViewName); err != nil {
				return nil, &ShapeError{Field: fmt.Sprintf("manifest.jsonRoutes.%d", i), Reason: err.Error()}
			}
		}
	}
	return m, nil
}

// FromValue parses an already decoded manifest document.
func FromValue(v any) (Definition, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &ShapeError{Reason: "document cannot be encoded as JSON"}
	}
	return Parse(data)
}

// decodeRoutes decodes a route list, keeping prop numbers as json.Number.
func decodeRoutes(data []byte, into any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("not a list of routes (%v)", err)
	}
	return nil
}

func checkRoute(path, view string) error {
	if path == "" {
		return fmt.Errorf("path is required")
	}
	if view == "" {
		return fmt.Errorf("view is required")
	}
	return nil
}

// NewRequest builds the app request that renders a route:
// {"view": <name>, "data": [], "props": <props>}.
func NewRequest(r Route) map[string]any {
	return map[string]any{
		"view":  r.View(),
		"data":  []any{},
		"props": r.Props(),
	}
}
