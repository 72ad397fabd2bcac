package domain

import (
	"fmt"
	"strings"
)

// DefaultAppURL is where a locally started Lenra app listens.
const DefaultAppURL = "http://localhost:8080"

// DefaultRootWidget is the root widget the template app declares.
const DefaultRootWidget = "main"

// AnyChecker makes a query rule apply to every checker of a suite.
const AnyChecker = "*"

// CheckConfig holds project-level configuration loaded from .lenra-check.yaml.
type CheckConfig struct {
	AppURL       string         `yaml:"app_url"      json:"app_url,omitempty"`
	Strict       bool           `yaml:"strict"       json:"strict,omitempty"`
	Ignore       []string       `yaml:"ignore"       json:"ignore,omitempty"`
	Template     TemplateConfig `yaml:"template"     json:"template,omitempty"`
	Expectations []Expectation  `yaml:"expectations" json:"expectations,omitempty"`
	Rules        []QueryRule    `yaml:"rules"        json:"rules,omitempty"`
}

// TemplateConfig configures the template suite.
type TemplateConfig struct {
	RootWidget string `yaml:"root_widget" json:"root_widget,omitempty"`
}

// Expectation declares the shape a view response must have. It targets a
// route by path or a view by name.
type Expectation struct {
	Route string `yaml:"route" json:"route,omitempty"`
	View  string `yaml:"view"  json:"view,omitempty"`
	Shape any    `yaml:"shape" json:"shape"`
}

// QueryRule is a user-defined rule: a jq query evaluated on the subject of a
// checker, whose first result must match Expect.
type QueryRule struct {
	Name        string `yaml:"name"        json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	Checker     string `yaml:"checker"     json:"checker"`
	Query       string `yaml:"query"       json:"query"`
	Expect      any    `yaml:"expect"      json:"expect"`
	Level       string `yaml:"level"       json:"level,omitempty"`
}

// Severity returns the level the rule reports at. Defaults to error.
func (q QueryRule) Severity() Level {
	if q.Level == "" {
		return LevelError
	}
	l, err := ParseLevel(q.Level)
	if err != nil {
		return LevelError
	}
	return l
}

// AppliesTo reports whether the rule is attached to the named checker.
func (q QueryRule) AppliesTo(checker string) bool {
	return q.Checker == AnyChecker || q.Checker == checker
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() CheckConfig {
	return CheckConfig{
		AppURL:   DefaultAppURL,
		Template: TemplateConfig{RootWidget: DefaultRootWidget},
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c CheckConfig) WithDefaults() CheckConfig {
	d := DefaultConfig()
	if c.AppURL == "" {
		c.AppURL = d.AppURL
	}
	if c.Template.RootWidget == "" {
		c.Template.RootWidget = d.Template.RootWidget
	}
	return c
}

// ExpectationFor returns the expected shape for a route path or view name.
// A route match wins over a view match.
func (c CheckConfig) ExpectationFor(route, view string) (any, bool) {
	for _, e := range c.Expectations {
		if e.Route != "" && e.Route == route {
			return e.Shape, true
		}
	}
	for _, e := range c.Expectations {
		if e.Route == "" && e.View != "" && e.View == view {
			return e.Shape, true
		}
	}
	return nil, false
}

// RulesFor returns the query rules attached to the named checker.
func (c CheckConfig) RulesFor(checker string) []QueryRule {
	var rules []QueryRule
	for _, r := range c.Rules {
		if r.AppliesTo(checker) {
			rules = append(rules, r)
		}
	}
	return rules
}

// Validate checks the config for invalid values and returns a descriptive error.
// Ignore patterns are not validated: unknown patterns simply never match.
func (c CheckConfig) Validate() error {
	// 1. expectations must target something
	for i, e := range c.Expectations {
		if e.Route == "" && e.View == "" {
			return fmt.Errorf("expectations[%d] must set route or view", i)
		}
	}

	// 2. query rules
	seen := make(map[string]bool)
	for i, r := range c.Rules {
		if r.Name == "" {
			return fmt.Errorf("rules[%d].name must not be empty", i)
		}
		if strings.ContainsAny(r.Name, ":*") {
			return fmt.Errorf("rules[%d].name %q must not contain ':' or '*'", i, r.Name)
		}
		if r.Query == "" {
			return fmt.Errorf("rules[%d].query must not be empty", i)
		}
		if r.Checker == "" {
			return fmt.Errorf("rules[%d].checker must not be empty (use %q for every checker)", i, AnyChecker)
		}
		if r.Level != "" {
			l, err := ParseLevel(r.Level)
			if err != nil {
				return fmt.Errorf("rules[%d].level: %w", i, err)
			}
			if l == LevelOk {
				return fmt.Errorf("rules[%d].level must be warning or error", i)
			}
		}
		key := r.Checker + ":" + r.Name
		if seen[key] {
			return fmt.Errorf("duplicate rule %q for checker %q", r.Name, r.Checker)
		}
		seen[key] = true
	}

	return nil
}
