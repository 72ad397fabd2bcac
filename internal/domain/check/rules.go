package check

import (
	"strings"

	"github.com/lenra-io/lenra-cli/internal/domain"
	"github.com/lenra-io/lenra-cli/internal/domain/manifest"
	"github.com/lenra-io/lenra-cli/internal/domain/match"
)

// Rule names.
const (
	RuleAdditionalRootProperties     = "additionalRootProperties"
	RuleAdditionalManifestProperties = "additionalManifestProperties"
	RuleRootWidget                   = "rootWidget"
	RuleResultSchema                 = "resultSchema"
	RuleExpectedShape                = "expectedShape"
	RuleUniquePaths                  = "uniquePaths"
	RuleAbsolutePaths                = "absolutePaths"
)

const manifestKey = "manifest"

// manifestTemplate is the manifest response a template app must return.
func manifestTemplate(rootWidget string) map[string]any {
	return map[string]any{
		manifestKey: map[string]any{"rootWidget": rootWidget},
	}
}

// TemplateManifestRules returns the rules run against the manifest response
// of a template app declaring rootWidget.
func TemplateManifestRules(rootWidget string) []Rule {
	template := manifestTemplate(rootWidget)
	return []Rule{
		{
			Name:        RuleAdditionalRootProperties,
			Description: "the response only holds the manifest",
			Evaluate: func(subject any) []domain.Outcome {
				var out []domain.Outcome
				for _, m := range match.Compare(subject, template) {
					switch {
					case len(m.Path) == 0:
						out = append(out, domain.Error("manifest response is not an object: %s", m))
					case len(m.Path) == 1 && m.Kind == match.KindAdditional:
						out = append(out, domain.Warning("additional root property %s", m.Path.Last()))
					case len(m.Path) == 1 && m.Kind == match.KindMissing:
						out = append(out, domain.Error("manifest not found"))
					}
				}
				return out
			},
		},
		{
			Name:        RuleAdditionalManifestProperties,
			Description: "the manifest only declares known properties",
			Evaluate: func(subject any) []domain.Outcome {
				var out []domain.Outcome
				for _, m := range match.Compare(subject, template) {
					if o, ok := manifestPresence(m); ok {
						out = append(out, o)
						continue
					}
					if len(m.Path) == 2 && m.Path.HasPrefix(manifestKey) && m.Kind == match.KindAdditional {
						out = append(out, domain.Warning("additional manifest property %s", m.Path.Last()))
					}
				}
				return out
			},
		},
		{
			Name:        RuleRootWidget,
			Description: "the manifest declares the expected root widget",
			Evaluate: func(subject any) []domain.Outcome {
				var out []domain.Outcome
				for _, m := range match.Compare(subject, template) {
					if o, ok := manifestPresence(m); ok {
						out = append(out, o)
						continue
					}
					if !m.Path.HasPrefix(manifestKey, "rootWidget") {
						continue
					}
					if m.Kind == match.KindMissing {
						out = append(out, domain.Error("manifest.rootWidget not found"))
					} else {
						out = append(out, domain.Error("%s", m))
					}
				}
				return out
			},
		},
	}
}

// manifestPresence maps the mismatches that make the manifest itself
// unusable: a response that is not an object, a missing or non-object
// manifest.
func manifestPresence(m match.Mismatch) (domain.Outcome, bool) {
	switch {
	case len(m.Path) == 0:
		return domain.Error("manifest response is not an object: %s", m), true
	case len(m.Path) == 1 && m.Path.Last() == manifestKey && m.Kind == match.KindMissing:
		return domain.Error("manifest not found"), true
	case len(m.Path) == 1 && m.Path.Last() == manifestKey && m.Kind == match.KindType:
		return domain.Error("manifest is not an object: %s", m), true
	}
	return domain.Outcome{}, false
}

// ResultSchemaRule reports every violation of the result schema of kind as
// an error.
func ResultSchemaRule(validator domain.SchemaValidator, kind domain.SchemaKind) Rule {
	return Rule{
		Name:        RuleResultSchema,
		Description: "the response satisfies the " + string(kind) + " result schema",
		Evaluate: func(subject any) []domain.Outcome {
			violations := validator.Validate(kind, subject)
			out := make([]domain.Outcome, 0, len(violations))
			for _, v := range violations {
				out = append(out, domain.Error("schema violation at %s", pointer(v)))
			}
			return out
		},
	}
}

func pointer(v domain.Violation) string {
	if v.Path == "" {
		return "(root): " + v.Message
	}
	return v.String()
}

// ExpectedShapeRule matches the subject against a declared shape. Additional
// entries are warnings; any other mismatch is an error.
func ExpectedShapeRule(shape any) Rule {
	return Rule{
		Name:        RuleExpectedShape,
		Description: "the response has the expected shape",
		Evaluate: func(subject any) []domain.Outcome {
			return MismatchOutcomes(match.Compare(subject, shape), domain.LevelError, domain.LevelWarning)
		},
	}
}

// MismatchOutcomes turns mismatches into outcomes: additional entries at
// additional, every other kind at level.
func MismatchOutcomes(mismatches []match.Mismatch, level, additional domain.Level) []domain.Outcome {
	out := make([]domain.Outcome, 0, len(mismatches))
	for _, m := range mismatches {
		l := level
		if m.Kind == match.KindAdditional {
			l = additional
		}
		out = append(out, domain.Outcome{Level: l, Message: m.String()})
	}
	return out
}

// RoutesManifestRules returns the rules run against the raw manifest
// document of a routes app.
func RoutesManifestRules() []Rule {
	return []Rule{
		{
			Name:        RuleUniquePaths,
			Description: "every route path is declared once",
			Evaluate: func(subject any) []domain.Outcome {
				routes, bad := routesOf(subject)
				if bad != nil {
					return bad
				}
				var out []domain.Outcome
				seen := make(map[string]bool, len(routes))
				for _, r := range routes {
					if seen[r.Path()] {
						out = append(out, domain.Warning("route %s is declared more than once", r.Path()))
					}
					seen[r.Path()] = true
				}
				return out
			},
		},
		{
			Name:        RuleAbsolutePaths,
			Description: "every route path starts with /",
			Evaluate: func(subject any) []domain.Outcome {
				routes, bad := routesOf(subject)
				if bad != nil {
					return bad
				}
				var out []domain.Outcome
				for _, r := range routes {
					if !strings.HasPrefix(r.Path(), manifest.RootPath) {
						out = append(out, domain.Warning("route %s is not an absolute path", r.Path()))
					}
				}
				return out
			},
		},
	}
}

func routesOf(subject any) ([]manifest.Route, []domain.Outcome) {
	def, err := manifest.FromValue(subject)
	if err != nil {
		return nil, []domain.Outcome{domain.Error("%v", err)}
	}
	return def.Routes(), nil
}
