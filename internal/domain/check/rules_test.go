package check_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenra-io/lenra-cli/internal/domain"
	"github.com/lenra-io/lenra-cli/internal/domain/check"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&v))
	return v
}

func templateChecker(subject any) check.Checker {
	return check.Checker{
		Name:   "manifest",
		Action: static(subject),
		Rules:  check.TemplateManifestRules("main"),
	}
}

func ruleOutcomes(r domain.CheckerResult, name string) []domain.Outcome {
	for _, rr := range r.Rules {
		if rr.Name == name {
			return rr.Outcomes
		}
	}
	return nil
}

func TestTemplateManifestRules_Valid(t *testing.T) {
	result := templateChecker(decode(t, `{"manifest": {"rootWidget": "main"}}`)).Check(context.Background(), check.NewIgnoreList())
	assert.Empty(t, result.Outcomes())
	assert.Equal(t, domain.LevelOk, result.Level)
}

func TestTemplateManifestRules_WrongWidgetAndExtraKey(t *testing.T) {
	subject := decode(t, `{"manifest": {"rootWidget": "other"}, "extra": 1}`)
	result := templateChecker(subject).Check(context.Background(), check.NewIgnoreList())

	outcomes := result.Outcomes()
	require.Len(t, outcomes, 2)

	assert.Equal(t, []domain.Outcome{domain.Warning("additional root property extra")},
		ruleOutcomes(result, check.RuleAdditionalRootProperties))
	assert.Empty(t, ruleOutcomes(result, check.RuleAdditionalManifestProperties))

	widget := ruleOutcomes(result, check.RuleRootWidget)
	require.Len(t, widget, 1)
	assert.Equal(t, domain.LevelError, widget[0].Level)
	assert.Contains(t, widget[0].Message, `"other"`)

	assert.Equal(t, domain.LevelError, result.Level)
}

func TestTemplateManifestRules_MissingManifest(t *testing.T) {
	result := templateChecker(decode(t, `{"rootWidget": "main"}`)).Check(context.Background(), check.NewIgnoreList())

	for _, name := range []string{
		check.RuleAdditionalRootProperties,
		check.RuleAdditionalManifestProperties,
		check.RuleRootWidget,
	} {
		outcomes := ruleOutcomes(result, name)
		require.NotEmpty(t, outcomes, name)
		assert.Contains(t, outcomes, domain.Error("manifest not found"), name)
	}
	assert.Equal(t, domain.LevelError, result.Level)
}

func TestTemplateManifestRules_NotAnObject(t *testing.T) {
	result := templateChecker(decode(t, `"main"`)).Check(context.Background(), check.NewIgnoreList())

	require.Len(t, result.Rules, 3)
	for _, rr := range result.Rules {
		require.Len(t, rr.Outcomes, 1, rr.Name)
		assert.Equal(t, domain.LevelError, rr.Outcomes[0].Level)
		assert.Contains(t, rr.Outcomes[0].Message, "not an object")
	}
}

func TestTemplateManifestRules_ManifestNotAnObject(t *testing.T) {
	result := templateChecker(decode(t, `{"manifest": ["main"]}`)).Check(context.Background(), check.NewIgnoreList())
	outcomes := ruleOutcomes(result, check.RuleRootWidget)
	require.Len(t, outcomes, 1)
	assert.Contains(t, outcomes[0].Message, "manifest is not an object")
	assert.Empty(t, ruleOutcomes(result, check.RuleAdditionalRootProperties))
}

func TestTemplateManifestRules_AdditionalManifestProperty(t *testing.T) {
	result := templateChecker(decode(t, `{"manifest": {"rootWidget": "main", "theme": "dark"}}`)).Check(context.Background(), check.NewIgnoreList())
	assert.Equal(t, []domain.Outcome{domain.Warning("additional manifest property theme")}, result.Outcomes())
	assert.Equal(t, domain.LevelWarning, result.Level)
}

func TestTemplateManifestRules_MissingRootWidget(t *testing.T) {
	result := templateChecker(decode(t, `{"manifest": {}}`)).Check(context.Background(), check.NewIgnoreList())
	assert.Equal(t, []domain.Outcome{domain.Error("manifest.rootWidget not found")}, result.Outcomes())
}

type fakeValidator struct {
	violations []domain.Violation
	kinds      []domain.SchemaKind
}

func (f *fakeValidator) Validate(kind domain.SchemaKind, _ any) []domain.Violation {
	f.kinds = append(f.kinds, kind)
	return f.violations
}

func TestResultSchemaRule(t *testing.T) {
	v := &fakeValidator{violations: []domain.Violation{
		{Path: "/children/0", Message: "missing property '_type'"},
		{Message: "got string, want object"},
	}}
	rule := check.ResultSchemaRule(v, domain.SchemaView)

	got := rule.Evaluate(map[string]any{})
	assert.Equal(t, check.RuleResultSchema, rule.Name)
	assert.Equal(t, []domain.SchemaKind{domain.SchemaView}, v.kinds)
	assert.Equal(t, []domain.Outcome{
		domain.Error("schema violation at /children/0: missing property '_type'"),
		domain.Error("schema violation at (root): got string, want object"),
	}, got)

	assert.Empty(t, check.ResultSchemaRule(&fakeValidator{}, domain.SchemaJSON).Evaluate(nil))
}

func TestExpectedShapeRule(t *testing.T) {
	rule := check.ExpectedShapeRule(decode(t, `{"_type": "text", "value": "Hello"}`))

	assert.Empty(t, rule.Evaluate(decode(t, `{"_type": "text", "value": "Hello"}`)))

	got := rule.Evaluate(decode(t, `{"_type": "text", "value": "Bye", "style": {}}`))
	require.Len(t, got, 2)
	assert.Equal(t, domain.LevelError, got[0].Level)
	assert.Equal(t, `value: expected "Hello" but found "Bye"`, got[0].Message)
	assert.Equal(t, domain.LevelWarning, got[1].Level)
	assert.Contains(t, got[1].Message, "style: unexpected entry")
}

func TestRoutesManifestRules(t *testing.T) {
	doc := decode(t, `{"manifest": {
		"lenraRoutes": [
			{"path": "/", "view": {"name": "main"}},
			{"path": "counter", "view": {"name": "counter"}}
		],
		"jsonRoutes": [
			{"path": "/", "view": "data"}
		]
	}}`)
	c := check.Checker{Name: "manifest", Action: static(doc), Rules: check.RoutesManifestRules()}
	result := c.Check(context.Background(), check.NewIgnoreList())

	assert.Equal(t, []domain.Outcome{domain.Warning("route / is declared more than once")},
		ruleOutcomes(result, check.RuleUniquePaths))
	assert.Equal(t, []domain.Outcome{domain.Warning("route counter is not an absolute path")},
		ruleOutcomes(result, check.RuleAbsolutePaths))
	assert.Equal(t, domain.LevelWarning, result.Level)
}

func TestRoutesManifestRules_InvalidDocument(t *testing.T) {
	for _, rule := range check.RoutesManifestRules() {
		got := rule.Evaluate(map[string]any{"nope": true})
		require.Len(t, got, 1, rule.Name)
		assert.Equal(t, domain.LevelError, got[0].Level)
		assert.Contains(t, got[0].Message, "invalid manifest")
	}
}
