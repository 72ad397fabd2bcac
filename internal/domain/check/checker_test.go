package check_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenra-io/lenra-cli/internal/domain"
	"github.com/lenra-io/lenra-cli/internal/domain/check"
)

// static returns an action that always yields subject.
func static(subject any) check.Action {
	return func(context.Context) (any, error) { return subject, nil }
}

func outcomeRule(name string, outcomes ...domain.Outcome) check.Rule {
	return check.Rule{
		Name:     name,
		Evaluate: func(any) []domain.Outcome { return outcomes },
	}
}

func sampleCheckers() []check.Checker {
	return []check.Checker{
		{
			Name:   "checkerA",
			Action: static("a"),
			Rules: []check.Rule{
				outcomeRule("first", domain.Warning("a first")),
				outcomeRule("second", domain.Error("a second")),
			},
		},
		{
			Name:   "checkerB",
			Action: static("b"),
			Rules: []check.Rule{
				outcomeRule("only", domain.Warning("b only")),
			},
		},
	}
}

func runAll(checkers []check.Checker, ignore check.IgnoreList) []domain.CheckerResult {
	var results []domain.CheckerResult
	for _, c := range checkers {
		results = append(results, c.Check(context.Background(), ignore))
	}
	return results
}

func TestCheck_RunsRulesInOrder(t *testing.T) {
	var seen []any
	c := check.Checker{
		Name:   "subject",
		Action: static(42),
		Rules: []check.Rule{
			{Name: "one", Evaluate: func(s any) []domain.Outcome { seen = append(seen, s); return nil }},
			{Name: "two", Evaluate: func(s any) []domain.Outcome { seen = append(seen, s); return []domain.Outcome{domain.Warning("w")} }},
		},
	}

	result := c.Check(context.Background(), check.NewIgnoreList())
	assert.Equal(t, []any{42, 42}, seen)
	require.Len(t, result.Rules, 2)
	assert.Equal(t, "one", result.Rules[0].Name)
	assert.Empty(t, result.Rules[0].Outcomes)
	assert.Equal(t, domain.LevelWarning, result.Level)
	assert.False(t, result.Skipped)
}

func TestCheck_NoRuleOutcomeIsOk(t *testing.T) {
	c := check.Checker{Name: "empty", Action: static(nil), Rules: []check.Rule{outcomeRule("quiet")}}
	result := c.Check(context.Background(), check.NewIgnoreList())
	assert.Equal(t, domain.LevelOk, result.Level)
	assert.Empty(t, result.Outcomes())
}

func TestCheck_ActionFailureIsSingleError(t *testing.T) {
	called := false
	c := check.Checker{
		Name:   "broken",
		Action: func(context.Context) (any, error) { return nil, errors.New("connection refused") },
		Rules: []check.Rule{{Name: "never", Evaluate: func(any) []domain.Outcome {
			called = true
			return nil
		}}},
	}

	result := c.Check(context.Background(), check.NewIgnoreList())
	assert.False(t, called)
	assert.Equal(t, "connection refused", result.Failure)
	assert.Equal(t, domain.LevelError, result.Level)
	assert.Equal(t, []domain.Outcome{{Level: domain.LevelError, Message: "connection refused"}}, result.Outcomes())
}

func TestCheck_ActionFailureWithoutMessage(t *testing.T) {
	c := check.Checker{
		Name:   "silent",
		Action: func(context.Context) (any, error) { return nil, errors.New("") },
	}

	result := c.Check(context.Background(), check.NewIgnoreList())
	assert.Equal(t, check.ActionFailed, result.Failure)
	assert.Equal(t, domain.LevelError, result.Level)
	require.Len(t, result.Outcomes(), 1)

	report := domain.RunReport{Checkers: []domain.CheckerResult{result}}
	_, errs := report.Count()
	assert.Equal(t, 1, errs)
}

func TestCheck_IgnoredCheckerSkipsAction(t *testing.T) {
	called := false
	c := check.Checker{
		Name: "manifest",
		Action: func(context.Context) (any, error) {
			called = true
			return nil, nil
		},
		Rules: []check.Rule{outcomeRule("r", domain.Error("e"))},
	}

	result := c.Check(context.Background(), check.NewIgnoreList("manifest"))
	assert.False(t, called)
	assert.True(t, result.Skipped)
	assert.Empty(t, result.Outcomes())
	assert.Equal(t, domain.LevelOk, result.Level)
}

func TestCheck_IgnoredRuleIsSkipped(t *testing.T) {
	c := sampleCheckers()[0]
	result := c.Check(context.Background(), check.NewIgnoreList("checkerA:second"))

	require.Len(t, result.Rules, 2)
	assert.False(t, result.Rules[0].Skipped)
	assert.True(t, result.Rules[1].Skipped)
	assert.Empty(t, result.Rules[1].Outcomes)
	assert.Equal(t, domain.LevelWarning, result.Level)
}

func TestCheck_UnmatchedPatternsAreIdempotent(t *testing.T) {
	plain := runAll(sampleCheckers(), check.NewIgnoreList())
	noisy := runAll(sampleCheckers(), check.NewIgnoreList("nothing", "checker", "checkerA:missing", "checkerB:only:deeper", "zzz*", ""))
	assert.Equal(t, plain, noisy)
}

func TestCheck_WildcardSuppressesChecker(t *testing.T) {
	results := runAll(sampleCheckers(), check.NewIgnoreList("checkerA*"))

	require.Len(t, results, 2)
	assert.True(t, results[0].Skipped)
	assert.Empty(t, results[0].Outcomes())

	assert.False(t, results[1].Skipped)
	assert.Equal(t, []domain.Outcome{domain.Warning("b only")}, results[1].Outcomes())
}

func TestIgnoreList_Ignores(t *testing.T) {
	l := check.NewIgnoreList("manifest", "/counter:resultSchema", "/:expected*", " view* ")

	tests := []struct {
		parts []string
		want  bool
	}{
		{[]string{"manifest"}, true},
		{[]string{"manifest", "rootWidget"}, true},
		{[]string{"/counter"}, false},
		{[]string{"/counter", "resultSchema"}, true},
		{[]string{"/counter", "expectedShape"}, false},
		{[]string{"/", "expected"}, true},
		{[]string{"/", "expectedShape"}, false},
		{[]string{"view"}, true},
		{[]string{"view", "resultSchema"}, true},
		{[]string{"views"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.Ignores(tt.parts...), "%v", tt.parts)
	}
}

func TestIgnoreList_Patterns(t *testing.T) {
	l := check.NewIgnoreList("b", "a", "b", "  ")
	assert.Equal(t, []string{"a", "b"}, l.Patterns())
	assert.Equal(t, 2, l.Len())
	assert.False(t, check.IgnoreList{}.Ignores("anything"))
}
