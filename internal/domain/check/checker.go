// Package check runs named checkers: an action acquires a subject, then pure
// rules classify it into warning and error outcomes.
package check

import (
	"context"
	"sort"
	"strings"

	"github.com/lenra-io/lenra-cli/internal/domain"
)

const (
	// Separator joins the parts of a qualified name, as in "manifest:rootWidget".
	Separator = ":"
	// Wildcard suffixes an ignore pattern that suppresses a whole prefix.
	Wildcard = "*"
)

// Action acquires the subject a checker's rules run against. It is the only
// step of a check that may block or fail.
type Action func(ctx context.Context) (any, error)

// Rule is a named pure classification of a subject. Evaluate must not
// perform I/O and must not fail: problems are reported as outcomes.
type Rule struct {
	Name        string
	Description string
	Evaluate    func(subject any) []domain.Outcome
}

// Checker pairs an action with the rules run against its result.
type Checker struct {
	Name   string
	Action Action
	Rules  []Rule
}

// ActionFailed reports an action error that carries no message.
const ActionFailed = "action failed"

// Check runs the checker. An ignored checker is skipped without calling its
// action. A failed action yields a result whose only outcome is an error.
// Otherwise every rule that is not ignored runs in order.
func (c Checker) Check(ctx context.Context, ignore IgnoreList) domain.CheckerResult {
	result := domain.CheckerResult{Name: c.Name}
	if ignore.Ignores(c.Name) {
		result.Skipped = true
		return result
	}

	subject, err := c.Action(ctx)
	if err != nil {
		result.Failure = err.Error()
		if result.Failure == "" {
			result.Failure = ActionFailed
		}
		result.Level = domain.LevelError
		return result
	}

	for _, rule := range c.Rules {
		rr := domain.RuleResult{Name: rule.Name, Description: rule.Description}
		if ignore.Ignores(c.Name, rule.Name) {
			rr.Skipped = true
		} else {
			rr.Outcomes = rule.Evaluate(subject)
		}
		result.Rules = append(result.Rules, rr)
	}
	result.Level = domain.Reduce(result.Outcomes())
	return result
}

// IgnoreList is a set of suppression patterns: "checker", "checker:rule",
// "checker*" or "checker:rule*". Patterns that match nothing are inert.
type IgnoreList struct {
	patterns map[string]struct{}
}

// NewIgnoreList builds an ignore list. Blank patterns are dropped and
// surrounding spaces trimmed.
func NewIgnoreList(patterns ...string) IgnoreList {
	l := IgnoreList{patterns: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			l.patterns[p] = struct{}{}
		}
	}
	return l
}

// Ignores reports whether the qualified name built from parts is suppressed.
// The name is built one part at a time; at each step the bare prefix and the
// prefix followed by Wildcard are looked up, and any hit wins.
func (l IgnoreList) Ignores(parts ...string) bool {
	if len(l.patterns) == 0 {
		return false
	}
	var name strings.Builder
	for i, part := range parts {
		if i > 0 {
			name.WriteString(Separator)
		}
		name.WriteString(part)
		prefix := name.String()
		if l.has(prefix) || l.has(prefix+Wildcard) {
			return true
		}
	}
	return false
}

func (l IgnoreList) has(pattern string) bool {
	_, ok := l.patterns[pattern]
	return ok
}

// Patterns returns the patterns, sorted.
func (l IgnoreList) Patterns() []string {
	out := make([]string, 0, len(l.patterns))
	for p := range l.patterns {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of patterns.
func (l IgnoreList) Len() int { return len(l.patterns) }
