package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Level is the severity of a checker or of a single rule outcome.
// Levels are ordered: LevelOk < LevelWarning < LevelError.
type Level int

const (
	LevelOk Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelOk:
		return "ok"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel accepts "ok", "warning" (or "warn") and "error", case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ok":
		return LevelOk, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	default:
		return LevelOk, fmt.Errorf("unknown level %q (valid: ok, warning, error)", s)
	}
}

// Outcome is what a rule reports about its subject. Only warnings and errors
// are outcomes; a rule that finds nothing reports no outcome at all.
type Outcome struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

func Warning(format string, args ...any) Outcome {
	return Outcome{Level: LevelWarning, Message: fmt.Sprintf(format, args...)}
}

func Error(format string, args ...any) Outcome {
	return Outcome{Level: LevelError, Message: fmt.Sprintf(format, args...)}
}

// rank orders outcomes worst first: error, warning, then success.
func rank(l Level) int {
	switch l {
	case LevelError:
		return 0
	case LevelWarning:
		return 1
	default:
		return 2
	}
}

// Reduce collapses the outcomes of one checker into a single level. Outcomes
// are ordered worst first and the first one wins; no outcome means LevelOk.
func Reduce(outcomes []Outcome) Level {
	if len(outcomes) == 0 {
		return LevelOk
	}
	levels := make([]Level, len(outcomes))
	for i, o := range outcomes {
		levels[i] = o.Level
	}
	slices.SortStableFunc(levels, func(a, b Level) int { return rank(a) - rank(b) })
	return levels[0]
}

// RuleResult holds the outcomes of one rule of a checker.
type RuleResult struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Skipped     bool      `json:"skipped,omitempty"`
	Outcomes    []Outcome `json:"outcomes,omitempty"`
}

// CheckerResult is the result tree of one checker run.
type CheckerResult struct {
	Name    string       `json:"name"`
	Level   Level        `json:"level"`
	Skipped bool         `json:"skipped,omitempty"`
	Failure string       `json:"failure,omitempty"`
	Rules   []RuleResult `json:"rules,omitempty"`
}

// Outcomes flattens the result tree in rule order. A failed action yields a
// single error outcome.
func (r CheckerResult) Outcomes() []Outcome {
	if r.Failure != "" {
		return []Outcome{{Level: LevelError, Message: r.Failure}}
	}
	var all []Outcome
	for _, rule := range r.Rules {
		all = append(all, rule.Outcomes...)
	}
	return all
}

// Run statuses.
const (
	StatusPass = "pass"
	StatusWarn = "warn"
	StatusFail = "fail"
)

// RunReport is the result of one check run over a suite of checkers.
type RunReport struct {
	Suite    string          `json:"suite"`
	URL      string          `json:"url,omitempty"`
	Commit   string          `json:"commit,omitempty"`
	Branch   string          `json:"branch,omitempty"`
	Strict   bool            `json:"strict"`
	Status   string          `json:"status"`
	Checkers []CheckerResult `json:"checkers"`
}

// ComputeStatus derives the run status from the checker levels.
func ComputeStatus(checkers []CheckerResult) string {
	worst := LevelOk
	for _, c := range checkers {
		if c.Level > worst {
			worst = c.Level
		}
	}
	switch worst {
	case LevelError:
		return StatusFail
	case LevelWarning:
		return StatusWarn
	default:
		return StatusPass
	}
}

// Failed reports whether the run must end with a non-zero exit code.
func (r RunReport) Failed() bool {
	status := ComputeStatus(r.Checkers)
	return status == StatusFail || (r.Strict && status == StatusWarn)
}

// Count returns the number of warning and error outcomes of the run.
func (r RunReport) Count() (warnings, errors int) {
	for _, c := range r.Checkers {
		for _, o := range c.Outcomes() {
			switch o.Level {
			case LevelWarning:
				warnings++
			case LevelError:
				errors++
			}
		}
	}
	return
}
