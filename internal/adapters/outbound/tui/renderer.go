package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/camelcase"
	"github.com/lenra-io/lenra-cli/internal/domain"
)

// ── Lenra palette ──
var (
	accent    = lipgloss.Color("#5C6BC0") // indigo
	fg        = lipgloss.Color("#E8E6E3") // warm light gray
	dim       = lipgloss.Color("#6B7280") // muted gray
	faint     = lipgloss.Color("#3F3F46") // very dim
	success   = lipgloss.Color("#22C55E") // green
	danger    = lipgloss.Color("#EF4444") // red
	warning   = lipgloss.Color("#F59E0B") // amber-yellow
	skipColor = lipgloss.Color("#4B5563") // dark gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	skipStyle     = lipgloss.NewStyle().Foreground(skipColor)
	errorTagStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnTagStyle  = lipgloss.NewStyle().Foreground(warning).Bold(true)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderRunHeader renders the box printed before the first checker result.
func RenderRunHeader(suite, url string) string {
	title := headerStyle.Render("lenra check")
	subtitle := dimStyle.Render(fmt.Sprintf("%s suite", suite))
	if url != "" {
		subtitle += "\n" + faintStyle.Render(url)
	}
	return boxStyle.Render(title+"\n"+subtitle) + "\n\n"
}

// RenderCheckerResult renders the outcomes of one checker followed by its
// summary line, "<name>: <level>".
func RenderCheckerResult(r domain.CheckerResult) string {
	var b strings.Builder
	for _, o := range r.Outcomes() {
		b.WriteString(RenderOutcome(o))
	}
	for _, rule := range r.Rules {
		if rule.Skipped {
			fmt.Fprintf(&b, "    %s %s\n", skipStyle.Render("○"), skipStyle.Render(rule.Name+" skipped"))
		}
	}
	b.WriteString(RenderCheckerSummary(r))
	return b.String()
}

// RenderOutcome renders one rule outcome as a tagged line.
func RenderOutcome(o domain.Outcome) string {
	return fmt.Sprintf("    %s %s\n", levelTag(o.Level), dimStyle.Render(o.Message))
}

// RenderCheckerSummary renders "<name>: <level>" colored by level.
func RenderCheckerSummary(r domain.CheckerResult) string {
	if r.Skipped {
		return "  " + skipStyle.Render(r.Name+": skipped") + "\n"
	}
	return "  " + levelStyle(r.Level).Render(fmt.Sprintf("%s: %s", r.Name, r.Level)) + "\n"
}

// RenderRunFooter renders the overall status with outcome counts.
func RenderRunFooter(report *domain.RunReport) string {
	var b strings.Builder
	b.WriteString("\n  " + separatorLine + "\n\n")

	warnings, errors := report.Count()
	var status string
	switch report.Status {
	case domain.StatusFail:
		status = errorTagStyle.Render("FAIL")
	case domain.StatusWarn:
		if report.Strict {
			status = errorTagStyle.Render("FAIL") + dimStyle.Render(" (strict)")
		} else {
			status = warnTagStyle.Render("WARN")
		}
	default:
		status = passStyle.Bold(true).Render("PASS")
	}
	b.WriteString("  " + status + "  ")
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d checkers", len(report.Checkers))))
	if errors > 0 {
		b.WriteString("  " + errorTagStyle.Render(plural(errors, "error")))
	}
	if warnings > 0 {
		b.WriteString("  " + warnTagStyle.Render(plural(warnings, "warning")))
	}
	b.WriteString("\n")

	if report.Commit != "" {
		commit := report.Commit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		line := commit
		if report.Branch != "" {
			line = report.Branch + " @ " + commit
		}
		b.WriteString("  " + faintStyle.Render(line) + "\n")
	}
	return b.String()
}

// Humanize turns a rule name such as "additionalRootProperties" into
// "Additional root properties".
func Humanize(name string) string {
	words := camelcase.Split(name)
	if len(words) == 0 {
		return name
	}
	for i, w := range words {
		if i == 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		} else if !isAcronym(w) {
			words[i] = strings.ToLower(w)
		}
	}
	return strings.Join(words, " ")
}

func isAcronym(w string) bool {
	return len(w) > 1 && strings.ToUpper(w) == w
}

func levelTag(l domain.Level) string {
	switch l {
	case domain.LevelError:
		return errorTagStyle.Render("error")
	case domain.LevelWarning:
		return warnTagStyle.Render("warn ")
	default:
		return passStyle.Render("ok   ")
	}
}

func levelStyle(l domain.Level) lipgloss.Style {
	switch l {
	case domain.LevelError:
		return failStyle
	case domain.LevelWarning:
		return warnStyle
	default:
		return passStyle
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	if strings.HasSuffix(word, "ch") {
		return fmt.Sprintf("%d %ses", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
