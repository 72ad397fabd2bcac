package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lenra-io/lenra-cli/internal/domain/match"
)

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	pathStyle          = lipgloss.NewStyle().Foreground(fg)
)

// kindSections orders mismatch kinds in the match output.
var kindSections = []struct {
	kind  match.Kind
	title string
}{
	{match.KindType, "Type Mismatches"},
	{match.KindValue, "Value Mismatches"},
	{match.KindMissing, "Missing Entries"},
	{match.KindAdditional, "Additional Entries"},
}

// RenderMismatches renders a structural comparison grouped by kind.
func RenderMismatches(mismatches []match.Mismatch) string {
	var b strings.Builder
	if len(mismatches) == 0 {
		b.WriteString("  " + passStyle.Render("Values match.") + "\n")
		return b.String()
	}

	for _, section := range kindSections {
		var items []match.Mismatch
		for _, m := range mismatches {
			if m.Kind == section.kind {
				items = append(items, m)
			}
		}
		renderMismatchSection(&b, section.title, section.kind, items)
	}

	b.WriteString("\n  " + failStyle.Render(plural(len(mismatches), "mismatch")) + "\n")
	return b.String()
}

func renderMismatchSection(b *strings.Builder, title string, kind match.Kind, items []match.Mismatch) {
	if len(items) == 0 {
		return
	}

	b.WriteString("\n")
	fmt.Fprintf(b, "  %s %s\n",
		sectionHeaderStyle.Render(title),
		dimStyle.Render(fmt.Sprintf("(%d)", len(items))),
	)

	bullet := failStyle.Render("●")
	if kind == match.KindAdditional {
		bullet = warnStyle.Render("●")
	}
	for _, m := range items {
		fmt.Fprintf(b, "    %s %s\n", bullet, pathStyle.Render(m.String()))
	}
}
