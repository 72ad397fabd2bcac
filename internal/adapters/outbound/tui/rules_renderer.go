package tui

import (
	"fmt"
	"strings"

	"github.com/lenra-io/lenra-cli/internal/domain/check"
)

// RenderRuleList renders the checkers of a suite and their rules, with the
// qualified name to use in ignore lists.
func RenderRuleList(suite string, checkers []check.Checker, ignore check.IgnoreList) string {
	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render(fmt.Sprintf("%s suite", suite)) + "\n")
	b.WriteString("  " + separatorLine + "\n")

	for _, c := range checkers {
		name := sectionHeaderStyle.Render(c.Name)
		if ignore.Ignores(c.Name) {
			name = skipStyle.Render(c.Name + "  (ignored)")
		}
		b.WriteString("\n  " + name + "\n")

		for _, r := range c.Rules {
			qualified := c.Name + check.Separator + r.Name
			icon := passStyle.Render("●")
			if ignore.Ignores(c.Name, r.Name) {
				icon = skipStyle.Render("○")
			}
			line := fmt.Sprintf("    %s %s %s", icon, padRight(Humanize(r.Name), 32), faintStyle.Render(qualified))
			b.WriteString(line + "\n")
			if r.Description != "" {
				b.WriteString("        " + dimStyle.Render(r.Description) + "\n")
			}
		}
	}
	if ignore.Len() > 0 {
		b.WriteString("\n  " + dimStyle.Render(fmt.Sprintf("ignoring %s: %s", plural(ignore.Len(), "pattern"), strings.Join(ignore.Patterns(), ", "))) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}
