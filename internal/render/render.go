// Package render turns a generated plan into Markdown and Markdown into
// styled terminal output.
package render

import (
	"fmt"
	"strings"

	"ai-life-planner/internal/lifeplan"

	"github.com/charmbracelet/glamour"
)

// Markdown formats plan for input as a Markdown document.
func Markdown(input lifeplan.UserInput, plan *lifeplan.GeneratedPlan) string {
	if plan == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s's Plan\n\n", input.Name)
	if input.PrimaryFocus != "" {
		fmt.Fprintf(&sb, "_Focus: %s_\n\n", input.PrimaryFocus)
	}

	sb.WriteString("## Daily Routine\n\n")
	for _, item := range plan.DailyRoutine {
		fmt.Fprintf(&sb, "- **%s**: %s (%s)\n", item.TimeOfDay, item.Activity, item.Duration)
	}

	sb.WriteString("\n## Habits to Build\n\n")
	for _, habit := range plan.HabitsToBuild {
		fmt.Fprintf(&sb, "- %s\n", habit)
	}

	sb.WriteString("\n## Actionable Steps\n\n")
	for i, step := range plan.ActionableSteps {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
	}

	fmt.Fprintf(&sb, "\n> %s\n", plan.MotivationalQuote)
	return sb.String()
}

// Terminal renders md with the dark glamour style, wrapped at width columns.
// A width of zero or less leaves wrapping to glamour's default.
func Terminal(md string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle("dark")}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
