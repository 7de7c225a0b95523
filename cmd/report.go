package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/kayz/promptstudio/internal/continuity"
	"github.com/kayz/promptstudio/internal/sandbox"
	"github.com/kayz/promptstudio/internal/studio"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func promptHeading(p *studio.Prompt) string {
	return titleStyle.Render(fmt.Sprintf("%s  %s", p.ID, p.Title)) + " " + mutedStyle.Render("("+string(p.Type)+")")
}

func writeContinuityIssues(w io.Writer, issues []continuity.Issue) {
	if len(issues) == 0 {
		fmt.Fprintln(w, okStyle.Render("  ✓ no continuity issues"))
		return
	}
	for _, issue := range issues {
		style := warnStyle
		if issue.Kind == continuity.ForbidViolation {
			style = errStyle
		}
		fmt.Fprintln(w, style.Render("  ✗ "+issue.String()))
	}
}

func writeSandboxIssues(w io.Writer, issues []sandbox.Issue) {
	if len(issues) == 0 {
		fmt.Fprintln(w, okStyle.Render("✓ scenes are consistent"))
		return
	}
	for _, issue := range issues {
		style := warnStyle
		if issue.Type == sandbox.ForbidCollision {
			style = errStyle
		}
		fmt.Fprintln(w, style.Render(fmt.Sprintf("✗ [%s] %s", issue.Type, issue.Message)))
	}
}

func writeScore(w io.Writer, s studio.Score) {
	bar := func(name string, v int) string {
		style := okStyle
		switch {
		case v < 4:
			style = errStyle
		case v < 7:
			style = warnStyle
		}
		return fmt.Sprintf("  %-12s %s %s", name, style.Render(strings.Repeat("█", clamp(v))+strings.Repeat("░", 10-clamp(v))), mutedStyle.Render(fmt.Sprintf("%d/10", v)))
	}
	fmt.Fprintln(w, bar("clarity", s.Clarity))
	fmt.Fprintln(w, bar("constraints", s.Constraints))
	fmt.Fprintln(w, bar("continuity", s.Continuity))
	fmt.Fprintln(w, bar("risk", s.Risk))
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// renderMarkdown formats Markdown for the terminal, falling back to the raw
// text when no renderer can be built.
func renderMarkdown(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
