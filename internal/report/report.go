// Package report renders job results for terminals and Markdown files.
package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/terminal"
)

const (
	maxLogLines = 10
	// lowQuality marks overall scores worth a second look.
	lowQuality = 70.0
)

// Render renders a terminal report for a finished job.
func Render(res *domain.JobResult) string {
	width := terminal.ReportWidth()
	c := terminal.Color

	var lines []string
	lines = append(lines, "")

	switch res.Status {
	case domain.StatusSucceeded:
		lines = append(lines, fmt.Sprintf("%s✓%s %s%sSite ready%s", c(terminal.Green), c(terminal.Reset),
			c(terminal.Green), c(terminal.Bold), c(terminal.Reset)))
	case domain.StatusPartial:
		lines = append(lines, fmt.Sprintf("%s⚠ Site built, deploy failed%s", c(terminal.Yellow), c(terminal.Reset)))
	default:
		lines = append(lines, fmt.Sprintf("%s✗ Build failed%s", c(terminal.Red), c(terminal.Reset)))
	}
	lines = append(lines, terminal.Ruler(width, "━"))

	if res.SitePath != "" {
		lines = append(lines, fmt.Sprintf("  Path:    %s", res.SitePath))
	}
	if res.Summary != "" {
		lines = append(lines, fmt.Sprintf("  Summary: %s", res.Summary))
	}
	if res.Reason != "" {
		reason, _, _ := strings.Cut(res.Reason, "\n")
		lines = append(lines, terminal.WrapText("Reason: "+reason, width, "  "))
	}

	if rec := res.LastError; rec != nil && res.Status == domain.StatusFailed {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("  %sLast build error:%s", c(terminal.Dim), c(terminal.Reset)))
		lines = append(lines, fmt.Sprintf("    %s%s%s (%s)", c(terminal.Bold), rec.Location(), c(terminal.Reset), rec.ErrorType))
		lines = append(lines, terminal.WrapText(rec.ErrorMessage, width, "    "))
	}

	if res.Status == domain.StatusFailed && res.BuildLog != "" {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("  %sBuild output (last %d lines):%s", c(terminal.Dim), maxLogLines, c(terminal.Reset)))
		for _, l := range tailLines(res.BuildLog, maxLogLines) {
			lines = append(lines, fmt.Sprintf("  %s%s%s", c(terminal.Dim), l, c(terminal.Reset)))
		}
	}

	if len(res.Warnings) > 0 {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%s⚠ Warnings%s", c(terminal.Yellow), c(terminal.Reset)))
		lines = append(lines, terminal.Ruler(width, "─"))
		for _, w := range res.Warnings {
			lines = append(lines, fmt.Sprintf("  %s•%s %s", c(terminal.Yellow), c(terminal.Reset), w))
		}
	}

	if len(res.Quality) > 0 {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%s%sQuality%s", c(terminal.Cyan), c(terminal.Bold), c(terminal.Reset)))
		lines = append(lines, terminal.Ruler(width, "─"))
		lines = append(lines, fmt.Sprintf("  %s%-34s %7s %6s %5s %5s %5s%s", c(terminal.Dim),
			"file", "overall", "syntax", "a11y", "perf", "integ", c(terminal.Reset)))
		for _, path := range sortedPaths(res.Quality) {
			q := res.Quality[path]
			color := ""
			if q.Overall < lowQuality {
				color = c(terminal.Yellow)
			}
			lines = append(lines, fmt.Sprintf("  %s%-34s %7.0f%s %6.0f %5.0f %5.0f %5s",
				color, truncate(path, 34), q.Overall, c(terminal.Reset),
				q.Syntax, q.Accessibility, q.Performance, integration(q)))
		}
	}

	lines = append(lines, "")
	lines = append(lines, terminal.Ruler(width, "━"))
	lines = append(lines, fmt.Sprintf("%s%d files, %s, %d lines · %d repair(s) · %s%s",
		c(terminal.Dim), res.Stats.Files, terminal.FormatBytes(res.Stats.Bytes), res.Stats.Lines,
		res.Repairs, terminal.FormatDuration(res.Duration), c(terminal.Reset)))

	return strings.Join(lines, "\n")
}

// Markdown renders the result as a Markdown document.
func Markdown(res *domain.JobResult) string {
	var lines []string
	switch res.Status {
	case domain.StatusSucceeded:
		lines = append(lines, "## Site ready :white_check_mark:")
	case domain.StatusPartial:
		lines = append(lines, "## Site built, deploy failed :warning:")
	default:
		lines = append(lines, "## Build failed :x:")
	}
	lines = append(lines, "")

	if res.SitePath != "" {
		lines = append(lines, fmt.Sprintf("- **Path:** `%s`", res.SitePath))
	}
	if res.Summary != "" {
		lines = append(lines, fmt.Sprintf("- **Summary:** %s", res.Summary))
	}
	lines = append(lines, fmt.Sprintf("- **Files:** %d (%s, %d lines)", res.Stats.Files, terminal.FormatBytes(res.Stats.Bytes), res.Stats.Lines))
	lines = append(lines, fmt.Sprintf("- **Repairs:** %d", res.Repairs))
	lines = append(lines, fmt.Sprintf("- **Duration:** %s", terminal.FormatDuration(res.Duration)))

	if res.Reason != "" {
		reason, _, _ := strings.Cut(res.Reason, "\n")
		lines = append(lines, "", "**Reason:** "+reason)
	}
	if rec := res.LastError; rec != nil {
		lines = append(lines, "", fmt.Sprintf("**Last build error:** `%s` (%s): %s", rec.Location(), rec.ErrorType, rec.ErrorMessage))
	}

	if len(res.Warnings) > 0 {
		lines = append(lines, "", "### Warnings", "")
		for _, w := range res.Warnings {
			lines = append(lines, "- "+w)
		}
	}

	if len(res.Quality) > 0 {
		lines = append(lines, "", "### Quality", "")
		lines = append(lines, "| File | Overall | Syntax | Accessibility | Performance | Integration |")
		lines = append(lines, "|---|---:|---:|---:|---:|---:|")
		for _, path := range sortedPaths(res.Quality) {
			q := res.Quality[path]
			lines = append(lines, fmt.Sprintf("| `%s` | %.0f | %.0f | %.0f | %.0f | %s |",
				path, q.Overall, q.Syntax, q.Accessibility, q.Performance, integration(q)))
		}

		var issues []string
		for _, path := range sortedPaths(res.Quality) {
			for _, issue := range res.Quality[path].Issues {
				issues = append(issues, fmt.Sprintf("- `%s`: %s", path, issue))
			}
		}
		if len(issues) > 0 {
			lines = append(lines, "", "<details>", "<summary>Issues reported by critics</summary>", "")
			lines = append(lines, issues...)
			lines = append(lines, "", "</details>")
		}
	}

	if res.Status == domain.StatusFailed && res.BuildLog != "" {
		lines = append(lines, "", "<details>", "<summary>Build output</summary>", "", "```")
		lines = append(lines, strings.TrimRight(res.BuildLog, " \n"))
		lines = append(lines, "```", "</details>")
	}

	return strings.Join(lines, "\n") + "\n"
}

func sortedPaths(m map[string]domain.QualityScore) []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// integration renders the integration score, which is absent when the
// cross-file critic did not run.
func integration(q domain.QualityScore) string {
	if !q.Integrated {
		return "-"
	}
	return fmt.Sprintf("%.0f", q.Integration)
}

func tailLines(s string, n int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n+1:]
}
