package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/spotex/internal/models"
	"github.com/desertthunder/spotex/internal/tasks"
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, styles.label.Render(label), value)
}

// ExportSummary renders the outcome of an export run for the terminal.
func ExportSummary(result *tasks.ExportResult, outputDir string) string {
	var b strings.Builder

	switch {
	case result.ListError != nil:
		b.WriteString(styles.warn.Render("⚠ Export stopped early"))
	case result.Cancelled:
		b.WriteString(styles.warn.Render("⚠ Export cancelled"))
	case result.Failed > 0:
		b.WriteString(styles.warn.Render("✓ Export finished with failures"))
	default:
		b.WriteString(styles.ok.Render("✓ Export complete"))
	}
	b.WriteString("\n\n")

	rows := []string{
		row("Playlists", fmt.Sprintf("%d", result.Total())),
		row("Exported", styles.ok.Render(fmt.Sprintf("%d", result.Succeeded))),
		row("Failed", failedCount(result.Failed)),
		row("Pages", fmt.Sprintf("%d", result.Pages)),
		row("Duration", result.Duration.Round(time.Millisecond).String()),
		row("Output", outputDir),
	}
	if result.RunID != "" {
		rows = append(rows, row("Run", styles.help.Render(result.RunID)))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))

	if result.ListError != nil {
		b.WriteString("\n\n")
		b.WriteString(styles.err.Render(fmt.Sprintf("Listing failed: %v", result.ListError)))
	}
	b.WriteString("\n")
	return b.String()
}

func failedCount(n int) string {
	if n == 0 {
		return fmt.Sprintf("%d", n)
	}
	return styles.err.Render(fmt.Sprintf("%d", n))
}

// RunTable renders a list of export runs, newest first.
func RunTable(runs []*models.ExportRun) string {
	if len(runs) == 0 {
		return styles.help.Render("No export runs recorded.") + "\n"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Export Runs"))
	b.WriteString("\n")

	for _, run := range runs {
		status := styles.ok.Render("✓")
		switch {
		case !run.Finished():
			status = styles.warn.Render("…")
		case run.ListError != "" || run.Failed > 0:
			status = styles.warn.Render("!")
		}

		fmt.Fprintf(&b, "%s %s  %s  %d/%d exported, %d pages\n",
			status,
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Succeeded,
			run.Total(),
			run.Pages,
		)
	}
	return b.String()
}

// RunDetail renders one run and the outcome of each of its playlists.
func RunDetail(run *models.ExportRun, records []models.ExportRecord) string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Run " + run.ID))
	b.WriteString("\n")

	finished := styles.warn.Render("not finished")
	if run.Finished() {
		finished = run.FinishedAt.Local().Format(time.DateTime)
	}

	rows := []string{
		row("Started", run.StartedAt.Local().Format(time.DateTime)),
		row("Finished", finished),
		row("Output", run.OutputDir),
		row("Pages", fmt.Sprintf("%d", run.Pages)),
		row("Exported", fmt.Sprintf("%d", run.Succeeded)),
		row("Failed", failedCount(run.Failed)),
	}
	if run.ListError != "" {
		rows = append(rows, row("List error", styles.err.Render(run.ListError)))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	b.WriteString("\n\n")

	for _, rec := range records {
		if rec.OK() {
			fmt.Fprintf(&b, "%s %s (%d songs)\n", styles.ok.Render("✓"), rec.PlaylistName, rec.SongCount)
			continue
		}
		fmt.Fprintf(&b, "%s %s: %s\n", styles.err.Render("✗"), rec.PlaylistName, rec.Error)
	}
	return b.String()
}
