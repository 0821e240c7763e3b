package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/lepinkainen/subsorter/subghz"
	"github.com/lepinkainen/subsorter/ui"
)

// printSummary writes the outcome of a run
func printSummary(w io.Writer, summary *subghz.Summary) {
	state := summary.State
	style := ui.StateStyle(true, state == subghz.StateDoneWithFailures, state == subghz.StateCancelled)

	icon := "✅"
	switch state {
	case subghz.StateDoneWithFailures:
		icon = "❌"
	case subghz.StateCancelled:
		icon = "⏹️ "
	}
	fmt.Fprintf(w, "\n%s\n", style.Render(fmt.Sprintf("%s Sorting %s in %s", icon, state, summary.Duration.Round(time.Millisecond))))
	fmt.Fprintf(w, "%s\n", ui.InfoStyle.Render(fmt.Sprintf("Scanned: %d, Matched: %d, Copied: %d, Skipped: %d, Failed: %d",
		summary.Scanned, summary.Matched, summary.Copied, len(summary.Skipped), len(summary.Failures))))

	for _, skip := range summary.Skipped {
		fmt.Fprintf(w, "%s\n", ui.MutedStyle.Render(fmt.Sprintf("⏭️  %s (%s)", skip.Source, skip.Reason)))
	}
	for _, warning := range summary.Warnings {
		fmt.Fprintf(w, "%s\n", ui.WarningStyle.Render(fmt.Sprintf("⚠️  %v", warning)))
	}
	for _, failure := range summary.Failures {
		fmt.Fprintf(w, "%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %v", failure)))
	}

	if summary.LogPath != "" {
		fmt.Fprintf(w, "📝 Log written to %s\n", summary.LogPath)
	}
	fmt.Fprintf(w, "%s\n", ui.MutedStyle.Render("Run "+summary.RunID))
}
