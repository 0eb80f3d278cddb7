// Package output holds the sinks consuming a run's report: console, CSV,
// and the best-effort notification channels.
package output

import (
	"fmt"
	"io"

	"jobagent-engine/internal/domain"
)

// WriteConsole prints the run summary. Always produced, even when empty.
func WriteConsole(w io.Writer, report domain.RunReport) {
	if len(report.Eligible) == 0 {
		fmt.Fprintln(w, "No new matches found.")
	} else {
		fmt.Fprintf(w, "%d new match(es) found:\n\n", len(report.Eligible))
		for _, c := range report.Eligible {
			p := c.Posting
			fmt.Fprintf(w, "- [%d] %s — %s (%s)\n", c.Score, p.Title, p.Company, p.Location)
			fmt.Fprintf(w, "  %s\n", p.URL)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "processed=%d newly_notified=%d\n", report.TotalProcessed, report.NewlyNotified)
}
