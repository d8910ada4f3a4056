package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
)

// printReport writes a sweep report as text or JSON.
func printReport(w io.Writer, report *models.SweepReport, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(w, "sweep %s (as of %s): %d candidates in %s\n",
		report.SweepDate, report.AsOf, report.Candidates, report.Duration())
	if report.Interrupted {
		fmt.Fprintf(w, "interrupted after %d of %d candidates\n", len(report.Entries), report.Candidates)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, o := range models.AllOutcomes {
		fmt.Fprintf(tw, "  %s\t%d\n", o, report.Count(o))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Entries) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range report.Entries {
		next := "-"
		if e.NextAlertDate != nil {
			next = e.NextAlertDate.String()
		}
		line := fmt.Sprintf("  %s\t%s\t%s\t%s", e.Outcome, e.ApplianceID, e.ApplianceName, next)
		if e.Error != "" {
			line += "\t" + e.Error
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}
