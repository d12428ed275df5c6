package main

import (
	"fmt"
	"io"
	"math"

	"github.com/dealscope/dealscope/annotate"
)

// printReports writes a human-readable summary of a pass's per-unit
// reports.
func printReports(w io.Writer, reports []annotate.Report) {
	for _, report := range reports {
		fmt.Fprintf(w, "unit %s:\n", report.Unit.ID)

		if report.Assessment == nil || math.IsNaN(report.Assessment.ExpectedPrice) {
			fmt.Fprintln(w, "  insufficient data")
		} else {
			a := report.Assessment
			fmt.Fprintf(w, "  verdict:        %s\n", a.Label)
			fmt.Fprintf(w, "  expected price: $%.0f\n", a.ExpectedPrice)
			fmt.Fprintf(w, "  deal delta:     $%.0f (%.1f%%)\n", a.DealDelta, a.DealDeltaPct)

			if report.Anomaly != nil {
				fmt.Fprintf(w, "  miles anomaly:  %.0f (%s)\n", report.Anomaly.AnomalyMiles, report.Anomaly.Label)
			}
			if report.Score != nil {
				fmt.Fprintf(w, "  deal score:     %d/100 (%s)\n", report.Score.Score, report.Score.Tier)
			}
		}

		if report.Debug && report.Provenance != nil {
			for _, line := range report.Provenance.Lines {
				fmt.Fprintf(w, "  | %s\n", line)
			}
		}
	}
}
