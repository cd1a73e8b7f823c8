// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/davetashner/askdesk/internal/metrics"
)

// StatsJSON is the machine-readable form of the stats command output.
type StatsJSON struct {
	MetricsDir string           `json:"metrics_dir"`
	Summary    metrics.Summary  `json:"summary"`
	Recent     []metrics.Record `json:"recent,omitempty"`
}

// RenderSummary writes the summary as a two-column table.
func RenderSummary(w io.Writer, dir string, s metrics.Summary) error {
	if _, err := fmt.Fprintf(w, "%s\n", SectionTitle("Query metrics ("+dir+")")); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	if s.TotalQueries == 0 {
		_, err := fmt.Fprintln(w, "  No queries recorded yet.")
		return err
	}

	tbl := NewTable(
		Column{Header: "Metric"},
		Column{Header: "Value", Align: AlignRight},
	)
	tbl.AddRow("Total queries", strconv.Itoa(s.TotalQueries))
	tbl.AddRow("Total tokens", strconv.Itoa(s.TotalTokens))
	tbl.AddRow("Total cost (USD)", fmt.Sprintf("$%.6f", s.TotalCostUSD))
	tbl.AddRow("Avg latency (ms)", fmt.Sprintf("%.2f", s.AvgLatencyMS))
	tbl.AddRow("Avg tokens / query", fmt.Sprintf("%.2f", s.AvgTokensPerQuery))
	tbl.AddRow("Avg cost / query (USD)", fmt.Sprintf("$%.6f", s.AvgCostPerQuery))
	if err := tbl.Render(w); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n  Safety flagged: %s of %d (%s)\n",
		colorCount(s.SafetyFlaggedCount), s.TotalQueries, colorRate(s.SafetyFlagRate))
	return err
}

// RenderRecent writes the last n records, newest last.
func RenderRecent(w io.Writer, recs []metrics.Record, n int) error {
	recs = Tail(recs, n)
	if len(recs) == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(w, "\n%s\n", SectionTitle(fmt.Sprintf("Recent queries (%d)", len(recs)))); err != nil {
		return fmt.Errorf("render recent: %w", err)
	}

	tbl := NewTable(
		Column{Header: "Time"},
		Column{Header: "Status", Color: ColorStatus},
		Column{Header: "Model"},
		Column{Header: "Tokens", Align: AlignRight},
		Column{Header: "Latency", Align: AlignRight},
		Column{Header: "Cost", Align: AlignRight},
		Column{Header: "Flagged", Color: ColorFlagged},
		Column{Header: "Question", MaxWidth: 48},
	)
	for _, r := range recs {
		tbl.AddRow(
			r.Timestamp,
			r.Status,
			r.Model,
			strconv.Itoa(r.TotalTokens),
			fmt.Sprintf("%.0fms", r.LatencyMS),
			fmt.Sprintf("$%.6f", r.EstimatedCostUSD),
			strconv.FormatBool(r.SafetyFlagged),
			r.Question,
		)
	}
	return tbl.Render(w)
}

// RenderJSON writes stats as indented JSON.
func RenderJSON(w io.Writer, out StatsJSON) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// Tail returns the last n records. n <= 0 returns none.
func Tail(recs []metrics.Record, n int) []metrics.Record {
	if n <= 0 {
		return nil
	}
	if n > len(recs) {
		n = len(recs)
	}
	return recs[len(recs)-n:]
}
