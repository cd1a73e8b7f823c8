// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davetashner/askdesk/internal/metrics"
	"github.com/davetashner/askdesk/internal/report"
)

// Stats command flags.
var (
	statsExport string
	statsRecent int
	statsJSON   bool
)

// statsCmd summarizes the metrics logs.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded query metrics",
	Long: `Summarize every query recorded in metrics.jsonl: query count, total and
average cost, tokens and latency, and how many questions were flagged by
safety screening.

Use --export to also write the summary as JSON. Pass an empty path
(--export "") to write summary.json inside the metrics directory.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsExport, "export", "", "write the summary as JSON to this path")
	statsCmd.Flags().IntVar(&statsRecent, "recent", 0, "also list the N most recent queries")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print JSON instead of a table")
}

func runStats(cmd *cobra.Command, _ []string) error {
	if statsRecent < 0 {
		return exitError(ExitInvalidArgs, "askdesk: --recent must be non-negative, got %d", statsRecent)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rec, err := metrics.NewRecorder(cfg.MetricsDir, metrics.WithFileSystem(cmdFS))
	if err != nil {
		return exitError(ExitStartupFailure, "askdesk: %v", err)
	}

	recs, err := rec.Records()
	if err != nil {
		return fmt.Errorf("reading metrics: %w", err)
	}
	summary := metrics.Summarize(recs)

	w := cmd.OutOrStdout()
	if statsJSON {
		out := report.StatsJSON{MetricsDir: rec.Dir(), Summary: summary}
		if statsRecent > 0 {
			out.Recent = report.Tail(recs, statsRecent)
		}
		if err := report.RenderJSON(w, out); err != nil {
			return err
		}
	} else {
		if err := report.RenderSummary(w, rec.Dir(), summary); err != nil {
			return err
		}
		if statsRecent > 0 {
			if err := report.RenderRecent(w, recs, statsRecent); err != nil {
				return err
			}
		}
	}

	if cmd.Flags().Changed("export") {
		path, err := rec.ExportSummary(statsExport)
		if err != nil {
			return fmt.Errorf("exporting summary: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Summary exported to %s\n", path)
	}
	return nil
}

// resetStatsFlags resets stats command flags for testing.
func resetStatsFlags() {
	statsExport = ""
	statsRecent = 0
	statsJSON = false
	for _, name := range []string{"export", "recent", "json"} {
		if f := statsCmd.Flags().Lookup(name); f != nil {
			f.Changed = false
		}
	}
}
