// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	askdesklog "github.com/davetashner/askdesk/internal/log"
	"github.com/davetashner/askdesk/internal/query"
)

// Global flag values.
var (
	verbose      bool
	quiet        bool
	noColor      bool
	configPath   string
	modelFlag    string
	providerFlag string
	metricsDir   string
	noModeration bool
)

// rootCmd answers the question given on the command line.
var rootCmd = &cobra.Command{
	Use:   "askdesk [question...]",
	Short: "Answer customer support questions with an LLM",
	Long: `askdesk sends a customer support question to a language model and prints
a structured JSON answer: the reply, a confidence score, suggested actions,
a category and whether a human should take over.

Each question is screened for prompt injection and, when enabled, checked by
the provider's moderation endpoint before any generation call. Token usage,
latency and estimated cost are appended to metrics.jsonl and metrics.csv in
the metrics directory; see 'askdesk stats'.

With no question, a built-in set of five sample questions is run.`,
	Example: `  askdesk "How do I reset my password?"
  askdesk --model gpt-4o "I was charged twice"
  askdesk --provider anthropic --model claude-haiku-4-5 "What are your hours?"`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		askdesklog.Setup(verbose, quiet)
		if noColor {
			color.NoColor = true
		}
	},
	RunE: runAsk,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.StringVarP(&configPath, "config", "c", "", "config file (default .askdesk.yaml in the current directory)")
	pf.StringVar(&modelFlag, "model", "", "generation model (default gpt-4o-mini)")
	pf.StringVar(&providerFlag, "provider", "", "LLM provider: openai or anthropic")
	pf.StringVar(&metricsDir, "metrics-dir", "", "directory for metrics logs (default ./metrics)")
	pf.BoolVar(&noModeration, "no-moderation", false, "skip the moderation check")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	questions := query.DefaultQuestions()
	if len(args) > 0 {
		questions = []string{strings.Join(args, " ")}
	}

	w := cmd.OutOrStdout()
	failed := 0
	for _, q := range questions {
		env := a.processor.Process(cmd.Context(), q)
		if env.Status == query.StatusError {
			failed++
		}

		data, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding response: %w", err)
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return err
		}
	}

	if failed > 0 {
		return exitError(ExitQueryFailed, "askdesk: %d of %d queries failed", failed, len(questions))
	}
	return nil
}
