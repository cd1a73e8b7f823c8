// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/davetashner/askdesk/internal/mcpserver"
)

// mcpCmd is the parent command for MCP-related subcommands.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server commands",
	Long:  "Commands for running askdesk as an MCP server, exposing the ask and metrics_summary tools to AI agents.",
}

// mcpServeCmd runs the MCP server over stdio.
var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Start an MCP server on stdin/stdout, exposing askdesk's tools:
  - ask:             Answer a customer support question
  - metrics_summary: Summarize recorded query metrics

Queries go through the same screening, pricing and metrics logs as the
command line. Logs are written to stderr so stdout stays a clean transport.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		deps := mcpserver.Deps{Asker: a.processor, Stats: a.recorder}
		return mcpserver.Run(cmd.Context(), Version, deps, &mcp.StdioTransport{})
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
}
