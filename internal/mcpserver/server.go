// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

// Package mcpserver exposes askdesk over the Model Context Protocol so agent
// clients can ask support questions and read metrics.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/davetashner/askdesk/internal/metrics"
	"github.com/davetashner/askdesk/internal/query"
)

// Asker answers one question. *query.Processor satisfies it.
type Asker interface {
	Process(ctx context.Context, question string) query.Envelope
}

// Stats reads recorded metrics. *metrics.Recorder satisfies it.
type Stats interface {
	Summary() (metrics.Summary, error)
	Records() ([]metrics.Record, error)
	Dir() string
}

// Deps are the services the tools call into.
type Deps struct {
	Asker Asker
	Stats Stats
}

// New creates a new MCP server with askdesk's tools registered.
func New(version string, deps Deps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "askdesk",
		Title:   "askdesk customer support assistant",
		Version: version,
	}, nil)

	registerTools(server, &handlers{deps: deps})
	return server
}

// Run creates an MCP server and runs it on the given transport.
// It blocks until the client disconnects or the context is cancelled.
func Run(ctx context.Context, version string, deps Deps, transport mcp.Transport) error {
	return New(version, deps).Run(ctx, transport)
}
