// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/askdesk/internal/config"
	"github.com/davetashner/askdesk/internal/llm"
	"github.com/davetashner/askdesk/internal/query"
	"github.com/davetashner/askdesk/internal/redact"
	"github.com/davetashner/askdesk/internal/testable"
)

const validReply = `{"answer":"Use the Forgot password link on the sign-in page.","confidence":0.92,"actions":["Open the sign-in page","Click Forgot password"],"category":"account","requires_escalation":false}`

// newTestCmd redirects rootCmd output to buffers and returns them.
func newTestCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd, stdout, stderr
}

// resetFlags returns every flag to its default so tests sharing rootCmd do
// not leak state.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		_ = f.Value.Set(f.DefValue)
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	statsCmd.Flags().VisitAll(reset)
	resetStatsFlags()
	resetConfigFlags()
	for _, c := range []*cobra.Command{rootCmd, statsCmd, configGetCmd, configSetCmd, configListCmd} {
		if h := c.Flags().Lookup("help"); h != nil {
			_ = h.Value.Set("false")
		}
	}
}

// isolate runs the test in a fresh working directory with an empty global
// config directory and resets flags and redaction state.
func isolate(t *testing.T) string {
	t.Helper()
	resetFlags()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Cleanup(redact.ResetForTest)
	return dir
}

// withProviders replaces provider construction with the given doubles.
func withProviders(t *testing.T, p llm.Provider, m llm.Moderator) {
	t.Helper()
	orig := newProviders
	newProviders = func(*config.Config) (llm.Provider, llm.Moderator, error) {
		return p, m, nil
	}
	t.Cleanup(func() { newProviders = orig })
}

// withMockFS swaps cmdFS with the given mock and restores it on test cleanup.
func withMockFS(t *testing.T, mock *testable.MockFileSystem) {
	t.Helper()
	orig := cmdFS
	cmdFS = mock
	t.Cleanup(func() { cmdFS = orig })
}

// writeTestFile creates a file (and any necessary parent directories) under dir.
func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// decodeEnvelopes reads every indented JSON envelope from out.
func decodeEnvelopes(t *testing.T, out *bytes.Buffer) []query.Envelope {
	t.Helper()
	var envs []query.Envelope
	dec := json.NewDecoder(bytes.NewReader(out.Bytes()))
	for dec.More() {
		var env query.Envelope
		require.NoError(t, dec.Decode(&env))
		envs = append(envs, env)
	}
	return envs
}

// requireExitCode asserts err carries the given exit code.
func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var ece *exitCodeError
	require.True(t, errors.As(err, &ece), "expected exitCodeError, got %T: %v", err, err)
	assert.Equal(t, code, ece.ExitCode())
}
