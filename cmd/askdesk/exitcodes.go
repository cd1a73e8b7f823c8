// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package main

import "fmt"

// Exit codes for the askdesk CLI.
const (
	ExitOK             = 0 // Every query succeeded or was blocked.
	ExitInvalidArgs    = 1 // Invalid arguments or configuration.
	ExitQueryFailed    = 2 // At least one query ended with status "error".
	ExitStartupFailure = 3 // Credentials, provider or metrics directory unusable.
)

// exitCodeError carries a non-zero exit code through cobra's error handling.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

// exitError creates an exitCodeError. If msg is empty, the error message is
// set to a generic description of the exit code.
func exitError(code int, format string, args ...any) *exitCodeError {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		switch code {
		case ExitQueryFailed:
			msg = "askdesk: one or more queries failed"
		case ExitStartupFailure:
			msg = "askdesk: startup failed"
		default:
			msg = "askdesk: error"
		}
	}
	return &exitCodeError{code: code, msg: msg}
}
