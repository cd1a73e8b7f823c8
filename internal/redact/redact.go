// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

// Package redact strips API credentials from strings before they appear in
// envelopes, logs, or error messages.
package redact

import (
	"os"
	"regexp"
	"strings"
	"sync"
)

// sensitiveEnvVars lists environment variable names whose values must never
// appear in output.
var sensitiveEnvVars = []string{
	"OPENAI_API_KEY",
	"ANTHROPIC_API_KEY",
	"ASKDESK_API_KEY",
}

// keyPattern matches provider key shapes that may appear in SDK error bodies
// even when the key did not come from the environment.
var keyPattern = regexp.MustCompile(`\bsk-(?:ant-|proj-)?[A-Za-z0-9_-]{16,}`)

var (
	mu            sync.Mutex
	cachedSecrets []string
	registered    []string
	cacheOnce     sync.Once
)

func loadSecrets() {
	for _, envVar := range sensitiveEnvVars {
		val := os.Getenv(envVar)
		if val != "" && len(val) >= 4 {
			cachedSecrets = append(cachedSecrets, val)
		}
	}
}

// Register adds a secret that did not come from the environment, such as an
// api_key read from a config file. Values under 4 bytes are ignored.
func Register(secret string) {
	if len(secret) < 4 {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registered = append(registered, secret)
}

// resetCache resets the cached secrets. Used by tests that change env vars
// between calls.
func resetCache() {
	mu.Lock()
	defer mu.Unlock()
	cachedSecrets = nil
	registered = nil
	cacheOnce = sync.Once{}
}

// ResetForTest resets the cached secrets so tests in other packages can
// verify redaction behavior after setting env vars with t.Setenv.
func ResetForTest() { resetCache() }

// String replaces known secrets and key-shaped tokens with "[REDACTED]".
// Environment values are cached on first call.
func String(s string) string {
	mu.Lock()
	cacheOnce.Do(loadSecrets)
	secrets := make([]string, 0, len(cachedSecrets)+len(registered))
	secrets = append(secrets, cachedSecrets...)
	secrets = append(secrets, registered...)
	mu.Unlock()

	for _, secret := range secrets {
		s = strings.ReplaceAll(s, secret, "[REDACTED]")
	}
	return keyPattern.ReplaceAllString(s, "[REDACTED]")
}
