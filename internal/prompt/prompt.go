// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

// Package prompt loads the question template sent to the model.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// Placeholder is the token replaced by the user's question.
const Placeholder = "{question}"

// SystemPrompt is sent as the system message on every generation call.
const SystemPrompt = "You are a helpful customer support assistant. Always respond with valid JSON."

//go:embed prompts/main_prompt.txt
var defaultText string

var (
	// ErrNoPlaceholder is returned for templates without a {question} token.
	ErrNoPlaceholder = errors.New("prompt: template has no " + Placeholder + " placeholder")

	// ErrMultiplePlaceholders is returned when {question} appears more than once.
	ErrMultiplePlaceholders = errors.New("prompt: template has more than one " + Placeholder + " placeholder")
)

var exampleHeader = regexp.MustCompile(`(?m)^Example \d+:`)

// Template is an immutable prompt template.
type Template struct {
	text   string
	source string
}

// Default returns the template compiled into the binary.
func Default() *Template {
	t, err := Parse(defaultText)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt template is invalid: %v", err))
	}
	t.source = "embedded"
	return t
}

// Parse validates text and returns a Template.
func Parse(text string) (*Template, error) {
	switch n := strings.Count(text, Placeholder); {
	case n == 0:
		return nil, ErrNoPlaceholder
	case n > 1:
		return nil, ErrMultiplePlaceholders
	}
	return &Template{text: text, source: "inline"}, nil
}

// Load reads a template from path. An empty path or a missing file yields
// the embedded default; a file that exists but fails to parse is an error.
func Load(path string) (*Template, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-supplied template path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("prompt template not found, using embedded default", "path", path)
			return Default(), nil
		}
		return nil, fmt.Errorf("read prompt template %s: %w", path, err)
	}

	t, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.source = path
	return t, nil
}

// Fill substitutes question into the template.
func (t *Template) Fill(question string) string {
	return strings.Replace(t.text, Placeholder, question, 1)
}

// FewShotCount reports how many "Example N:" blocks the template carries.
func (t *Template) FewShotCount() int {
	return len(exampleHeader.FindAllStringIndex(t.text, -1))
}

// Source names where the template came from: "embedded", "inline" or a path.
func (t *Template) Source() string {
	return t.source
}

// Text returns the raw template.
func (t *Template) Text() string {
	return t.text
}
