// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package metrics

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/davetashner/askdesk/internal/testable"
)

// Log file names inside the metrics directory.
const (
	JSONLFile   = "metrics.jsonl"
	CSVFile     = "metrics.csv"
	SummaryFile = "summary.json"
)

const appendFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY

// csvHeader is the first row of the tabular log.
var csvHeader = []string{
	"timestamp", "query_id", "question", "model", "status",
	"tokens_prompt", "tokens_completion", "total_tokens",
	"latency_ms", "estimated_cost_usd", "safety_flagged", "safety_categories",
}

// Sink receives normalized records.
type Sink interface {
	Append(Record) error
	Name() string
}

// JSONLSink appends one JSON object per line.
type JSONLSink struct {
	path string
	fs   testable.FileSystem
}

// NewJSONLSink returns a sink writing to path.
func NewJSONLSink(path string, fs testable.FileSystem) *JSONLSink {
	if fs == nil {
		fs = testable.DefaultFS
	}
	return &JSONLSink{path: path, fs: fs}
}

// Name implements Sink.
func (s *JSONLSink) Name() string { return "jsonl" }

// Path returns the log file location.
func (s *JSONLSink) Path() string { return s.path }

// Append implements Sink.
func (s *JSONLSink) Append(r Record) (err error) {
	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	f, err := s.fs.OpenFile(s.path, appendFlags, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", s.path, cerr)
		}
	}()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// CSVSink appends rows to a CSV file, writing the header when the file is new
// or empty.
type CSVSink struct {
	path string
	fs   testable.FileSystem
}

// NewCSVSink returns a sink writing to path.
func NewCSVSink(path string, fs testable.FileSystem) *CSVSink {
	if fs == nil {
		fs = testable.DefaultFS
	}
	return &CSVSink{path: path, fs: fs}
}

// Name implements Sink.
func (s *CSVSink) Name() string { return "csv" }

// Path returns the log file location.
func (s *CSVSink) Path() string { return s.path }

// Append implements Sink.
func (s *CSVSink) Append(r Record) (err error) {
	needHeader := false
	info, err := s.fs.Stat(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		needHeader = true
	case err != nil:
		return fmt.Errorf("stat %s: %w", s.path, err)
	case info.Size() == 0:
		needHeader = true
	}

	f, err := s.fs.OpenFile(s.path, appendFlags, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", s.path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("write %s: %w", s.path, err)
		}
	}
	if err := w.Write(csvRow(r)); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func csvRow(r Record) []string {
	return []string{
		r.Timestamp,
		r.QueryID,
		r.Question,
		r.Model,
		r.Status,
		strconv.Itoa(r.TokensPrompt),
		strconv.Itoa(r.TokensCompletion),
		strconv.Itoa(r.TotalTokens),
		strconv.FormatFloat(r.LatencyMS, 'f', 2, 64),
		strconv.FormatFloat(r.EstimatedCostUSD, 'f', 6, 64),
		strconv.FormatBool(r.SafetyFlagged),
		strings.Join(r.SafetyCategories, ";"),
	}
}
