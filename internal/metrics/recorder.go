// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package metrics

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davetashner/askdesk/internal/testable"
)

// Summary aggregates every record in the structured log.
type Summary struct {
	TotalQueries       int     `json:"total_queries"`
	TotalCostUSD       float64 `json:"total_cost_usd"`
	TotalTokens        int     `json:"total_tokens"`
	AvgLatencyMS       float64 `json:"avg_latency_ms"`
	AvgCostPerQuery    float64 `json:"avg_cost_per_query"`
	AvgTokensPerQuery  float64 `json:"avg_tokens_per_query"`
	SafetyFlaggedCount int     `json:"safety_flagged_count"`
	SafetyFlagRate     float64 `json:"safety_flag_rate"`
}

// Recorder writes records to the JSONL and CSV logs in one directory. A single
// process is assumed to own the directory; there is no cross-process locking.
type Recorder struct {
	mu    sync.Mutex
	dir   string
	fs    testable.FileSystem
	now   func() time.Time
	jsonl *JSONLSink
	sinks []Sink
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithFileSystem replaces the file system used by the recorder and its sinks.
func WithFileSystem(fs testable.FileSystem) Option {
	return func(r *Recorder) {
		r.fs = fs
	}
}

// WithClock sets the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder creates dir if needed and returns a recorder appending to
// metrics.jsonl and metrics.csv inside it.
func NewRecorder(dir string, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		dir: dir,
		fs:  testable.DefaultFS,
		now: time.Now,
	}
	for _, o := range opts {
		o(r)
	}

	if err := r.fs.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create metrics directory %s: %w", dir, err)
	}

	r.jsonl = NewJSONLSink(filepath.Join(dir, JSONLFile), r.fs)
	r.sinks = []Sink{r.jsonl, NewCSVSink(filepath.Join(dir, CSVFile), r.fs)}
	return r, nil
}

// Dir returns the metrics directory.
func (r *Recorder) Dir() string {
	return r.dir
}

// NewQueryID returns a fresh record identifier.
func NewQueryID() string {
	return uuid.NewString()
}

// Record normalizes rec and appends it to every sink. All sinks are attempted;
// their errors are joined. The normalized record is returned.
func (r *Recorder) Record(rec Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.QueryID == "" {
		rec.QueryID = NewQueryID()
	}
	rec = rec.normalize(r.now())

	var errs []error
	for _, s := range r.sinks {
		if err := s.Append(rec); err != nil {
			errs = append(errs, fmt.Errorf("metrics %s sink: %w", s.Name(), err))
		}
	}
	return rec, errors.Join(errs...)
}

// Records returns every well-formed record in the structured log, oldest
// first. A missing log yields no records.
func (r *Recorder) Records() ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.fs.ReadFile(r.jsonl.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.jsonl.Path(), err)
	}

	var out []Record
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			slog.Warn("skipping malformed metrics line", "file", r.jsonl.Path(), "line", lineNo, "error", err)
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("scan %s: %w", r.jsonl.Path(), err)
	}
	return out, nil
}

// Summary recomputes statistics from the structured log.
func (r *Recorder) Summary() (Summary, error) {
	recs, err := r.Records()
	if err != nil {
		return Summary{}, err
	}
	return Summarize(recs), nil
}

// ExportSummary writes the current summary as indented JSON to path, or to
// summary.json in the metrics directory when path is empty. It returns the
// path written.
func (r *Recorder) ExportSummary(path string) (string, error) {
	if path == "" {
		path = filepath.Join(r.dir, SummaryFile)
	}

	s, err := r.Summary()
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	if err := r.fs.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Summarize computes statistics over recs. No records yields the zero Summary.
func Summarize(recs []Record) Summary {
	n := len(recs)
	if n == 0 {
		return Summary{}
	}

	var s Summary
	var latency float64
	for _, rec := range recs {
		s.TotalCostUSD += rec.EstimatedCostUSD
		s.TotalTokens += rec.TotalTokens
		latency += rec.LatencyMS
		if rec.SafetyFlagged {
			s.SafetyFlaggedCount++
		}
	}

	s.TotalQueries = n
	s.AvgCostPerQuery = Round(s.TotalCostUSD/float64(n), 6)
	s.TotalCostUSD = Round(s.TotalCostUSD, 6)
	s.AvgLatencyMS = Round(latency/float64(n), 2)
	s.AvgTokensPerQuery = Round(float64(s.TotalTokens)/float64(n), 2)
	s.SafetyFlagRate = Round(float64(s.SafetyFlaggedCount)/float64(n), 3)
	return s
}
