// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package metrics

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/askdesk/internal/testable"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

func newTestRecorder(t *testing.T, opts ...Option) *Recorder {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	r, err := NewRecorder(filepath.Join(t.TempDir(), "metrics"), opts...)
	require.NoError(t, err)
	return r
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path) //nolint:gosec // test path
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRecord_WritesBothLogs(t *testing.T) {
	r := newTestRecorder(t)

	got, err := r.Record(Record{
		Question:         "How do I reset my password?",
		Model:            "gpt-4o-mini",
		Status:           StatusSuccess,
		TokensPrompt:     120,
		TokensCompletion: 45,
		TotalTokens:      999,
		LatencyMS:        812.3456,
		EstimatedCostUSD: 0.0000450001,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, got.QueryID)
	assert.Equal(t, "2026-03-14T09:26:53.589Z", got.Timestamp)
	assert.Equal(t, 165, got.TotalTokens)
	assert.Equal(t, 812.35, got.LatencyMS)
	assert.Equal(t, 0.000045, got.EstimatedCostUSD)
	assert.Equal(t, []string{}, got.SafetyCategories)

	recs, err := r.Records()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, got, recs[0])

	rows := readCSV(t, filepath.Join(r.Dir(), CSVFile))
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		got.Timestamp, got.QueryID, "How do I reset my password?", "gpt-4o-mini", "success",
		"120", "45", "165", "812.35", "0.000045", "false", "",
	}, rows[1])
}

func TestRecord_AppendsAndKeepsSingleHeader(t *testing.T) {
	r := newTestRecorder(t)

	for i := 0; i < 3; i++ {
		_, err := r.Record(Record{Question: "q", Model: "m", Status: StatusSuccess})
		require.NoError(t, err)
	}

	recs, err := r.Records()
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	rows := readCSV(t, filepath.Join(r.Dir(), CSVFile))
	assert.Len(t, rows, 4)
}

func TestRecord_TruncatesQuestionAndQuotesCSV(t *testing.T) {
	r := newTestRecorder(t)
	long := "héllo, \"world\" " + strings.Repeat("é", 150)

	got, err := r.Record(Record{
		Question:         long,
		Model:            "moderation",
		Status:           StatusBlocked,
		SafetyFlagged:    true,
		SafetyCategories: []string{"violence", "hate"},
	})
	require.NoError(t, err)

	assert.Equal(t, QuestionLogLimit, len([]rune(got.Question)))
	assert.True(t, strings.HasPrefix(long, got.Question))

	rows := readCSV(t, filepath.Join(r.Dir(), CSVFile))
	require.Len(t, rows, 2)
	assert.Equal(t, got.Question, rows[1][2])
	assert.Equal(t, "true", rows[1][10])
	assert.Equal(t, "violence;hate", rows[1][11])
}

func TestRecord_InvalidUTF8IdenticalInBothLogs(t *testing.T) {
	r := newTestRecorder(t)

	got, err := r.Record(Record{
		Question:         "bad \xff byte",
		Model:            "gpt-4o-mini\xfe",
		Status:           StatusSuccess,
		SafetyCategories: []string{"x\xc0"},
	})
	require.NoError(t, err)
	assert.Equal(t, "bad \uFFFD byte", got.Question)

	recs, err := r.Records()
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rows := readCSV(t, filepath.Join(r.Dir(), CSVFile))
	require.Len(t, rows, 2)
	assert.Equal(t, recs[0].Question, rows[1][2])
	assert.Equal(t, recs[0].Model, rows[1][3])
	assert.Equal(t, strings.Join(recs[0].SafetyCategories, ";"), rows[1][11])
	assert.Equal(t, got.Question, recs[0].Question)
}

func TestRecord_SinkErrorsJoined(t *testing.T) {
	boom := errors.New("disk full")
	fs := &testable.MockFileSystem{
		OpenFileFn: func(string, int, os.FileMode) (*os.File, error) { return nil, boom },
	}
	r := newTestRecorder(t, WithFileSystem(fs))

	_, err := r.Record(Record{Question: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "metrics jsonl sink")
	assert.Contains(t, err.Error(), "metrics csv sink")
}

func TestNewRecorder_MkdirFailure(t *testing.T) {
	fs := &testable.MockFileSystem{
		MkdirAllFn: func(string, os.FileMode) error { return errors.New("permission denied") },
	}
	_, err := NewRecorder("/nonexistent/metrics", WithFileSystem(fs))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create metrics directory")
}

func TestSummary_Empty(t *testing.T) {
	r := newTestRecorder(t)

	s, err := r.Summary()
	require.NoError(t, err)
	assert.Equal(t, Summary{}, s)
}

func TestSummary_Aggregates(t *testing.T) {
	r := newTestRecorder(t)

	inputs := []Record{
		{Status: StatusSuccess, TokensPrompt: 100, TokensCompletion: 50, LatencyMS: 1000, EstimatedCostUSD: 0.0001},
		{Status: StatusSuccess, TokensPrompt: 200, TokensCompletion: 100, LatencyMS: 500, EstimatedCostUSD: 0.0002},
		{Status: StatusBlocked, Model: "moderation", LatencyMS: 1.5, SafetyFlagged: true},
	}
	for _, in := range inputs {
		_, err := r.Record(in)
		require.NoError(t, err)
	}

	s, err := r.Summary()
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalQueries)
	assert.Equal(t, 450, s.TotalTokens)
	assert.InDelta(t, 0.0003, s.TotalCostUSD, 1e-9)
	assert.InDelta(t, 0.0001, s.AvgCostPerQuery, 1e-9)
	assert.Equal(t, 500.5, s.AvgLatencyMS)
	assert.Equal(t, 150.0, s.AvgTokensPerQuery)
	assert.Equal(t, 1, s.SafetyFlaggedCount)
	assert.Equal(t, 0.333, s.SafetyFlagRate)
}

func TestSummary_SkipsMalformedLines(t *testing.T) {
	r := newTestRecorder(t)
	_, err := r.Record(Record{Status: StatusSuccess, TokensPrompt: 10})
	require.NoError(t, err)

	f, err := os.OpenFile(filepath.Join(r.Dir(), JSONLFile), os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, err := r.Summary()
	require.NoError(t, err)
	assert.Equal(t, 1, s.TotalQueries)
}

func TestExportSummary(t *testing.T) {
	r := newTestRecorder(t)
	_, err := r.Record(Record{Status: StatusSuccess, TokensPrompt: 10, TokensCompletion: 5, LatencyMS: 20})
	require.NoError(t, err)

	path, err := r.ExportSummary("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.Dir(), SummaryFile), path)

	data, err := os.ReadFile(path) //nolint:gosec // test path
	require.NoError(t, err)
	var s Summary
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, 1, s.TotalQueries)
	assert.Equal(t, 15, s.TotalTokens)

	custom := filepath.Join(t.TempDir(), "out.json")
	path, err = r.ExportSummary(custom)
	require.NoError(t, err)
	assert.Equal(t, custom, path)
	assert.FileExists(t, custom)
}

func TestTruncateAndRound(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "日本", Truncate("日本語", 2))
	assert.Equal(t, 1.23, Round(1.2349, 2))
	assert.Equal(t, 0.000123, Round(0.00012345, 6))
}
