// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderLines(t *testing.T, tbl *Table) []string {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	require.NoError(t, tbl.Render(&buf))
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
}

func TestTable_SummaryLayout(t *testing.T) {
	tbl := NewTable(
		Column{Header: "Metric"},
		Column{Header: "Value", Align: AlignRight},
	)
	tbl.AddRow("Total queries", "12")
	tbl.AddRow("Total cost (USD)", "$0.000450")

	assert.Equal(t, []string{
		"  Metric                Value",
		"  ----------------  ---------",
		"  Total queries            12",
		"  Total cost (USD)  $0.000450",
	}, renderLines(t, tbl))
}

func TestTable_QuestionColumnCut(t *testing.T) {
	tbl := NewTable(
		Column{Header: "Status"},
		Column{Header: "Question", MaxWidth: 12},
	)
	tbl.AddRow("success", "How do I\n reset   my password?")
	tbl.AddRow("blocked", "short")

	lines := renderLines(t, tbl)
	require.Len(t, lines, 4)
	assert.Equal(t, "  success  How do I ...", lines[2])
	assert.Equal(t, "  blocked  short       ", lines[3])
}

func TestColumn_Cell(t *testing.T) {
	tests := []struct {
		name string
		max  int
		in   string
		want string
	}{
		{"unbounded keeps whitespace", 0, "a  b", "a  b"},
		{"fits", 20, "reset  password", "reset password"},
		{"exact", 5, "hello", "hello"},
		{"cut with ellipsis", 6, "héllo wörld", "hél..."},
		{"too narrow for ellipsis", 2, "hello", "he"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Column{MaxWidth: tt.max}.cell(tt.in))
		})
	}
}

func TestTable_RowShape(t *testing.T) {
	tbl := NewTable(Column{Header: "A"}, Column{Header: "B"})
	tbl.AddRow("only")
	tbl.AddRow("x", "y", "dropped")
	assert.Equal(t, 2, tbl.Len())

	lines := renderLines(t, tbl)
	require.Len(t, lines, 4)
	assert.Equal(t, "  A     B", lines[0])
	assert.Equal(t, "  only   ", lines[2])
	assert.NotContains(t, strings.Join(lines, "\n"), "dropped")
}

func TestTable_ColorDoesNotAffectPadding(t *testing.T) {
	tbl := NewTable(
		Column{Header: "Flag", Color: func(v string) string { return "<" + v + ">" }},
		Column{Header: "N"},
	)
	tbl.AddRow("true", "1")
	tbl.AddRow("fa", "2")

	lines := renderLines(t, tbl)
	assert.Equal(t, "  <true>  1", lines[2])
	assert.Equal(t, "  <fa>    2", lines[3])
}

func TestTable_UnicodeWidth(t *testing.T) {
	tbl := NewTable(Column{Header: "Q"}, Column{Header: "N"})
	tbl.AddRow("héllo", "1")
	tbl.AddRow("hello", "2")

	lines := renderLines(t, tbl)
	require.Len(t, lines, 4)
	assert.Equal(t, len([]rune(lines[2])), len([]rune(lines[3])))
}

func TestTable_NoColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTable().Render(&buf))
	assert.Empty(t, buf.String())
}
