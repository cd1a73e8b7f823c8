// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

// Package report renders metrics summaries and record listings for the
// terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Alignment controls how a column's content is justified.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// ColorFunc maps a cell value to a colored string.
type ColorFunc func(value string) string

// Column describes a single table column.
//
// MaxWidth, when positive, collapses whitespace in each cell and cuts it to
// that many runes with a trailing "...". Questions use it so one long line
// does not stretch the whole listing.
type Column struct {
	Header   string
	Align    Alignment
	Color    ColorFunc
	MaxWidth int
}

func (c Column) cell(v string) string {
	if c.MaxWidth <= 0 {
		return v
	}
	v = strings.Join(strings.Fields(v), " ")
	r := []rune(v)
	if len(r) <= c.MaxWidth {
		return v
	}
	if c.MaxWidth <= 3 {
		return string(r[:c.MaxWidth])
	}
	return string(r[:c.MaxWidth-3]) + "..."
}

// Table lays out stats rows in fixed-width columns, two spaces apart and
// indented by two spaces.
type Table struct {
	columns []Column
	rows    [][]string
}

// NewTable creates a table with the given columns.
func NewTable(columns ...Column) *Table {
	return &Table{columns: columns}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// AddRow appends a row, padding missing values and dropping extras.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.columns))
	for i, col := range t.columns {
		if i < len(values) {
			row[i] = col.cell(values[i])
		}
	}
	t.rows = append(t.rows, row)
}

// Render writes the bold header, a dashed rule and every row to w.
// Widths are counted in runes before color is applied.
func (t *Table) Render(w io.Writer) error {
	if len(t.columns) == 0 {
		return nil
	}

	headers := make([]string, len(t.columns))
	widths := make([]int, len(t.columns))
	for i, col := range t.columns {
		headers[i] = col.Header
		widths[i] = utf8.RuneCountInString(col.Header)
	}
	for _, row := range t.rows {
		for i, v := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(v))
		}
	}

	bold := color.New(color.Bold).SprintFunc()
	if err := t.writeLine(w, headers, widths, func(_ Column, v string) string { return bold(v) }); err != nil {
		return err
	}

	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}
	if err := t.writeLine(w, rule, widths, nil); err != nil {
		return err
	}

	for _, row := range t.rows {
		err := t.writeLine(w, row, widths, func(c Column, v string) string {
			if c.Color == nil {
				return v
			}
			return c.Color(v)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// writeLine pads each value to its column width and applies style, if any,
// to the unpadded text.
func (t *Table) writeLine(w io.Writer, values []string, widths []int, style func(Column, string) string) error {
	var b strings.Builder
	b.WriteString("  ")
	for i, col := range t.columns {
		if i > 0 {
			b.WriteString("  ")
		}
		v := values[i]
		pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(v))
		if style != nil {
			v = style(col, v)
		}
		if col.Align == AlignRight {
			b.WriteString(pad + v)
		} else {
			b.WriteString(v + pad)
		}
	}
	b.WriteByte('\n')
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}
