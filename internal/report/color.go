// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package report

import (
	"fmt"

	"github.com/fatih/color"
)

// Shared color printers.
var (
	colorRed    = color.New(color.FgRed)
	colorYellow = color.New(color.FgYellow)
	colorGreen  = color.New(color.FgGreen)
	colorBold   = color.New(color.Bold)
)

// ColorStatus colors envelope status values.
func ColorStatus(val string) string {
	switch val {
	case "success":
		return colorGreen.Sprint(val)
	case "blocked":
		return colorYellow.Sprint(val)
	case "error":
		return colorRed.Sprint(val)
	default:
		return val
	}
}

// ColorFlagged colors the safety_flagged column.
func ColorFlagged(val string) string {
	if val == "true" {
		return colorYellow.Sprint(val)
	}
	return val
}

// SectionTitle renders a bold section title.
func SectionTitle(title string) string {
	return colorBold.Sprint(title)
}

// colorRate colors a flag rate: 0 is green, under 10% yellow, otherwise red.
func colorRate(rate float64) string {
	s := fmt.Sprintf("%.1f%%", rate*100)
	switch {
	case rate == 0:
		return colorGreen.Sprint(s)
	case rate < 0.1:
		return colorYellow.Sprint(s)
	default:
		return colorRed.Sprint(s)
	}
}

// colorCount colors a count: 0 is green, >0 is yellow.
func colorCount(n int) string {
	s := fmt.Sprintf("%d", n)
	if n == 0 {
		return colorGreen.Sprint(s)
	}
	return colorYellow.Sprint(s)
}
