// Copyright 2026 The pureflashblade-mcp Authors

package stringformat

import (
	"fmt"
	"strings"
)

// AlignmentType controls where padding goes in FixedLengthString
type AlignmentType int

const (
	LeftAlign AlignmentType = iota
	RightAlign
	CenterAlign
)

// FixedLengthString renders value into exactly length runes, truncating or padding as needed
func FixedLengthString(length int, value interface{}, align AlignmentType) string {
	if length <= 0 {
		return ""
	}
	s := []rune(fmt.Sprintf("%v", value))
	if len(s) >= length {
		return string(s[:length])
	}

	pad := length - len(s)
	switch align {
	case RightAlign:
		return strings.Repeat(" ", pad) + string(s)
	case CenterAlign:
		left := pad / 2
		return strings.Repeat(" ", left) + string(s) + strings.Repeat(" ", pad-left)
	default:
		return string(s) + strings.Repeat(" ", pad)
	}
}

// Columns joins cells rendered at the given widths with two spaces, trimming trailing blanks
func Columns(widths []int, cells ...interface{}) string {
	parts := make([]string, 0, len(cells))
	for i, cell := range cells {
		width := 0
		if i < len(widths) {
			width = widths[i]
		}
		if width <= 0 {
			parts = append(parts, fmt.Sprintf("%v", cell))
			continue
		}
		parts = append(parts, FixedLengthString(width, cell, LeftAlign))
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}
