// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package preprocess

import (
	"fmt"
	"strings"
)

// SourceError is a preprocessing diagnostic with its location.
type SourceError struct {
	File    string
	Line    int
	Column  int
	Message string

	// Text is the offending source line, if known.
	Text string
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	if e.Column == 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}

// FormatWithContext returns the error message followed by the offending line
// and a caret under the reported column.
func (e *SourceError) FormatWithContext() string {
	if e.Text == "" || e.Line == 0 {
		return e.Error()
	}
	col := e.Column
	if col < 1 {
		col = 1
	}
	if col > len(e.Text)+1 {
		col = len(e.Text) + 1
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s\n", e.Message)
	fmt.Fprintf(&sb, "  --> %s:%d:%d\n", e.File, e.Line, col)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", e.Line, e.Text)
	fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))
	return sb.String()
}
