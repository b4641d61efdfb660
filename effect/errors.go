// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"fmt"
	"strings"
)

// SourceError is an effect-layer diagnostic with its location.
type SourceError struct {
	File    string
	Line    int
	Column  int
	Offset  int
	Message string

	// Source is the text the error refers to, for context display.
	Source string
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
	}
	if loc == "" {
		return e.Message
	}
	return loc + ": " + e.Message
}

// FormatWithContext returns the error message with the offending line and
// a caret under the reported column.
func (e *SourceError) FormatWithContext() string {
	if e.Source == "" || e.Line == 0 {
		return e.Error()
	}
	lines := strings.Split(e.Source, "\n")
	if e.Line > len(lines) {
		return e.Error()
	}
	line := strings.TrimRight(lines[e.Line-1], "\r")
	col := e.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s\n", e.Message)
	fmt.Fprintf(&sb, "  --> %s:%d:%d\n", e.File, e.Line, col)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", e.Line, line)
	fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))
	return sb.String()
}

// SourceErrors is a list of effect-layer diagnostics.
type SourceErrors []*SourceError

// Error implements the error interface.
func (el SourceErrors) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	if len(el) == 1 {
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}

// FormatAll returns all errors formatted with context.
func (el SourceErrors) FormatAll() string {
	var sb strings.Builder
	for i, e := range el {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.FormatWithContext())
	}
	return sb.String()
}

// Add adds an error to the list.
func (el *SourceErrors) Add(err *SourceError) {
	*el = append(*el, err)
}
