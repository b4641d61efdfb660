// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package toolchain

import (
	"fmt"
	"strings"
)

// CompilerError is a fatal shader compilation failure.
type CompilerError struct {
	// File, Line and Column locate the failure when known.
	File   string
	Line   int
	Column int

	Entry   string
	Profile Profile
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *CompilerError) Error() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&sb, ":%d", e.Line)
			if e.Column > 0 {
				fmt.Fprintf(&sb, ":%d", e.Column)
			}
		}
		sb.WriteString(": ")
	}
	if e.Entry != "" {
		fmt.Fprintf(&sb, "%s (%s): ", e.Entry, e.Profile)
	}
	sb.WriteString(e.Message)
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *CompilerError) Unwrap() error {
	return e.Err
}
