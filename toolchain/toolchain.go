// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package toolchain

import (
	"fmt"
	"strings"
)

// Request describes one entry point to compile.
type Request struct {
	// Source is the shader source with effect syntax erased.
	Source string

	// File names the source in diagnostics.
	File string

	Entry   string
	Profile Profile
	Flags   Flags
}

// Bytecode is one compiled entry point.
type Bytecode struct {
	Stage   Stage
	Entry   string
	Profile Profile
	Code    []byte

	// Artifact carries implementation data needed by Reflect.
	Artifact any
}

// Toolchain compiles and reflects single shader entry points.
type Toolchain interface {
	// Compile compiles req. The returned Log is valid on success and on
	// failure. Failures are reported as *CompilerError.
	Compile(req Request) (*Bytecode, Log, error)

	// Reflect extracts binding metadata from code produced by Compile.
	Reflect(code *Bytecode) (*Reflection, error)
}

// Log accumulates non-fatal compiler output.
type Log struct {
	Warnings []string
	Infos    []string
}

// Warnf appends a warning.
func (l *Log) Warnf(format string, args ...any) {
	l.Warnings = append(l.Warnings, fmt.Sprintf(format, args...))
}

// Infof appends an informational message.
func (l *Log) Infof(format string, args ...any) {
	l.Infos = append(l.Infos, fmt.Sprintf(format, args...))
}

// Merge appends the contents of other.
func (l *Log) Merge(other Log) {
	l.Warnings = append(l.Warnings, other.Warnings...)
	l.Infos = append(l.Infos, other.Infos...)
}

// Empty reports whether the log holds no messages.
func (l Log) Empty() bool {
	return len(l.Warnings) == 0 && len(l.Infos) == 0
}

// String returns all messages, one per line, warnings first.
func (l Log) String() string {
	var sb strings.Builder
	for _, w := range l.Warnings {
		sb.WriteString("warning: ")
		sb.WriteString(w)
		sb.WriteByte('\n')
	}
	for _, i := range l.Infos {
		sb.WriteString("info: ")
		sb.WriteString(i)
		sb.WriteByte('\n')
	}
	return sb.String()
}
