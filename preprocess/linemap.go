// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package preprocess

import "sort"

// LineMap maps preprocessed output lines back to source files and lines.
// Line numbers are 1-based.
type LineMap struct {
	segments []segment
}

// segment starts a run of consecutive output lines that map to consecutive
// lines of one file.
type segment struct {
	out  int
	file string
	line int
}

// record notes that output line out came from file:line.
func (m *LineMap) record(out int, file string, line int) {
	if n := len(m.segments); n > 0 {
		last := m.segments[n-1]
		if last.file == file && out-last.out == line-last.line {
			return
		}
	}
	m.segments = append(m.segments, segment{out: out, file: file, line: line})
}

// contiguous reports whether output line out would continue the last run.
func (m *LineMap) contiguous(out int, file string, line int) bool {
	n := len(m.segments)
	if n == 0 {
		return false
	}
	last := m.segments[n-1]
	return last.file == file && out-last.out == line-last.line
}

// Resolve returns the file and line that output line out came from.
func (m *LineMap) Resolve(out int) (file string, line int, ok bool) {
	i := sort.Search(len(m.segments), func(i int) bool {
		return m.segments[i].out > out
	})
	if i == 0 {
		return "", 0, false
	}
	s := m.segments[i-1]
	return s.file, s.line + (out - s.out), true
}
