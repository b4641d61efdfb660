// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package binfmt reads and writes the binary effect format.
//
// A stream starts with the magic "GFXE", a little-endian uint16 format
// version and a target byte, followed by the constant buffer table, the
// shader table, the parameter tree in pre-order and the techniques.
// Fixed-width integers are little-endian. Counts and lengths use a zigzag
// varint: the int32 value v becomes (v << 1) ^ (v >> 31), which is then
// written in 7-bit groups, least significant first, with the high bit set
// on every byte but the last. Strings are a varint byte length followed by
// UTF-8 bytes.
//
// The writer panics when the graph it is given is inconsistent (an index
// out of range, a leaf with the wrong amount of data), since such a graph
// can only come from a bug upstream. The reader returns *FormatError.
package binfmt
