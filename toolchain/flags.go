// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package toolchain

import "strings"

// Flags control code generation.
type Flags uint8

const (
	// FlagDebug requests unoptimized code with symbols kept.
	FlagDebug Flags = 1 << iota

	// FlagOptimize requests maximum optimization.
	FlagOptimize
)

// FlagsFor returns FlagDebug in debug builds and FlagOptimize otherwise.
func FlagsFor(debug bool) Flags {
	if debug {
		return FlagDebug
	}
	return FlagOptimize
}

// Debug reports whether f requests a debug build.
func (f Flags) Debug() bool { return f&FlagDebug != 0 }

func (f Flags) String() string {
	var parts []string
	if f&FlagDebug != 0 {
		parts = append(parts, "debug")
	}
	if f&FlagOptimize != 0 {
		parts = append(parts, "optimize")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
