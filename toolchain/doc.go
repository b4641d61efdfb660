// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package toolchain defines the contract between the effect compiler and the
// shader compiler that turns one entry point into bytecode.
//
// A Toolchain compiles a single entry point for a Profile and reflects the
// resulting Bytecode into samplers, textures, vertex inputs and constant
// buffer layouts. Implementations perform no caching: the effect compiler
// invokes Compile once per distinct entry point and profile, and
// deduplicates identical results itself.
//
// Implementations must be safe for concurrent use, since independent effects
// may be compiled in parallel.
package toolchain
