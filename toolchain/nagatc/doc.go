// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package nagatc implements toolchain.Toolchain on top of the naga shader
// compiler.
//
// Shader code inside effects is WGSL. Each request is parsed and lowered to
// naga IR, reduced to the requested entry point and emitted as SPIR-V,
// GLSL, HLSL or MSL. Reflection reads the same IR: only globals reachable
// from the entry point are reported.
//
// A Toolchain holds no mutable state and may be used from several
// goroutines.
package nagatc
