// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package model assembles the in-memory effect graph from the evaluated
// effect layer and the compiled shaders.
//
// All cross references are dense indices into the tables of Effect:
// identical shaders (same stage and bytecode) share one Shaders entry,
// structurally identical constant buffers share one ConstantBuffers entry,
// and parameters are shared by name. An Effect is read-only once Build
// returns it.
package model
