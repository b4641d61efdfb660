// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package effect parses the effect layer of a preprocessed effect source.
//
// An effect source is WGSL with three extra constructs at the top level:
//
//	technique Name { pass P0 { VertexShader = compile vs_3_0 vs_main(); ... } }
//	var s: sampler = sampler_state { Texture = <tex>; Filter = Linear; };
//	sampler2D s = sampler_state { ... };
//
// Only these constructs are parsed. Everything else is opaque text that is
// handed to the shader toolchain once the effect syntax has been erased.
//
// Compilation of the effect layer runs in four steps:
//
//  1. Parse builds a tree of Nodes with byte spans.
//  2. Evaluate turns the tree into a ShaderInfo: techniques, passes,
//     render states, sampler states and entry point references.
//  3. Erase blanks every technique and sampler_state span, keeping
//     whitespace, so the remaining text is valid WGSL with unchanged line
//     numbers.
//  4. ShaderInfo.Prune drops techniques without passes.
package effect
