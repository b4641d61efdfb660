// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package state defines the fixed-function render states carried by an
// effect pass and the sampler states embedded in sampler declarations.
//
// Every enumeration in this package has a stable byte value: the values are
// written verbatim into compiled effect binaries, so they must never be
// renumbered.
//
// # Assignments
//
// Effect source sets states with assignments such as
//
//	AlphaBlendEnable = true;
//	SrcBlend = SrcAlpha;
//	CullMode = None;
//
// BlendAssigner, DepthStencilAssigner, RasterizerAssigner and SamplerAssigner
// translate those assignments into state values. Names and enumerants are
// matched case-insensitively.
package state
