// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"errors"

	"github.com/gogpu/fxc/state"
	"github.com/gogpu/fxc/toolchain"
)

// ErrNoTechniques is returned by Prune when no technique has a pass.
var ErrNoTechniques = errors.New("effect must contain at least one technique and pass")

// EntryRef names a shader entry point compiled for a profile.
type EntryRef struct {
	Entry   string
	Profile toolchain.Profile
}

func (r EntryRef) String() string {
	return r.Entry + " (" + r.Profile.String() + ")"
}

// Pass is one evaluated pass. Nil render states mean the runtime default.
type Pass struct {
	Name         string
	VertexShader *EntryRef
	PixelShader  *EntryRef

	Blend        *state.BlendState
	DepthStencil *state.DepthStencilState
	Rasterizer   *state.RasterizerState

	Span Span
}

// Technique is one evaluated technique.
type Technique struct {
	Name   string
	Passes []Pass
	Span   Span
}

// SamplerInfo is an evaluated sampler_state block.
type SamplerInfo struct {
	Name string

	// Texture is the texture named in the block, if any.
	Texture string

	State *state.SamplerState
	Span  Span
}

// ShaderInfo is the evaluated effect layer of a source.
type ShaderInfo struct {
	Techniques []Technique
	Samplers   []SamplerInfo

	// Entries lists the distinct entry point references of all passes in
	// first-seen order.
	Entries []EntryRef
}

// Sampler returns the sampler_state block declared for name.
func (si *ShaderInfo) Sampler(name string) (*SamplerInfo, bool) {
	for i := range si.Samplers {
		if si.Samplers[i].Name == name {
			return &si.Samplers[i], true
		}
	}
	return nil, false
}

// Prune removes techniques without passes. It returns ErrNoTechniques when
// nothing remains.
func (si *ShaderInfo) Prune() error {
	kept := si.Techniques[:0]
	for _, t := range si.Techniques {
		if len(t.Passes) > 0 {
			kept = append(kept, t)
		}
	}
	si.Techniques = kept
	if len(kept) == 0 {
		return ErrNoTechniques
	}
	return nil
}
