// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package model

import "github.com/gogpu/fxc/state"

// ParameterClass is the shape class of a parameter.
type ParameterClass uint8

const (
	ClassScalar ParameterClass = iota
	ClassVector
	ClassMatrixRows
	ClassMatrixColumns
	ClassObject
	ClassStruct
)

// ParameterType is the element type of a parameter.
type ParameterType uint8

const (
	TypeVoid ParameterType = iota
	TypeBool
	TypeInt32
	TypeSingle
	TypeString
	TypeTexture
	TypeTexture1D
	TypeTexture2D
	TypeTexture3D
	TypeTextureCube
)

// HasData reports whether leaves of type t carry inline default data.
func (t ParameterType) HasData() bool {
	return t == TypeBool || t == TypeInt32 || t == TypeSingle
}

// SamplerType is the texture dimension a sampler reads.
type SamplerType uint8

const (
	Sampler2D SamplerType = iota
	SamplerCube
	SamplerVolume
	Sampler1D
)

// Stage is the pipeline stage of a shader.
type Stage uint8

const (
	StagePixel Stage = iota
	StageVertex
)

func (s Stage) String() string {
	if s == StageVertex {
		return "vertex"
	}
	return "pixel"
}

// VertexUsage is the semantic of a vertex attribute.
type VertexUsage uint8

const (
	UsagePosition VertexUsage = iota
	UsageColor
	UsageTextureCoordinate
	UsageNormal
	UsageBinormal
	UsageTangent
	UsageBlendIndices
	UsageBlendWeight
	UsageDepth
	UsageFog
	UsagePointSize
	UsageSample
	UsageTessellateFactor
)

// Effect is the assembled effect graph.
type Effect struct {
	ConstantBuffers []ConstantBuffer
	Shaders         []Shader

	// Parameters is the global parameter list. Parameter indices elsewhere
	// in the graph refer to this list.
	Parameters []Parameter

	Techniques []Technique
}

// ConstantBuffer is a uniform block layout. Parameters and Offsets are
// parallel.
type ConstantBuffer struct {
	Name       string
	Size       uint16
	Parameters []uint8
	Offsets    []uint16
}

// Shader is one compiled, deduplicated shader.
type Shader struct {
	Stage    Stage
	Bytecode []byte
	Samplers []Sampler

	// ConstantBuffers indexes Effect.ConstantBuffers.
	ConstantBuffers []uint8

	// Attributes is empty for pixel shaders.
	Attributes []Attribute
}

// Sampler binds a texture parameter to texture and sampler units.
type Sampler struct {
	Type        SamplerType
	TextureUnit uint8
	SamplerUnit uint8

	// State is the sampler_state declared in the effect, nil if none.
	State *state.SamplerState

	Name      string
	Parameter uint8
}

// Attribute is a vertex shader input.
type Attribute struct {
	Name     string
	Usage    VertexUsage
	Index    uint8
	Location int16
}

// Technique is a named sequence of passes.
type Technique struct {
	Name   string
	Passes []Pass
}

// NoShader marks an empty shader slot of a pass.
const NoShader = -1

// Pass is one draw configuration. Nil states mean the runtime default.
type Pass struct {
	Name         string
	VertexShader int32
	PixelShader  int32

	Blend        *state.BlendState
	DepthStencil *state.DepthStencilState
	Rasterizer   *state.RasterizerState
}
