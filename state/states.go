// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import "math"

// BlendState describes output-merger blending for a pass.
type BlendState struct {
	ColorSourceBlend      Blend
	ColorDestinationBlend Blend
	ColorBlendFunction    BlendFunction
	AlphaSourceBlend      Blend
	AlphaDestinationBlend Blend
	AlphaBlendFunction    BlendFunction

	// ColorWriteChannels holds the write mask of render targets 0-3.
	ColorWriteChannels [4]ColorWriteChannels

	BlendFactor     Color
	MultiSampleMask int32
}

// DefaultBlend returns the opaque blend state.
func DefaultBlend() BlendState {
	return BlendState{
		ColorSourceBlend:      BlendOne,
		ColorDestinationBlend: BlendZero,
		ColorBlendFunction:    BlendFunctionAdd,
		AlphaSourceBlend:      BlendOne,
		AlphaDestinationBlend: BlendZero,
		AlphaBlendFunction:    BlendFunctionAdd,
		ColorWriteChannels:    [4]ColorWriteChannels{ColorWriteAll, ColorWriteAll, ColorWriteAll, ColorWriteAll},
		BlendFactor:           Color{R: 255, G: 255, B: 255, A: 255},
		MultiSampleMask:       -1,
	}
}

// DepthStencilState describes depth and stencil testing for a pass.
type DepthStencilState struct {
	DepthBufferEnable      bool
	DepthBufferWriteEnable bool
	DepthBufferFunction    CompareFunction

	StencilEnable          bool
	StencilFunction        CompareFunction
	StencilPass            StencilOperation
	StencilFail            StencilOperation
	StencilDepthBufferFail StencilOperation

	TwoSidedStencilMode                    bool
	CounterClockwiseStencilFunction        CompareFunction
	CounterClockwiseStencilPass            StencilOperation
	CounterClockwiseStencilFail            StencilOperation
	CounterClockwiseStencilDepthBufferFail StencilOperation

	ReferenceStencil int32
	StencilMask      int32
	StencilWriteMask int32
}

// DefaultDepthStencil returns depth test and write enabled, stencil off.
func DefaultDepthStencil() DepthStencilState {
	return DepthStencilState{
		DepthBufferEnable:                      true,
		DepthBufferWriteEnable:                 true,
		DepthBufferFunction:                    CompareLessEqual,
		StencilFunction:                        CompareAlways,
		StencilPass:                            StencilKeep,
		StencilFail:                            StencilKeep,
		StencilDepthBufferFail:                 StencilKeep,
		CounterClockwiseStencilFunction:        CompareAlways,
		CounterClockwiseStencilPass:            StencilKeep,
		CounterClockwiseStencilFail:            StencilKeep,
		CounterClockwiseStencilDepthBufferFail: StencilKeep,
		StencilMask:                            math.MaxInt32,
		StencilWriteMask:                       math.MaxInt32,
	}
}

// RasterizerState describes primitive rasterization for a pass.
type RasterizerState struct {
	CullMode             CullMode
	FillMode             FillMode
	DepthBias            float32
	SlopeScaleDepthBias  float32
	ScissorTestEnable    bool
	MultiSampleAntiAlias bool
}

// DefaultRasterizer culls counter-clockwise faces and fills solid.
func DefaultRasterizer() RasterizerState {
	return RasterizerState{
		CullMode:             CullCounterClockwiseFace,
		FillMode:             FillSolid,
		MultiSampleAntiAlias: true,
	}
}

// SamplerState describes how a texture is sampled.
type SamplerState struct {
	AddressU                TextureAddressMode
	AddressV                TextureAddressMode
	AddressW                TextureAddressMode
	Filter                  TextureFilter
	BorderColor             Color
	MaxAnisotropy           int32
	MaxMipLevel             int32
	MipMapLevelOfDetailBias float32
}

// DefaultSampler returns linear filtering with clamped addressing.
func DefaultSampler() SamplerState {
	return SamplerState{
		AddressU:      AddressClamp,
		AddressV:      AddressClamp,
		AddressW:      AddressClamp,
		Filter:        FilterLinear,
		MaxAnisotropy: 4,
	}
}
