// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

// Blend selects a blend factor.
type Blend uint8

const (
	BlendOne Blend = iota
	BlendZero
	BlendSourceColor
	BlendInverseSourceColor
	BlendSourceAlpha
	BlendInverseSourceAlpha
	BlendDestinationColor
	BlendInverseDestinationColor
	BlendDestinationAlpha
	BlendInverseDestinationAlpha
	BlendBlendFactor
	BlendInverseBlendFactor
	BlendSourceAlphaSaturation
)

var blendNames = map[string]Blend{
	"one":            BlendOne,
	"zero":           BlendZero,
	"srccolor":       BlendSourceColor,
	"invsrccolor":    BlendInverseSourceColor,
	"srcalpha":       BlendSourceAlpha,
	"invsrcalpha":    BlendInverseSourceAlpha,
	"destcolor":      BlendDestinationColor,
	"invdestcolor":   BlendInverseDestinationColor,
	"destalpha":      BlendDestinationAlpha,
	"invdestalpha":   BlendInverseDestinationAlpha,
	"blendfactor":    BlendBlendFactor,
	"invblendfactor": BlendInverseBlendFactor,
	"srcalphasat":    BlendSourceAlphaSaturation,
}

// BlendFunction combines source and destination terms.
type BlendFunction uint8

const (
	BlendFunctionAdd BlendFunction = iota
	BlendFunctionSubtract
	BlendFunctionReverseSubtract
	BlendFunctionMin
	BlendFunctionMax
)

var blendFunctionNames = map[string]BlendFunction{
	"add":         BlendFunctionAdd,
	"subtract":    BlendFunctionSubtract,
	"revsubtract": BlendFunctionReverseSubtract,
	"min":         BlendFunctionMin,
	"max":         BlendFunctionMax,
}

// ColorWriteChannels is a mask of color channels written by a pass.
type ColorWriteChannels uint8

const (
	ColorWriteNone  ColorWriteChannels = 0
	ColorWriteRed   ColorWriteChannels = 1
	ColorWriteGreen ColorWriteChannels = 2
	ColorWriteBlue  ColorWriteChannels = 4
	ColorWriteAlpha ColorWriteChannels = 8
	ColorWriteAll   ColorWriteChannels = 15
)

var colorWriteNames = map[string]ColorWriteChannels{
	"none":  ColorWriteNone,
	"red":   ColorWriteRed,
	"green": ColorWriteGreen,
	"blue":  ColorWriteBlue,
	"alpha": ColorWriteAlpha,
	"all":   ColorWriteAll,
}

// CompareFunction is used by depth and stencil tests.
type CompareFunction uint8

const (
	CompareAlways CompareFunction = iota
	CompareNever
	CompareLess
	CompareLessEqual
	CompareEqual
	CompareGreaterEqual
	CompareGreater
	CompareNotEqual
)

var compareNames = map[string]CompareFunction{
	"always":       CompareAlways,
	"never":        CompareNever,
	"less":         CompareLess,
	"lessequal":    CompareLessEqual,
	"equal":        CompareEqual,
	"greaterequal": CompareGreaterEqual,
	"greater":      CompareGreater,
	"notequal":     CompareNotEqual,
}

// StencilOperation is applied to the stencil buffer after a test.
type StencilOperation uint8

const (
	StencilKeep StencilOperation = iota
	StencilZero
	StencilReplace
	StencilIncrement
	StencilDecrement
	StencilIncrementSaturation
	StencilDecrementSaturation
	StencilInvert
)

var stencilNames = map[string]StencilOperation{
	"keep":    StencilKeep,
	"zero":    StencilZero,
	"replace": StencilReplace,
	"incr":    StencilIncrement,
	"decr":    StencilDecrement,
	"incrsat": StencilIncrementSaturation,
	"decrsat": StencilDecrementSaturation,
	"invert":  StencilInvert,
}

// CullMode selects which triangle faces are culled.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullClockwiseFace
	CullCounterClockwiseFace
)

var cullNames = map[string]CullMode{
	"none": CullNone,
	"cw":   CullClockwiseFace,
	"ccw":  CullCounterClockwiseFace,
}

// FillMode selects how triangles are rasterized.
type FillMode uint8

const (
	FillSolid FillMode = iota
	FillWireFrame
)

var fillNames = map[string]FillMode{
	"solid":     FillSolid,
	"wireframe": FillWireFrame,
}

// TextureAddressMode controls coordinates outside [0, 1].
type TextureAddressMode uint8

const (
	AddressWrap TextureAddressMode = iota
	AddressClamp
	AddressMirror
	AddressBorder
)

var addressNames = map[string]TextureAddressMode{
	"wrap":   AddressWrap,
	"clamp":  AddressClamp,
	"mirror": AddressMirror,
	"border": AddressBorder,
}

// TextureFilter is the combined minification, magnification and mip filter.
type TextureFilter uint8

const (
	FilterLinear TextureFilter = iota
	FilterPoint
	FilterAnisotropic
	FilterLinearMipPoint
	FilterPointMipLinear
	FilterMinLinearMagPointMipLinear
	FilterMinLinearMagPointMipPoint
	FilterMinPointMagLinearMipLinear
	FilterMinPointMagLinearMipPoint
)

// filterMode is a single filter stage as written in sampler_state blocks.
type filterMode uint8

const (
	filterNone filterMode = iota
	filterPoint
	filterLinear
	filterAnisotropic
)

var filterModeNames = map[string]filterMode{
	"none":        filterNone,
	"point":       filterPoint,
	"linear":      filterLinear,
	"anisotropic": filterAnisotropic,
}

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// ColorFromARGB unpacks a 0xAARRGGBB value.
func ColorFromARGB(v uint32) Color {
	return Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: uint8(v >> 24),
	}
}
