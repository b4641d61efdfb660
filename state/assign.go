// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import (
	"strings"
)

// Assigner consumes effect state assignments.
//
// Assign reports whether key names a state owned by the assigner. A handled
// key with a malformed value returns true and a non-nil error.
type Assigner interface {
	Assign(key, value string) (bool, error)
}

var (
	_ Assigner = &BlendAssigner{}
	_ Assigner = &DepthStencilAssigner{}
	_ Assigner = &RasterizerAssigner{}
	_ Assigner = &SamplerAssigner{}
)

// BlendAssigner builds a BlendState from pass assignments.
type BlendAssigner struct {
	state         BlendState
	touched       bool
	disabled      bool
	separateAlpha bool
}

// Assign implements Assigner.
func (b *BlendAssigner) Assign(key, value string) (bool, error) {
	if !b.touched {
		b.state = DefaultBlend()
	}
	var err error
	switch strings.ToLower(key) {
	case "alphablendenable":
		var on bool
		on, err = parseBool(value)
		b.disabled = !on
	case "separatealphablendenable":
		b.separateAlpha, err = parseBool(value)
	case "srcblend":
		var v Blend
		v, err = parseEnum("blend", blendNames, value)
		b.state.ColorSourceBlend = v
		if !b.separateAlpha {
			b.state.AlphaSourceBlend = v
		}
	case "destblend":
		var v Blend
		v, err = parseEnum("blend", blendNames, value)
		b.state.ColorDestinationBlend = v
		if !b.separateAlpha {
			b.state.AlphaDestinationBlend = v
		}
	case "blendop":
		var v BlendFunction
		v, err = parseEnum("blend op", blendFunctionNames, value)
		b.state.ColorBlendFunction = v
		if !b.separateAlpha {
			b.state.AlphaBlendFunction = v
		}
	case "srcblendalpha":
		b.state.AlphaSourceBlend, err = parseEnum("blend", blendNames, value)
	case "destblendalpha":
		b.state.AlphaDestinationBlend, err = parseEnum("blend", blendNames, value)
	case "blendopalpha":
		b.state.AlphaBlendFunction, err = parseEnum("blend op", blendFunctionNames, value)
	case "colorwriteenable", "colorwriteenable0":
		b.state.ColorWriteChannels[0], err = parseColorMask(value)
	case "colorwriteenable1":
		b.state.ColorWriteChannels[1], err = parseColorMask(value)
	case "colorwriteenable2":
		b.state.ColorWriteChannels[2], err = parseColorMask(value)
	case "colorwriteenable3":
		b.state.ColorWriteChannels[3], err = parseColorMask(value)
	case "blendfactor":
		b.state.BlendFactor, err = parseColor(value)
	case "multisamplemask":
		b.state.MultiSampleMask, err = parseInt32(value)
	default:
		return false, nil
	}
	b.touched = true
	return true, err
}

// State returns the assembled blend state, or nil if nothing was assigned.
func (b *BlendAssigner) State() *BlendState {
	if !b.touched {
		return nil
	}
	s := b.state
	if b.disabled {
		s.ColorSourceBlend, s.AlphaSourceBlend = BlendOne, BlendOne
		s.ColorDestinationBlend, s.AlphaDestinationBlend = BlendZero, BlendZero
	}
	return &s
}

// DepthStencilAssigner builds a DepthStencilState from pass assignments.
type DepthStencilAssigner struct {
	state   DepthStencilState
	touched bool
}

// Assign implements Assigner.
func (d *DepthStencilAssigner) Assign(key, value string) (bool, error) {
	if !d.touched {
		d.state = DefaultDepthStencil()
	}
	s := &d.state
	var err error
	switch strings.ToLower(key) {
	case "zenable":
		s.DepthBufferEnable, err = parseBool(value)
	case "zwriteenable":
		s.DepthBufferWriteEnable, err = parseBool(value)
	case "zfunc":
		s.DepthBufferFunction, err = parseEnum("compare function", compareNames, value)
	case "stencilenable":
		s.StencilEnable, err = parseBool(value)
	case "stencilfunc":
		s.StencilFunction, err = parseEnum("compare function", compareNames, value)
	case "stencilpass":
		s.StencilPass, err = parseEnum("stencil op", stencilNames, value)
	case "stencilfail":
		s.StencilFail, err = parseEnum("stencil op", stencilNames, value)
	case "stencilzfail":
		s.StencilDepthBufferFail, err = parseEnum("stencil op", stencilNames, value)
	case "twosidedstencilmode":
		s.TwoSidedStencilMode, err = parseBool(value)
	case "ccw_stencilfunc":
		s.CounterClockwiseStencilFunction, err = parseEnum("compare function", compareNames, value)
	case "ccw_stencilpass":
		s.CounterClockwiseStencilPass, err = parseEnum("stencil op", stencilNames, value)
	case "ccw_stencilfail":
		s.CounterClockwiseStencilFail, err = parseEnum("stencil op", stencilNames, value)
	case "ccw_stencilzfail":
		s.CounterClockwiseStencilDepthBufferFail, err = parseEnum("stencil op", stencilNames, value)
	case "stencilref":
		s.ReferenceStencil, err = parseInt32(value)
	case "stencilmask":
		s.StencilMask, err = parseInt32(value)
	case "stencilwritemask":
		s.StencilWriteMask, err = parseInt32(value)
	default:
		return false, nil
	}
	d.touched = true
	return true, err
}

// State returns the assembled depth-stencil state, or nil if untouched.
func (d *DepthStencilAssigner) State() *DepthStencilState {
	if !d.touched {
		return nil
	}
	s := d.state
	return &s
}

// RasterizerAssigner builds a RasterizerState from pass assignments.
type RasterizerAssigner struct {
	state   RasterizerState
	touched bool
}

// Assign implements Assigner.
func (r *RasterizerAssigner) Assign(key, value string) (bool, error) {
	if !r.touched {
		r.state = DefaultRasterizer()
	}
	s := &r.state
	var err error
	switch strings.ToLower(key) {
	case "cullmode":
		s.CullMode, err = parseEnum("cull mode", cullNames, value)
	case "fillmode":
		s.FillMode, err = parseEnum("fill mode", fillNames, value)
	case "depthbias":
		s.DepthBias, err = parseFloat(value)
	case "slopescaledepthbias":
		s.SlopeScaleDepthBias, err = parseFloat(value)
	case "scissortestenable":
		s.ScissorTestEnable, err = parseBool(value)
	case "multisampleantialias":
		s.MultiSampleAntiAlias, err = parseBool(value)
	default:
		return false, nil
	}
	r.touched = true
	return true, err
}

// State returns the assembled rasterizer state, or nil if untouched.
func (r *RasterizerAssigner) State() *RasterizerState {
	if !r.touched {
		return nil
	}
	s := r.state
	return &s
}

// SamplerAssigner builds a SamplerState from a sampler_state block.
type SamplerAssigner struct {
	state   SamplerState
	touched bool

	// Texture is the texture named by a "Texture = <name>" assignment.
	Texture string

	min, mag, mip filterMode
	explicit      bool
}

// Assign implements Assigner.
func (a *SamplerAssigner) Assign(key, value string) (bool, error) {
	if !a.touched {
		a.state = DefaultSampler()
		a.min, a.mag, a.mip = filterLinear, filterLinear, filterLinear
	}
	s := &a.state
	var err error
	switch strings.ToLower(key) {
	case "texture":
		a.Texture = strings.Trim(value, "<>() \t")
	case "minfilter":
		a.min, err = parseEnum("filter", filterModeNames, value)
		a.explicit = false
	case "magfilter":
		a.mag, err = parseEnum("filter", filterModeNames, value)
		a.explicit = false
	case "mipfilter":
		a.mip, err = parseEnum("filter", filterModeNames, value)
		a.explicit = false
	case "filter":
		s.Filter, err = parseEnum("filter", textureFilterNames, value)
		a.explicit = true
	case "addressu":
		s.AddressU, err = parseEnum("address mode", addressNames, value)
	case "addressv":
		s.AddressV, err = parseEnum("address mode", addressNames, value)
	case "addressw":
		s.AddressW, err = parseEnum("address mode", addressNames, value)
	case "bordercolor":
		s.BorderColor, err = parseColor(value)
	case "maxanisotropy":
		s.MaxAnisotropy, err = parseInt32(value)
	case "maxmiplevel":
		s.MaxMipLevel, err = parseInt32(value)
	case "miplodbias", "mipmaplodbias":
		s.MipMapLevelOfDetailBias, err = parseFloat(value)
	default:
		return false, nil
	}
	a.touched = true
	return true, err
}

// State returns the assembled sampler state, or nil if untouched.
func (a *SamplerAssigner) State() *SamplerState {
	if !a.touched {
		return nil
	}
	s := a.state
	if !a.explicit {
		s.Filter = combineFilter(a.min, a.mag, a.mip)
	}
	return &s
}

var textureFilterNames = map[string]TextureFilter{
	"linear":                     FilterLinear,
	"point":                      FilterPoint,
	"anisotropic":                FilterAnisotropic,
	"linearmippoint":             FilterLinearMipPoint,
	"pointmiplinear":             FilterPointMipLinear,
	"minlinearmagpointmiplinear": FilterMinLinearMagPointMipLinear,
	"minlinearmagpointmippoint":  FilterMinLinearMagPointMipPoint,
	"minpointmaglinearmiplinear": FilterMinPointMagLinearMipLinear,
	"minpointmaglinearmippoint":  FilterMinPointMagLinearMipPoint,
}

// combineFilter folds separate min/mag/mip filters into one TextureFilter.
// A missing mip filter behaves like point sampling of the base level.
func combineFilter(min, mag, mip filterMode) TextureFilter {
	if min == filterAnisotropic || mag == filterAnisotropic || mip == filterAnisotropic {
		return FilterAnisotropic
	}
	mipLinear := mip == filterLinear
	minLinear := min == filterLinear
	magLinear := mag == filterLinear
	switch {
	case minLinear && magLinear:
		if mipLinear {
			return FilterLinear
		}
		return FilterLinearMipPoint
	case !minLinear && !magLinear:
		if mipLinear {
			return FilterPointMipLinear
		}
		return FilterPoint
	case minLinear:
		if mipLinear {
			return FilterMinLinearMagPointMipLinear
		}
		return FilterMinLinearMagPointMipPoint
	default:
		if mipLinear {
			return FilterMinPointMagLinearMipLinear
		}
		return FilterMinPointMagLinearMipPoint
	}
}
