// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package binfmt

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/gogpu/fxc/model"
	"github.com/gogpu/fxc/state"
)

// maxParameterDepth bounds nesting of arrays and structs in a stream.
const maxParameterDepth = 64

// Decode parses an effect stream produced by Encode.
func Decode(data []byte) (*model.Effect, Header, error) {
	d := decoder{data: data}
	h := d.header()
	if d.err != nil {
		return nil, h, d.err
	}
	fx := d.effect()
	if d.err == nil && d.off != len(d.data) {
		d.failf("%d trailing bytes", len(d.data)-d.off)
	}
	if d.err != nil {
		return nil, h, d.err
	}
	return fx, h, nil
}

// ReadHeader parses only the stream header.
func ReadHeader(data []byte) (Header, error) {
	d := decoder{data: data}
	h := d.header()
	return h, d.err
}

type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) fail(err error, msg string) {
	if d.err == nil {
		d.err = &FormatError{Offset: d.off, Message: msg, Err: err}
	}
}

func (d *decoder) failf(format string, args ...any) {
	d.fail(nil, fmt.Sprintf(format, args...))
}

// take returns the next n bytes, or nil once an error is recorded.
func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.data)-d.off < n {
		d.fail(ErrTruncated, "")
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) bool() bool {
	switch v := d.u8(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		d.off--
		d.failf("invalid boolean %d", v)
		return false
	}
}

func (d *decoder) u16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (d *decoder) i32() int32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func (d *decoder) f32() float32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func (d *decoder) varint() int32 {
	if d.err != nil {
		return 0
	}
	v, n, err := ReadVarint(d.data[d.off:])
	if err != nil {
		d.fail(err, "")
		return 0
	}
	d.off += n
	return v
}

// count reads a varint count of items that take at least size bytes each.
func (d *decoder) count(what string, size int) int {
	start := d.off
	n := d.varint()
	if d.err != nil {
		return 0
	}
	if n < 0 || int(n)*size > len(d.data)-d.off {
		d.off = start
		d.failf("invalid %s count %d", what, n)
		return 0
	}
	return int(n)
}

func (d *decoder) string() string {
	n := d.count("string byte", 1)
	b := d.take(n)
	if b == nil {
		return ""
	}
	if !utf8.Valid(b) {
		d.off -= n
		d.failf("string is not valid UTF-8")
		return ""
	}
	return string(b)
}

func (d *decoder) header() Header {
	var h Header
	magic := d.take(len(Magic))
	if magic == nil {
		return h
	}
	if string(magic) != Magic {
		d.off = 0
		d.fail(ErrBadMagic, "")
		return h
	}
	h.Version = d.u16()
	if d.err == nil && h.Version != Version {
		d.off -= 2
		d.fail(ErrUnsupportedVersion, fmt.Sprintf("version %d", h.Version))
		return h
	}
	h.Target = Target(d.u8())
	if d.err == nil && !h.Target.valid() {
		d.off--
		d.failf("invalid target %d", uint8(h.Target))
	}
	return h
}

// enum reads a byte and checks it against the largest valid value.
func (d *decoder) enum(what string, max uint8) uint8 {
	v := d.u8()
	if d.err == nil && v > max {
		d.off--
		d.failf("invalid %s %d", what, v)
	}
	return v
}

func (d *decoder) effect() *model.Effect {
	fx := &model.Effect{}

	if n := d.count("constant buffer", 4); n > 0 {
		fx.ConstantBuffers = make([]model.ConstantBuffer, n)
		for i := range fx.ConstantBuffers {
			fx.ConstantBuffers[i] = d.constantBuffer()
		}
	}
	if n := d.count("shader", 5); n > 0 {
		fx.Shaders = make([]model.Shader, n)
		for i := range fx.Shaders {
			fx.Shaders[i] = d.shader()
		}
	}
	if n := d.count("parameter", 8); n > 0 {
		fx.Parameters = make([]model.Parameter, n)
		for i := range fx.Parameters {
			fx.Parameters[i] = d.parameter(0)
		}
	}
	if d.err != nil {
		return nil
	}

	start := d.off
	n := d.i32()
	if d.err == nil && (n < 0 || int(n)*6 > len(d.data)-d.off) {
		d.off = start
		d.failf("invalid technique count %d", n)
	}
	if d.err == nil && n > 0 {
		fx.Techniques = make([]model.Technique, n)
		for i := range fx.Techniques {
			fx.Techniques[i] = d.technique()
		}
	}
	if d.err != nil {
		return nil
	}
	d.checkIndices(fx)
	return fx
}

// checkIndices validates cross references that point forward in the stream.
func (d *decoder) checkIndices(fx *model.Effect) {
	params := len(fx.Parameters)
	for _, cb := range fx.ConstantBuffers {
		for _, p := range cb.Parameters {
			if int(p) >= params {
				d.failf("constant buffer %q refers to parameter %d of %d", cb.Name, p, params)
				return
			}
		}
	}
	for i, s := range fx.Shaders {
		for _, sm := range s.Samplers {
			if int(sm.Parameter) >= params {
				d.failf("shader %d sampler %q refers to parameter %d of %d", i, sm.Name, sm.Parameter, params)
				return
			}
		}
		for _, cb := range s.ConstantBuffers {
			if int(cb) >= len(fx.ConstantBuffers) {
				d.failf("shader %d refers to constant buffer %d of %d", i, cb, len(fx.ConstantBuffers))
				return
			}
		}
	}
	for _, t := range fx.Techniques {
		for _, p := range t.Passes {
			for _, s := range [2]int32{p.VertexShader, p.PixelShader} {
				if s != model.NoShader && (s < 0 || int(s) >= len(fx.Shaders)) {
					d.failf("pass %q refers to shader %d of %d", p.Name, s, len(fx.Shaders))
					return
				}
			}
		}
	}
}

func (d *decoder) constantBuffer() model.ConstantBuffer {
	cb := model.ConstantBuffer{Name: d.string(), Size: d.u16()}
	if n := d.count("constant buffer parameter", 3); n > 0 {
		cb.Parameters = make([]uint8, n)
		cb.Offsets = make([]uint16, n)
		for i := 0; i < n; i++ {
			cb.Parameters[i] = d.u8()
			cb.Offsets[i] = d.u16()
		}
	}
	return cb
}

func (d *decoder) shader() model.Shader {
	s := model.Shader{Stage: model.Stage(d.enum("stage", uint8(model.StageVertex)))}
	n := d.count("bytecode byte", 1)
	if b := d.take(n); n > 0 && b != nil {
		s.Bytecode = append([]byte(nil), b...)
	}

	if n := int(d.u8()); n > 0 && d.err == nil {
		s.Samplers = make([]model.Sampler, n)
		for i := range s.Samplers {
			sm := &s.Samplers[i]
			sm.Type = model.SamplerType(d.enum("sampler type", uint8(model.Sampler1D)))
			sm.TextureUnit = d.u8()
			sm.SamplerUnit = d.u8()
			if d.bool() {
				ss := d.samplerState()
				sm.State = &ss
			}
			sm.Name = d.string()
			sm.Parameter = d.u8()
		}
	}

	if n := int(d.u8()); n > 0 && d.err == nil {
		s.ConstantBuffers = append([]uint8(nil), d.take(n)...)
	}

	if n := int(d.u8()); n > 0 && d.err == nil {
		s.Attributes = make([]model.Attribute, n)
		for i := range s.Attributes {
			a := &s.Attributes[i]
			a.Name = d.string()
			a.Usage = model.VertexUsage(d.enum("vertex usage", uint8(model.UsageTessellateFactor)))
			a.Index = d.u8()
			a.Location = int16(d.u16())
		}
	}
	if d.err == nil && s.Stage == model.StagePixel && len(s.Attributes) > 0 {
		d.failf("pixel shader has %d vertex attributes", len(s.Attributes))
	}
	return s
}

func (d *decoder) parameter(depth int) model.Parameter {
	if depth > maxParameterDepth {
		d.failf("parameter nesting exceeds %d", maxParameterDepth)
		return model.Parameter{}
	}
	p := model.Parameter{
		Class: model.ParameterClass(d.enum("parameter class", uint8(model.ClassStruct))),
		Type:  model.ParameterType(d.enum("parameter type", uint8(model.TypeTextureCube))),
	}
	p.Name = d.string()
	p.Semantic = d.string()
	if n := d.varint(); d.err == nil && n != 0 {
		d.failf("parameter %q has %d annotations", p.Name, n)
	}
	p.Rows = d.u8()
	p.Columns = d.u8()

	start := d.off
	elems := d.count("array element", 8)
	members := d.count("struct member", 8)
	if d.err != nil {
		return p
	}
	switch {
	case elems > 0 && members > 0:
		d.off = start
		d.failf("parameter %q has both elements and members", p.Name)
	case elems > 0:
		v := model.Array{Elements: make([]model.Parameter, elems)}
		for i := range v.Elements {
			v.Elements[i] = d.parameter(depth + 1)
		}
		p.Value = v
	case members > 0:
		v := model.Struct{Members: make([]model.Parameter, members)}
		for i := range v.Members {
			v.Members[i] = d.parameter(depth + 1)
		}
		p.Value = v
	default:
		leaf := model.Leaf{}
		if p.Type.HasData() {
			if b := d.take(4 * int(p.Rows) * int(p.Columns)); b != nil {
				leaf.Data = append([]byte{}, b...)
			}
		}
		p.Value = leaf
	}
	return p
}

func (d *decoder) technique() model.Technique {
	t := model.Technique{Name: d.string()}
	if n := d.varint(); d.err == nil && n != 0 {
		d.failf("technique %q has %d annotations", t.Name, n)
	}
	start := d.off
	n := d.i32()
	if d.err == nil && (n < 0 || int(n)*12 > len(d.data)-d.off) {
		d.off = start
		d.failf("invalid pass count %d in technique %q", n, t.Name)
	}
	if d.err != nil || n == 0 {
		return t
	}
	t.Passes = make([]model.Pass, n)
	for i := range t.Passes {
		p := &t.Passes[i]
		p.Name = d.string()
		if n := d.varint(); d.err == nil && n != 0 {
			d.failf("pass %q has %d annotations", p.Name, n)
		}
		p.VertexShader = d.i32()
		p.PixelShader = d.i32()
		if d.bool() {
			s := d.blendState()
			p.Blend = &s
		}
		if d.bool() {
			s := d.depthStencilState()
			p.DepthStencil = &s
		}
		if d.bool() {
			s := d.rasterizerState()
			p.Rasterizer = &s
		}
	}
	return t
}

func (d *decoder) color() state.Color {
	b := d.take(4)
	if b == nil {
		return state.Color{}
	}
	return state.Color{R: b[0], G: b[1], B: b[2], A: b[3]}
}

func (d *decoder) blendState() state.BlendState {
	var s state.BlendState
	s.ColorSourceBlend = state.Blend(d.u8())
	s.ColorDestinationBlend = state.Blend(d.u8())
	s.ColorBlendFunction = state.BlendFunction(d.u8())
	s.AlphaSourceBlend = state.Blend(d.u8())
	s.AlphaDestinationBlend = state.Blend(d.u8())
	s.AlphaBlendFunction = state.BlendFunction(d.u8())
	for i := range s.ColorWriteChannels {
		s.ColorWriteChannels[i] = state.ColorWriteChannels(d.u8())
	}
	s.BlendFactor = d.color()
	s.MultiSampleMask = d.i32()
	return s
}

func (d *decoder) depthStencilState() state.DepthStencilState {
	var s state.DepthStencilState
	s.DepthBufferEnable = d.bool()
	s.DepthBufferWriteEnable = d.bool()
	s.DepthBufferFunction = state.CompareFunction(d.u8())
	s.StencilEnable = d.bool()
	s.StencilFunction = state.CompareFunction(d.u8())
	s.StencilPass = state.StencilOperation(d.u8())
	s.StencilFail = state.StencilOperation(d.u8())
	s.StencilDepthBufferFail = state.StencilOperation(d.u8())
	s.TwoSidedStencilMode = d.bool()
	s.CounterClockwiseStencilFunction = state.CompareFunction(d.u8())
	s.CounterClockwiseStencilPass = state.StencilOperation(d.u8())
	s.CounterClockwiseStencilFail = state.StencilOperation(d.u8())
	s.CounterClockwiseStencilDepthBufferFail = state.StencilOperation(d.u8())
	s.ReferenceStencil = d.i32()
	s.StencilMask = d.i32()
	s.StencilWriteMask = d.i32()
	return s
}

func (d *decoder) rasterizerState() state.RasterizerState {
	var s state.RasterizerState
	s.CullMode = state.CullMode(d.u8())
	s.FillMode = state.FillMode(d.u8())
	s.DepthBias = d.f32()
	s.SlopeScaleDepthBias = d.f32()
	s.ScissorTestEnable = d.bool()
	s.MultiSampleAntiAlias = d.bool()
	return s
}

func (d *decoder) samplerState() state.SamplerState {
	var s state.SamplerState
	s.AddressU = state.TextureAddressMode(d.u8())
	s.AddressV = state.TextureAddressMode(d.u8())
	s.AddressW = state.TextureAddressMode(d.u8())
	s.Filter = state.TextureFilter(d.u8())
	s.BorderColor = d.color()
	s.MaxAnisotropy = d.i32()
	s.MaxMipLevel = d.i32()
	s.MipMapLevelOfDetailBias = d.f32()
	return s
}
