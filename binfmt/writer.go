// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package binfmt

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/gogpu/fxc/model"
	"github.com/gogpu/fxc/state"
)

// EncodeOptions configures Encode.
type EncodeOptions struct {
	// Target is recorded in the header.
	Target Target
}

// Encode serializes e.
//
// Encode returns an error when a count or length does not fit its field.
// It panics when e refers to a missing shader, constant buffer or
// parameter, or when a parameter value does not match its shape.
func Encode(e *model.Effect, opts EncodeOptions) ([]byte, error) {
	enc := encoder{params: len(e.Parameters)}
	enc.effect(e, opts.Target)
	if enc.err != nil {
		return nil, enc.err
	}
	return enc.buf, nil
}

// Writer writes effects to an io.Writer.
type Writer struct {
	w    io.Writer
	opts EncodeOptions
}

// NewWriter returns a Writer that records target in every header.
func NewWriter(w io.Writer, target Target) *Writer {
	return &Writer{w: w, opts: EncodeOptions{Target: target}}
}

// WriteEffect encodes e and writes it in a single call.
func (w *Writer) WriteEffect(e *model.Effect) error {
	b, err := Encode(e, w.opts)
	if err != nil {
		return err
	}
	_, err = w.w.Write(b)
	return err
}

type encoder struct {
	buf    []byte
	err    error
	params int // number of top-level parameters
}

func (e *encoder) fail(format string, args ...any) {
	if e.err == nil {
		e.err = fmt.Errorf("encode effect: "+format, args...)
	}
}

func (e *encoder) u8(v uint8) { e.buf = append(e.buf, v) }

func (e *encoder) bool(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

func (e *encoder) u16(v uint16) { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }
func (e *encoder) i16(v int16)  { e.u16(uint16(v)) }
func (e *encoder) i32(v int32)  { e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v)) }
func (e *encoder) f32(v float32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v))
}

func (e *encoder) varint(v int32) { e.buf = AppendVarint(e.buf, v) }

// count writes n as a varint.
func (e *encoder) count(what string, n int) {
	if n > math.MaxInt32 {
		e.fail("too many %s (%d)", what, n)
		return
	}
	e.varint(int32(n))
}

// count8 writes n as a byte.
func (e *encoder) count8(what string, n int) {
	if n > math.MaxUint8 {
		e.fail("too many %s (%d, limit 255)", what, n)
		return
	}
	e.u8(uint8(n))
}

func (e *encoder) string(s string) {
	e.count("string bytes", len(s))
	e.buf = append(e.buf, s...)
}

func (e *encoder) effect(fx *model.Effect, target Target) {
	e.buf = append(e.buf, Magic...)
	e.u16(Version)
	e.u8(uint8(target))

	e.count("constant buffers", len(fx.ConstantBuffers))
	for i := range fx.ConstantBuffers {
		e.constantBuffer(&fx.ConstantBuffers[i])
	}

	e.count("shaders", len(fx.Shaders))
	for i := range fx.Shaders {
		e.shader(&fx.Shaders[i], len(fx.ConstantBuffers))
	}

	e.count("parameters", len(fx.Parameters))
	for i := range fx.Parameters {
		e.parameter(&fx.Parameters[i])
	}

	if len(fx.Techniques) > math.MaxInt32 {
		e.fail("too many techniques (%d)", len(fx.Techniques))
		return
	}
	e.i32(int32(len(fx.Techniques)))
	for i := range fx.Techniques {
		e.technique(&fx.Techniques[i], len(fx.Shaders))
	}
}

func (e *encoder) constantBuffer(cb *model.ConstantBuffer) {
	if len(cb.Parameters) != len(cb.Offsets) {
		panic(fmt.Sprintf("binfmt: constant buffer %q has %d parameters and %d offsets",
			cb.Name, len(cb.Parameters), len(cb.Offsets)))
	}
	e.string(cb.Name)
	e.u16(cb.Size)
	e.count("constant buffer parameters", len(cb.Parameters))
	for i, p := range cb.Parameters {
		e.paramIndex(p)
		e.u8(p)
		e.u16(cb.Offsets[i])
	}
}

func (e *encoder) paramIndex(p uint8) {
	if int(p) >= e.params {
		panic(fmt.Sprintf("binfmt: parameter index %d out of range [0,%d)", p, e.params))
	}
}

func (e *encoder) shader(s *model.Shader, buffers int) {
	e.u8(uint8(s.Stage))
	e.count("bytecode bytes", len(s.Bytecode))
	e.buf = append(e.buf, s.Bytecode...)

	e.count8("samplers", len(s.Samplers))
	for i := range s.Samplers {
		sm := &s.Samplers[i]
		e.u8(uint8(sm.Type))
		e.u8(sm.TextureUnit)
		e.u8(sm.SamplerUnit)
		e.bool(sm.State != nil)
		if sm.State != nil {
			e.samplerState(sm.State)
		}
		e.string(sm.Name)
		e.paramIndex(sm.Parameter)
		e.u8(sm.Parameter)
	}

	e.count8("constant buffer references", len(s.ConstantBuffers))
	for _, cb := range s.ConstantBuffers {
		if int(cb) >= buffers {
			panic(fmt.Sprintf("binfmt: constant buffer index %d out of range [0,%d)", cb, buffers))
		}
		e.u8(cb)
	}

	e.count8("attributes", len(s.Attributes))
	for _, a := range s.Attributes {
		e.string(a.Name)
		e.u8(uint8(a.Usage))
		e.u8(a.Index)
		e.i16(a.Location)
	}
}

func (e *encoder) parameter(p *model.Parameter) {
	e.u8(uint8(p.Class))
	e.u8(uint8(p.Type))
	e.string(p.Name)
	e.string(p.Semantic)
	e.varint(0) // annotations
	e.u8(p.Rows)
	e.u8(p.Columns)

	switch v := p.Value.(type) {
	case model.Leaf:
		e.varint(0)
		e.varint(0)
		if !p.Type.HasData() {
			if len(v.Data) != 0 {
				panic(fmt.Sprintf("binfmt: parameter %q of type %d carries data", p.Name, p.Type))
			}
			return
		}
		if want := 4 * int(p.Rows) * int(p.Columns); len(v.Data) != want {
			panic(fmt.Sprintf("binfmt: parameter %q has %d data bytes, want %d", p.Name, len(v.Data), want))
		}
		e.buf = append(e.buf, v.Data...)
	case model.Array:
		if len(v.Elements) == 0 {
			panic(fmt.Sprintf("binfmt: array parameter %q has no elements", p.Name))
		}
		e.count("array elements", len(v.Elements))
		e.varint(0)
		for i := range v.Elements {
			e.parameter(&v.Elements[i])
		}
	case model.Struct:
		if len(v.Members) == 0 {
			panic(fmt.Sprintf("binfmt: struct parameter %q has no members", p.Name))
		}
		e.varint(0)
		e.count("struct members", len(v.Members))
		for i := range v.Members {
			e.parameter(&v.Members[i])
		}
	default:
		panic(fmt.Sprintf("binfmt: parameter %q has no value", p.Name))
	}
}

func (e *encoder) technique(t *model.Technique, shaders int) {
	e.string(t.Name)
	e.varint(0) // annotations
	if len(t.Passes) > math.MaxInt32 {
		e.fail("too many passes in %q", t.Name)
		return
	}
	e.i32(int32(len(t.Passes)))
	for i := range t.Passes {
		p := &t.Passes[i]
		e.string(p.Name)
		e.varint(0) // annotations
		e.shaderIndex(p.VertexShader, shaders)
		e.shaderIndex(p.PixelShader, shaders)

		e.bool(p.Blend != nil)
		if p.Blend != nil {
			e.blendState(p.Blend)
		}
		e.bool(p.DepthStencil != nil)
		if p.DepthStencil != nil {
			e.depthStencilState(p.DepthStencil)
		}
		e.bool(p.Rasterizer != nil)
		if p.Rasterizer != nil {
			e.rasterizerState(p.Rasterizer)
		}
	}
}

func (e *encoder) shaderIndex(i int32, shaders int) {
	if i != model.NoShader && (i < 0 || int(i) >= shaders) {
		panic(fmt.Sprintf("binfmt: shader index %d out of range [0,%d)", i, shaders))
	}
	e.i32(i)
}

func (e *encoder) color(c state.Color) {
	e.buf = append(e.buf, c.R, c.G, c.B, c.A)
}

func (e *encoder) blendState(s *state.BlendState) {
	e.u8(uint8(s.ColorSourceBlend))
	e.u8(uint8(s.ColorDestinationBlend))
	e.u8(uint8(s.ColorBlendFunction))
	e.u8(uint8(s.AlphaSourceBlend))
	e.u8(uint8(s.AlphaDestinationBlend))
	e.u8(uint8(s.AlphaBlendFunction))
	for _, c := range s.ColorWriteChannels {
		e.u8(uint8(c))
	}
	e.color(s.BlendFactor)
	e.i32(s.MultiSampleMask)
}

func (e *encoder) depthStencilState(s *state.DepthStencilState) {
	e.bool(s.DepthBufferEnable)
	e.bool(s.DepthBufferWriteEnable)
	e.u8(uint8(s.DepthBufferFunction))
	e.bool(s.StencilEnable)
	e.u8(uint8(s.StencilFunction))
	e.u8(uint8(s.StencilPass))
	e.u8(uint8(s.StencilFail))
	e.u8(uint8(s.StencilDepthBufferFail))
	e.bool(s.TwoSidedStencilMode)
	e.u8(uint8(s.CounterClockwiseStencilFunction))
	e.u8(uint8(s.CounterClockwiseStencilPass))
	e.u8(uint8(s.CounterClockwiseStencilFail))
	e.u8(uint8(s.CounterClockwiseStencilDepthBufferFail))
	e.i32(s.ReferenceStencil)
	e.i32(s.StencilMask)
	e.i32(s.StencilWriteMask)
}

func (e *encoder) rasterizerState(s *state.RasterizerState) {
	e.u8(uint8(s.CullMode))
	e.u8(uint8(s.FillMode))
	e.f32(s.DepthBias)
	e.f32(s.SlopeScaleDepthBias)
	e.bool(s.ScissorTestEnable)
	e.bool(s.MultiSampleAntiAlias)
}

func (e *encoder) samplerState(s *state.SamplerState) {
	e.u8(uint8(s.AddressU))
	e.u8(uint8(s.AddressV))
	e.u8(uint8(s.AddressW))
	e.u8(uint8(s.Filter))
	e.color(s.BorderColor)
	e.i32(s.MaxAnisotropy)
	e.i32(s.MaxMipLevel)
	e.f32(s.MipMapLevelOfDetailBias)
}
