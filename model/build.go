// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/fxc/effect"
	"github.com/gogpu/fxc/toolchain"
)

// CompiledShader is the toolchain output for one entry point reference.
type CompiledShader struct {
	Ref        effect.EntryRef
	Bytecode   *toolchain.Bytecode
	Reflection *toolchain.Reflection
}

type builder struct {
	info   *effect.ShaderInfo
	effect *Effect

	shaders    map[string]int
	buffers    map[string]int
	parameters map[string]int
	refs       map[effect.EntryRef]int
}

// Build assembles the effect graph. shaders must be in compile order and
// cover every entry point referenced by info.
func Build(info *effect.ShaderInfo, shaders []CompiledShader) (*Effect, error) {
	if len(info.Techniques) == 0 {
		return nil, errorf("effect", "", "no techniques")
	}
	b := &builder{
		info:       info,
		effect:     &Effect{},
		shaders:    make(map[string]int),
		buffers:    make(map[string]int),
		parameters: make(map[string]int),
		refs:       make(map[effect.EntryRef]int),
	}
	for _, cs := range shaders {
		if err := b.addShader(cs); err != nil {
			return nil, err
		}
	}
	for _, t := range info.Techniques {
		tech, err := b.technique(t)
		if err != nil {
			return nil, err
		}
		b.effect.Techniques = append(b.effect.Techniques, tech)
	}
	return b.effect, nil
}

func (b *builder) addShader(cs CompiledShader) error {
	if cs.Bytecode == nil || cs.Reflection == nil {
		return errorf("shader", cs.Ref.String(), "missing bytecode or reflection")
	}
	name := cs.Ref.String()
	sh := Shader{Stage: StagePixel, Bytecode: cs.Bytecode.Code}
	if cs.Bytecode.Stage == toolchain.StageVertex {
		sh.Stage = StageVertex
	}

	for _, cb := range cs.Reflection.ConstantBuffers {
		idx, err := b.addBuffer(cb)
		if err != nil {
			return err
		}
		ref, ok := narrow[uint8](idx)
		if !ok {
			return errorf("constant buffer", cb.Name, "index %d exceeds 255", idx)
		}
		sh.ConstantBuffers = append(sh.ConstantBuffers, ref)
	}
	if len(sh.ConstantBuffers) > math.MaxUint8 {
		return errorf("shader", name, "%d constant buffer references exceed 255", len(sh.ConstantBuffers))
	}

	textures := make(map[string]int, len(cs.Reflection.Textures))
	for _, tex := range cs.Reflection.Textures {
		idx, err := b.addParameter(NewTexture(tex.Name, tex.Dim))
		if err != nil {
			return err
		}
		textures[tex.Name] = idx
	}
	for unit, s := range cs.Reflection.Samplers {
		smp, err := b.sampler(cs.Reflection, textures, unit, s)
		if err != nil {
			return err
		}
		sh.Samplers = append(sh.Samplers, smp)
	}
	if len(sh.Samplers) > math.MaxUint8 {
		return errorf("shader", name, "%d samplers exceed 255", len(sh.Samplers))
	}

	if sh.Stage == StageVertex {
		for _, a := range cs.Reflection.Attributes {
			attr, err := attribute(a)
			if err != nil {
				return err
			}
			sh.Attributes = append(sh.Attributes, attr)
		}
		if len(sh.Attributes) > math.MaxUint8 {
			return errorf("shader", name, "%d attributes exceed 255", len(sh.Attributes))
		}
	}

	key := string([]byte{byte(sh.Stage)}) + string(sh.Bytecode)
	idx, ok := b.shaders[key]
	if !ok {
		idx = len(b.effect.Shaders)
		b.shaders[key] = idx
		b.effect.Shaders = append(b.effect.Shaders, sh)
	}
	b.refs[cs.Ref] = idx
	return nil
}

func (b *builder) sampler(r *toolchain.Reflection, textures map[string]int, unit int, s toolchain.Sampler) (Sampler, error) {
	smp := Sampler{Name: s.Name}
	texture := s.Texture
	if decl, ok := b.info.Sampler(s.Name); ok {
		smp.State = decl.State
		if decl.Texture != "" {
			texture = decl.Texture
		}
	}
	if texture == "" {
		return Sampler{}, errorf("sampler", s.Name, "not bound to a texture")
	}
	param, ok := textures[texture]
	if !ok {
		return Sampler{}, errorf("sampler", s.Name, "texture %q is not used by the shader", texture)
	}
	texUnit := 0
	for i, t := range r.Textures {
		if t.Name == texture {
			texUnit = i
			break
		}
	}

	var okUnit, okTex, okParam bool
	smp.SamplerUnit, okUnit = narrow[uint8](unit)
	smp.TextureUnit, okTex = narrow[uint8](texUnit)
	smp.Parameter, okParam = narrow[uint8](param)
	if !okUnit || !okTex {
		return Sampler{}, errorf("sampler", s.Name, "unit exceeds 255")
	}
	if !okParam {
		return Sampler{}, errorf("parameter", texture, "index %d exceeds 255", param)
	}
	smp.Type = samplerType(b.effect.Parameters[param].Type)
	return smp, nil
}

func attribute(a toolchain.Attribute) (Attribute, error) {
	usage, index, ok := UsageFromName(a.Name)
	if !ok {
		usage, index = UsageTextureCoordinate, a.Location
	}
	attr := Attribute{Name: a.Name, Usage: usage}
	var fits bool
	if attr.Index, fits = narrow[uint8](index); !fits {
		return Attribute{}, errorf("attribute", a.Name, "usage index %d exceeds 255", index)
	}
	if attr.Location, fits = narrow[int16](a.Location); !fits {
		return Attribute{}, errorf("attribute", a.Name, "location %d out of range", a.Location)
	}
	return attr, nil
}

// addParameter returns the global index of p, adding it when its name is
// new. Reusing a name with a different shape is an error.
func (b *builder) addParameter(p Parameter) (int, error) {
	if idx, ok := b.parameters[p.Name]; ok {
		if !sameShape(&b.effect.Parameters[idx], &p) {
			return 0, errorf("parameter", p.Name, "declared with conflicting types")
		}
		return idx, nil
	}
	idx := len(b.effect.Parameters)
	if idx > math.MaxUint8 {
		return 0, errorf("parameter", p.Name, "index %d exceeds 255", idx)
	}
	b.parameters[p.Name] = idx
	b.effect.Parameters = append(b.effect.Parameters, p)
	return idx, nil
}

func (b *builder) addBuffer(cb toolchain.ConstantBuffer) (int, error) {
	size, ok := narrow[uint16](cb.Size)
	if !ok {
		return 0, errorf("constant buffer", cb.Name, "size %d exceeds 65535", cb.Size)
	}
	buf := ConstantBuffer{Name: cb.Name, Size: size}
	for _, u := range cb.Uniforms {
		p, err := NewUniform(u)
		if err != nil {
			return 0, errorf("parameter", u.Name, "%v", err)
		}
		idx, err := b.addParameter(p)
		if err != nil {
			return 0, err
		}
		off, ok := narrow[uint16](u.Offset)
		if !ok {
			return 0, errorf("constant buffer", cb.Name, "offset %d of %q exceeds 65535", u.Offset, u.Name)
		}
		buf.Parameters = append(buf.Parameters, uint8(idx))
		buf.Offsets = append(buf.Offsets, off)
	}

	key := bufferKey(&buf)
	if idx, ok := b.buffers[key]; ok {
		return idx, nil
	}
	idx := len(b.effect.ConstantBuffers)
	b.buffers[key] = idx
	b.effect.ConstantBuffers = append(b.effect.ConstantBuffers, buf)
	return idx, nil
}

func bufferKey(cb *ConstantBuffer) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%q/%d", cb.Name, cb.Size)
	for i := range cb.Parameters {
		fmt.Fprintf(&sb, "/%d@%d", cb.Parameters[i], cb.Offsets[i])
	}
	return sb.String()
}

func (b *builder) technique(t effect.Technique) (Technique, error) {
	tech := Technique{Name: t.Name}
	for _, p := range t.Passes {
		pass := Pass{
			Name:         p.Name,
			VertexShader: NoShader,
			PixelShader:  NoShader,
			Blend:        p.Blend,
			DepthStencil: p.DepthStencil,
			Rasterizer:   p.Rasterizer,
		}
		for _, slot := range []struct {
			ref *effect.EntryRef
			dst *int32
		}{{p.VertexShader, &pass.VertexShader}, {p.PixelShader, &pass.PixelShader}} {
			if slot.ref == nil {
				continue
			}
			idx, ok := b.refs[*slot.ref]
			if !ok {
				return Technique{}, errorf("pass", t.Name+"/"+p.Name, "shader %s was not compiled", slot.ref)
			}
			*slot.dst = int32(idx)
		}
		tech.Passes = append(tech.Passes, pass)
	}
	return tech, nil
}
