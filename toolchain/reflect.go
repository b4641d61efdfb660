// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package toolchain

// TypeKind is the scalar kind of a reflected uniform.
type TypeKind uint8

const (
	KindBool TypeKind = iota
	KindInt
	KindUint
	KindFloat
	KindStruct
)

// TypeDesc describes the type of a reflected uniform.
type TypeDesc struct {
	Kind TypeKind

	// Rows and Columns are 1 for scalars, Rows is 1 for vectors.
	// Matrices have Columns column vectors of Rows components.
	Rows    int
	Columns int

	// Elements is the array length, 0 when the type is not an array.
	Elements int

	// Members lists struct fields with offsets relative to the struct.
	Members []UniformInfo

	// Size is the byte size of the whole type, arrays included.
	Size int
}

// UniformInfo is one uniform or struct member.
type UniformInfo struct {
	Name   string
	Offset int
	Type   TypeDesc
}

// ConstantBuffer is a reflected uniform block.
type ConstantBuffer struct {
	Name     string
	Size     int
	Group    uint32
	Binding  uint32
	Uniforms []UniformInfo
}

// TextureDim is the dimensionality of a texture binding.
type TextureDim uint8

const (
	Texture1D TextureDim = iota
	Texture2D
	Texture3D
	TextureCube
)

// String returns the dimension name.
func (d TextureDim) String() string {
	switch d {
	case Texture1D:
		return "1d"
	case Texture2D:
		return "2d"
	case Texture3D:
		return "3d"
	case TextureCube:
		return "cube"
	}
	return "unknown"
}

// Texture is a reflected texture binding.
type Texture struct {
	Name    string
	Dim     TextureDim
	Group   uint32
	Binding uint32
}

// Sampler is a reflected sampler binding.
type Sampler struct {
	Name string

	// Texture is the texture the sampler is used with, empty when the
	// shader never samples through it.
	Texture string

	Comparison bool
	Group      uint32
	Binding    uint32
}

// Attribute is a vertex shader input.
type Attribute struct {
	Name     string
	Location int
}

// Reflection is the binding metadata of one compiled entry point. Every
// list is in declaration order and holds only bindings the entry point uses.
type Reflection struct {
	ConstantBuffers []ConstantBuffer
	Textures        []Texture
	Samplers        []Sampler
	Attributes      []Attribute
}
