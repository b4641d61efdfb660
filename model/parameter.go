// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package model

import (
	"fmt"

	"github.com/gogpu/fxc/toolchain"
)

// Parameter is a node of the parameter tree.
type Parameter struct {
	Class    ParameterClass
	Type     ParameterType
	Name     string
	Semantic string
	Rows     uint8
	Columns  uint8

	// Value is a Leaf, an Array or a Struct.
	Value Value
}

// Value is the payload of a parameter: exactly one of Leaf, Array or
// Struct.
type Value interface {
	isValue()
}

// Leaf is a parameter without children. Data holds 4*Rows*Columns bytes of
// default value for Bool, Int32 and Single parameters and is nil otherwise.
type Leaf struct {
	Data []byte
}

// Array is an array parameter. Elements share the parameter's shape.
type Array struct {
	Elements []Parameter
}

// Struct is a struct parameter.
type Struct struct {
	Members []Parameter
}

func (Leaf) isValue()   {}
func (Array) isValue()  {}
func (Struct) isValue() {}

// Children returns the elements or members of p.
func (p *Parameter) Children() []Parameter {
	switch v := p.Value.(type) {
	case Array:
		return v.Elements
	case Struct:
		return v.Members
	}
	return nil
}

// Walk visits params and their descendants in pre-order: every parameter is
// followed by its elements or members before its next sibling.
func Walk(params []Parameter, fn func(p *Parameter, depth int)) {
	var walk func(ps []Parameter, depth int)
	walk = func(ps []Parameter, depth int) {
		for i := range ps {
			fn(&ps[i], depth)
			walk(ps[i].Children(), depth+1)
		}
	}
	walk(params, 0)
}

// NewTexture returns the parameter for a texture binding.
func NewTexture(name string, dim toolchain.TextureDim) Parameter {
	t := TypeTexture2D
	switch dim {
	case toolchain.Texture1D:
		t = TypeTexture1D
	case toolchain.Texture3D:
		t = TypeTexture3D
	case toolchain.TextureCube:
		t = TypeTextureCube
	}
	return Parameter{Class: ClassObject, Type: t, Name: name, Value: Leaf{}}
}

// samplerType maps a texture parameter type to the sampler type reading it.
func samplerType(t ParameterType) SamplerType {
	switch t {
	case TypeTexture1D:
		return Sampler1D
	case TypeTexture3D:
		return SamplerVolume
	case TypeTextureCube:
		return SamplerCube
	}
	return Sampler2D
}

// NewUniform returns the parameter tree for a reflected uniform.
func NewUniform(u toolchain.UniformInfo) (Parameter, error) {
	return fromType(u.Name, u.Type)
}

func fromType(name string, t toolchain.TypeDesc) (Parameter, error) {
	elem, err := elementOf(name, t)
	if err != nil {
		return Parameter{}, err
	}
	if t.Elements == 0 {
		return elem, nil
	}
	elems := make([]Parameter, t.Elements)
	for i := range elems {
		e := elem
		e.Name = ""
		if leaf, ok := elem.Value.(Leaf); ok && leaf.Data != nil {
			e.Value = Leaf{Data: make([]byte, len(leaf.Data))}
		}
		elems[i] = e
	}
	arr := elem
	arr.Value = Array{Elements: elems}
	return arr, nil
}

func elementOf(name string, t toolchain.TypeDesc) (Parameter, error) {
	if t.Kind == toolchain.KindStruct {
		members := make([]Parameter, 0, len(t.Members))
		for _, m := range t.Members {
			mp, err := fromType(m.Name, m.Type)
			if err != nil {
				return Parameter{}, err
			}
			members = append(members, mp)
		}
		return Parameter{Class: ClassStruct, Type: TypeVoid, Name: name, Value: Struct{Members: members}}, nil
	}

	p := Parameter{Name: name}
	switch t.Kind {
	case toolchain.KindBool:
		p.Type = TypeBool
	case toolchain.KindInt, toolchain.KindUint:
		p.Type = TypeInt32
	case toolchain.KindFloat:
		p.Type = TypeSingle
	default:
		return Parameter{}, fmt.Errorf("unsupported type kind %d", t.Kind)
	}
	rows, ok := narrow[uint8](t.Rows)
	if !ok || rows == 0 {
		return Parameter{}, fmt.Errorf("invalid row count %d", t.Rows)
	}
	cols, ok := narrow[uint8](t.Columns)
	if !ok || cols == 0 {
		return Parameter{}, fmt.Errorf("invalid column count %d", t.Columns)
	}
	p.Rows, p.Columns = rows, cols
	switch {
	case rows == 1 && cols == 1:
		p.Class = ClassScalar
	case rows == 1:
		p.Class = ClassVector
	default:
		p.Class = ClassMatrixColumns
	}
	p.Value = Leaf{Data: make([]byte, 4*int(rows)*int(cols))}
	return p, nil
}

// sameShape reports whether a and b describe the same parameter, ignoring
// default data.
func sameShape(a, b *Parameter) bool {
	if a.Class != b.Class || a.Type != b.Type || a.Name != b.Name ||
		a.Semantic != b.Semantic || a.Rows != b.Rows || a.Columns != b.Columns {
		return false
	}
	switch av := a.Value.(type) {
	case Leaf:
		_, ok := b.Value.(Leaf)
		return ok
	case Array:
		bv, ok := b.Value.(Array)
		return ok && sameShapes(av.Elements, bv.Elements)
	case Struct:
		bv, ok := b.Value.(Struct)
		return ok && sameShapes(av.Members, bv.Members)
	}
	return false
}

func sameShapes(a, b []Parameter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameShape(&a[i], &b[i]) {
			return false
		}
	}
	return true
}
