// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nagatc

import (
	"fmt"
	"slices"

	"github.com/gogpu/naga/ir"

	"github.com/gogpu/fxc/toolchain"
)

// reflectEntry reports the bindings entry uses, in declaration order.
func reflectEntry(m *ir.Module, entry ir.EntryPoint) (*toolchain.Reflection, error) {
	if int(entry.Function) >= len(m.Functions) {
		return nil, fmt.Errorf("nagatc: entry point %s refers to missing function %d", entry.Name, entry.Function)
	}
	fns := reachable(m, entry.Function)

	used := make(map[ir.GlobalVariableHandle]bool)
	pairs := make(map[ir.GlobalVariableHandle]ir.GlobalVariableHandle) // sampler -> texture
	for _, fh := range fns {
		fn := &m.Functions[fh]
		for _, e := range fn.Expressions {
			switch k := e.Kind.(type) {
			case ir.ExprGlobalVariable:
				used[k.Variable] = true
			case ir.ExprImageSample:
				img, ok1 := globalOf(fn, k.Image)
				smp, ok2 := globalOf(fn, k.Sampler)
				if ok1 && ok2 {
					if _, seen := pairs[smp]; !seen {
						pairs[smp] = img
					}
				}
			}
		}
	}

	handles := make([]ir.GlobalVariableHandle, 0, len(used))
	for h := range used {
		if int(h) < len(m.GlobalVariables) {
			handles = append(handles, h)
		}
	}
	slices.Sort(handles)

	r := &toolchain.Reflection{}
	for _, h := range handles {
		gv := &m.GlobalVariables[h]
		var group, binding uint32
		if gv.Binding != nil {
			group, binding = gv.Binding.Group, gv.Binding.Binding
		}
		switch gv.Space {
		case ir.SpaceUniform:
			cb, err := constantBuffer(m, gv)
			if err != nil {
				return nil, err
			}
			cb.Group, cb.Binding = group, binding
			r.ConstantBuffers = append(r.ConstantBuffers, cb)
		case ir.SpaceHandle:
			switch t := m.Types[gv.Type].Inner.(type) {
			case ir.ImageType:
				r.Textures = append(r.Textures, toolchain.Texture{
					Name:    gv.Name,
					Dim:     textureDim(t.Dim),
					Group:   group,
					Binding: binding,
				})
			case ir.SamplerType:
				s := toolchain.Sampler{Name: gv.Name, Comparison: t.Comparison, Group: group, Binding: binding}
				if img, ok := pairs[h]; ok {
					s.Texture = m.GlobalVariables[img].Name
				}
				r.Samplers = append(r.Samplers, s)
			}
		}
	}

	if entry.Stage == ir.StageVertex {
		r.Attributes = vertexInputs(m, &m.Functions[entry.Function])
	}
	return r, nil
}

// reachable returns root and every function it calls, transitively.
func reachable(m *ir.Module, root ir.FunctionHandle) []ir.FunctionHandle {
	seen := map[ir.FunctionHandle]bool{root: true}
	order := []ir.FunctionHandle{root}
	add := func(h ir.FunctionHandle) {
		if !seen[h] && int(h) < len(m.Functions) {
			seen[h] = true
			order = append(order, h)
		}
	}
	for i := 0; i < len(order); i++ {
		fn := &m.Functions[order[i]]
		for _, e := range fn.Expressions {
			if c, ok := e.Kind.(ir.ExprCallResult); ok {
				add(c.Function)
			}
		}
		walkCalls(fn.Body, add)
	}
	return order
}

func walkCalls(block []ir.Statement, fn func(ir.FunctionHandle)) {
	for _, s := range block {
		switch k := s.Kind.(type) {
		case ir.StmtCall:
			fn(k.Function)
		case ir.StmtBlock:
			walkCalls(k.Block, fn)
		case ir.StmtIf:
			walkCalls(k.Accept, fn)
			walkCalls(k.Reject, fn)
		case ir.StmtSwitch:
			for _, c := range k.Cases {
				walkCalls(c.Body, fn)
			}
		case ir.StmtLoop:
			walkCalls(k.Body, fn)
			walkCalls(k.Continuing, fn)
		}
	}
}

func globalOf(fn *ir.Function, h ir.ExpressionHandle) (ir.GlobalVariableHandle, bool) {
	if int(h) >= len(fn.Expressions) {
		return 0, false
	}
	g, ok := fn.Expressions[h].Kind.(ir.ExprGlobalVariable)
	return g.Variable, ok
}

func textureDim(d ir.ImageDimension) toolchain.TextureDim {
	switch d {
	case ir.Dim1D:
		return toolchain.Texture1D
	case ir.Dim3D:
		return toolchain.Texture3D
	case ir.DimCube:
		return toolchain.TextureCube
	}
	return toolchain.Texture2D
}

// constantBuffer describes a uniform-space global. A struct contributes its
// members; any other type becomes a single uniform named after the global.
func constantBuffer(m *ir.Module, gv *ir.GlobalVariable) (toolchain.ConstantBuffer, error) {
	cb := toolchain.ConstantBuffer{Name: gv.Name}
	if st, ok := m.Types[gv.Type].Inner.(ir.StructType); ok {
		for _, mem := range st.Members {
			td, err := typeDesc(m, mem.Type)
			if err != nil {
				return cb, fmt.Errorf("uniform %s.%s: %w", gv.Name, mem.Name, err)
			}
			cb.Uniforms = append(cb.Uniforms, toolchain.UniformInfo{Name: mem.Name, Offset: int(mem.Offset), Type: td})
		}
		cb.Size = int(st.Span)
		return cb, nil
	}
	td, err := typeDesc(m, gv.Type)
	if err != nil {
		return cb, fmt.Errorf("uniform %s: %w", gv.Name, err)
	}
	cb.Uniforms = []toolchain.UniformInfo{{Name: gv.Name, Type: td}}
	cb.Size = td.Size
	return cb, nil
}

func scalarKind(s ir.ScalarType) (toolchain.TypeKind, error) {
	switch s.Kind {
	case ir.ScalarBool:
		return toolchain.KindBool, nil
	case ir.ScalarSint:
		return toolchain.KindInt, nil
	case ir.ScalarUint:
		return toolchain.KindUint, nil
	case ir.ScalarFloat:
		if s.Width != 4 {
			return 0, fmt.Errorf("%d-byte floats are not supported", s.Width)
		}
		return toolchain.KindFloat, nil
	}
	return 0, fmt.Errorf("unknown scalar kind %d", s.Kind)
}

// typeDesc converts a uniform type using std140-style sizes: vectors are
// tightly packed, matrix columns and array elements follow naga's layout.
func typeDesc(m *ir.Module, h ir.TypeHandle) (toolchain.TypeDesc, error) {
	if int(h) >= len(m.Types) {
		return toolchain.TypeDesc{}, fmt.Errorf("type %d out of range", h)
	}
	switch t := m.Types[h].Inner.(type) {
	case ir.ScalarType:
		k, err := scalarKind(t)
		return toolchain.TypeDesc{Kind: k, Rows: 1, Columns: 1, Size: 4}, err
	case ir.VectorType:
		k, err := scalarKind(t.Scalar)
		n := int(t.Size)
		return toolchain.TypeDesc{Kind: k, Rows: 1, Columns: n, Size: 4 * n}, err
	case ir.MatrixType:
		k, err := scalarKind(t.Scalar)
		rows, cols := int(t.Rows), int(t.Columns)
		stride := 16
		if rows == 2 {
			stride = 8
		}
		return toolchain.TypeDesc{Kind: k, Rows: rows, Columns: cols, Size: stride * cols}, err
	case ir.ArrayType:
		if t.Size.Constant == nil {
			return toolchain.TypeDesc{}, fmt.Errorf("runtime-sized arrays cannot be uniforms")
		}
		elem, err := typeDesc(m, t.Base)
		if err != nil {
			return elem, err
		}
		if elem.Elements != 0 {
			return toolchain.TypeDesc{}, fmt.Errorf("arrays of arrays are not supported")
		}
		n := int(*t.Size.Constant)
		stride := int(t.Stride)
		if stride == 0 {
			stride = elem.Size
		}
		elem.Elements = n
		elem.Size = stride * n
		return elem, nil
	case ir.StructType:
		td := toolchain.TypeDesc{Kind: toolchain.KindStruct, Size: int(t.Span)}
		for _, mem := range t.Members {
			md, err := typeDesc(m, mem.Type)
			if err != nil {
				return td, fmt.Errorf("member %s: %w", mem.Name, err)
			}
			td.Members = append(td.Members, toolchain.UniformInfo{Name: mem.Name, Offset: int(mem.Offset), Type: md})
		}
		return td, nil
	}
	return toolchain.TypeDesc{}, fmt.Errorf("type %T cannot be a uniform", m.Types[h].Inner)
}

// vertexInputs lists location-bound arguments of fn, looking through struct
// arguments whose members carry the bindings.
func vertexInputs(m *ir.Module, fn *ir.Function) []toolchain.Attribute {
	var attrs []toolchain.Attribute
	for _, arg := range fn.Arguments {
		if loc, ok := location(arg.Binding); ok {
			attrs = append(attrs, toolchain.Attribute{Name: arg.Name, Location: loc})
			continue
		}
		if int(arg.Type) >= len(m.Types) {
			continue
		}
		st, ok := m.Types[arg.Type].Inner.(ir.StructType)
		if !ok {
			continue
		}
		for _, mem := range st.Members {
			if loc, ok := location(mem.Binding); ok {
				attrs = append(attrs, toolchain.Attribute{Name: mem.Name, Location: loc})
			}
		}
	}
	return attrs
}

func location(b *ir.Binding) (int, bool) {
	if b == nil {
		return 0, false
	}
	lb, ok := (*b).(ir.LocationBinding)
	return int(lb.Location), ok
}
