// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/fxc/state"
	"github.com/gogpu/fxc/toolchain"
)

type evaluator struct {
	file    string
	source  string
	info    *ShaderInfo
	entries map[EntryRef]bool
	errors  SourceErrors
}

// Evaluate walks the parse tree once and builds the ShaderInfo. name and
// text must be those given to Parse. All semantic errors are collected and
// returned as SourceErrors.
func Evaluate(name string, root *Node, text string) (*ShaderInfo, error) {
	ev := &evaluator{
		file:    name,
		source:  text,
		info:    &ShaderInfo{},
		entries: make(map[EntryRef]bool),
	}
	techniques := make(map[string]bool)
	samplers := make(map[string]bool)
	for _, n := range root.Children {
		switch n.Kind {
		case NodeTechnique:
			if n.Name != "" {
				if techniques[n.Name] {
					ev.errorf(n.Line, n.Column, n.Span.Start, "duplicate technique %q", n.Name)
					continue
				}
				techniques[n.Name] = true
			}
			ev.technique(n)
		case NodeSamplerState:
			if samplers[n.Name] {
				ev.errorf(n.Line, n.Column, n.Span.Start, "duplicate sampler_state for %q", n.Name)
				continue
			}
			samplers[n.Name] = true
			ev.sampler(n)
		}
	}
	if len(ev.errors) > 0 {
		return nil, ev.errors
	}
	return ev.info, nil
}

func (ev *evaluator) technique(n *Node) {
	t := Technique{Name: n.Name, Span: n.Span}
	for _, c := range n.Children {
		if c.Kind == NodePass {
			t.Passes = append(t.Passes, ev.pass(c))
		}
	}
	ev.info.Techniques = append(ev.info.Techniques, t)
}

func (ev *evaluator) pass(n *Node) Pass {
	p := Pass{Name: n.Name, Span: n.Span}
	var (
		blend   state.BlendAssigner
		depth   state.DepthStencilAssigner
		raster  state.RasterizerAssigner
		targets = []state.Assigner{&blend, &depth, &raster}
		shaders = make(map[string]bool, 2)
	)
	for _, a := range n.Assignments {
		key := a.Key
		if a.Index > 0 {
			key += strconv.Itoa(a.Index)
		}
		switch lower := strings.ToLower(a.Key); lower {
		case "vertexshader", "pixelshader":
			if shaders[lower] {
				ev.errorf(a.Line, a.Column, a.Span.Start, "duplicate %s assignment in pass %q", a.Key, n.Name)
				continue
			}
			shaders[lower] = true
			if lower == "vertexshader" {
				p.VertexShader = ev.entry(a, toolchain.StageVertex)
			} else {
				p.PixelShader = ev.entry(a, toolchain.StagePixel)
			}
			continue
		}
		if a.Compile != nil {
			ev.errorf(a.Line, a.Column, a.Span.Start, "%s cannot be assigned a compile expression", a.Key)
			continue
		}
		handled := false
		for _, target := range targets {
			ok, err := target.Assign(key, a.Value)
			if !ok {
				continue
			}
			handled = true
			if err != nil {
				ev.errorf(a.Line, a.Column, a.Span.Start, "%s: %v", a.Key, err)
			}
			break
		}
		if !handled {
			ev.errorf(a.Line, a.Column, a.Span.Start, "unknown render state %q", a.Key)
		}
	}
	p.Blend = blend.State()
	p.DepthStencil = depth.State()
	p.Rasterizer = raster.State()
	return p
}

func (ev *evaluator) entry(a Assignment, stage toolchain.Stage) *EntryRef {
	if a.Compile == nil {
		if strings.EqualFold(a.Value, "null") {
			return nil
		}
		ev.errorf(a.Line, a.Column, a.Span.Start, "%s must be 'compile <profile> <entry>()' or NULL", a.Key)
		return nil
	}
	profile, err := toolchain.ParseProfile(a.Compile.Profile)
	if err != nil {
		ev.errorf(a.Line, a.Column, a.Span.Start, "%v", err)
		return nil
	}
	if profile.Stage != stage {
		ev.errorf(a.Line, a.Column, a.Span.Start, "%s requires a %s profile, got %s", a.Key, stage, profile)
		return nil
	}
	ref := EntryRef{Entry: a.Compile.Entry, Profile: profile}
	if !ev.entries[ref] {
		ev.entries[ref] = true
		ev.info.Entries = append(ev.info.Entries, ref)
	}
	return &ref
}

func (ev *evaluator) sampler(n *Node) {
	var sa state.SamplerAssigner
	for _, a := range n.Assignments {
		if a.Compile != nil {
			ev.errorf(a.Line, a.Column, a.Span.Start, "%s cannot be assigned a compile expression", a.Key)
			continue
		}
		ok, err := sa.Assign(a.Key, a.Value)
		switch {
		case !ok:
			ev.errorf(a.Line, a.Column, a.Span.Start, "unknown sampler state %q", a.Key)
		case err != nil:
			ev.errorf(a.Line, a.Column, a.Span.Start, "%s: %v", a.Key, err)
		}
	}
	st := sa.State()
	if st == nil {
		def := state.DefaultSampler()
		st = &def
	}
	ev.info.Samplers = append(ev.info.Samplers, SamplerInfo{
		Name:    n.Name,
		Texture: sa.Texture,
		State:   st,
		Span:    n.Span,
	})
}

func (ev *evaluator) errorf(line, col, offset int, format string, args ...any) {
	ev.errors.Add(&SourceError{
		File:    ev.file,
		Line:    line,
		Column:  col,
		Offset:  offset,
		Message: fmt.Sprintf(format, args...),
		Source:  ev.source,
	})
}
