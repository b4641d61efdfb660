// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nagatc

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/msl"
	"github.com/gogpu/naga/spirv"
	"github.com/gogpu/naga/wgsl"

	"github.com/gogpu/fxc/binfmt"
	"github.com/gogpu/fxc/toolchain"
)

// Toolchain compiles WGSL entry points with naga.
type Toolchain struct {
	// Target selects the backend. TargetUnknown is treated as SPIR-V.
	Target binfmt.Target

	// ES selects GLSL ES 3.0 instead of desktop GLSL 3.30.
	ES bool

	// SkipValidation disables IR validation before code generation.
	SkipValidation bool
}

var _ toolchain.Toolchain = Toolchain{}

// New returns a validating toolchain for target.
func New(target binfmt.Target) Toolchain {
	return Toolchain{Target: target}
}

// artifact is the Bytecode.Artifact of this toolchain.
type artifact struct {
	module *ir.Module
	entry  ir.EntryPoint
}

// Compile implements toolchain.Toolchain.
func (t Toolchain) Compile(req toolchain.Request) (*toolchain.Bytecode, toolchain.Log, error) {
	var log toolchain.Log

	tokens, err := wgsl.NewLexer(req.Source).Tokenize()
	if err != nil {
		return nil, log, compileError(req, "tokenize", err)
	}
	ast, err := wgsl.NewParser(tokens).Parse()
	if err != nil {
		return nil, log, compileError(req, "parse", err)
	}
	lowered, err := wgsl.LowerWithWarnings(ast, req.Source)
	if err != nil {
		return nil, log, compileError(req, "lower", err)
	}
	for _, w := range lowered.Warnings {
		log.Warnf("%s:%d:%d: %s", req.File, w.Span.Start.Line, w.Span.Start.Column, w.Message)
	}

	module, entry, err := selectEntry(lowered.Module, req)
	if err != nil {
		return nil, log, err
	}

	if !t.SkipValidation {
		verrs, err := ir.Validate(module)
		if err != nil {
			return nil, log, compileError(req, "validate", err)
		}
		if len(verrs) > 0 {
			return nil, log, compileError(req, "validate", verrs[0])
		}
	}

	code, err := t.emit(module, entry, req, &log)
	if err != nil {
		return nil, log, compileError(req, t.target().String(), err)
	}

	stage := toolchain.StageVertex
	if entry.Stage == ir.StageFragment {
		stage = toolchain.StagePixel
	}
	return &toolchain.Bytecode{
		Stage:    stage,
		Entry:    req.Entry,
		Profile:  req.Profile,
		Code:     code,
		Artifact: &artifact{module: module, entry: entry},
	}, log, nil
}

// Reflect implements toolchain.Toolchain.
func (t Toolchain) Reflect(code *toolchain.Bytecode) (*toolchain.Reflection, error) {
	a, ok := code.Artifact.(*artifact)
	if !ok {
		return nil, fmt.Errorf("nagatc: bytecode for %s was not produced by this toolchain", code.Entry)
	}
	return reflectEntry(a.module, a.entry)
}

func (t Toolchain) target() binfmt.Target {
	if t.Target == binfmt.TargetUnknown {
		return binfmt.TargetSPIRV
	}
	return t.Target
}

// selectEntry returns a shallow copy of m whose only entry point is the
// requested one.
func selectEntry(m *ir.Module, req toolchain.Request) (*ir.Module, ir.EntryPoint, error) {
	want := ir.StageVertex
	if req.Profile.Stage == toolchain.StagePixel {
		want = ir.StageFragment
	}
	for _, ep := range m.EntryPoints {
		if ep.Name != req.Entry {
			continue
		}
		if ep.Stage != want {
			return nil, ep, &toolchain.CompilerError{
				File:    req.File,
				Entry:   req.Entry,
				Profile: req.Profile,
				Message: fmt.Sprintf("entry point is a %s shader, profile requires %s", stageName(ep.Stage), stageName(want)),
			}
		}
		reduced := *m
		reduced.EntryPoints = []ir.EntryPoint{ep}
		return &reduced, ep, nil
	}
	return nil, ir.EntryPoint{}, &toolchain.CompilerError{
		File:    req.File,
		Entry:   req.Entry,
		Profile: req.Profile,
		Message: "entry point not found",
	}
}

func stageName(s ir.ShaderStage) string {
	switch s {
	case ir.StageVertex:
		return "vertex"
	case ir.StageFragment:
		return "fragment"
	case ir.StageCompute:
		return "compute"
	}
	return fmt.Sprintf("stage %d", s)
}

func (t Toolchain) emit(m *ir.Module, entry ir.EntryPoint, req toolchain.Request, log *toolchain.Log) ([]byte, error) {
	switch t.target() {
	case binfmt.TargetSPIRV:
		opts := spirv.DefaultOptions()
		opts.Debug = req.Flags.Debug()
		return spirv.NewBackend(opts).Compile(m)

	case binfmt.TargetGLSL:
		opts := glsl.DefaultOptions()
		if t.ES {
			opts.LangVersion = glsl.VersionES300
		}
		opts.EntryPoint = entry.Name
		if req.Flags.Debug() {
			opts.WriterFlags |= glsl.WriterFlagDebugInfo
		}
		src, info, err := glsl.Compile(m, opts)
		if err != nil {
			return nil, err
		}
		for _, ext := range info.UsedExtensions {
			log.Infof("%s: requires %s", entry.Name, ext)
		}
		return []byte(src), nil

	case binfmt.TargetHLSL:
		opts := hlsl.DefaultOptions()
		opts.EntryPoint = entry.Name
		sm, mapped := shaderModel(req.Profile.Legacy())
		if mapped {
			log.Infof("%s: profile %s compiled as shader model %s", entry.Name, req.Profile, sm.ProfileSuffix())
		}
		opts.ShaderModel = sm
		src, _, err := hlsl.Compile(m, opts)
		if err != nil {
			return nil, err
		}
		return []byte(src), nil

	case binfmt.TargetMSL:
		opts := msl.DefaultOptions()
		src, _, err := msl.Compile(m, opts)
		if err != nil {
			return nil, err
		}
		return []byte(src), nil
	}
	return nil, fmt.Errorf("unsupported target %s", t.Target)
}

// shaderModel maps a profile to the closest HLSL shader model naga emits.
// Profiles below 5_0 report mapped.
func shaderModel(p toolchain.Profile) (sm hlsl.ShaderModel, mapped bool) {
	switch {
	case p.Major < 5:
		return hlsl.ShaderModel5_0, true
	case p.Major == 5 && p.Minor == 0:
		return hlsl.ShaderModel5_0, false
	case p.Major == 5:
		return hlsl.ShaderModel5_1, false
	case p.Major == 6 && p.Minor <= 7:
		return hlsl.ShaderModel6_0 + hlsl.ShaderModel(p.Minor), false
	}
	return hlsl.ShaderModel6_7, true
}

// compileError converts a naga failure into a *toolchain.CompilerError,
// keeping the source position when naga reports one.
func compileError(req toolchain.Request, phase string, err error) error {
	ce := &toolchain.CompilerError{
		File:    req.File,
		Entry:   req.Entry,
		Profile: req.Profile,
		Message: fmt.Sprintf("%s: %v", phase, err),
		Err:     err,
	}

	var pe wgsl.ParseError
	var ses *wgsl.SourceErrors
	var se *wgsl.SourceError
	switch {
	case errors.As(err, &pe):
		ce.Line, ce.Column = pe.Token.Line, pe.Token.Column
		ce.Message = pe.Message
	case errors.As(err, &ses) && len(*ses) > 0:
		first := (*ses)[0]
		ce.Line, ce.Column = first.Span.Start.Line, first.Span.Start.Column
		ce.Message = first.Message
		if n := len(*ses); n > 1 {
			ce.Message = fmt.Sprintf("%s (and %d more errors)", first.Message, n-1)
		}
	case errors.As(err, &se):
		ce.Line, ce.Column = se.Span.Start.Line, se.Span.Start.Column
		ce.Message = se.Message
	}
	return ce
}
