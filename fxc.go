// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package fxc compiles effect files into binary effect artifacts.
//
// An effect file is shader source (WGSL) extended with C-style preprocessor
// directives, technique/pass blocks that pick entry points and render
// states, and sampler_state blocks. Compilation runs in fixed stages:
//
//  1. Preprocess: macros, conditionals and #include
//  2. Parse: effect constructs are parsed, evaluated and pruned
//  3. Compile: effect syntax is erased and every distinct entry point is
//     compiled and reflected once
//  4. Model: the effect graph is assembled with shaders, constant buffers
//     and parameters deduplicated
//  5. Serialize: the graph is written in the binary effect format
//
// Example usage:
//
//	res, err := fxc.CompileFile("shaders/basic.fx", fxc.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("basic.fxb", res.Bytes, 0o644)
//
// Diagnostics of every stage refer to lines of the original files, not of
// the preprocessed text.
package fxc

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/gogpu/fxc/binfmt"
	"github.com/gogpu/fxc/effect"
	"github.com/gogpu/fxc/model"
	"github.com/gogpu/fxc/preprocess"
	"github.com/gogpu/fxc/toolchain"
	"github.com/gogpu/fxc/toolchain/nagatc"
)

// Options configures effect compilation.
type Options struct {
	// Toolchain compiles shader entry points. Nil selects the naga
	// toolchain for Target.
	Toolchain toolchain.Toolchain

	// Target is recorded in the artifact header and selects the default
	// toolchain backend.
	Target binfmt.Target

	// Debug compiles shaders without optimization and with debug info.
	Debug bool

	// ES selects GLSL ES 3.0 for the glsl target. It configures the
	// default toolchain only.
	ES bool

	// SkipValidation compiles without validating the shader IR. It
	// configures the default toolchain only.
	SkipValidation bool

	// Defines are predefined macros, see preprocess.Options.
	Defines map[string]string

	// IncludePaths are searched for included files.
	IncludePaths []string

	// FS holds the effect and its includes. Nil means the current
	// directory.
	FS fs.FS

	// LineMarkers writes #line markers into the text returned by
	// Preprocess. Compile never sees markers.
	LineMarkers bool

	// Logger receives progress messages. Nil discards.
	Logger *log.Logger
}

// DefaultOptions returns options for SPIR-V output.
func DefaultOptions() Options {
	return Options{
		Target: binfmt.TargetSPIRV,
	}
}

// Result is a compiled effect.
type Result struct {
	Effect *model.Effect

	// Bytes is the serialized effect.
	Bytes []byte

	// Dependencies lists the included files, sorted.
	Dependencies []string

	// Warnings holds compiler warnings in source coordinates.
	Warnings []string

	// Infos holds informational compiler output, such as GLSL extensions
	// in use or a remapped shader model.
	Infos []string
}

// CompileFile reads name from opts.FS and compiles it.
func CompileFile(name string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	text, err := fs.ReadFile(opts.FS, name)
	if err != nil {
		return nil, &Error{Stage: StagePreprocess, Err: err}
	}
	return Compile(preprocess.Source{Name: name, Text: string(text)}, opts)
}

// Preprocess runs only the preprocessing stage.
func Preprocess(src preprocess.Source, opts Options) (*preprocess.Output, error) {
	opts = opts.withDefaults()
	out, err := preprocess.Preprocess(src, opts.preprocessOptions(opts.LineMarkers))
	if err != nil {
		return nil, &Error{Stage: StagePreprocess, Err: err}
	}
	return out, nil
}

// Compile compiles src.
//
// On failure the error is an *Error whose cause is a
// *preprocess.SourceError, an effect.SourceErrors, a
// *toolchain.CompilerError, a *model.Error or an encoding error.
func Compile(src preprocess.Source, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	c := &compilation{src: src, opts: opts, log: opts.Logger}
	return c.run()
}

func (o Options) withDefaults() Options {
	if o.FS == nil {
		o.FS = os.DirFS(".")
	}
	if o.Toolchain == nil {
		tc := nagatc.New(o.Target)
		tc.ES, tc.SkipValidation = o.ES, o.SkipValidation
		o.Toolchain = tc
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
	return o
}

func (o Options) preprocessOptions(markers bool) preprocess.Options {
	return preprocess.Options{
		FS:          o.FS,
		SystemPaths: o.IncludePaths,
		Defines:     o.Defines,
		LineMarkers: markers,
		Logger:      o.Logger,
	}
}

type compilation struct {
	src      preprocess.Source
	opts     Options
	log      *log.Logger
	pp       *preprocess.Output

	// messages collects toolchain output of all entry points in source
	// coordinates.
	messages toolchain.Log
}

func (c *compilation) fail(stage Stage, err error) error {
	return &Error{Stage: stage, Warnings: c.messages.Warnings, Err: err}
}

func (c *compilation) run() (*Result, error) {
	pp, err := preprocess.Preprocess(c.src, c.opts.preprocessOptions(false))
	if err != nil {
		return nil, c.fail(StagePreprocess, err)
	}
	c.pp = pp

	root, err := effect.Parse(c.src.Name, pp.Text)
	if err != nil {
		return nil, c.fail(StageParse, c.relocateEffect(err))
	}
	info, err := effect.Evaluate(c.src.Name, root, pp.Text)
	if err != nil {
		return nil, c.fail(StageParse, c.relocateEffect(err))
	}
	if err := info.Prune(); err != nil {
		return nil, c.fail(StageParse, err)
	}
	code := effect.Erase(pp.Text, root)

	shaders, err := c.compileShaders(info, code)
	if err != nil {
		return nil, err
	}

	fx, err := model.Build(info, shaders)
	if err != nil {
		return nil, c.fail(StageModel, err)
	}
	b, err := binfmt.Encode(fx, binfmt.EncodeOptions{Target: c.opts.Target})
	if err != nil {
		return nil, c.fail(StageSerialize, err)
	}
	c.log.Printf("%s: %d techniques, %d shaders, %d parameters, %d bytes",
		c.src.Name, len(fx.Techniques), len(fx.Shaders), len(fx.Parameters), len(b))

	return &Result{
		Effect:       fx,
		Bytes:        b,
		Dependencies: pp.Dependencies,
		Warnings:     c.messages.Warnings,
		Infos:        c.messages.Infos,
	}, nil
}

// compileShaders compiles each distinct entry point once, in first-seen
// order.
func (c *compilation) compileShaders(info *effect.ShaderInfo, code string) ([]model.CompiledShader, error) {
	tc := c.opts.Toolchain
	flags := toolchain.FlagsFor(c.opts.Debug)
	shaders := make([]model.CompiledShader, 0, len(info.Entries))
	for _, ref := range info.Entries {
		bc, tlog, err := tc.Compile(toolchain.Request{
			Source:  code,
			File:    c.src.Name,
			Entry:   ref.Entry,
			Profile: ref.Profile,
			Flags:   flags,
		})
		var out toolchain.Log
		for _, w := range tlog.Warnings {
			out.Warnf("%s", c.relocateMessage(w))
		}
		for _, i := range tlog.Infos {
			out.Infof("%s: %s", ref, c.relocateMessage(i))
		}
		if !out.Empty() {
			c.log.Printf("%s: compiler output for %s:\n%s", c.src.Name, ref, strings.TrimSuffix(out.String(), "\n"))
		}
		c.messages.Merge(out)
		if err != nil {
			return nil, c.fail(StageCompile, c.relocateCompiler(err))
		}
		r, err := tc.Reflect(bc)
		if err != nil {
			return nil, c.fail(StageCompile, fmt.Errorf("reflect %s: %w", ref, err))
		}
		c.log.Printf("%s: compiled %s (%d bytes)", c.src.Name, ref, len(bc.Code))
		shaders = append(shaders, model.CompiledShader{Ref: ref, Bytecode: bc, Reflection: r})
	}
	return shaders, nil
}

// resolve maps a line of the preprocessed text to its source file and line.
func (c *compilation) resolve(line int) (string, int, bool) {
	if c.pp == nil || line <= 0 {
		return "", 0, false
	}
	return c.pp.Lines.Resolve(line)
}

// sourceText returns the text of a source file for context display.
func (c *compilation) sourceText(file string) string {
	if file == c.src.Name {
		return c.src.Text
	}
	b, err := fs.ReadFile(c.opts.FS, file)
	if err != nil {
		return ""
	}
	return string(b)
}

func (c *compilation) relocateEffect(err error) error {
	var list effect.SourceErrors
	if !errors.As(err, &list) {
		return err
	}
	for _, e := range list {
		if file, line, ok := c.resolve(e.Line); ok {
			e.File, e.Line = file, line
			e.Source = c.sourceText(file)
		}
	}
	return list
}

func (c *compilation) relocateCompiler(err error) error {
	var ce *toolchain.CompilerError
	if errors.As(err, &ce) && ce.File == c.src.Name {
		if file, line, ok := c.resolve(ce.Line); ok {
			ce.File, ce.Line = file, line
		}
	}
	return err
}

// relocateMessage rewrites a "file:line:col: message" prefix naming the
// preprocessed text.
func (c *compilation) relocateMessage(msg string) string {
	rest, ok := strings.CutPrefix(msg, c.src.Name+":")
	if !ok {
		return msg
	}
	num, tail, ok := strings.Cut(rest, ":")
	if !ok {
		return msg
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return msg
	}
	file, line, ok := c.resolve(n)
	if !ok {
		return msg
	}
	return fmt.Sprintf("%s:%d:%s", file, line, tail)
}

// OutputName returns the conventional artifact name for an effect file:
// the extension is replaced with ".fxb".
func OutputName(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + ".fxb"
}
