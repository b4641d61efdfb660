// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command fxc is the effect compiler CLI.
//
// Usage:
//
//	fxc [options] <input.fx>...
//	fxc -config fxc.yaml
//
// Examples:
//
//	fxc basic.fx                          # Compile to basic.fxb
//	fxc -target glsl -o out.fxb basic.fx  # Compile for OpenGL
//	fxc -target glsl -es basic.fx         # Compile for OpenGL ES 3.0
//	fxc -D QUALITY=2 -I include basic.fx  # Predefine a macro, add a search path
//	fxc -E basic.fx                       # Print the preprocessed source
//	fxc -config fxc.yaml -j 8             # Build every effect of a manifest
//
// Without inputs or -config, fxc builds ./fxc.yaml when it exists.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/gogpu/fxc"
	"github.com/gogpu/fxc/binfmt"
	"github.com/gogpu/fxc/config"
	"github.com/gogpu/fxc/toolchain"
)

const fxcVersion = "0.3.0"

func main() {
	cmd := &command{stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(cmd.run(os.Args[1:]))
}

// listFlag is a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type command struct {
	stdout, stderr io.Writer

	// toolchain overrides the naga toolchain.
	toolchain toolchain.Toolchain

	flags      *flag.FlagSet
	output     string
	target     string
	debug      bool
	es         bool
	noValidate bool
	defines    listFlag
	includes   listFlag
	preprocess bool
	manifest   string
	cache      string
	jobs       int
	verbose    bool
	version    bool
}

func (c *command) parse(args []string) error {
	fs := flag.NewFlagSet("fxc", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() { c.usage(fs) }
	fs.StringVar(&c.output, "o", "", "output file (default: input with .fxb extension)")
	fs.StringVar(&c.target, "target", "spirv", "shader target: spirv, glsl, hlsl or msl")
	fs.BoolVar(&c.debug, "debug", false, "compile shaders with debug info")
	fs.BoolVar(&c.es, "es", false, "emit GLSL ES 3.0 (requires -target glsl)")
	fs.BoolVar(&c.noValidate, "novalidate", false, "skip shader IR validation")
	fs.Var(&c.defines, "D", "predefine macro `NAME[=VALUE]` (repeatable)")
	fs.Var(&c.includes, "I", "add include search `dir` (repeatable)")
	fs.BoolVar(&c.preprocess, "E", false, "print preprocessed source with #line markers and exit")
	fs.StringVar(&c.manifest, "config", "", "build the effects listed in a YAML manifest")
	fs.StringVar(&c.cache, "cache", "", "build cache database; unchanged effects are skipped")
	fs.IntVar(&c.jobs, "j", runtime.NumCPU(), "number of effects compiled concurrently")
	fs.BoolVar(&c.verbose, "v", false, "verbose output")
	fs.BoolVar(&c.version, "version", false, "print version")
	c.flags = fs
	return fs.Parse(args)
}

// isSet reports whether a flag was given on the command line.
func (c *command) isSet(name string) bool {
	set := false
	c.flags.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func (c *command) run(args []string) int {
	if err := c.parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if c.version {
		fmt.Fprintf(c.stdout, "fxc version %s (effect format v%d)\n", fxcVersion, binfmt.Version)
		return 0
	}

	inputs := c.flags.Args()
	if c.manifest == "" && len(inputs) == 0 {
		if _, err := os.Stat(config.DefaultName); err == nil {
			c.manifest = config.DefaultName
		}
	}

	var (
		b   *build
		err error
	)
	switch {
	case c.manifest != "" && len(inputs) > 0:
		err = errors.New("input files cannot be combined with -config")
	case c.manifest != "":
		b, err = c.fromManifest()
	case len(inputs) == 0:
		fmt.Fprintln(c.stderr, "Error: no input file specified")
		c.usage(c.flags)
		return 1
	default:
		b, err = c.fromArgs(inputs)
	}
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}

	if c.preprocess {
		err = b.preprocessAll()
	} else {
		err = b.compileAll()
	}
	if err != nil {
		if c.verbose {
			fmt.Fprintf(c.stderr, "fxc: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *command) usage(fs *flag.FlagSet) {
	fmt.Fprintf(c.stderr, "Usage: fxc [options] <input.fx>...\n")
	fmt.Fprintf(c.stderr, "       fxc -config fxc.yaml\n\n")
	fmt.Fprintf(c.stderr, "Options:\n")
	fs.PrintDefaults()
	fmt.Fprintf(c.stderr, "\nExamples:\n")
	fmt.Fprintf(c.stderr, "  fxc basic.fx                         Compile to basic.fxb\n")
	fmt.Fprintf(c.stderr, "  fxc -target glsl -o out.fxb basic.fx Compile for OpenGL\n")
	fmt.Fprintf(c.stderr, "  fxc -target glsl -es basic.fx        Compile for OpenGL ES 3.0\n")
	fmt.Fprintf(c.stderr, "  fxc -E basic.fx                      Print the preprocessed source\n")
	fmt.Fprintf(c.stderr, "  fxc -config fxc.yaml                 Build a manifest\n")
}

// parseDefine splits a -D argument. A bare name is defined as 1.
func parseDefine(arg string) (string, string, error) {
	name, value, ok := strings.Cut(arg, "=")
	if name == "" {
		return "", "", fmt.Errorf("invalid -D %q: missing macro name", arg)
	}
	if !ok {
		value = "1"
	}
	return name, value, nil
}

func checkES(target binfmt.Target, es bool) error {
	if es && target != binfmt.TargetGLSL {
		return fmt.Errorf("-es requires -target glsl, got %s", target)
	}
	return nil
}

func (c *command) fromArgs(inputs []string) (*build, error) {
	if c.output != "" && len(inputs) > 1 {
		return nil, errors.New("-o cannot be used with several inputs")
	}
	target, err := binfmt.ParseTarget(c.target)
	if err != nil {
		return nil, err
	}
	if err := checkES(target, c.es); err != nil {
		return nil, err
	}
	defines := make(map[string]string, len(c.defines))
	for _, d := range c.defines {
		name, value, err := parseDefine(d)
		if err != nil {
			return nil, err
		}
		defines[name] = value
	}
	b := c.newBuild(target, c.debug, c.includes, c.cache, c.jobs)
	b.es, b.skipValidation = c.es, c.noValidate
	for _, in := range inputs {
		out := c.output
		if out == "" && !c.preprocess {
			out = fxc.OutputName(in)
		}
		b.jobs = append(b.jobs, job{source: in, output: out, defines: defines})
	}
	return b, nil
}

func (c *command) fromManifest() (*build, error) {
	m, err := config.Load(c.manifest)
	if err != nil {
		return nil, err
	}
	if c.output != "" {
		return nil, errors.New("-o cannot be used with -config")
	}
	target := m.TargetValue()
	if c.isSet("target") {
		if target, err = binfmt.ParseTarget(c.target); err != nil {
			return nil, err
		}
	}
	debug := m.Debug || c.debug
	es := m.ES || c.es
	if err := checkES(target, es); err != nil {
		return nil, err
	}
	cache := m.Cache
	if c.isSet("cache") {
		cache = c.cache
	}
	jobs := c.jobs
	if m.Jobs > 0 && !c.isSet("j") {
		jobs = m.Jobs
	}
	includes := append(append([]string(nil), m.Include...), c.includes...)

	extra := make(map[string]string, len(c.defines))
	for _, d := range c.defines {
		name, value, err := parseDefine(d)
		if err != nil {
			return nil, err
		}
		extra[name] = value
	}

	b := c.newBuild(target, debug, includes, cache, jobs)
	b.es, b.skipValidation = es, m.NoValidate || c.noValidate
	for _, e := range m.Effects {
		defines := m.DefinesFor(e)
		for k, v := range extra {
			defines[k] = v
		}
		out := e.Output
		if c.preprocess {
			out = ""
		}
		b.jobs = append(b.jobs, job{source: e.Source, output: out, defines: defines})
	}
	return b, nil
}
