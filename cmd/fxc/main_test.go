// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/fxc/binfmt"
	"github.com/gogpu/fxc/toolchain"
)

const commonFxh = `#ifdef TINT
const tint = 0.5;
#endif
`

const basicFx = `#include "common.fxh"
fn vs_main() {}
fn fs_main() {}

technique Main {
    pass P0 {
        VertexShader = compile vs_3_0 vs_main();
        PixelShader = compile ps_3_0 fs_main();
    }
}
`

// countingToolchain compiles every entry point to "entry@profile" and
// counts compiles. It is safe for concurrent use.
type countingToolchain struct {
	mu       sync.Mutex
	compiles int
}

func (c *countingToolchain) Compile(req toolchain.Request) (*toolchain.Bytecode, toolchain.Log, error) {
	c.mu.Lock()
	c.compiles++
	c.mu.Unlock()
	return &toolchain.Bytecode{
		Stage:   req.Profile.Stage,
		Entry:   req.Entry,
		Profile: req.Profile,
		Code:    []byte(fmt.Sprintf("%s@%s", req.Entry, req.Profile)),
	}, toolchain.Log{}, nil
}

func (c *countingToolchain) Reflect(*toolchain.Bytecode) (*toolchain.Reflection, error) {
	return &toolchain.Reflection{}, nil
}

func (c *countingToolchain) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compiles
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, text := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"shaders/basic.fx":      basicFx,
		"shaders/sky.fx":        basicFx,
		"include/common.fxh":    commonFxh,
		"shaders/badstate.fx":   "technique T { pass P { Sparkle = TRUE; } }\n",
		"shaders/missinginc.fx": "#include \"nowhere.fxh\"\n",
	})
	return dir
}

type result struct {
	code           int
	stdout, stderr string
}

func runFxc(tc toolchain.Toolchain, args ...string) result {
	var stdout, stderr bytes.Buffer
	cmd := &command{stdout: &stdout, stderr: &stderr, toolchain: tc}
	code := cmd.run(args)
	return result{code, stdout.String(), stderr.String()}
}

func readTarget(t *testing.T, path string) binfmt.Target {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	fx, h, err := binfmt.Decode(data)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	if len(fx.Techniques) != 1 || len(fx.Shaders) != 2 {
		t.Errorf("%s: %d techniques, %d shaders", path, len(fx.Techniques), len(fx.Shaders))
	}
	return h.Target
}

func TestVersion(t *testing.T) {
	r := runFxc(nil, "-version")
	if r.code != 0 || !strings.HasPrefix(r.stdout, "fxc version ") {
		t.Errorf("-version = %d %q", r.code, r.stdout)
	}
}

func TestCompileInputs(t *testing.T) {
	dir := project(t)
	tc := &countingToolchain{}
	basic := filepath.Join(dir, "shaders", "basic.fx")
	sky := filepath.Join(dir, "shaders", "sky.fx")
	r := runFxc(tc, "-I", filepath.Join(dir, "include"), "-j", "2", basic, sky)
	if r.code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", r.code, r.stderr)
	}
	for _, out := range []string{"basic.fxb", "sky.fxb"} {
		if got := readTarget(t, filepath.Join(dir, "shaders", out)); got != binfmt.TargetSPIRV {
			t.Errorf("%s target = %v", out, got)
		}
	}
	if got := tc.count(); got != 4 {
		t.Errorf("compiled %d entry points, want 4", got)
	}
}

func TestOutputAndTarget(t *testing.T) {
	dir := project(t)
	out := filepath.Join(dir, "build", "gl", "basic.fxb")
	r := runFxc(&countingToolchain{}, "-target", "glsl", "-I", filepath.Join(dir, "include"),
		"-o", out, filepath.Join(dir, "shaders", "basic.fx"))
	if r.code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", r.code, r.stderr)
	}
	if got := readTarget(t, out); got != binfmt.TargetGLSL {
		t.Errorf("target = %v, want glsl", got)
	}
}

func TestPreprocessOnly(t *testing.T) {
	dir := project(t)
	r := runFxc(nil, "-E", "-D", "TINT", "-I", filepath.Join(dir, "include"),
		filepath.Join(dir, "shaders", "basic.fx"))
	if r.code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", r.code, r.stderr)
	}
	for _, want := range []string{"#line", "const tint = 0.5;", "technique Main"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("preprocessed output lacks %q:\n%s", want, r.stdout)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "shaders", "basic.fxb")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("-E wrote an artifact: %v", err)
	}
}

func TestDiagnostics(t *testing.T) {
	dir := project(t)
	tests := []struct {
		file string
		want []string
	}{
		{"badstate.fx", []string{"error: unknown render state \"Sparkle\"", "badstate.fx:1:", "^"}},
		{"missinginc.fx", []string{"error: ", "nowhere.fxh"}},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			r := runFxc(&countingToolchain{}, filepath.Join(dir, "shaders", tt.file))
			if r.code != 1 {
				t.Fatalf("exit %d, want 1", r.code)
			}
			for _, want := range tt.want {
				if !strings.Contains(r.stderr, want) {
					t.Errorf("stderr lacks %q:\n%s", want, r.stderr)
				}
			}
			if strings.Contains(r.stderr, "\033[") {
				t.Error("colour written to a non-terminal")
			}
		})
	}
}

func TestOneFailureDoesNotStopOthers(t *testing.T) {
	dir := project(t)
	r := runFxc(&countingToolchain{}, "-I", filepath.Join(dir, "include"),
		filepath.Join(dir, "shaders", "badstate.fx"), filepath.Join(dir, "shaders", "basic.fx"))
	if r.code != 1 {
		t.Errorf("exit %d, want 1", r.code)
	}
	if _, err := os.Stat(filepath.Join(dir, "shaders", "basic.fxb")); err != nil {
		t.Errorf("good effect not built: %v", err)
	}
}

func TestManifestAndCache(t *testing.T) {
	dir := project(t)
	writeFiles(t, dir, map[string]string{
		"fxc.yaml": `target: msl
include: [include]
defines: {TINT: "1"}
cache: .fxc/cache.db
effects:
  - source: shaders/basic.fx
    output: build/basic.fxb
  - source: shaders/sky.fx
    output: build/sky.fxb
`,
	})
	manifest := filepath.Join(dir, "fxc.yaml")

	tc := &countingToolchain{}
	if r := runFxc(tc, "-config", manifest); r.code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", r.code, r.stderr)
	}
	if got := readTarget(t, filepath.Join(dir, "build", "sky.fxb")); got != binfmt.TargetMSL {
		t.Errorf("target = %v, want msl", got)
	}
	if got := tc.count(); got != 4 {
		t.Fatalf("first build compiled %d entry points, want 4", got)
	}

	tc = &countingToolchain{}
	if r := runFxc(tc, "-config", manifest); r.code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", r.code, r.stderr)
	}
	if got := tc.count(); got != 0 {
		t.Errorf("unchanged build compiled %d entry points", got)
	}

	writeFiles(t, dir, map[string]string{"shaders/sky.fx": basicFx + "\n// edited\n"})
	tc = &countingToolchain{}
	if r := runFxc(tc, "-config", manifest); r.code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", r.code, r.stderr)
	}
	if got := tc.count(); got != 2 {
		t.Errorf("after editing one effect compiled %d entry points, want 2", got)
	}

	// A shared include invalidates every effect.
	writeFiles(t, dir, map[string]string{"include/common.fxh": commonFxh + "\n"})
	tc = &countingToolchain{}
	if r := runFxc(tc, "-config", manifest); r.code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", r.code, r.stderr)
	}
	if got := tc.count(); got != 4 {
		t.Errorf("after editing the include compiled %d entry points, want 4", got)
	}

	// So does a change of options.
	tc = &countingToolchain{}
	if r := runFxc(tc, "-config", manifest, "-target", "hlsl"); r.code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", r.code, r.stderr)
	}
	if got := tc.count(); got != 4 {
		t.Errorf("after changing the target compiled %d entry points, want 4", got)
	}
	if got := readTarget(t, filepath.Join(dir, "build", "basic.fxb")); got != binfmt.TargetHLSL {
		t.Errorf("target = %v, want hlsl", got)
	}
}

func TestDefaultManifest(t *testing.T) {
	dir := project(t)
	writeFiles(t, dir, map[string]string{
		"fxc.yaml": "include: [include]\neffects: [{source: shaders/basic.fx}]\n",
	})
	t.Chdir(dir)
	if r := runFxc(&countingToolchain{}); r.code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", r.code, r.stderr)
	}
	readTarget(t, filepath.Join(dir, "shaders", "basic.fxb"))
}

func TestUsageErrors(t *testing.T) {
	dir := project(t)
	basic := filepath.Join(dir, "shaders", "basic.fx")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no input", nil, "no input file"},
		{"bad target", []string{"-target", "dxil", basic}, "unknown target"},
		{"output with several inputs", []string{"-o", "x.fxb", basic, basic}, "several inputs"},
		{"config with inputs", []string{"-config", "fxc.yaml", basic}, "cannot be combined"},
		{"missing manifest", []string{"-config", filepath.Join(dir, "none.yaml")}, "none.yaml"},
		{"empty define", []string{"-D", "=1", basic}, "missing macro name"},
		{"es without glsl", []string{"-es", basic}, "-es requires -target glsl"},
	}
	t.Chdir(t.TempDir())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runFxc(&countingToolchain{}, tt.args...)
			if r.code != 1 {
				t.Errorf("exit %d, want 1", r.code)
			}
			if !strings.Contains(r.stderr, tt.want) {
				t.Errorf("stderr lacks %q:\n%s", tt.want, r.stderr)
			}
		})
	}
}

func TestBackendOptions(t *testing.T) {
	dir := project(t)
	basic := filepath.Join(dir, "shaders", "basic.fx")
	manifest := filepath.Join(dir, "fxc.yaml")
	writeFiles(t, dir, map[string]string{
		"fxc.yaml": "target: glsl\nes: true\nnovalidate: true\neffects: [{source: shaders/basic.fx}]\n",
	})

	tests := []struct {
		name string
		args []string
	}{
		{"flags", []string{"-target", "glsl", "-es", "-novalidate", basic}},
		{"manifest", []string{"-config", manifest}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &command{stdout: io.Discard, stderr: io.Discard}
			if err := c.parse(tt.args); err != nil {
				t.Fatal(err)
			}
			var (
				b   *build
				err error
			)
			if c.manifest != "" {
				b, err = c.fromManifest()
			} else {
				b, err = c.fromArgs(c.flags.Args())
			}
			if err != nil {
				t.Fatal(err)
			}
			ws, err := b.workspace()
			if err != nil {
				t.Fatal(err)
			}
			opts := b.options(ws, b.jobs[0])
			if opts.Target != binfmt.TargetGLSL || !opts.ES || !opts.SkipValidation {
				t.Errorf("options target %v, ES %t, SkipValidation %t", opts.Target, opts.ES, opts.SkipValidation)
			}
		})
	}

	r := runFxc(&countingToolchain{}, "-config", manifest, "-target", "hlsl")
	if r.code != 1 || !strings.Contains(r.stderr, "-es requires -target glsl") {
		t.Errorf("manifest es with -target hlsl: exit %d, stderr:\n%s", r.code, r.stderr)
	}
}

func TestParseDefine(t *testing.T) {
	tests := []struct {
		arg         string
		name, value string
	}{
		{"DEBUG", "DEBUG", "1"},
		{"QUALITY=2", "QUALITY", "2"},
		{"EMPTY=", "EMPTY", ""},
		{"SQR(x)=((x)*(x))", "SQR(x)", "((x)*(x))"},
	}
	for _, tt := range tests {
		name, value, err := parseDefine(tt.arg)
		if err != nil {
			t.Errorf("parseDefine(%q): %v", tt.arg, err)
			continue
		}
		if name != tt.name || value != tt.value {
			t.Errorf("parseDefine(%q) = %q, %q", tt.arg, name, value)
		}
	}
}

func TestWorkspace(t *testing.T) {
	dir := t.TempDir()
	ws, err := newWorkspace([]string{
		filepath.Join(dir, "a", "b", "x.fx"),
		filepath.Join(dir, "a", "c", "y.fxb"),
		filepath.Join(dir, "a", "inc", "x"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "a"); ws.root != want {
		t.Errorf("root = %q, want %q", ws.root, want)
	}
	got := []string{
		ws.rel(filepath.Join(dir, "a", "b", "x.fx")),
		ws.rel(filepath.Join(dir, "a", "c", "y.fxb")),
	}
	if diff := cmp.Diff([]string{"b/x.fx", "c/y.fxb"}, got); diff != "" {
		t.Errorf("rel mismatch (-want +got):\n%s", diff)
	}
}

func TestPrinterColour(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{w: &buf, color: true}
	p.diagnostics([]string{"a.fx:3:1: unused"}, errors.New("boom"))
	want := colorWarning + "warning:" + colorReset + " a.fx:3:1: unused\n" +
		colorError + "error:" + colorReset + " boom\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}
