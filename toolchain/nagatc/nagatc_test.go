// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nagatc

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/naga/ir"

	"github.com/gogpu/fxc/binfmt"
	"github.com/gogpu/fxc/toolchain"
)

const texturedSource = `
struct Uniforms {
    premultiplied: f32,
    alpha: f32,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@group(0) @binding(0) var<uniform> uniforms: Uniforms;
@group(0) @binding(1) var tex: texture_2d<f32>;
@group(0) @binding(2) var texSampler: sampler;

@vertex
fn vs_main(
    @location(0) pos: vec3<f32>,
    @location(1) uv: vec2<f32>,
) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(pos.x, pos.y, pos.z, 1.0);
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(input: VertexOutput) -> @location(0) vec4<f32> {
    let texColor = textureSample(tex, texSampler, input.uv);
    if (uniforms.premultiplied > 0.5) {
        return texColor * uniforms.alpha;
    } else {
        let a = texColor.a * uniforms.alpha;
        return vec4<f32>(texColor.rgb * a, a);
    }
}
`

func request(entry, profile string) toolchain.Request {
	return toolchain.Request{
		Source:  texturedSource,
		File:    "textured.fx",
		Entry:   entry,
		Profile: toolchain.MustParseProfile(profile),
	}
}

func TestCompileTargets(t *testing.T) {
	tests := []struct {
		target binfmt.Target
		check  func(code []byte) bool
	}{
		{binfmt.TargetSPIRV, func(code []byte) bool { return bytes.HasPrefix(code, []byte{0x03, 0x02, 0x23, 0x07}) }},
		{binfmt.TargetGLSL, func(code []byte) bool { return bytes.Contains(code, []byte("#version")) }},
		{binfmt.TargetHLSL, func(code []byte) bool { return len(code) > 0 }},
		{binfmt.TargetMSL, func(code []byte) bool { return len(code) > 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			tc := New(tt.target)
			for _, req := range []toolchain.Request{request("vs_main", "vs_5_0"), request("fs_main", "ps_5_0")} {
				bc, _, err := tc.Compile(req)
				if err != nil {
					t.Fatalf("Compile(%s): %v", req.Entry, err)
				}
				if !tt.check(bc.Code) {
					t.Errorf("Compile(%s) produced unexpected code:\n%.200s", req.Entry, bc.Code)
				}
				if bc.Entry != req.Entry || bc.Profile != req.Profile {
					t.Errorf("bytecode identifies as %s %s", bc.Entry, bc.Profile)
				}
			}
		})
	}
}

func TestGLSLES(t *testing.T) {
	for _, es := range []bool{false, true} {
		tc := Toolchain{Target: binfmt.TargetGLSL, ES: es}
		bc, _, err := tc.Compile(request("fs_main", "ps_5_0"))
		if err != nil {
			t.Fatalf("ES=%t: %v", es, err)
		}
		if got := bytes.Contains(bc.Code, []byte("#version 300 es")); got != es {
			t.Errorf("ES=%t: output declares GLSL ES = %t:\n%.200s", es, got, bc.Code)
		}
	}
}

func TestCompileStage(t *testing.T) {
	tc := New(binfmt.TargetSPIRV)
	vs, _, err := tc.Compile(request("vs_main", "vs_3_0"))
	if err != nil {
		t.Fatal(err)
	}
	ps, _, err := tc.Compile(request("fs_main", "ps_3_0"))
	if err != nil {
		t.Fatal(err)
	}
	if vs.Stage != toolchain.StageVertex || ps.Stage != toolchain.StagePixel {
		t.Errorf("stages = %v, %v", vs.Stage, ps.Stage)
	}
}

func TestReflectWGSL(t *testing.T) {
	tc := New(binfmt.TargetSPIRV)

	ps, _, err := tc.Compile(request("fs_main", "ps_5_0"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := tc.Reflect(ps)
	if err != nil {
		t.Fatal(err)
	}
	f32 := toolchain.TypeDesc{Kind: toolchain.KindFloat, Rows: 1, Columns: 1, Size: 4}
	want := &toolchain.Reflection{
		ConstantBuffers: []toolchain.ConstantBuffer{{
			Name: "uniforms",
			Size: 8,
			Uniforms: []toolchain.UniformInfo{
				{Name: "premultiplied", Offset: 0, Type: f32},
				{Name: "alpha", Offset: 4, Type: f32},
			},
		}},
		Textures: []toolchain.Texture{{Name: "tex", Dim: toolchain.Texture2D, Binding: 1}},
		Samplers: []toolchain.Sampler{{Name: "texSampler", Texture: "tex", Binding: 2}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fs_main reflection mismatch (-want +got):\n%s", diff)
	}

	vs, _, err := tc.Compile(request("vs_main", "vs_5_0"))
	if err != nil {
		t.Fatal(err)
	}
	got, err = tc.Reflect(vs)
	if err != nil {
		t.Fatal(err)
	}
	want = &toolchain.Reflection{
		Attributes: []toolchain.Attribute{{Name: "pos", Location: 0}, {Name: "uv", Location: 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("vs_main reflection mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileErrors(t *testing.T) {
	tc := New(binfmt.TargetSPIRV)
	tests := []struct {
		name string
		req  toolchain.Request
		want string
	}{
		{"missing entry", request("main", "vs_3_0"), "entry point not found"},
		{"stage mismatch", request("fs_main", "vs_3_0"), "profile requires vertex"},
		{"syntax", toolchain.Request{Source: "\nfn broken( {\n", File: "broken.fx", Entry: "broken", Profile: toolchain.MustParseProfile("ps_3_0")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tc.Compile(tt.req)
			var ce *toolchain.CompilerError
			if !errors.As(err, &ce) {
				t.Fatalf("Compile error = %v, want *toolchain.CompilerError", err)
			}
			if ce.File != tt.req.File || ce.Entry != tt.req.Entry {
				t.Errorf("error locates %s/%s, want %s/%s", ce.File, ce.Entry, tt.req.File, tt.req.Entry)
			}
			if tt.want != "" && !strings.Contains(ce.Message, tt.want) {
				t.Errorf("message %q does not mention %q", ce.Message, tt.want)
			}
			if tt.want == "" && ce.Line == 0 {
				t.Errorf("syntax error %v carries no line", ce)
			}
		})
	}
}

func TestReflectForeignBytecode(t *testing.T) {
	if _, err := New(binfmt.TargetSPIRV).Reflect(&toolchain.Bytecode{Entry: "main"}); err == nil {
		t.Error("Reflect accepted bytecode without a naga artifact")
	}
}

func locBinding(loc uint32) *ir.Binding {
	b := ir.Binding(ir.LocationBinding{Location: loc})
	return &b
}

// skinnedModule models an entry point that reaches a cube map only through
// a helper called from a nested block.
func skinnedModule() *ir.Module {
	f32 := ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}
	four := uint32(4)
	return &ir.Module{
		// Types: 0 f32, 1 vec4, 2 mat4x4, 3 array<vec4, 4>, 4 Globals,
		// 5 sampler, 6 texture_cube, 7 texture_2d, 8 VSIn.
		Types: []ir.Type{
			{Inner: f32},
			{Inner: ir.VectorType{Size: ir.Vec4, Scalar: f32}},
			{Inner: ir.MatrixType{Columns: ir.Vec4, Rows: ir.Vec4, Scalar: f32}},
			{Inner: ir.ArrayType{Base: 1, Size: ir.ArraySize{Constant: &four}, Stride: 16}},
			{Name: "Globals", Inner: ir.StructType{Span: 144, Members: []ir.StructMember{
				{Name: "WorldViewProj", Type: 2, Offset: 0},
				{Name: "Tint", Type: 1, Offset: 64},
				{Name: "Lights", Type: 3, Offset: 80},
			}}},
			{Inner: ir.SamplerType{}},
			{Inner: ir.ImageType{Dim: ir.DimCube, Class: ir.ImageClassSampled}},
			{Inner: ir.ImageType{Dim: ir.Dim2D, Class: ir.ImageClassSampled}},
			{Name: "VSIn", Inner: ir.StructType{Members: []ir.StructMember{
				{Name: "Position", Type: 1, Binding: locBinding(0)},
				{Name: "Weights", Type: 1, Binding: locBinding(3)},
			}}},
		},
		GlobalVariables: []ir.GlobalVariable{
			{Name: "globals", Space: ir.SpaceUniform, Binding: &ir.ResourceBinding{Group: 0, Binding: 0}, Type: 4},
			{Name: "env", Space: ir.SpaceHandle, Binding: &ir.ResourceBinding{Group: 1, Binding: 0}, Type: 6},
			{Name: "envSampler", Space: ir.SpaceHandle, Binding: &ir.ResourceBinding{Group: 1, Binding: 1}, Type: 5},
			{Name: "unused", Space: ir.SpaceHandle, Binding: &ir.ResourceBinding{Group: 1, Binding: 2}, Type: 7},
		},
		Functions: []ir.Function{
			{
				Name: "sample_env",
				Expressions: []ir.Expression{
					{Kind: ir.ExprGlobalVariable{Variable: 1}},
					{Kind: ir.ExprGlobalVariable{Variable: 2}},
					{Kind: ir.ExprImageSample{Image: 0, Sampler: 1}},
				},
			},
			{
				Name:      "vs_main",
				Arguments: []ir.FunctionArgument{{Name: "in", Type: 8}, {Name: "Color", Type: 1, Binding: locBinding(5)}},
				Expressions: []ir.Expression{
					{Kind: ir.ExprGlobalVariable{Variable: 0}},
				},
				Body: []ir.Statement{
					{Kind: ir.StmtIf{Accept: ir.Block{{Kind: ir.StmtCall{Function: 0}}}}},
				},
			},
		},
		EntryPoints: []ir.EntryPoint{{Name: "vs_main", Stage: ir.StageVertex, Function: 1}},
	}
}

func TestReflectReachability(t *testing.T) {
	m := skinnedModule()
	got, err := reflectEntry(m, m.EntryPoints[0])
	if err != nil {
		t.Fatal(err)
	}
	vec4 := toolchain.TypeDesc{Kind: toolchain.KindFloat, Rows: 1, Columns: 4, Size: 16}
	lights := vec4
	lights.Elements, lights.Size = 4, 64
	want := &toolchain.Reflection{
		ConstantBuffers: []toolchain.ConstantBuffer{{
			Name: "globals",
			Size: 144,
			Uniforms: []toolchain.UniformInfo{
				{Name: "WorldViewProj", Offset: 0, Type: toolchain.TypeDesc{Kind: toolchain.KindFloat, Rows: 4, Columns: 4, Size: 64}},
				{Name: "Tint", Offset: 64, Type: vec4},
				{Name: "Lights", Offset: 80, Type: lights},
			},
		}},
		Textures: []toolchain.Texture{{Name: "env", Dim: toolchain.TextureCube, Group: 1}},
		Samplers: []toolchain.Sampler{{Name: "envSampler", Texture: "env", Group: 1, Binding: 1}},
		Attributes: []toolchain.Attribute{
			{Name: "Position", Location: 0},
			{Name: "Weights", Location: 3},
			{Name: "Color", Location: 5},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reflection mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeDescErrors(t *testing.T) {
	f64 := ir.ScalarType{Kind: ir.ScalarFloat, Width: 8}
	m := &ir.Module{Types: []ir.Type{
		{Inner: ir.ArrayType{Base: 1}},
		{Inner: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}},
		{Inner: f64},
		{Inner: ir.SamplerType{}},
	}}
	for _, h := range []ir.TypeHandle{0, 2, 3, 9} {
		if _, err := typeDesc(m, h); err == nil {
			t.Errorf("typeDesc(%d) succeeded", h)
		}
	}
}

func TestShaderModel(t *testing.T) {
	tests := []struct {
		profile string
		mapped  bool
		suffix  string
	}{
		{"vs_3_0", true, "5_0"},
		{"ps_5_0", false, "5_0"},
		{"ps_5_1", false, "5_1"},
		{"vs_6_2", false, "6_2"},
	}
	for _, tt := range tests {
		sm, mapped := shaderModel(toolchain.MustParseProfile(tt.profile))
		if mapped != tt.mapped || sm.ProfileSuffix() != tt.suffix {
			t.Errorf("shaderModel(%s) = %s, %v; want %s, %v", tt.profile, sm.ProfileSuffix(), mapped, tt.suffix, tt.mapped)
		}
	}
}
