// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fxc

import (
	"runtime"
	"testing"
	"testing/fstest"

	"github.com/gogpu/fxc/binfmt"
	"github.com/gogpu/fxc/effect"
	"github.com/gogpu/fxc/preprocess"
)

// ---------------------------------------------------------------------------
// Benchmark effects
// ---------------------------------------------------------------------------

// lightingFxh is a shared include with a uniform block and a helper macro.
const lightingFxh = `#pragma once
#define SATURATE(x) clamp((x), 0.0, 1.0)

struct Lighting {
    WorldViewProj: mat4x4<f32>,
    LightDir: vec4<f32>,
    Ambient: vec4<f32>,
};
@group(0) @binding(0) var<uniform> lighting: Lighting;
`

// texturedEffect is a lit, textured effect with two techniques sharing
// the vertex shader.
const texturedEffect = `#include "lighting.fxh"

struct VSOut {
    @builtin(position) pos: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) shade: f32,
};

@group(0) @binding(1) var diffuse: texture_2d<f32>;
@group(0) @binding(2) var diffuseSampler: sampler = sampler_state {
    Texture = <diffuse>;
    MinFilter = Linear;
    MagFilter = Linear;
    AddressU = Wrap;
    AddressV = Wrap;
};

@vertex
fn vs_main(@location(0) position: vec4<f32>, @location(1) normal: vec3<f32>, @location(2) uv: vec2<f32>) -> VSOut {
    var out: VSOut;
    out.pos = lighting.WorldViewProj * position;
    out.uv = uv;
    out.shade = SATURATE(dot(normal, lighting.LightDir.xyz));
    return out;
}

@fragment
fn fs_lit(input: VSOut) -> @location(0) vec4<f32> {
    let base = textureSample(diffuse, diffuseSampler, input.uv);
    return base * (lighting.Ambient + vec4<f32>(input.shade));
}

@fragment
fn fs_unlit(input: VSOut) -> @location(0) vec4<f32> {
    return textureSample(diffuse, diffuseSampler, input.uv);
}

technique Lit {
    pass P0 {
        VertexShader = compile vs_3_0 vs_main();
        PixelShader = compile ps_3_0 fs_lit();
        CullMode = CCW;
        ZEnable = TRUE;
    }
}

technique Unlit {
    pass P0 {
        VertexShader = compile vs_3_0 vs_main();
        PixelShader = compile ps_3_0 fs_unlit();
        AlphaBlendEnable = TRUE;
        SrcBlend = SrcAlpha;
        DestBlend = InvSrcAlpha;
    }
}
`

func benchFS() fstest.MapFS {
	return fstest.MapFS{
		"textured.fx":  {Data: []byte(texturedEffect)},
		"lighting.fxh": {Data: []byte(lightingFxh)},
	}
}

var benchTargets = []binfmt.Target{
	binfmt.TargetSPIRV,
	binfmt.TargetGLSL,
	binfmt.TargetHLSL,
	binfmt.TargetMSL,
}

// ---------------------------------------------------------------------------
// Full pipeline: effect source to serialized artifact per target
// ---------------------------------------------------------------------------

// BenchmarkCompileFile benchmarks the complete pipeline with the naga
// toolchain for each target.
func BenchmarkCompileFile(b *testing.B) {
	fsys := benchFS()
	for _, target := range benchTargets {
		b.Run(target.String(), func(b *testing.B) {
			opts := DefaultOptions()
			opts.Target = target
			opts.FS = fsys
			b.ReportAllocs()
			b.SetBytes(int64(len(texturedEffect) + len(lightingFxh)))
			b.ResetTimer()

			var result *Result
			for i := 0; i < b.N; i++ {
				var err error
				result, err = CompileFile("textured.fx", opts)
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// BenchmarkCompileFileDebug measures the overhead of debug info.
func BenchmarkCompileFileDebug(b *testing.B) {
	opts := DefaultOptions()
	opts.FS = benchFS()
	opts.Debug = true
	b.ReportAllocs()
	b.ResetTimer()

	var result *Result
	for i := 0; i < b.N; i++ {
		var err error
		result, err = CompileFile("textured.fx", opts)
		if err != nil {
			b.Fatalf("compile failed: %v", err)
		}
	}
	runtime.KeepAlive(result)
}

// ---------------------------------------------------------------------------
// Individual stage benchmarks
// ---------------------------------------------------------------------------

// BenchmarkPreprocess benchmarks macro expansion and include handling.
func BenchmarkPreprocess(b *testing.B) {
	opts := preprocess.Options{FS: benchFS()}
	src := preprocess.Source{Name: "textured.fx", Text: texturedEffect}
	b.ReportAllocs()
	b.SetBytes(int64(len(texturedEffect)))
	b.ResetTimer()

	var out *preprocess.Output
	for i := 0; i < b.N; i++ {
		var err error
		out, err = preprocess.Preprocess(src, opts)
		if err != nil {
			b.Fatalf("preprocess failed: %v", err)
		}
	}
	runtime.KeepAlive(out)
}

// BenchmarkEffectLayer benchmarks parsing, evaluating and erasing the
// effect constructs of preprocessed text.
func BenchmarkEffectLayer(b *testing.B) {
	pp, err := preprocess.Preprocess(preprocess.Source{Name: "textured.fx", Text: texturedEffect},
		preprocess.Options{FS: benchFS()})
	if err != nil {
		b.Fatalf("preprocess failed: %v", err)
	}
	b.ReportAllocs()
	b.SetBytes(int64(len(pp.Text)))
	b.ResetTimer()

	var code string
	for i := 0; i < b.N; i++ {
		root, err := effect.Parse("textured.fx", pp.Text)
		if err != nil {
			b.Fatalf("parse failed: %v", err)
		}
		if _, err := effect.Evaluate("textured.fx", root, pp.Text); err != nil {
			b.Fatalf("evaluate failed: %v", err)
		}
		code = effect.Erase(pp.Text, root)
	}
	runtime.KeepAlive(code)
}

// BenchmarkEncodeDecode benchmarks serializing a compiled effect and
// reading it back.
func BenchmarkEncodeDecode(b *testing.B) {
	opts := DefaultOptions()
	opts.FS = benchFS()
	res, err := CompileFile("textured.fx", opts)
	if err != nil {
		b.Fatalf("compile failed: %v", err)
	}

	b.Run("Encode", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		var data []byte
		for i := 0; i < b.N; i++ {
			var err error
			data, err = binfmt.Encode(res.Effect, binfmt.EncodeOptions{Target: binfmt.TargetSPIRV})
			if err != nil {
				b.Fatalf("encode failed: %v", err)
			}
		}
		runtime.KeepAlive(data)
	})

	b.Run("Decode", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(res.Bytes)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, _, err := binfmt.Decode(res.Bytes); err != nil {
				b.Fatalf("decode failed: %v", err)
			}
		}
	})
}
