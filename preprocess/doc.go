// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package preprocess implements the C-style macro preprocessor that runs
// over effect sources before they are parsed.
//
// Supported directives are #define (object-like and function-like, with
// # stringizing and ## pasting), #undef, #if, #ifdef, #ifndef, #elif, #else,
// #endif, #include "file" and #include <file>, #line, #error and
// #pragma once. Comments are removed, keeping their newlines, and line
// continuations are joined.
//
// # Line fidelity
//
// Every input line produces exactly one output line: directive lines,
// inactive lines and lines swallowed by a continuation become empty lines.
// For a source without #include, output line n is therefore input line n.
// Included files are spliced in place of the #include line; the returned
// LineMap resolves every output line to the file and line it came from.
//
// #line directives are understood natively and update the LineMap. With
// Options.LineMarkers set, #line markers are written into the output
// wherever the mapping stops being contiguous.
//
// # Usage
//
//	out, err := preprocess.Preprocess(preprocess.Source{
//	    Name: "shaders/basic.fx",
//	    Text: text,
//	}, preprocess.Options{
//	    FS:      os.DirFS("."),
//	    Defines: map[string]string{"QUALITY": "2"},
//	})
package preprocess
