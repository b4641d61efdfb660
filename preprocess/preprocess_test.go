// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package preprocess

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func run(t *testing.T, text string, opts Options) *Output {
	t.Helper()
	out, err := Preprocess(Source{Name: "main.fx", Text: text}, opts)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	return out
}

func TestMacroExpansion(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"object", "#define N 4\nvar a = N;", "\nvar a = 4;\n"},
		{"function", "#define SQR(x) ((x)*(x))\nSQR(a+1)", "\n((a+1)*(a+1))\n"},
		{"stringize", "#define STR(x) #x\nSTR(hello world)", "\n\"hello world\"\n"},
		{"paste", "#define CAT(a, b) a##b\nCAT(foo, bar)", "\nfoobar\n"},
		{"self reference", "#define X X+1\nX", "\nX+1\n"},
		{"nested", "#define A B\n#define B 7\nA", "\n\n7\n"},
		{"name without call", "#define F(x) x\nF + 1", "\nF + 1\n"},
		{"variadic", "#define V(f, ...) f(__VA_ARGS__)\nV(g, b, c)", "\ng(b, c)\n"},
		{"empty args", "#define Z() zero\nZ()", "\nzero\n"},
		{"undef", "#define N 4\n#undef N\nN", "\n\nN\n"},
		{"string untouched", "#define N 4\n\"N\" N", "\n\"N\" 4\n"},
		{"line", "a\n__LINE__", "a\n2\n"},
		{"file", "__FILE__", "\"main.fx\"\n"},
		{"call across lines", "#define ADD(a, b) ((a) + (b))\nx = ADD(1,\n 2);", "\nx = ((1) + (2));\n\n"},
		{"nested call across lines", "#define ID(x) x\nID(f(1,\n2,\n3)) end", "\nf(1, 2, 3) end\n\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := run(t, tt.src, Options{})
			if diff := cmp.Diff(tt.want, out.Text); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPredefinedMacros(t *testing.T) {
	out := run(t, "SQR(Q)", Options{Defines: map[string]string{
		"SQR(x)": "((x)*(x))",
		"Q":      "2",
	}})
	if out.Text != "((2)*(2))\n" {
		t.Errorf("got %q", out.Text)
	}
}

func TestConditionals(t *testing.T) {
	src := strings.Join([]string{
		"#define A 2",
		"#if A > 1 && defined(A)",
		"yes",
		"#elif 1",
		"no",
		"#else",
		"no2",
		"#endif",
		"#ifdef MISSING",
		"#if 1/0",
		"#endif",
		"#bogus directive",
		"#else",
		"other",
		"#endif",
		"#ifndef MISSING",
		"last",
		"#endif",
	}, "\n")
	out := run(t, src, Options{})
	lines := strings.Split(strings.TrimSuffix(out.Text, "\n"), "\n")
	var kept []string
	for _, l := range lines {
		if l != "" {
			kept = append(kept, l)
		}
	}
	if diff := cmp.Diff([]string{"yes", "other", "last"}, kept); diff != "" {
		t.Errorf("active lines mismatch (-want +got):\n%s", diff)
	}
	if len(lines) != 18 {
		t.Errorf("got %d output lines, want 18", len(lines))
	}
}

func TestLineFidelity(t *testing.T) {
	src := strings.Join([]string{
		"/* header",
		"   comment */ MARK2",
		"#define LONG 1 + \\",
		"  2",
		"MARK5 // trailing",
		"#if 0",
		"hidden",
		"#endif",
		"MARK9",
	}, "\n")
	out := run(t, src, Options{})
	lines := strings.Split(strings.TrimSuffix(out.Text, "\n"), "\n")
	if len(lines) != 9 {
		t.Fatalf("got %d output lines, want 9:\n%s", len(lines), out.Text)
	}
	for _, mark := range []struct {
		text string
		line int
	}{{"MARK2", 2}, {"MARK5", 5}, {"MARK9", 9}} {
		if !strings.Contains(lines[mark.line-1], mark.text) {
			t.Errorf("line %d = %q, want it to contain %s", mark.line, lines[mark.line-1], mark.text)
		}
		file, line, ok := out.Lines.Resolve(mark.line)
		if !ok || file != "main.fx" || line != mark.line {
			t.Errorf("Resolve(%d) = %s:%d %v", mark.line, file, line, ok)
		}
	}
}

func TestCallAcrossLinesKeepsLines(t *testing.T) {
	src := "#define ADD(a, b) ((a) + (b))\nv = ADD(1,\n  2,\n);\nMARK5"
	_, err := Preprocess(Source{Name: "main.fx", Text: src}, Options{})
	var se *SourceError
	if !errors.As(err, &se) || se.Line != 2 || !strings.Contains(se.Message, "requires 2 arguments") {
		t.Fatalf("got %v, want an arity error on line 2", err)
	}

	src = "#define ADD(a, b) ((a) + (b))\nv = ADD(1,\n  2\n);\nMARK5"
	out := run(t, src, Options{})
	lines := strings.Split(strings.TrimSuffix(out.Text, "\n"), "\n")
	want := []string{"", "v = ((1) + (2));", "", "", "MARK5"}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("output lines mismatch (-want +got):\n%s", diff)
	}
	file, line, ok := out.Lines.Resolve(5)
	if !ok || file != "main.fx" || line != 5 {
		t.Errorf("Resolve(5) = %s:%d %v", file, line, ok)
	}
}

func includeFS() fstest.MapFS {
	return fstest.MapFS{
		"main.fx":          {Data: []byte("top\n#include \"inc/common.fxh\"\nbottom\n")},
		"inc/common.fxh":   {Data: []byte("#pragma once\ncommon\n")},
		"twice.fx":         {Data: []byte("#include \"inc/common.fxh\"\n#include \"inc/common.fxh\"\nend\n")},
		"sys/lib.fxh":      {Data: []byte("lib\n")},
		"sys.fx":           {Data: []byte("#include <lib.fxh>\n")},
		"loop.fx":          {Data: []byte("#include \"loop2.fxh\"\n")},
		"loop2.fxh":        {Data: []byte("#include \"loop.fx\"\n")},
		"missing.fx":       {Data: []byte("x\n#include \"nope.fxh\"\n")},
		"markers/a.fx":     {Data: []byte("top\n#include \"b.fxh\"\nbottom\n")},
		"markers/b.fxh":    {Data: []byte("mid\n")},
		"inc/relative.fxh": {Data: []byte("#include \"common.fxh\"\n")},
		"relative.fx":      {Data: []byte("#include \"inc/relative.fxh\"\n")},
	}
}

func compileFile(t *testing.T, fsys fstest.MapFS, name string, opts Options) (*Output, error) {
	t.Helper()
	opts.FS = fsys
	return Preprocess(Source{Name: name, Text: string(fsys[name].Data)}, opts)
}

func TestInclude(t *testing.T) {
	fsys := includeFS()
	out, err := compileFile(t, fsys, "main.fx", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Text != "top\n\ncommon\nbottom\n" {
		t.Errorf("got %q", out.Text)
	}
	if diff := cmp.Diff([]string{"inc/common.fxh"}, out.Dependencies); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}

	want := []struct {
		file string
		line int
	}{{"main.fx", 1}, {"inc/common.fxh", 1}, {"inc/common.fxh", 2}, {"main.fx", 3}}
	for i, w := range want {
		file, line, ok := out.Lines.Resolve(i + 1)
		if !ok || file != w.file || line != w.line {
			t.Errorf("Resolve(%d) = %s:%d, want %s:%d", i+1, file, line, w.file, w.line)
		}
	}
}

func TestIncludeVariants(t *testing.T) {
	fsys := includeFS()

	t.Run("pragma once", func(t *testing.T) {
		out, err := compileFile(t, fsys, "twice.fx", Options{})
		if err != nil {
			t.Fatal(err)
		}
		if strings.Count(out.Text, "common") != 1 {
			t.Errorf("common included %d times:\n%s", strings.Count(out.Text, "common"), out.Text)
		}
	})

	t.Run("system path", func(t *testing.T) {
		out, err := compileFile(t, fsys, "sys.fx", Options{SystemPaths: []string{"sys"}})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.Text, "lib") {
			t.Errorf("got %q", out.Text)
		}
		if diff := cmp.Diff([]string{"sys/lib.fxh"}, out.Dependencies); diff != "" {
			t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("angle brackets skip local dir", func(t *testing.T) {
		_, err := compileFile(t, fsys, "sys.fx", Options{})
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("relative to includer", func(t *testing.T) {
		out, err := compileFile(t, fsys, "relative.fx", Options{})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"inc/common.fxh", "inc/relative.fxh"}, out.Dependencies); diff != "" {
			t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("recursive", func(t *testing.T) {
		_, err := compileFile(t, fsys, "loop.fx", Options{})
		var se *SourceError
		if !errors.As(err, &se) || !strings.Contains(se.Message, "recursive include") {
			t.Fatalf("got %v, want recursive include error", err)
		}
		if se.File != "loop2.fxh" || se.Line != 1 {
			t.Errorf("error at %s:%d, want loop2.fxh:1", se.File, se.Line)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := compileFile(t, fsys, "missing.fx", Options{})
		var se *SourceError
		if !errors.As(err, &se) {
			t.Fatalf("got %v, want *SourceError", err)
		}
		if se.Line != 2 || se.Column != 1 {
			t.Errorf("error at %d:%d, want 2:1", se.Line, se.Column)
		}
		if se.Text != "#include \"nope.fxh\"" {
			t.Errorf("context line %q", se.Text)
		}
	})

	t.Run("no file system", func(t *testing.T) {
		_, err := Preprocess(Source{Name: "x.fx", Text: "#include \"a.fxh\""}, Options{})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestLineMarkers(t *testing.T) {
	fsys := includeFS()
	out, err := compileFile(t, fsys, "markers/a.fx", Options{LineMarkers: true})
	if err != nil {
		t.Fatal(err)
	}
	want := "top\n#line 1 \"markers/b.fxh\"\nmid\n#line 3 \"markers/a.fx\"\nbottom\n"
	if diff := cmp.Diff(want, out.Text); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if file, line, _ := out.Lines.Resolve(3); file != "markers/b.fxh" || line != 1 {
		t.Errorf("Resolve(3) = %s:%d", file, line)
	}
	if file, line, _ := out.Lines.Resolve(5); file != "markers/a.fx" || line != 3 {
		t.Errorf("Resolve(5) = %s:%d", file, line)
	}

	out, err = compileFile(t, fsys, "markers/a.fx", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Text != "top\nmid\nbottom\n" {
		t.Errorf("got %q without markers", out.Text)
	}
}

func TestLineDirective(t *testing.T) {
	out := run(t, "#line 100 \"gen.fx\"\nx\n__LINE__", Options{})
	if file, line, _ := out.Lines.Resolve(2); file != "gen.fx" || line != 100 {
		t.Errorf("Resolve(2) = %s:%d, want gen.fx:100", file, line)
	}
	if !strings.HasSuffix(out.Text, "x\n101\n") {
		t.Errorf("got %q", out.Text)
	}

	_, err := Preprocess(Source{Name: "main.fx", Text: "#line 7\n#error here"}, Options{})
	var se *SourceError
	if !errors.As(err, &se) || se.Line != 7 {
		t.Fatalf("got %v, want error on line 7", err)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		line  int
		msg   string
		file  string            // file the error is reported in, default main.fx
		files map[string]string // includable files
	}{
		{"division by zero", "#if 1/0\n#endif", 1, "division by zero", "", nil},
		{"stray endif", "x\n#endif", 2, "#endif without #if", "", nil},
		{"stray else", "#else", 1, "#else without #if", "", nil},
		{"stray elif", "#elif 1", 1, "#elif without #if", "", nil},
		{"else after else", "#if 1\n#else\n#else\n#endif", 3, "#else after #else", "", nil},
		{"unterminated conditional", "#if 1\nx", 1, "unterminated conditional", "", nil},
		{"error directive", "\n#error boom", 2, "#error boom", "", nil},
		{"unterminated comment", "a\n/* never closed", 2, "unterminated comment", "", nil},
		{"unknown directive", "#frobnicate", 1, "unknown directive", "", nil},
		{"bad define", "#define 1X", 1, "identifier", "", nil},
		{"arity", "#define F(a, b) a\nF(1)", 2, "requires 2 arguments", "", nil},
		{"unterminated call", "#define F(a) a\nF(1", 2, "unterminated argument list", "", nil},
		{"bad ifdef", "#ifdef\n#endif", 1, "requires a macro name", "", nil},
		{"directive ends call", "#define F(a) a\nF(1\n#define X\n)", 2, "unterminated argument list", "", nil},
		{"endif closes includer", "#if 1\n#include \"a.fxh\"\nX\n", 1, "#endif without #if", "a.fxh",
			map[string]string{"a.fxh": "#endif\n"}},
		{"else in include", "#if 1\n#include \"a.fxh\"\n#endif\n", 2, "#else without #if", "a.fxh",
			map[string]string{"a.fxh": "x\n#else\n"}},
		{"elif in include", "#ifndef A\n#include \"a.fxh\"\n#endif\n", 1, "#elif without #if", "a.fxh",
			map[string]string{"a.fxh": "#elif 1\n"}},
		{"include leaves conditional open", "#include \"a.fxh\"\n#endif\n", 1, "unterminated conditional", "a.fxh",
			map[string]string{"a.fxh": "#if 1\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts Options
			if tt.files != nil {
				fsys := fstest.MapFS{}
				for name, text := range tt.files {
					fsys[name] = &fstest.MapFile{Data: []byte(text)}
				}
				opts.FS = fsys
			}
			file := tt.file
			if file == "" {
				file = "main.fx"
			}
			out, err := Preprocess(Source{Name: "main.fx", Text: tt.src}, opts)
			if out != nil {
				t.Errorf("partial output returned: %q", out.Text)
			}
			var se *SourceError
			if !errors.As(err, &se) {
				t.Fatalf("got %v, want *SourceError", err)
			}
			if se.File != file || se.Line != tt.line {
				t.Errorf("error at %s:%d, want %s:%d", se.File, se.Line, file, tt.line)
			}
			if !strings.Contains(se.Message, tt.msg) {
				t.Errorf("message %q does not contain %q", se.Message, tt.msg)
			}
		})
	}
}

func TestShortCircuitSkipsDivision(t *testing.T) {
	out := run(t, "#if 0 && 1/0\nno\n#elif 1 ? 2 : 1/0\nyes\n#endif", Options{})
	if !strings.Contains(out.Text, "yes") || strings.Contains(out.Text, "no") {
		t.Errorf("got %q", out.Text)
	}
}

func TestFormatWithContext(t *testing.T) {
	e := &SourceError{File: "a.fx", Line: 3, Column: 5, Message: "bad thing", Text: "foo bar"}
	got := e.FormatWithContext()
	want := "error: bad thing\n  --> a.fx:3:5\n   |\n  3| foo bar\n   |     ^\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if e.Error() != "a.fx:3:5: bad thing" {
		t.Errorf("Error() = %q", e.Error())
	}
}
