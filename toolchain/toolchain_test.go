// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package toolchain

import (
	"errors"
	"io"
	"testing"
)

func TestParseProfile(t *testing.T) {
	tests := []struct {
		input string
		want  Profile
		str   string
	}{
		{"vs_3_0", Profile{Stage: StageVertex, Major: 3}, "vs_3_0"},
		{"ps_5_0", Profile{Stage: StagePixel, Major: 5}, "ps_5_0"},
		{"PS_4_1", Profile{Stage: StagePixel, Major: 4, Minor: 1}, "ps_4_1"},
		{"vs_4_0_level_9_1", Profile{Stage: StageVertex, Major: 4, LevelMajor: 9, LevelMinor: 1}, "vs_4_0_level_9_1"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProfile(tt.input)
			if err != nil {
				t.Fatalf("ParseProfile(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseProfile(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if got.String() != tt.str {
				t.Errorf("String() = %q, want %q", got.String(), tt.str)
			}
		})
	}
}

func TestParseProfileInvalid(t *testing.T) {
	for _, s := range []string{"", "vs", "vs_3", "cs_5_0", "vs_a_0", "vs_4_0_level_9", "vs_4_0_lvl_9_1", "vs_300_0"} {
		if _, err := ParseProfile(s); !errors.Is(err, ErrInvalidProfile) {
			t.Errorf("ParseProfile(%q) = %v, want ErrInvalidProfile", s, err)
		}
	}
}

func TestLegacy(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"vs_4_0_level_9_1", "vs_2_0"},
		{"ps_4_0_level_9_1", "ps_2_0"},
		{"ps_4_0_level_9_3", "ps_3_0"},
		{"vs_4_0", "vs_4_0"},
		{"vs_5_0", "vs_5_0"},
		{"vs_4_0_level_9_2", "vs_4_0_level_9_2"},
	}
	for _, tt := range tests {
		if got := MustParseProfile(tt.in).Legacy().String(); got != tt.want {
			t.Errorf("%s.Legacy() = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFlags(t *testing.T) {
	if !FlagsFor(true).Debug() || FlagsFor(false).Debug() {
		t.Error("FlagsFor does not select debug correctly")
	}
	if FlagsFor(false) != FlagOptimize {
		t.Errorf("FlagsFor(false) = %v", FlagsFor(false))
	}
	if s := (FlagDebug | FlagOptimize).String(); s != "debug|optimize" {
		t.Errorf("String() = %q", s)
	}
}

func TestLog(t *testing.T) {
	var l Log
	if !l.Empty() {
		t.Error("new log not empty")
	}
	l.Warnf("unused %s", "x")
	var other Log
	other.Infof("took %dms", 3)
	l.Merge(other)
	if got := l.String(); got != "warning: unused x\ninfo: took 3ms\n" {
		t.Errorf("String() = %q", got)
	}
}

func TestCompilerError(t *testing.T) {
	e := &CompilerError{
		File:    "a.fx",
		Line:    3,
		Column:  7,
		Entry:   "vs_main",
		Profile: MustParseProfile("vs_3_0"),
		Message: "unknown identifier",
		Err:     io.ErrUnexpectedEOF,
	}
	if got := e.Error(); got != "a.fx:3:7: vs_main (vs_3_0): unknown identifier" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(e, io.ErrUnexpectedEOF) {
		t.Error("CompilerError does not unwrap")
	}
	bare := &CompilerError{Message: "boom"}
	if bare.Error() != "boom" {
		t.Errorf("Error() = %q", bare.Error())
	}
}
