// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package binfmt

import (
	"fmt"
	"strings"
)

// Magic starts every effect stream.
const Magic = "GFXE"

// Version is the format version written by this package.
const Version uint16 = 10

// Target identifies the bytecode flavor stored in the shaders.
type Target uint8

const (
	TargetSPIRV   Target = 0
	TargetGLSL    Target = 1
	TargetHLSL    Target = 2
	TargetMSL     Target = 3
	TargetUnknown Target = 255
)

func (t Target) String() string {
	switch t {
	case TargetSPIRV:
		return "spirv"
	case TargetGLSL:
		return "glsl"
	case TargetHLSL:
		return "hlsl"
	case TargetMSL:
		return "msl"
	case TargetUnknown:
		return "unknown"
	}
	return fmt.Sprintf("Target(%d)", uint8(t))
}

// ParseTarget parses a target name as used on the command line.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(s) {
	case "spirv", "spv", "vulkan":
		return TargetSPIRV, nil
	case "glsl", "opengl", "gl":
		return TargetGLSL, nil
	case "hlsl", "d3d", "directx":
		return TargetHLSL, nil
	case "msl", "metal":
		return TargetMSL, nil
	}
	return TargetUnknown, fmt.Errorf("unknown target %q", s)
}

func (t Target) valid() bool {
	return t <= TargetMSL || t == TargetUnknown
}

// Header is the fixed prefix of a stream.
type Header struct {
	Version uint16
	Target  Target
}
