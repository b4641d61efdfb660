// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package toolchain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Stage is the pipeline stage a shader runs in.
type Stage uint8

const (
	StageVertex Stage = iota
	StagePixel
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	default:
		return fmt.Sprintf("Stage(%d)", s)
	}
}

func (s Stage) prefix() string {
	if s == StagePixel {
		return "ps"
	}
	return "vs"
}

// ErrInvalidProfile is returned by ParseProfile for malformed profile names.
var ErrInvalidProfile = errors.New("invalid shader profile")

// Profile is a target shader profile such as vs_3_0 or ps_4_0_level_9_1.
type Profile struct {
	Stage Stage
	Major uint8
	Minor uint8

	// LevelMajor and LevelMinor hold the feature level of
	// *_4_0_level_9_x profiles. Both are zero otherwise.
	LevelMajor uint8
	LevelMinor uint8
}

// ParseProfile parses a profile name.
func ParseProfile(s string) (Profile, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "_")
	if len(parts) != 3 && len(parts) != 6 {
		return Profile{}, fmt.Errorf("%w: %q", ErrInvalidProfile, s)
	}
	var p Profile
	switch parts[0] {
	case "vs":
		p.Stage = StageVertex
	case "ps":
		p.Stage = StagePixel
	default:
		return Profile{}, fmt.Errorf("%w: %q: unsupported stage %q", ErrInvalidProfile, s, parts[0])
	}

	nums := make([]uint8, 0, 4)
	for i, part := range parts[1:] {
		if i == 2 {
			if part != "level" {
				return Profile{}, fmt.Errorf("%w: %q", ErrInvalidProfile, s)
			}
			continue
		}
		n, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return Profile{}, fmt.Errorf("%w: %q", ErrInvalidProfile, s)
		}
		nums = append(nums, uint8(n))
	}
	p.Major, p.Minor = nums[0], nums[1]
	if len(nums) == 4 {
		p.LevelMajor, p.LevelMinor = nums[2], nums[3]
	}
	return p, nil
}

// MustParseProfile is like ParseProfile but panics on error.
func MustParseProfile(s string) Profile {
	p, err := ParseProfile(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the canonical profile name.
func (p Profile) String() string {
	s := fmt.Sprintf("%s_%d_%d", p.Stage.prefix(), p.Major, p.Minor)
	if p.LevelMajor != 0 {
		s += fmt.Sprintf("_level_%d_%d", p.LevelMajor, p.LevelMinor)
	}
	return s
}

// Legacy returns the profile to use for runtimes that only execute older
// shader models: *_4_0_level_9_1 becomes *_2_0 and *_4_0_level_9_3 becomes
// *_3_0. Other profiles are returned unchanged.
func (p Profile) Legacy() Profile {
	if p.Major != 4 || p.Minor != 0 || p.LevelMajor != 9 {
		return p
	}
	switch p.LevelMinor {
	case 1:
		return Profile{Stage: p.Stage, Major: 2}
	case 3:
		return Profile{Stage: p.Stage, Major: 3}
	}
	return p
}
