// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package state

import (
	"fmt"
	"strconv"
	"strings"
)

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", value)
}

func parseInt(value string) (int64, error) {
	v, err := strconv.ParseInt(value, 0, 64)
	if err != nil {
		// 0xFFFFFFFF and friends are written as unsigned bit patterns.
		u, uerr := strconv.ParseUint(value, 0, 32)
		if uerr != nil {
			return 0, fmt.Errorf("invalid integer %q", value)
		}
		return int64(int32(uint32(u))), nil
	}
	return v, nil
}

func parseInt32(value string) (int32, error) {
	v, err := parseInt(value)
	if err != nil {
		return 0, err
	}
	if v < -1<<31 || v > 1<<31-1 {
		return 0, fmt.Errorf("integer %q out of range", value)
	}
	return int32(v), nil
}

func parseFloat(value string) (float32, error) {
	f, err := strconv.ParseFloat(strings.TrimRight(value, "fF"), 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", value)
	}
	return float32(f), nil
}

func parseEnum[T any](kind string, names map[string]T, value string) (T, error) {
	v, ok := names[strings.ToLower(value)]
	if !ok {
		var zero T
		return zero, fmt.Errorf("invalid %s %q", kind, value)
	}
	return v, nil
}

// parseColorMask accepts "Red|Green", "All", "None" or an integer.
func parseColorMask(value string) (ColorWriteChannels, error) {
	if v, err := parseInt(value); err == nil {
		if v < 0 || v > int64(ColorWriteAll) {
			return 0, fmt.Errorf("color write mask %q out of range", value)
		}
		return ColorWriteChannels(v), nil
	}
	var mask ColorWriteChannels
	for _, part := range strings.Split(value, "|") {
		c, err := parseEnum("color channel", colorWriteNames, strings.TrimSpace(part))
		if err != nil {
			return 0, err
		}
		mask |= c
	}
	return mask, nil
}

// parseColor accepts a packed 0xAARRGGBB integer.
func parseColor(value string) (Color, error) {
	u, err := strconv.ParseUint(value, 0, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q", value)
	}
	return ColorFromARGB(uint32(u)), nil
}
