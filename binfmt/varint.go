// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package binfmt

import "errors"

// MaxVarintLen is the longest encoding of a 32-bit value.
const MaxVarintLen = 5

var (
	errVarintTruncated = errors.New("truncated varint")
	errVarintOverflow  = errors.New("varint overflows 32 bits")
)

// AppendVarint appends the zigzag varint encoding of v to b.
func AppendVarint(b []byte, v int32) []byte {
	zz := uint32(v<<1) ^ uint32(v>>31)
	for zz >= 0x80 {
		b = append(b, byte(zz)|0x80)
		zz >>= 7
	}
	return append(b, byte(zz))
}

// VarintLen returns the encoded length of v.
func VarintLen(v int32) int {
	zz := uint32(v<<1) ^ uint32(v>>31)
	n := 1
	for zz >= 0x80 {
		zz >>= 7
		n++
	}
	return n
}

// ReadVarint decodes a zigzag varint from the start of b and returns the
// value and the number of bytes consumed.
func ReadVarint(b []byte) (int32, int, error) {
	var zz uint32
	for i := 0; i < MaxVarintLen; i++ {
		if i >= len(b) {
			return 0, 0, errVarintTruncated
		}
		c := b[i]
		if i == MaxVarintLen-1 && c > 0x0f {
			return 0, 0, errVarintOverflow
		}
		zz |= uint32(c&0x7f) << (7 * i)
		if c < 0x80 {
			return int32(zz>>1) ^ -int32(zz&1), i + 1, nil
		}
	}
	return 0, 0, errVarintOverflow
}
