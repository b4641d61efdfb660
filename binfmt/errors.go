// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package binfmt

import (
	"errors"
	"fmt"
)

var (
	// ErrBadMagic reports a stream that does not start with Magic.
	ErrBadMagic = errors.New("not an effect stream")

	// ErrUnsupportedVersion reports a stream of another format version.
	ErrUnsupportedVersion = errors.New("unsupported format version")

	// ErrTruncated reports a stream that ends early.
	ErrTruncated = errors.New("unexpected end of data")
)

// FormatError reports a malformed effect stream.
type FormatError struct {
	// Offset is the byte offset the problem was found at.
	Offset  int
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("effect stream: offset %d: %v", e.Offset, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("effect stream: offset %d: %s: %v", e.Offset, e.Message, e.Err)
	}
	return fmt.Sprintf("effect stream: offset %d: %s", e.Offset, e.Message)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
