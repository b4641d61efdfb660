// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fxc

import (
	"errors"
	"strings"
)

// Stage names a compilation stage.
type Stage string

const (
	StagePreprocess Stage = "preprocess"
	StageParse      Stage = "parse"
	StageCompile    Stage = "compile"
	StageModel      Stage = "model"
	StageSerialize  Stage = "serialize"
)

// Error is a failed compilation. It keeps the warnings gathered before the
// failure.
type Error struct {
	Stage    Stage
	Warnings []string
	Err      error
}

func (e *Error) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Warnings returns the warnings carried by err, if it is or wraps an *Error.
func Warnings(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Warnings
	}
	return nil
}

// Multi combines errors. Nil errors are dropped, a single error is
// returned as is, and nested MultiErrors are flattened.
func Multi(errs ...error) error {
	var nonNil MultiError
	for _, err := range errs {
		if err == nil {
			continue
		}
		if m, ok := err.(MultiError); ok {
			nonNil = append(nonNil, m...)
		} else {
			nonNil = append(nonNil, err)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	}
	return nonNil
}

// MultiError holds several independent failures.
type MultiError []error

func (me MultiError) Error() string {
	var sb strings.Builder
	sb.WriteString("multiple errors: ")
	for i, e := range me {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// Unwrap returns the combined errors for errors.Is and errors.As.
func (me MultiError) Unwrap() []error {
	return me
}
