// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package model

import "fmt"

// Error reports a structural problem found while assembling an effect.
type Error struct {
	// Entity is the kind of object at fault, such as "parameter" or "pass".
	Entity  string
	Name    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %s", e.Entity, e.Message)
	}
	return fmt.Sprintf("%s %q: %s", e.Entity, e.Name, e.Message)
}

func errorf(entity, name, format string, args ...any) *Error {
	return &Error{Entity: entity, Name: name, Message: fmt.Sprintf(format, args...)}
}
