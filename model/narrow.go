// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package model

import "golang.org/x/exp/constraints"

// narrow converts v to T, reporting whether the value survived.
func narrow[T constraints.Integer](v int) (T, bool) {
	t := T(v)
	return t, int(t) == v
}
