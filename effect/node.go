// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

// NodeKind tags a parse tree node.
type NodeKind uint8

const (
	NodeOther NodeKind = iota
	NodeTechnique
	NodePass
	NodeSamplerState
)

func (k NodeKind) String() string {
	switch k {
	case NodeTechnique:
		return "technique"
	case NodePass:
		return "pass"
	case NodeSamplerState:
		return "sampler_state"
	default:
		return "other"
	}
}

// Span is a half-open byte range [Start, End) of the parsed text.
type Span struct {
	Start int
	End   int
}

// Node is a parse tree node. The root is a NodeOther spanning the whole
// text; its children are the technique and sampler_state nodes in source
// order. Technique nodes hold pass nodes.
type Node struct {
	Kind     NodeKind
	Span     Span
	Children []*Node

	// Name is the technique, pass or sampler name. It may be empty for
	// techniques and passes.
	Name string

	// Line and Column locate the node's first token.
	Line   int
	Column int

	// Assignments holds the body of pass and sampler_state nodes.
	Assignments []Assignment
}

// Assignment is one "Key = Value;" or "Key[Index] = Value;" statement.
type Assignment struct {
	Key string

	// Index is -1 when the key has no subscript.
	Index int

	// Value is the raw value text. It is empty for compile expressions.
	Value string

	// Compile is set for "compile <profile> <entry>()" values.
	Compile *CompileExpr

	Span   Span
	Line   int
	Column int
}

// CompileExpr is a "compile <profile> <entry>(...)" value.
type CompileExpr struct {
	Profile string
	Entry   string
}

// Walk calls fn for n and every descendant, parents first. Returning false
// skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}
