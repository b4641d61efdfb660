// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"sort"
	"strings"
)

// Erase returns text with every technique and sampler_state span blanked:
// each non-whitespace byte inside a span becomes a space, whitespace is
// kept. The result has the same length and line structure as text.
func Erase(text string, root *Node) string {
	spans := effectSpans(root)
	if len(spans) == 0 {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text))
	pos := 0
	for _, s := range spans {
		sb.WriteString(text[pos:s.Start])
		for i := s.Start; i < s.End; i++ {
			switch c := text[i]; c {
			case ' ', '\t', '\n', '\r', '\f', '\v':
				sb.WriteByte(c)
			default:
				sb.WriteByte(' ')
			}
		}
		pos = s.End
	}
	sb.WriteString(text[pos:])
	return sb.String()
}

// effectSpans collects the spans to erase, sorted and merged, clamped to
// the root span.
func effectSpans(root *Node) []Span {
	var spans []Span
	Walk(root, func(n *Node) bool {
		switch n.Kind {
		case NodeTechnique, NodeSamplerState:
			spans = append(spans, n.Span)
			return false
		}
		return true
	})
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	merged := spans[:0]
	for _, s := range spans {
		if s.Start < root.Span.Start {
			s.Start = root.Span.Start
		}
		if s.End > root.Span.End {
			s.End = root.Span.End
		}
		if s.End <= s.Start {
			continue
		}
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
			if s.End > merged[n-1].End {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
