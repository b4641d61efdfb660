// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package preprocess

import (
	"strings"
)

// stripComments replaces comments with a single space followed by the
// newlines they contained. String literals are copied untouched. On an
// unterminated block comment it returns the line the comment started on.
func stripComments(src string) (string, int) {
	var sb strings.Builder
	sb.Grow(len(src))
	line := 1
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"':
			j := i + 1
			for j < len(src) && src[j] != '"' && src[j] != '\n' {
				if src[j] == '\\' && j+1 < len(src) && src[j+1] != '\n' {
					j++
				}
				j++
			}
			if j < len(src) && src[j] == '"' {
				j++
			}
			sb.WriteString(src[i:j])
			i = j
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			sb.WriteByte(' ')
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			start := line
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return "", start
			}
			body := src[i+2 : i+2+end]
			sb.WriteByte(' ')
			n := strings.Count(body, "\n")
			sb.WriteString(strings.Repeat("\n", n))
			line += n
			i += 2 + end + 2
		default:
			if c == '\n' {
				line++
			}
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), 0
}

// logicalLine is one line after continuation splicing.
type logicalLine struct {
	text string
	line int // physical line the logical line starts on
	span int // physical lines consumed
}

// splitLines joins backslash-continued lines.
func splitLines(src string) []logicalLine {
	src = strings.TrimSuffix(src, "\n")
	if src == "" {
		return nil
	}
	phys := strings.Split(src, "\n")
	out := make([]logicalLine, 0, len(phys))
	for i := 0; i < len(phys); {
		start := i
		var sb strings.Builder
		for {
			l := phys[i]
			i++
			if t := strings.TrimRight(l, " \t"); strings.HasSuffix(t, "\\") && i < len(phys) {
				sb.WriteString(t[:len(t)-1])
				continue
			}
			sb.WriteString(l)
			break
		}
		out = append(out, logicalLine{text: sb.String(), line: start + 1, span: i - start})
	}
	return out
}

type tokKind uint8

const (
	tokSpace tokKind = iota
	tokIdent
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokKind
	text string
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// tokenize splits a line into preprocessing tokens. Whitespace runs are kept
// as tokens so that joining the tokens reproduces the input.
func tokenize(s string) []token {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		j := i + 1
		var kind tokKind
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\r' || s[j] == '\f' || s[j] == '\v') {
				j++
			}
			kind = tokSpace
		case isIdentStart(c):
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			kind = tokIdent
		case isDigit(c) || (c == '.' && j < len(s) && isDigit(s[j])):
			for j < len(s) {
				d := s[j]
				if (d == '+' || d == '-') && (s[j-1] == 'e' || s[j-1] == 'E') {
					j++
					continue
				}
				if !isIdentChar(d) && d != '.' {
					break
				}
				j++
			}
			kind = tokNumber
		case c == '"':
			for j < len(s) && s[j] != '"' {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			if j < len(s) {
				j++
			} else {
				j = len(s)
			}
			kind = tokString
		case c == '#' && j < len(s) && s[j] == '#':
			j++
			kind = tokPunct
		default:
			kind = tokPunct
		}
		toks = append(toks, token{kind: kind, text: s[i:j]})
		i = j
	}
	return toks
}

func joinTokens(toks []token) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(t.text)
	}
	return sb.String()
}

// trimSpaceTokens drops leading and trailing whitespace tokens.
func trimSpaceTokens(toks []token) []token {
	for len(toks) > 0 && toks[0].kind == tokSpace {
		toks = toks[1:]
	}
	for len(toks) > 0 && toks[len(toks)-1].kind == tokSpace {
		toks = toks[:len(toks)-1]
	}
	return toks
}
