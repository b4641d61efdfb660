// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package preprocess

import (
	"errors"
	"fmt"
	"strings"
)

// maxExpansionDepth bounds nested macro expansion.
const maxExpansionDepth = 256

type macro struct {
	name     string
	funcLike bool
	params   []string
	variadic bool
	body     []token
}

// parseDefine parses the text following "#define".
func parseDefine(rest string) (*macro, error) {
	rest = strings.TrimLeft(rest, " \t")
	n := 0
	for n < len(rest) && isIdentChar(rest[n]) {
		n++
	}
	if n == 0 || !isIdentStart(rest[0]) {
		return nil, fmt.Errorf("macro name must be an identifier")
	}
	m := &macro{name: rest[:n]}
	rest = rest[n:]

	if strings.HasPrefix(rest, "(") {
		m.funcLike = true
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return nil, fmt.Errorf("missing ')' in parameter list of macro %q", m.name)
		}
		list := strings.TrimSpace(rest[1:end])
		rest = rest[end+1:]
		if list != "" {
			for _, p := range strings.Split(list, ",") {
				p = strings.TrimSpace(p)
				switch {
				case p == "...":
					m.variadic = true
					m.params = append(m.params, "__VA_ARGS__")
				case m.variadic:
					return nil, fmt.Errorf("'...' must be the last parameter of macro %q", m.name)
				case !isIdentifier(p):
					return nil, fmt.Errorf("invalid parameter %q in macro %q", p, m.name)
				default:
					for _, q := range m.params {
						if q == p {
							return nil, fmt.Errorf("duplicate parameter %q in macro %q", p, m.name)
						}
					}
					m.params = append(m.params, p)
				}
			}
		}
	} else if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return nil, fmt.Errorf("whitespace required after macro name %q", m.name)
	}
	m.body = trimSpaceTokens(tokenize(rest))
	return m, nil
}

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

func (m *macro) paramIndex(name string) int {
	for i, p := range m.params {
		if p == name {
			return i
		}
	}
	return -1
}

// macroTable holds the active macro definitions.
type macroTable map[string]*macro

func hideWith(hide map[string]bool, name string) map[string]bool {
	next := make(map[string]bool, len(hide)+1)
	for k := range hide {
		next[k] = true
	}
	next[name] = true
	return next
}

// expand performs macro replacement over toks. Names in hide are not
// expanded again.
func (t macroTable) expand(toks []token, hide map[string]bool, depth int) ([]token, error) {
	if depth > maxExpansionDepth {
		return nil, fmt.Errorf("macro expansion too deep")
	}
	out := make([]token, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		m, ok := t[tok.text]
		if tok.kind != tokIdent || !ok || hide[tok.text] {
			out = append(out, tok)
			continue
		}
		if !m.funcLike {
			sub, err := t.expand(m.body, hideWith(hide, m.name), depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}

		open := i + 1
		for open < len(toks) && toks[open].kind == tokSpace {
			open++
		}
		if open >= len(toks) || toks[open].text != "(" {
			// A function-like macro name without arguments is left alone.
			out = append(out, tok)
			continue
		}
		args, end, err := collectArgs(toks, open)
		if err != nil {
			return nil, fmt.Errorf("macro %q: %w", m.name, err)
		}
		if err := m.checkArity(args); err != nil {
			return nil, err
		}
		body, err := t.substitute(m, args, hide, depth)
		if err != nil {
			return nil, err
		}
		sub, err := t.expand(body, hideWith(hide, m.name), depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
		i = end
	}
	return out, nil
}

var errUnterminatedArgs = errors.New("unterminated argument list")

// collectArgs splits the argument list starting at the '(' at index open.
// It returns the arguments and the index of the closing ')'.
func collectArgs(toks []token, open int) ([][]token, int, error) {
	var args [][]token
	var cur []token
	depth := 0
	for i := open + 1; i < len(toks); i++ {
		tok := toks[i]
		switch tok.text {
		case "(":
			depth++
		case ")":
			if depth == 0 {
				args = append(args, cur)
				return args, i, nil
			}
			depth--
		case ",":
			if depth == 0 {
				args = append(args, cur)
				cur = nil
				continue
			}
		}
		cur = append(cur, tok)
	}
	return nil, 0, errUnterminatedArgs
}

func (m *macro) checkArity(args [][]token) error {
	want := len(m.params)
	got := len(args)
	// "F()" passes one empty argument.
	if want == 0 && got == 1 && len(trimSpaceTokens(args[0])) == 0 {
		return nil
	}
	if m.variadic {
		if got < want-1 {
			return fmt.Errorf("macro %q requires at least %d arguments, got %d", m.name, want-1, got)
		}
		return nil
	}
	if got != want {
		return fmt.Errorf("macro %q requires %d arguments, got %d", m.name, want, got)
	}
	return nil
}

// substitute replaces parameters in the macro body with arguments, applying
// the # and ## operators.
func (t macroTable) substitute(m *macro, args [][]token, hide map[string]bool, depth int) ([]token, error) {
	argFor := func(idx int) []token {
		if m.variadic && idx == len(m.params)-1 {
			var va []token
			for k := idx; k < len(args); k++ {
				if k > idx {
					va = append(va, token{kind: tokPunct, text: ","})
				}
				va = append(va, args[k]...)
			}
			return trimSpaceTokens(va)
		}
		if idx < len(args) {
			return trimSpaceTokens(args[idx])
		}
		return nil
	}

	body := m.body
	var out []token
	for k := 0; k < len(body); k++ {
		tok := body[k]
		if tok.text == "#" {
			next := nextNonSpace(body, k+1)
			if next < len(body) {
				if idx := m.paramIndex(body[next].text); idx >= 0 {
					out = append(out, token{kind: tokString, text: stringize(argFor(idx))})
					k = next
					continue
				}
			}
			out = append(out, tok)
			continue
		}
		idx := -1
		if tok.kind == tokIdent {
			idx = m.paramIndex(tok.text)
		}
		if idx < 0 {
			out = append(out, tok)
			continue
		}
		arg := argFor(idx)
		if adjacentPaste(body, k) {
			out = append(out, arg...)
			continue
		}
		expanded, err := t.expand(arg, hide, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return paste(out), nil
}

func nextNonSpace(toks []token, i int) int {
	for i < len(toks) && toks[i].kind == tokSpace {
		i++
	}
	return i
}

func adjacentPaste(body []token, k int) bool {
	if n := nextNonSpace(body, k+1); n < len(body) && body[n].text == "##" {
		return true
	}
	for p := k - 1; p >= 0; p-- {
		if body[p].kind == tokSpace {
			continue
		}
		return body[p].text == "##"
	}
	return false
}

// paste applies the ## operator.
func paste(toks []token) []token {
	out := make([]token, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		if toks[i].text != "##" {
			out = append(out, toks[i])
			continue
		}
		for len(out) > 0 && out[len(out)-1].kind == tokSpace {
			out = out[:len(out)-1]
		}
		j := nextNonSpace(toks, i+1)
		left := ""
		if len(out) > 0 {
			left = out[len(out)-1].text
			out = out[:len(out)-1]
		}
		right := ""
		if j < len(toks) {
			right = toks[j].text
		}
		out = append(out, tokenize(left+right)...)
		i = j
	}
	return out
}

func stringize(arg []token) string {
	s := joinTokens(arg)
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
