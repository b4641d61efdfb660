// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package preprocess

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errDivisionByZero = errors.New("division by zero in preprocessor expression")

// condition evaluates the controlling expression of #if or #elif.
func (p *preprocessor) condition(text string) (bool, error) {
	toks := tokenize(text)

	// defined must be resolved before macro expansion.
	var pre []token
	for i := 0; i < len(toks); i++ {
		if toks[i].kind != tokIdent || toks[i].text != "defined" {
			pre = append(pre, toks[i])
			continue
		}
		j := nextNonSpace(toks, i+1)
		paren := j < len(toks) && toks[j].text == "("
		if paren {
			j = nextNonSpace(toks, j+1)
		}
		if j >= len(toks) || toks[j].kind != tokIdent {
			return false, fmt.Errorf("'defined' requires a macro name")
		}
		_, ok := p.macros[toks[j].text]
		if paren {
			j = nextNonSpace(toks, j+1)
			if j >= len(toks) || toks[j].text != ")" {
				return false, fmt.Errorf("missing ')' after 'defined'")
			}
		}
		v := "0"
		if ok {
			v = "1"
		}
		pre = append(pre, token{kind: tokNumber, text: v})
		i = j
	}

	expanded, err := p.macros.expand(pre, nil, 0)
	if err != nil {
		return false, err
	}
	e := &exprParser{src: joinTokens(expanded)}
	e.next()
	if e.tok == "" {
		return false, fmt.Errorf("#if with no expression")
	}
	v, err := e.ternary()
	if err != nil {
		return false, err
	}
	if e.tok != "" {
		return false, fmt.Errorf("unexpected %q in preprocessor expression", e.tok)
	}
	return v != 0, nil
}

// exprParser is a precedence-climbing evaluator over int64.
type exprParser struct {
	src string
	pos int
	tok string

	// skip > 0 while evaluating an operand whose value is discarded.
	skip int
}

var twoCharOps = []string{"<<", ">>", "<=", ">=", "==", "!=", "&&", "||"}

func (e *exprParser) next() {
	for e.pos < len(e.src) && strings.IndexByte(" \t\r\f\v", e.src[e.pos]) >= 0 {
		e.pos++
	}
	if e.pos >= len(e.src) {
		e.tok = ""
		return
	}
	start := e.pos
	c := e.src[e.pos]
	switch {
	case isIdentChar(c):
		for e.pos < len(e.src) && isIdentChar(e.src[e.pos]) {
			e.pos++
		}
	default:
		e.pos++
		if e.pos < len(e.src) {
			pair := e.src[start : e.pos+1]
			for _, op := range twoCharOps {
				if pair == op {
					e.pos++
					break
				}
			}
		}
	}
	e.tok = e.src[start:e.pos]
}

func (e *exprParser) ternary() (int64, error) {
	cond, err := e.binary(1)
	if err != nil {
		return 0, err
	}
	if e.tok != "?" {
		return cond, nil
	}
	e.next()
	if cond == 0 {
		e.skip++
	}
	a, err := e.ternary()
	if cond == 0 {
		e.skip--
	}
	if err != nil {
		return 0, err
	}
	if e.tok != ":" {
		return 0, fmt.Errorf("expected ':' in conditional expression")
	}
	e.next()
	if cond != 0 {
		e.skip++
	}
	b, err := e.ternary()
	if cond != 0 {
		e.skip--
	}
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return a, nil
	}
	return b, nil
}

func precedence(op string) int {
	switch op {
	case "||":
		return 1
	case "&&":
		return 2
	case "|":
		return 3
	case "^":
		return 4
	case "&":
		return 5
	case "==", "!=":
		return 6
	case "<", "<=", ">", ">=":
		return 7
	case "<<", ">>":
		return 8
	case "+", "-":
		return 9
	case "*", "/", "%":
		return 10
	}
	return 0
}

func (e *exprParser) binary(minPrec int) (int64, error) {
	lhs, err := e.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := e.tok
		prec := precedence(op)
		if prec == 0 || prec < minPrec {
			return lhs, nil
		}
		e.next()
		short := (op == "&&" && lhs == 0) || (op == "||" && lhs != 0)
		if short {
			e.skip++
		}
		rhs, err := e.binary(prec + 1)
		if short {
			e.skip--
		}
		if err != nil {
			return 0, err
		}
		if lhs, err = e.apply(op, lhs, rhs); err != nil {
			return 0, err
		}
	}
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (e *exprParser) apply(op string, a, b int64) (int64, error) {
	switch op {
	case "||":
		return b2i(a != 0 || b != 0), nil
	case "&&":
		return b2i(a != 0 && b != 0), nil
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	case "==":
		return b2i(a == b), nil
	case "!=":
		return b2i(a != b), nil
	case "<":
		return b2i(a < b), nil
	case "<=":
		return b2i(a <= b), nil
	case ">":
		return b2i(a > b), nil
	case ">=":
		return b2i(a >= b), nil
	case "<<":
		return a << uint64(b&63), nil
	case ">>":
		return a >> uint64(b&63), nil
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/", "%":
		if b == 0 {
			if e.skip > 0 {
				return 0, nil
			}
			return 0, errDivisionByZero
		}
		if op == "/" {
			return a / b, nil
		}
		return a % b, nil
	}
	return 0, fmt.Errorf("unknown operator %q", op)
}

func (e *exprParser) unary() (int64, error) {
	switch e.tok {
	case "!", "~", "-", "+":
		op := e.tok
		e.next()
		v, err := e.unary()
		if err != nil {
			return 0, err
		}
		switch op {
		case "!":
			return b2i(v == 0), nil
		case "~":
			return ^v, nil
		case "-":
			return -v, nil
		}
		return v, nil
	}
	return e.primary()
}

func (e *exprParser) primary() (int64, error) {
	tok := e.tok
	switch {
	case tok == "":
		return 0, fmt.Errorf("unexpected end of preprocessor expression")
	case tok == "(":
		e.next()
		v, err := e.ternary()
		if err != nil {
			return 0, err
		}
		if e.tok != ")" {
			return 0, fmt.Errorf("missing ')' in preprocessor expression")
		}
		e.next()
		return v, nil
	case isDigit(tok[0]):
		e.next()
		return parseIntLiteral(tok)
	case isIdentStart(tok[0]):
		// Identifiers left after expansion evaluate to 0.
		e.next()
		return 0, nil
	}
	return 0, fmt.Errorf("unexpected %q in preprocessor expression", tok)
}

func parseIntLiteral(s string) (int64, error) {
	lit := strings.TrimRight(s, "uUlL")
	v, err := strconv.ParseInt(lit, 0, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(lit, 0, 64)
		if uerr != nil {
			return 0, fmt.Errorf("invalid integer %q in preprocessor expression", s)
		}
		v = int64(u)
	}
	return v, nil
}
