// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"fmt"
	"strconv"
)

// Parser builds the effect parse tree from tokens.
type Parser struct {
	file    string
	source  string
	tokens  []Token
	current int
	errors  SourceErrors
}

// Parse parses the effect constructs of text. name identifies the text in
// diagnostics. On failure the error is a SourceErrors holding every
// malformed construct.
func Parse(name, text string) (*Node, error) {
	tokens, lexErr := NewLexer(text).Tokenize()
	if lexErr != nil {
		lexErr.File = name
		lexErr.Source = text
		return nil, SourceErrors{lexErr}
	}
	p := &Parser{file: name, source: text, tokens: tokens}
	root := p.parse()
	if len(p.errors) > 0 {
		return nil, p.errors
	}
	return root, nil
}

func isTechniqueKeyword(s string) bool {
	return s == "technique" || s == "technique10" || s == "technique11"
}

func (p *Parser) parse() *Node {
	root := &Node{
		Kind:   NodeOther,
		Span:   Span{Start: 0, End: len(p.source)},
		Line:   1,
		Column: 1,
	}
	var open []Token
	for !p.isAtEnd() {
		tok := p.peek()
		switch {
		case len(open) == 0 && tok.Kind == TokenIdent && isTechniqueKeyword(tok.Text):
			if n := p.technique(); n != nil {
				root.Children = append(root.Children, n)
			}
			continue
		case len(open) == 0 && tok.Kind == TokenEqual && p.peekAt(1).Kind == TokenIdent && p.peekAt(1).Text == "sampler_state":
			if n := p.samplerState(); n != nil {
				root.Children = append(root.Children, n)
			}
			continue
		case tok.Kind == TokenLeftBrace:
			open = append(open, tok)
		case tok.Kind == TokenRightBrace:
			if len(open) == 0 {
				p.errorAt(tok, "unmatched '}'")
			} else {
				open = open[:len(open)-1]
			}
		}
		p.advance()
	}
	if len(open) > 0 {
		p.errorAt(open[0], "'{' is never closed")
	}
	return root
}

func (p *Parser) technique() *Node {
	kw := p.advance()
	n := &Node{Kind: NodeTechnique, Line: kw.Line, Column: kw.Column}
	if p.check(TokenIdent) {
		n.Name = p.advance().Text
	}
	if !p.annotations() {
		return nil
	}
	brace := p.peek()
	if !p.match(TokenLeftBrace) {
		p.errorAt(brace, "expected '{' after technique, got %s", brace)
		p.synchronize()
		return nil
	}
	for !p.check(TokenRightBrace) {
		if p.isAtEnd() {
			p.errorAt(brace, "technique body is never closed")
			return nil
		}
		tok := p.peek()
		if tok.Kind != TokenIdent || tok.Text != "pass" {
			p.errorAt(tok, "expected 'pass', got %s", tok)
			p.synchronize()
			continue
		}
		if pass := p.pass(); pass != nil {
			n.Children = append(n.Children, pass)
		}
	}
	end := p.advance()
	n.Span = Span{Start: kw.Offset, End: end.End()}
	return n
}

func (p *Parser) pass() *Node {
	kw := p.advance()
	n := &Node{Kind: NodePass, Line: kw.Line, Column: kw.Column}
	if p.check(TokenIdent) {
		n.Name = p.advance().Text
	}
	if !p.annotations() {
		return nil
	}
	body, end, ok := p.assignmentBlock("pass")
	if !ok {
		return nil
	}
	n.Assignments = body
	n.Span = Span{Start: kw.Offset, End: end.End()}
	return n
}

func (p *Parser) samplerState() *Node {
	eqIndex := p.current
	eq := p.advance()
	p.advance() // sampler_state

	n := &Node{Kind: NodeSamplerState, Line: eq.Line, Column: eq.Column}
	name, ok := p.samplerName(eqIndex)
	if !ok {
		p.errorAt(eq, "sampler_state must initialize a sampler declaration")
	}
	n.Name = name
	body, end, bodyOK := p.assignmentBlock("sampler_state")
	if !ok || !bodyOK {
		return nil
	}
	n.Assignments = body
	n.Span = Span{Start: eq.Offset, End: end.End()}
	return n
}

// samplerName finds the declared name in front of the '=' at eqIndex:
// the identifier before the first ':' of the declaration, or else the
// identifier right before '='.
func (p *Parser) samplerName(eqIndex int) (string, bool) {
	start := eqIndex
	colon := -1
	for i := eqIndex - 1; i >= 0; i-- {
		k := p.tokens[i].Kind
		if k == TokenSemicolon || k == TokenLeftBrace || k == TokenRightBrace {
			break
		}
		if k == TokenColon {
			colon = i
		}
		start = i
	}
	idx := eqIndex - 1
	if colon >= 0 {
		idx = colon - 1
	}
	if idx < start || p.tokens[idx].Kind != TokenIdent {
		return "", false
	}
	return p.tokens[idx].Text, true
}

// annotations skips an optional <...> annotation block.
func (p *Parser) annotations() bool {
	if !p.check(TokenLess) {
		return true
	}
	open := p.advance()
	depth := 1
	for depth > 0 {
		if p.isAtEnd() {
			p.errorAt(open, "annotation block is never closed")
			return false
		}
		switch p.advance().Kind {
		case TokenLess:
			depth++
		case TokenGreater:
			depth--
		}
	}
	return true
}

// assignmentBlock parses "{ assignment* }" and returns the closing brace.
func (p *Parser) assignmentBlock(what string) ([]Assignment, Token, bool) {
	brace := p.peek()
	if !p.match(TokenLeftBrace) {
		p.errorAt(brace, "expected '{' after %s, got %s", what, brace)
		p.synchronize()
		return nil, Token{}, false
	}
	var body []Assignment
	for !p.check(TokenRightBrace) {
		if p.isAtEnd() {
			p.errorAt(brace, "%s body is never closed", what)
			return nil, Token{}, false
		}
		a, err := p.assignment()
		if err != nil {
			p.errors.Add(err)
			p.skipAssignment()
			continue
		}
		body = append(body, a)
	}
	return body, p.advance(), true
}

func (p *Parser) assignment() (Assignment, *SourceError) {
	key := p.peek()
	if key.Kind != TokenIdent {
		return Assignment{}, p.newError(key, "expected state name, got %s", key)
	}
	p.advance()
	a := Assignment{Key: key.Text, Index: -1, Line: key.Line, Column: key.Column}

	if p.match(TokenLeftBracket) {
		num := p.peek()
		if num.Kind != TokenNumber {
			return Assignment{}, p.newError(num, "expected index, got %s", num)
		}
		p.advance()
		idx, err := strconv.ParseUint(num.Text, 0, 8)
		if err != nil {
			return Assignment{}, p.newError(num, "invalid index %s", num.Text)
		}
		a.Index = int(idx)
		if err := p.expect(TokenRightBracket); err != nil {
			return Assignment{}, err
		}
	}
	if err := p.expect(TokenEqual); err != nil {
		return Assignment{}, err
	}

	if p.check(TokenIdent) && p.peek().Text == "compile" {
		p.advance()
		profile := p.peek()
		if profile.Kind != TokenIdent {
			return Assignment{}, p.newError(profile, "expected shader profile after 'compile', got %s", profile)
		}
		p.advance()
		entry := p.peek()
		if entry.Kind != TokenIdent {
			return Assignment{}, p.newError(entry, "expected entry point name, got %s", entry)
		}
		p.advance()
		if err := p.expect(TokenLeftParen); err != nil {
			return Assignment{}, err
		}
		for depth := 1; depth > 0; {
			if p.isAtEnd() {
				return Assignment{}, p.newError(entry, "argument list of %s is never closed", entry.Text)
			}
			switch p.advance().Kind {
			case TokenLeftParen:
				depth++
			case TokenRightParen:
				depth--
			}
		}
		a.Compile = &CompileExpr{Profile: profile.Text, Entry: entry.Text}
	} else {
		first := p.peek()
		last := first
		n := 0
		for !p.check(TokenSemicolon) && !p.check(TokenRightBrace) && !p.isAtEnd() {
			last = p.advance()
			n++
		}
		if n == 0 {
			return Assignment{}, p.newError(first, "missing value for %s", key.Text)
		}
		a.Value = p.source[first.Offset:last.End()]
	}

	semi := p.peek()
	if err := p.expect(TokenSemicolon); err != nil {
		return Assignment{}, err
	}
	a.Span = Span{Start: key.Offset, End: semi.End()}
	return a, nil
}

// skipAssignment advances past the next ';' or up to the next '}'.
func (p *Parser) skipAssignment() {
	for !p.isAtEnd() && !p.check(TokenRightBrace) {
		if p.advance().Kind == TokenSemicolon {
			return
		}
	}
}

// synchronize skips the current statement, or the current braced block if
// one starts before the next ';'.
func (p *Parser) synchronize() {
	depth := 0
	for !p.isAtEnd() {
		switch p.advance().Kind {
		case TokenLeftBrace:
			depth++
		case TokenRightBrace:
			depth--
			if depth <= 0 {
				return
			}
		case TokenSemicolon:
			if depth == 0 {
				return
			}
		}
	}
}

func (p *Parser) newError(tok Token, format string, args ...any) *SourceError {
	return &SourceError{
		File:    p.file,
		Line:    tok.Line,
		Column:  tok.Column,
		Offset:  tok.Offset,
		Message: fmt.Sprintf(format, args...),
		Source:  p.source,
	}
}

func (p *Parser) errorAt(tok Token, format string, args ...any) {
	p.errors.Add(p.newError(tok, format, args...))
}

func (p *Parser) expect(kind TokenKind) *SourceError {
	if p.check(kind) {
		p.advance()
		return nil
	}
	return p.newError(p.peek(), "expected %s, got %s", kind, p.peek())
}

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) previous() Token {
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}
