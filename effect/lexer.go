// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

// Lexer tokenizes effect source. It only distinguishes what the effect
// grammar needs; operators of the shading language come out as TokenOther.
type Lexer struct {
	source string
	start  int
	pos    int
	line   int
	column int

	startLine   int
	startColumn int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	return &Lexer{source: source, line: 1, column: 1}
}

// Tokenize returns all tokens, ending with TokenEOF.
func (l *Lexer) Tokenize() ([]Token, *SourceError) {
	var tokens []Token
	for {
		if err := l.skipWhitespace(); err != nil {
			return nil, err
		}
		if l.pos >= len(l.source) {
			tokens = append(tokens, Token{Kind: TokenEOF, Offset: l.pos, Line: l.line, Column: l.column})
			return tokens, nil
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) next() (Token, *SourceError) {
	l.start, l.startLine, l.startColumn = l.pos, l.line, l.column
	c := l.advance()
	switch {
	case isIdentStart(c):
		for l.pos < len(l.source) && isIdentChar(l.source[l.pos]) {
			l.advance()
		}
		return l.make(TokenIdent), nil
	case isDigit(c) || (c == '.' && l.pos < len(l.source) && isDigit(l.source[l.pos])):
		for l.pos < len(l.source) {
			d := l.source[l.pos]
			prev := l.source[l.pos-1]
			if isIdentChar(d) || d == '.' || ((d == '+' || d == '-') && (prev == 'e' || prev == 'E')) {
				l.advance()
				continue
			}
			break
		}
		return l.make(TokenNumber), nil
	case c == '"':
		for l.pos < len(l.source) && l.source[l.pos] != '"' {
			if l.source[l.pos] == '\n' {
				break
			}
			if l.source[l.pos] == '\\' {
				l.advance()
			}
			l.advance()
		}
		if l.pos >= len(l.source) || l.source[l.pos] != '"' {
			return Token{}, &SourceError{Line: l.startLine, Column: l.startColumn, Offset: l.start, Message: "unterminated string"}
		}
		l.advance()
		return l.make(TokenString), nil
	}
	switch c {
	case '{':
		return l.make(TokenLeftBrace), nil
	case '}':
		return l.make(TokenRightBrace), nil
	case '(':
		return l.make(TokenLeftParen), nil
	case ')':
		return l.make(TokenRightParen), nil
	case '[':
		return l.make(TokenLeftBracket), nil
	case ']':
		return l.make(TokenRightBracket), nil
	case '<':
		return l.make(TokenLess), nil
	case '>':
		return l.make(TokenGreater), nil
	case '=':
		return l.make(TokenEqual), nil
	case ';':
		return l.make(TokenSemicolon), nil
	case ':':
		return l.make(TokenColon), nil
	case ',':
		return l.make(TokenComma), nil
	}
	return l.make(TokenOther), nil
}

func (l *Lexer) make(kind TokenKind) Token {
	return Token{
		Kind:   kind,
		Text:   l.source[l.start:l.pos],
		Offset: l.start,
		Line:   l.startLine,
		Column: l.startColumn,
	}
}

func (l *Lexer) advance() byte {
	c := l.source[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) skipWhitespace() *SourceError {
	for l.pos < len(l.source) {
		c := l.source[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v':
			l.advance()
		case c == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '/':
			for l.pos < len(l.source) && l.source[l.pos] != '\n' {
				l.advance()
			}
		case c == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '*':
			line, col, off := l.line, l.column, l.pos
			l.advance()
			l.advance()
			for {
				if l.pos+1 >= len(l.source) {
					return &SourceError{Line: line, Column: col, Offset: off, Message: "unterminated block comment"}
				}
				if l.source[l.pos] == '*' && l.source[l.pos+1] == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return nil
		}
	}
	return nil
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
