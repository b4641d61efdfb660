// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import "fmt"

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenNumber
	TokenString

	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenLess         // <
	TokenGreater      // >
	TokenEqual        // =
	TokenSemicolon    // ;
	TokenColon        // :
	TokenComma        // ,

	// TokenOther is any other single character.
	TokenOther
)

var tokenNames = [...]string{
	TokenEOF:          "end of file",
	TokenIdent:        "identifier",
	TokenNumber:       "number",
	TokenString:       "string",
	TokenLeftBrace:    "'{'",
	TokenRightBrace:   "'}'",
	TokenLeftParen:    "'('",
	TokenRightParen:   "')'",
	TokenLeftBracket:  "'['",
	TokenRightBracket: "']'",
	TokenLess:         "'<'",
	TokenGreater:      "'>'",
	TokenEqual:        "'='",
	TokenSemicolon:    "';'",
	TokenColon:        "':'",
	TokenComma:        "','",
	TokenOther:        "character",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", k)
}

// Token is a lexical token with its position in the source.
type Token struct {
	Kind   TokenKind
	Text   string
	Offset int // byte offset of the first character
	Line   int // 1-based
	Column int // 1-based, in bytes
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Offset + len(t.Text)
}

func (t Token) String() string {
	if t.Kind == TokenEOF {
		return t.Kind.String()
	}
	return fmt.Sprintf("%q", t.Text)
}
