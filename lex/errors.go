package lex

import (
	"fmt"

	"github.com/crudecomputer/hldr/position"
)

// ErrorKind discriminates the lexer's error taxonomy.
type ErrorKind int

const (
	ErrUnexpectedCharacter ErrorKind = iota
	ErrUnexpectedEOF
	ErrUnclosedString
	ErrUnclosedQuotedIdentifier
	ErrInvalidNumericLiteral
)

// Error is the lexer's single error type, carrying the offending position
// and, where applicable, the offending character or in-progress lexeme.
type Error struct {
	Kind     ErrorKind
	Position position.Position
	Char     rune
	Text     string
}

func (e *Error) Pos() position.Position { return e.Position }

func (e *Error) Error() string {
	switch e.Kind {
	case ErrUnexpectedCharacter:
		return fmt.Sprintf("%s: unexpected character %q", e.Position, e.Char)
	case ErrUnexpectedEOF:
		return fmt.Sprintf("%s: unexpected end of input", e.Position)
	case ErrUnclosedString:
		return fmt.Sprintf("%s: unclosed string literal", e.Position)
	case ErrUnclosedQuotedIdentifier:
		return fmt.Sprintf("%s: unclosed quoted identifier", e.Position)
	case ErrInvalidNumericLiteral:
		return fmt.Sprintf("%s: invalid numeric literal %q", e.Position, e.Text)
	default:
		return fmt.Sprintf("%s: lex error", e.Position)
	}
}

func errBadChar(c rune, p position.Position) *Error {
	return &Error{Kind: ErrUnexpectedCharacter, Position: p, Char: c}
}

func errEOF(p position.Position) *Error {
	return &Error{Kind: ErrUnexpectedEOF, Position: p}
}

func errUnclosedString(p position.Position) *Error {
	return &Error{Kind: ErrUnclosedString, Position: p}
}

func errUnclosedQuotedIdentifier(p position.Position) *Error {
	return &Error{Kind: ErrUnclosedQuotedIdentifier, Position: p}
}

func errBadNumber(text string, p position.Position) *Error {
	return &Error{Kind: ErrInvalidNumericLiteral, Position: p, Text: text}
}
