package parse

import (
	"fmt"

	"github.com/crudecomputer/hldr/lex"
	"github.com/crudecomputer/hldr/position"
)

// ErrorKind discriminates the parser's error taxonomy.
type ErrorKind int

const (
	ErrExpectedSchemaName ErrorKind = iota
	ErrExpectedTableName
	ErrExpectedAliasName
	ErrExpectedAliasOrScope
	ErrExpectedScope
	ErrExpectedIdentifier
	ErrExpectedValue
	ErrExpectedCloseOrNewline
	ErrUnexpectedInSchema
	ErrUnexpectedInTable
	ErrUnexpectedInRecord
	ErrRecordNameQuoted
	ErrUnexpectedToken
	ErrUnexpectedEOF
)

// Error is the parser's single error type. Token is the offending token;
// it is the zero Token (Kind == 0, Start == End == zero Position) only
// for ErrUnexpectedEOF.
type Error struct {
	Kind  ErrorKind
	Token lex.Token
	Text  string // only meaningful for ErrRecordNameQuoted
}

func (e *Error) Pos() position.Position { return e.Token.Start }

func (e *Error) Error() string {
	switch e.Kind {
	case ErrExpectedSchemaName:
		return fmt.Sprintf("%s: expected identifier for schema name, found `%s`", e.Pos(), e.Token)
	case ErrExpectedTableName:
		return fmt.Sprintf("%s: expected identifier for table name, found `%s`", e.Pos(), e.Token)
	case ErrExpectedAliasName:
		return fmt.Sprintf("%s: expected identifier for alias name, found `%s`", e.Pos(), e.Token)
	case ErrExpectedAliasOrScope:
		return fmt.Sprintf("%s: expected alias or opening parenthesis, found `%s`", e.Pos(), e.Token)
	case ErrExpectedScope:
		return fmt.Sprintf("%s: expected opening parenthesis, found `%s`", e.Pos(), e.Token)
	case ErrExpectedIdentifier:
		return fmt.Sprintf("%s: expected identifier, found `%s`", e.Pos(), e.Token)
	case ErrExpectedValue:
		return fmt.Sprintf("%s: expected value, found `%s`", e.Pos(), e.Token)
	case ErrExpectedCloseOrNewline:
		return fmt.Sprintf("%s: expected newline or closing parenthesis, found `%s`", e.Pos(), e.Token)
	case ErrUnexpectedInSchema:
		return fmt.Sprintf("%s: expected table declaration or closing parenthesis, found `%s`", e.Pos(), e.Token)
	case ErrUnexpectedInTable:
		return fmt.Sprintf("%s: expected record declaration or closing parenthesis, found `%s`", e.Pos(), e.Token)
	case ErrUnexpectedInRecord:
		return fmt.Sprintf("%s: expected column declaration or closing parenthesis, found `%s`", e.Pos(), e.Token)
	case ErrRecordNameQuoted:
		return fmt.Sprintf("%s: expected unquoted record name, found `%s`", e.Pos(), e.Text)
	case ErrUnexpectedToken:
		return fmt.Sprintf("%s: unexpected token `%s`", e.Pos(), e.Token)
	case ErrUnexpectedEOF:
		return "unexpected end of file"
	default:
		return fmt.Sprintf("%s: parse error", e.Pos())
	}
}

func errKind(k ErrorKind, t lex.Token) *Error { return &Error{Kind: k, Token: t} }

func errEOF() *Error { return &Error{Kind: ErrUnexpectedEOF} }

func errRecordNameQuoted(s string, t lex.Token) *Error {
	return &Error{Kind: ErrRecordNameQuoted, Token: t, Text: s}
}
