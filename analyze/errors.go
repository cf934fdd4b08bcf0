// Package analyze validates a parse.Tree's structural invariants —
// record-name uniqueness, attribute-name uniqueness, and reference
// well-formedness — and wraps an accepted tree in a Validated marker.
package analyze

import (
	"fmt"

	"github.com/crudecomputer/hldr/position"
)

// ErrorKind discriminates the analyzer's error taxonomy.
type ErrorKind int

const (
	ErrAmbiguousRecord ErrorKind = iota
	ErrColumnNotFound
	ErrDuplicateColumn
	ErrDuplicateRecord
	ErrRecordNotFound
)

// Error is the analyzer's single error type.
type Error struct {
	Kind     ErrorKind
	Position position.Position

	Scope  string // DuplicateRecord
	Record string // AmbiguousRecord, DuplicateRecord, RecordNotFound
	Column string // ColumnNotFound, DuplicateColumn
}

func (e *Error) Pos() position.Position { return e.Position }

func (e *Error) Error() string {
	switch e.Kind {
	case ErrAmbiguousRecord:
		return fmt.Sprintf("ambiguous record name `%s` (%s)", e.Record, e.Position)
	case ErrColumnNotFound:
		return fmt.Sprintf("referenced column `%s` not found (%s)", e.Column, e.Position)
	case ErrDuplicateColumn:
		return fmt.Sprintf("duplicate column name `%s` (%s)", e.Column, e.Position)
	case ErrDuplicateRecord:
		return fmt.Sprintf("duplicate record name `%s` (%s)", e.Record, e.Position)
	case ErrRecordNotFound:
		return fmt.Sprintf("record `%s` not found (%s)", e.Record, e.Position)
	default:
		return fmt.Sprintf("analyze error (%s)", e.Position)
	}
}

func errDuplicateRecord(scope, record string, pos position.Position) *Error {
	return &Error{Kind: ErrDuplicateRecord, Scope: scope, Record: record, Position: pos}
}

func errDuplicateColumn(column string, pos position.Position) *Error {
	return &Error{Kind: ErrDuplicateColumn, Column: column, Position: pos}
}

func errColumnNotFound(column string, pos position.Position) *Error {
	return &Error{Kind: ErrColumnNotFound, Column: column, Position: pos}
}

func errRecordNotFound(record string, pos position.Position) *Error {
	return &Error{Kind: ErrRecordNotFound, Record: record, Position: pos}
}
