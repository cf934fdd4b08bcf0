package lex

import (
	"strings"

	"github.com/crudecomputer/hldr/position"
)

// Keyword is one of the reserved words recognized by the lexer.
type Keyword int

const (
	KeywordAs Keyword = iota
	KeywordSchema
	KeywordTable
)

func (k Keyword) String() string {
	switch k {
	case KeywordAs:
		return "as"
	case KeywordSchema:
		return "schema"
	case KeywordTable:
		return "table"
	default:
		return "<unknown keyword>"
	}
}

// Symbol is a single-character structural token.
type Symbol int

const (
	SymbolAt Symbol = iota
	SymbolComma
	SymbolPeriod
	SymbolParenLeft
	SymbolParenRight
	SymbolUnderscore
)

func (s Symbol) String() string {
	switch s {
	case SymbolAt:
		return "@"
	case SymbolComma:
		return ","
	case SymbolPeriod:
		return "."
	case SymbolParenLeft:
		return "("
	case SymbolParenRight:
		return ")"
	case SymbolUnderscore:
		return "_"
	default:
		return "<unknown symbol>"
	}
}

// Kind tags which variant of Token a given value is.
type Kind int

const (
	KindBool Kind = iota
	KindNumber
	KindText
	KindIdentifier
	KindQuotedIdentifier
	KindKeyword
	KindSymbol
	KindLineSep
	KindSqlFragment
)

// Token is a tagged union of lexical productions with positional metadata.
// Exactly one of the typed fields is meaningful, as determined by Kind.
type Token struct {
	Kind  Kind
	Start position.Position
	End   position.Position

	Bool             bool
	Number           string
	Text             string
	Identifier       string
	QuotedIdentifier string
	Keyword          Keyword
	Symbol           Symbol
	SqlFragment      string
}

func (t Token) String() string {
	switch t.Kind {
	case KindBool:
		if t.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return t.Number
	case KindText:
		return "'" + strings.ReplaceAll(t.Text, "'", "''") + "'"
	case KindIdentifier:
		return t.Identifier
	case KindQuotedIdentifier:
		return `"` + strings.ReplaceAll(t.QuotedIdentifier, `"`, `""`) + `"`
	case KindKeyword:
		return t.Keyword.String()
	case KindSymbol:
		return t.Symbol.String()
	case KindLineSep:
		return "\n"
	case KindSqlFragment:
		return "`" + strings.ReplaceAll(t.SqlFragment, "`", "``") + "`"
	default:
		return "<unknown token>"
	}
}
