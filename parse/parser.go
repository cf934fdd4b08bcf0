// The parser is a finite-state machine over an explicit stack of
// in-progress nodes (frame), exactly mirroring the lexer's tagged-
// enum-with-exhaustive-match style rather than dynamic dispatch: a single
// pstateKind enum plus a small payload struct replaces what a trait-
// object-based implementation would model as one type per state.
package parse

import (
	"github.com/crudecomputer/hldr/lex"
)

type pstateKind int

const (
	pRoot pstateKind = iota
	pDeclaringSchema
	pReceivedSchemaName
	pDeclaringSchemaAlias
	pReceivedSchemaAlias
	pInSchemaScope
	pDeclaringTable
	pReceivedTableName
	pDeclaringTableAlias
	pReceivedTableAlias
	pInTableScope
	pReceivedRecordName
	pReceivedExplicitAnonymousRecord
	pInRecordScope
	pReceivedAttributeName
	pReceivedReferenceStart
	pReceivedReferenceIdentifier
	pReceivedReferenceSeparator
	pReceivedAttributeValue
)

// refSegment is one dot-separated piece of an in-progress reference.
type refSegment struct {
	value  string
	quoted bool
}

// pstate carries whatever payload the current state needs. Only the
// fields relevant to Kind are meaningful.
type pstate struct {
	kind pstateKind

	name1 string // schema/table name, or attribute name
	name2 string // alias

	refSegs []refSegment
}

// frameKind discriminates a stack frame.
type frameKind int

const (
	frameRoot frameKind = iota
	frameSchema
	frameTable
	frameRecord
	frameAttribute
)

type frame struct {
	kind      frameKind
	tree      *Tree
	schema    *Schema
	table     *Table
	record    *Record
	attribute *Attribute
}

type parseContext struct {
	stack []frame
}

func (c *parseContext) push(f frame) { c.stack = append(c.stack, f) }

func (c *parseContext) top() *frame {
	return &c.stack[len(c.stack)-1]
}

func (c *parseContext) pop() frame {
	f := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return f
}

func (c *parseContext) pushSchema(name, alias string) {
	c.push(frame{kind: frameSchema, schema: &Schema{Identity: Identity{Name: name, Alias: alias}}})
}

func (c *parseContext) pushTable(name, alias string) {
	c.push(frame{kind: frameTable, table: &Table{Identity: Identity{Name: name, Alias: alias}}})
}

func (c *parseContext) pushRecord(name string, named bool, pos lex.Token) {
	c.push(frame{kind: frameRecord, record: &Record{Name: name, Named: named, Position: pos.Start}})
}

func (c *parseContext) pushAttribute(name string, v Value, pos lex.Token) {
	c.push(frame{kind: frameAttribute, attribute: &Attribute{Name: name, Value: v, Position: pos.Start}})
}

func (c *parseContext) popSchema() *Schema {
	f := c.pop()
	if f.kind != frameSchema {
		panic("parse: expected schema on stack")
	}
	return f.schema
}

func (c *parseContext) popTable() *Table {
	f := c.pop()
	if f.kind != frameTable {
		panic("parse: expected table on stack")
	}
	return f.table
}

func (c *parseContext) popRecord() *Record {
	f := c.pop()
	if f.kind != frameRecord {
		panic("parse: expected record on stack")
	}
	return f.record
}

func (c *parseContext) popAttribute() *Attribute {
	f := c.pop()
	if f.kind != frameAttribute {
		panic("parse: expected attribute on stack")
	}
	return f.attribute
}

// pushedTableTo reports which parent received a just-closed table.
type pushedTableTo int

const (
	pushedToRoot pushedTableTo = iota
	pushedToSchema
)

func (c *parseContext) pushSchemaToRootOrPanic(s *Schema) {
	top := c.top()
	if top.kind != frameRoot {
		panic("parse: expected tree root on stack")
	}
	top.tree.Nodes = append(top.tree.Nodes, StructuralNode{Kind: NodeSchema, Schema: s})
}

func (c *parseContext) pushTableToParentOrPanic(t *Table) pushedTableTo {
	top := c.top()
	switch top.kind {
	case frameRoot:
		top.tree.Nodes = append(top.tree.Nodes, StructuralNode{Kind: NodeTable, Table: t})
		return pushedToRoot
	case frameSchema:
		top.schema.Tables = append(top.schema.Tables, t)
		return pushedToSchema
	default:
		panic("parse: expected tree root or schema on stack")
	}
}

func (c *parseContext) pushRecordToTableOrPanic(r *Record) {
	top := c.top()
	if top.kind != frameTable {
		panic("parse: expected table on stack")
	}
	top.table.Records = append(top.table.Records, r)
}

func (c *parseContext) pushAttributeToRecordOrPanic(a *Attribute) {
	top := c.top()
	if top.kind != frameRecord {
		panic("parse: expected record on stack")
	}
	top.record.Attrs = append(top.record.Attrs, a)
}

// Parse folds a token stream into a Tree, or returns the first
// structural violation encountered. An EOF signal (ok == false) is
// delivered after the last real token; every state other than Root
// rejects it with ErrUnexpectedEOF.
func Parse(tokens []lex.Token) (*Tree, *Error) {
	ctx := &parseContext{}
	ctx.push(frame{kind: frameRoot, tree: &Tree{}})

	state := pstate{kind: pRoot}

	for i := 0; i <= len(tokens); i++ {
		tok, ok := lex.Token{}, false
		if i < len(tokens) {
			tok, ok = tokens[i], true
		}

		var err *Error
		state, err = receive(ctx, state, tok, ok)
		if err != nil {
			return nil, err
		}
	}

	if len(ctx.stack) != 1 || ctx.stack[0].kind != frameRoot {
		return nil, errEOF()
	}

	return ctx.pop().tree, nil
}

// receive advances the parser one token (or EOF, ok == false).
func receive(ctx *parseContext, s pstate, t lex.Token, ok bool) (pstate, *Error) {
	switch s.kind {
	case pRoot:
		return receiveRoot(ctx, t, ok)
	case pDeclaringSchema:
		return receiveDeclaringSchema(t, ok)
	case pReceivedSchemaName:
		return receiveReceivedSchemaName(ctx, s, t, ok)
	case pDeclaringSchemaAlias:
		return receiveDeclaringSchemaAlias(s, t, ok)
	case pReceivedSchemaAlias:
		return receiveReceivedSchemaAlias(ctx, s, t, ok)
	case pInSchemaScope:
		return receiveInSchemaScope(ctx, t, ok)
	case pDeclaringTable:
		return receiveDeclaringTable(t, ok)
	case pReceivedTableName:
		return receiveReceivedTableName(ctx, s, t, ok)
	case pDeclaringTableAlias:
		return receiveDeclaringTableAlias(s, t, ok)
	case pReceivedTableAlias:
		return receiveReceivedTableAlias(ctx, s, t, ok)
	case pInTableScope:
		return receiveInTableScope(ctx, t, ok)
	case pReceivedRecordName:
		return receiveReceivedRecordName(ctx, s, t, ok)
	case pReceivedExplicitAnonymousRecord:
		return receiveReceivedExplicitAnonymousRecord(ctx, t, ok)
	case pInRecordScope:
		return receiveInRecordScope(ctx, t, ok)
	case pReceivedAttributeName:
		return receiveReceivedAttributeName(ctx, s, t, ok)
	case pReceivedReferenceStart:
		return receiveReceivedReferenceStart(s, t, ok)
	case pReceivedReferenceIdentifier:
		return receiveReceivedReferenceIdentifier(ctx, s, t, ok)
	case pReceivedReferenceSeparator:
		return receiveReceivedReferenceSeparator(ctx, s, t, ok)
	case pReceivedAttributeValue:
		return receiveReceivedAttributeValue(ctx, t, ok)
	default:
		panic("parse: unreachable state")
	}
}

func to(k pstateKind) (pstate, *Error) { return pstate{kind: k}, nil }

// --- Root ---

func receiveRoot(ctx *parseContext, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return to(pRoot)
	}
	switch {
	case t.Kind == lex.KindLineSep:
		return to(pRoot)
	case t.Kind == lex.KindKeyword && t.Keyword == lex.KeywordSchema:
		return to(pDeclaringSchema)
	case t.Kind == lex.KindKeyword && t.Keyword == lex.KeywordTable:
		return to(pDeclaringTable)
	default:
		return pstate{}, errKind(ErrUnexpectedToken, t)
	}
}

// --- Schema declaration ---

func receiveDeclaringSchema(t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	name, isIdent := identifierOf(t)
	if !isIdent {
		return pstate{}, errKind(ErrExpectedSchemaName, t)
	}
	return pstate{kind: pReceivedSchemaName, name1: name}, nil
}

func receiveReceivedSchemaName(ctx *parseContext, s pstate, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	switch {
	case t.Kind == lex.KindKeyword && t.Keyword == lex.KeywordAs:
		return pstate{kind: pDeclaringSchemaAlias, name1: s.name1}, nil
	case t.Kind == lex.KindSymbol && t.Symbol == lex.SymbolParenLeft:
		ctx.pushSchema(s.name1, "")
		return to(pInSchemaScope)
	default:
		return pstate{}, errKind(ErrExpectedAliasOrScope, t)
	}
}

func receiveDeclaringSchemaAlias(s pstate, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	if t.Kind != lex.KindIdentifier {
		return pstate{}, errKind(ErrExpectedAliasName, t)
	}
	return pstate{kind: pReceivedSchemaAlias, name1: s.name1, name2: t.Identifier}, nil
}

func receiveReceivedSchemaAlias(ctx *parseContext, s pstate, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	if t.Kind != lex.KindSymbol || t.Symbol != lex.SymbolParenLeft {
		return pstate{}, errKind(ErrExpectedScope, t)
	}
	ctx.pushSchema(s.name1, s.name2)
	return to(pInSchemaScope)
}

func receiveInSchemaScope(ctx *parseContext, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	switch {
	case t.Kind == lex.KindSymbol && t.Symbol == lex.SymbolParenRight:
		schema := ctx.popSchema()
		ctx.pushSchemaToRootOrPanic(schema)
		return to(pRoot)
	case t.Kind == lex.KindKeyword && t.Keyword == lex.KeywordTable:
		return to(pDeclaringTable)
	case t.Kind == lex.KindLineSep:
		return to(pInSchemaScope)
	default:
		return pstate{}, errKind(ErrUnexpectedInSchema, t)
	}
}

// --- Table declaration ---

func receiveDeclaringTable(t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	name, isIdent := identifierOf(t)
	if !isIdent {
		return pstate{}, errKind(ErrExpectedTableName, t)
	}
	return pstate{kind: pReceivedTableName, name1: name}, nil
}

func receiveReceivedTableName(ctx *parseContext, s pstate, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	switch {
	case t.Kind == lex.KindKeyword && t.Keyword == lex.KeywordAs:
		return pstate{kind: pDeclaringTableAlias, name1: s.name1}, nil
	case t.Kind == lex.KindSymbol && t.Symbol == lex.SymbolParenLeft:
		ctx.pushTable(s.name1, "")
		return to(pInTableScope)
	default:
		return pstate{}, errKind(ErrExpectedAliasOrScope, t)
	}
}

func receiveDeclaringTableAlias(s pstate, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	if t.Kind != lex.KindIdentifier {
		return pstate{}, errKind(ErrExpectedAliasName, t)
	}
	return pstate{kind: pReceivedTableAlias, name1: s.name1, name2: t.Identifier}, nil
}

func receiveReceivedTableAlias(ctx *parseContext, s pstate, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	if t.Kind != lex.KindSymbol || t.Symbol != lex.SymbolParenLeft {
		return pstate{}, errKind(ErrExpectedScope, t)
	}
	ctx.pushTable(s.name1, s.name2)
	return to(pInTableScope)
}

func receiveInTableScope(ctx *parseContext, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	switch {
	case t.Kind == lex.KindSymbol && t.Symbol == lex.SymbolParenRight:
		table := ctx.popTable()
		switch ctx.pushTableToParentOrPanic(table) {
		case pushedToRoot:
			return to(pRoot)
		default:
			return to(pInSchemaScope)
		}
	case t.Kind == lex.KindIdentifier:
		return pstate{kind: pReceivedRecordName, name1: t.Identifier}, nil
	case t.Kind == lex.KindQuotedIdentifier:
		return pstate{}, errRecordNameQuoted(t.QuotedIdentifier, t)
	case t.Kind == lex.KindSymbol && t.Symbol == lex.SymbolUnderscore:
		return to(pReceivedExplicitAnonymousRecord)
	case t.Kind == lex.KindSymbol && t.Symbol == lex.SymbolParenLeft:
		ctx.pushRecord("", false, t)
		return to(pInRecordScope)
	case t.Kind == lex.KindLineSep:
		return to(pInTableScope)
	default:
		return pstate{}, errKind(ErrUnexpectedInTable, t)
	}
}

// --- Record declaration ---

func receiveReceivedRecordName(ctx *parseContext, s pstate, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	if t.Kind != lex.KindSymbol || t.Symbol != lex.SymbolParenLeft {
		return pstate{}, errKind(ErrExpectedScope, t)
	}
	ctx.pushRecord(s.name1, true, t)
	return to(pInRecordScope)
}

func receiveReceivedExplicitAnonymousRecord(ctx *parseContext, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	if t.Kind != lex.KindSymbol || t.Symbol != lex.SymbolParenLeft {
		return pstate{}, errKind(ErrExpectedScope, t)
	}
	ctx.pushRecord("", false, t)
	return to(pInRecordScope)
}

func receiveInRecordScope(ctx *parseContext, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	switch {
	case t.Kind == lex.KindSymbol && t.Symbol == lex.SymbolParenRight:
		record := ctx.popRecord()
		ctx.pushRecordToTableOrPanic(record)
		return to(pInTableScope)
	case t.Kind == lex.KindIdentifier:
		return pstate{kind: pReceivedAttributeName, name1: t.Identifier}, nil
	case t.Kind == lex.KindQuotedIdentifier:
		return pstate{kind: pReceivedAttributeName, name1: t.QuotedIdentifier}, nil
	case t.Kind == lex.KindLineSep:
		return to(pInRecordScope)
	default:
		return pstate{}, errKind(ErrUnexpectedInRecord, t)
	}
}

// --- Attribute / value ---

func receiveReceivedAttributeName(ctx *parseContext, s pstate, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	switch t.Kind {
	case lex.KindBool:
		ctx.pushAttribute(s.name1, Value{Kind: ValueBool, Bool: t.Bool}, t)
		return to(pReceivedAttributeValue)
	case lex.KindNumber:
		ctx.pushAttribute(s.name1, Value{Kind: ValueNumber, Number: t.Number}, t)
		return to(pReceivedAttributeValue)
	case lex.KindText:
		ctx.pushAttribute(s.name1, Value{Kind: ValueText, Text: t.Text}, t)
		return to(pReceivedAttributeValue)
	case lex.KindSqlFragment:
		ctx.pushAttribute(s.name1, Value{Kind: ValueSqlFragment, SqlFragment: t.SqlFragment}, t)
		return to(pReceivedAttributeValue)
	case lex.KindSymbol:
		if t.Symbol == lex.SymbolAt {
			return pstate{kind: pReceivedReferenceStart, name1: s.name1}, nil
		}
	}
	return pstate{}, errKind(ErrExpectedValue, t)
}

func receiveReceivedReferenceStart(s pstate, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	seg, isIdent := identifierSegment(t)
	if !isIdent {
		return pstate{}, errKind(ErrExpectedIdentifier, t)
	}
	return pstate{kind: pReceivedReferenceIdentifier, name1: s.name1, refSegs: []refSegment{seg}}, nil
}

func isReferenceTerminator(t lex.Token) bool {
	return t.Kind == lex.KindLineSep ||
		(t.Kind == lex.KindSymbol && (t.Symbol == lex.SymbolComma || t.Symbol == lex.SymbolParenRight))
}

func finalizeReference(ctx *parseContext, name1 string, segs []refSegment, t lex.Token) (pstate, *Error) {
	ref, err := buildReference(segs, t)
	if err != nil {
		return pstate{}, err
	}
	attr := &Attribute{Name: name1, Value: Value{Kind: ValueReference, Reference: ref}, Position: t.Start}
	ctx.pushAttributeToRecordOrPanic(attr)

	if t.Kind == lex.KindSymbol && t.Symbol == lex.SymbolParenRight {
		return receiveInRecordScope(ctx, t, true)
	}
	return to(pInRecordScope)
}

func receiveReceivedReferenceIdentifier(ctx *parseContext, s pstate, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}

	switch {
	case t.Kind == lex.KindSymbol && t.Symbol == lex.SymbolPeriod && len(s.refSegs) < 4:
		return pstate{kind: pReceivedReferenceSeparator, name1: s.name1, refSegs: s.refSegs}, nil
	case isReferenceTerminator(t) && len(s.refSegs) <= 4:
		return finalizeReference(ctx, s.name1, s.refSegs, t)
	default:
		return pstate{}, errKind(ErrUnexpectedToken, t)
	}
}

// receiveReceivedReferenceSeparator follows a '.'. A terminator here means
// the trailing segment was omitted (the "@record." implicit-column form):
// the final segment is recorded as empty rather than erroring.
func receiveReceivedReferenceSeparator(ctx *parseContext, s pstate, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	if isReferenceTerminator(t) {
		segs := append(append([]refSegment{}, s.refSegs...), refSegment{})
		return finalizeReference(ctx, s.name1, segs, t)
	}
	seg, isIdent := identifierSegment(t)
	if !isIdent {
		return pstate{}, errKind(ErrExpectedIdentifier, t)
	}
	segs := append(append([]refSegment{}, s.refSegs...), seg)
	return pstate{kind: pReceivedReferenceIdentifier, name1: s.name1, refSegs: segs}, nil
}

func receiveReceivedAttributeValue(ctx *parseContext, t lex.Token, ok bool) (pstate, *Error) {
	if !ok {
		return pstate{}, errEOF()
	}
	switch {
	case t.Kind == lex.KindSymbol && t.Symbol == lex.SymbolComma, t.Kind == lex.KindLineSep,
		t.Kind == lex.KindSymbol && t.Symbol == lex.SymbolParenRight:
		attr := ctx.popAttribute()
		ctx.pushAttributeToRecordOrPanic(attr)

		if t.Kind == lex.KindSymbol && t.Symbol == lex.SymbolParenRight {
			return receiveInRecordScope(ctx, t, true)
		}
		return to(pInRecordScope)
	default:
		return pstate{}, errKind(ErrExpectedCloseOrNewline, t)
	}
}

// buildReference assembles 1..=4 segments into a Reference, filling
// fields right-to-left: last segment is the column, then record, table,
// schema. An empty final segment (a trailing '.') means the column is
// implicit. Record names must not be quoted.
func buildReference(segs []refSegment, t lex.Token) (*Reference, *Error) {
	ref := &Reference{}

	n := len(segs)
	col := segs[n-1]
	rest := segs[:n-1]

	if col.value == "" {
		ref.ColumnImplicit = true
	} else {
		ref.Column = col.value
	}

	// rest holds, right to left: record, table, schema
	if len(rest) >= 1 {
		rec := rest[len(rest)-1]
		if rec.quoted {
			return nil, errRecordNameQuoted(rec.value, t)
		}
		ref.Record = rec.value
		rest = rest[:len(rest)-1]
	}
	if len(rest) >= 1 {
		ref.Table = rest[len(rest)-1].value
		rest = rest[:len(rest)-1]
	}
	if len(rest) >= 1 {
		ref.Schema = rest[len(rest)-1].value
	}

	return ref, nil
}

func identifierOf(t lex.Token) (string, bool) {
	switch t.Kind {
	case lex.KindIdentifier:
		return t.Identifier, true
	case lex.KindQuotedIdentifier:
		return t.QuotedIdentifier, true
	default:
		return "", false
	}
}

// identifierSegment distinguishes a quoted from an unquoted identifier
// reference segment; the caller handles the implicit-column (empty
// segment) case itself via termination, since an identifier is not
// required there.
func identifierSegment(t lex.Token) (refSegment, bool) {
	switch t.Kind {
	case lex.KindIdentifier:
		return refSegment{value: t.Identifier}, true
	case lex.KindQuotedIdentifier:
		return refSegment{value: t.QuotedIdentifier, quoted: true}, true
	default:
		return refSegment{}, false
	}
}
