// Package parse folds a lex.Token stream into a structural parse tree.
package parse

import "github.com/crudecomputer/hldr/position"

// Tree is the ordered sequence of top-level structural nodes.
type Tree struct {
	Nodes []StructuralNode
}

// NodeKind discriminates a StructuralNode.
type NodeKind int

const (
	NodeSchema NodeKind = iota
	NodeTable
)

// StructuralNode is a top-level schema or table.
type StructuralNode struct {
	Kind   NodeKind
	Schema *Schema
	Table  *Table
}

// Identity names a schema or table, with an optional alias used to
// disambiguate scope keys.
type Identity struct {
	Name  string
	Alias string // empty when absent
}

// Key returns the alias if present, else the name — the value used to
// build scope and record keys.
func (i Identity) Key() string {
	if i.Alias != "" {
		return i.Alias
	}
	return i.Name
}

// Schema is a named, optionally aliased container of tables.
type Schema struct {
	Identity Identity
	Tables   []*Table
}

// Table is a named, optionally aliased container of records. A table
// carries no schema of its own: it belongs to the Schema whose Tables
// hold it, or is top-level when it appears directly as a NodeTable.
type Table struct {
	Identity Identity
	Records  []*Record
}

// Record is an ordered sequence of attributes, with an optional name used
// to make it referenceable from later records.
type Record struct {
	Name     string // empty when anonymous
	Named    bool
	Position position.Position
	Attrs    []*Attribute
}

// Attribute assigns a Value to a column name within a record.
type Attribute struct {
	Name     string
	Value    Value
	Position position.Position
}

// ValueKind discriminates a Value.
type ValueKind int

const (
	ValueBool ValueKind = iota
	ValueNumber
	ValueText
	ValueReference
	ValueSqlFragment
)

// Value is one of the literal kinds, a cross-record/column Reference, or
// a raw SqlFragment resolved at load time.
type Value struct {
	Kind        ValueKind
	Bool        bool
	Number      string
	Text        string
	Reference   *Reference
	SqlFragment string
}

// Reference names a column, optionally qualified by record, table, and
// schema. Column may be implicit (the "@record." trailing-dot form),
// meaning "the column with the same name as the attribute being set".
type Reference struct {
	Schema string // empty when absent
	Table  string // empty when absent
	Record string // empty when absent (column-only reference)

	Column         string
	ColumnImplicit bool
}

// HasRecord reports whether the reference names a record (as opposed to
// a bare, same-record column reference).
func (r *Reference) HasRecord() bool {
	return r.Record != ""
}
