package analyze

import (
	"github.com/crudecomputer/hldr/parse"
)

// Validated wraps a value that has passed analysis. It is constructible
// only within this package and yields its inner value exactly once,
// mirroring the move-out-of-newtype discipline of the reference
// implementation: a second call to Into panics, since nothing legitimate
// calls it twice.
type Validated[T any] struct {
	inner    T
	consumed bool
}

// Into returns the wrapped value and marks it consumed.
func (v *Validated[T]) Into() T {
	if v.consumed {
		panic("analyze: Validated value already consumed")
	}
	v.consumed = true
	return v.inner
}

func validated[T any](v T) *Validated[T] {
	return &Validated[T]{inner: v}
}

type refSet map[string]struct{}

func (s refSet) insert(key string) bool {
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = struct{}{}
	return true
}

// Analyze validates record-name uniqueness, attribute-name uniqueness,
// and reference well-formedness across the whole tree, halting at the
// first violation. It never mutates the tree.
func Analyze(tree *parse.Tree) (*Validated[*parse.Tree], *Error) {
	refs := make(refSet)

	for _, node := range tree.Nodes {
		switch node.Kind {
		case parse.NodeSchema:
			for _, table := range node.Schema.Tables {
				if err := analyzeTable(node.Schema, table, refs); err != nil {
					return nil, err
				}
			}
		case parse.NodeTable:
			if err := analyzeTable(nil, node.Table, refs); err != nil {
				return nil, err
			}
		}
	}

	return validated(tree), nil
}

func analyzeTable(schema *parse.Schema, table *parse.Table, refs refSet) *Error {
	schemaKey := ""
	tableScope := table.Identity.Key()
	if schema != nil {
		schemaKey = schema.Identity.Key()
		tableScope = schemaKey + "." + tableScope
	}

	for _, record := range table.Records {
		if err := analyzeRecord(record, refs, schemaKey, tableScope); err != nil {
			return err
		}

		if record.Named {
			key := tableScope + "." + record.Name
			if !refs.insert(key) {
				return errDuplicateRecord(tableScope, record.Name, record.Position)
			}
		}
	}

	return nil
}

func analyzeRecord(record *parse.Record, refs refSet, schemaKey, tableScope string) *Error {
	attrNames := make(map[string]struct{}, len(record.Attrs))

	for _, attr := range record.Attrs {
		if _, dup := attrNames[attr.Name]; dup {
			return errDuplicateColumn(attr.Name, attr.Position)
		}
		attrNames[attr.Name] = struct{}{}

		if attr.Value.Kind != parse.ValueReference {
			continue
		}
		ref := attr.Value.Reference

		if !ref.HasRecord() {
			if _, ok := attrNames[ref.Column]; !ok {
				return errColumnNotFound(ref.Column, attr.Position)
			}
			continue
		}

		expectedKey := referenceRecordKey(ref, schemaKey, tableScope)
		if _, ok := refs[expectedKey]; !ok {
			return errRecordNotFound(expectedKey, attr.Position)
		}
	}

	return nil
}

// referenceRecordKey reconstructs the expected refset key for a
// record-qualified reference, matching the parser's segment-count rules:
//   - schema+table+record present (4-segment reference): fully qualified key.
//   - table+record present, schema omitted (3-segment reference): a sibling
//     table in the *current* schema scope (or a top-level sibling if there
//     is none) — the enclosing schemaKey is carried forward here rather
//     than dropped, since a bare table name is only unambiguous within the
//     scope it was declared in.
//   - record only (2-segment reference): resolved against the enclosing
//     table's own scope.
func referenceRecordKey(ref *parse.Reference, schemaKey, tableScope string) string {
	switch {
	case ref.Schema != "" && ref.Table != "":
		return ref.Schema + "." + ref.Table + "." + ref.Record
	case ref.Table != "":
		if schemaKey != "" {
			return schemaKey + "." + ref.Table + "." + ref.Record
		}
		return ref.Table + "." + ref.Record
	default:
		return tableScope + "." + ref.Record
	}
}
