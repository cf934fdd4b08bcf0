// Package load walks a validated parse tree and executes one INSERT per
// record against a database transaction, resolving references against
// rows it has already inserted.
package load

import (
	"context"
	"strconv"
	"strings"

	"github.com/crudecomputer/hldr/analyze"
	"github.com/crudecomputer/hldr/parse"
	"github.com/sirupsen/logrus"
)

// Loader drives the insert sequence for one validated tree, accumulating
// an append-only refmap of record_key -> row as it goes. A Loader is
// single-use: construct one per transaction.
type Loader struct {
	exec   QueryExecutor
	refmap map[string]Row

	// Logger receives one Debug-level line per executed statement. Left
	// nil, a Loader runs silently; callers that want statement-level
	// tracing set this before calling Load.
	Logger logrus.FieldLogger
}

// NewLoader wraps a QueryExecutor for a single load pass.
func NewLoader(exec QueryExecutor) *Loader {
	return &Loader{
		exec:   exec,
		refmap: make(map[string]Row),
	}
}

func (l *Loader) logStatement(sql string) {
	if l.Logger != nil {
		l.Logger.Debugf("executing: %s", sql)
	}
}

// Load executes one INSERT per record in source order. The first failure
// aborts the whole pass; the caller is expected to roll back its
// transaction on error.
func (l *Loader) Load(ctx context.Context, tree *analyze.Validated[*parse.Tree]) *Error {
	for _, node := range tree.Into().Nodes {
		switch node.Kind {
		case parse.NodeSchema:
			for _, table := range node.Schema.Tables {
				if err := l.loadTable(ctx, &node.Schema.Identity, table); err != nil {
					return err
				}
			}
		case parse.NodeTable:
			if err := l.loadTable(ctx, nil, node.Table); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Loader) loadTable(ctx context.Context, schema *parse.Identity, table *parse.Table) *Error {
	var qualifiedName, schemaKey, tableScope string

	if schema != nil {
		schemaKey = schema.Key()
		qualifiedName = quoteIdent(schema.Name) + "." + quoteIdent(table.Identity.Name)
		tableScope = schemaKey + "." + table.Identity.Key()
	} else {
		qualifiedName = quoteIdent(table.Identity.Name)
		tableScope = table.Identity.Key()
	}

	for _, record := range table.Records {
		row, err := l.insert(ctx, qualifiedName, schemaKey, tableScope, record.Attrs)
		if err != nil {
			return err
		}

		if record.Named {
			key := tableScope + "." + record.Name
			if _, exists := l.refmap[key]; exists {
				panic("load: duplicate record key " + key + " (analyzer should have rejected this)")
			}
			l.refmap[key] = row
		}
	}

	return nil
}

// insert builds and executes one INSERT ... RETURNING * statement for a
// record's attributes, in declaration order.
func (l *Loader) insert(ctx context.Context, qualifiedName, schemaKey, tableScope string, attrs []*parse.Attribute) (Row, *Error) {
	var columns, values strings.Builder
	attrIndexes := make(map[string]int, len(attrs))

	for i, attr := range attrs {
		if i > 0 {
			columns.WriteString(", ")
			values.WriteString(", ")
		}
		columns.WriteString(quoteIdent(attr.Name))

		if err := l.writeValue(ctx, attrs, attrIndexes, schemaKey, tableScope, attr, &values); err != nil {
			return nil, err
		}

		// Registered only after the value is written, so a column cannot
		// resolve a reference to its own not-yet-written value.
		attrIndexes[attr.Name] = i
	}

	stmt := "INSERT INTO " + qualifiedName + " (" + columns.String() + ") VALUES (" + values.String() + ") RETURNING *"

	l.logStatement(stmt)
	row, err := l.exec.ExecSimple(ctx, stmt)
	if err != nil {
		return nil, asError(stmt, err)
	}
	return row, nil
}

// writeValue renders one attribute's value into the in-progress VALUES
// list. Reference and SqlFragment kinds require a round trip against the
// executor or the refmap; everything else is a direct textual splice.
func (l *Loader) writeValue(
	ctx context.Context,
	attrs []*parse.Attribute,
	attrIndexes map[string]int,
	schemaKey, tableScope string,
	attr *parse.Attribute,
	out *strings.Builder,
) *Error {
	v := attr.Value

	switch v.Kind {
	case parse.ValueBool:
		out.WriteString(strconv.FormatBool(v.Bool))

	case parse.ValueNumber:
		out.WriteString(v.Number)

	case parse.ValueText:
		out.WriteString(quoteSQLString(v.Text))

	case parse.ValueSqlFragment:
		query := "SELECT " + v.SqlFragment
		l.logStatement(query)
		row, err := l.exec.ExecSimple(ctx, query)
		if err != nil {
			return asError(query, err)
		}
		if row.Len() != 1 {
			return errFragmentShape(v.SqlFragment)
		}
		cell, ok := row.Sole()
		if !ok {
			out.WriteString("null")
		} else {
			// Spliced verbatim, not quoted: a fragment's result can be of
			// any SQL type (numeric, timestamp, already-a-literal string),
			// and the fragment author is responsible for producing text
			// that reads back as a valid value expression.
			out.WriteString(cell)
		}

	case parse.ValueReference:
		ref := v.Reference
		column := ref.Column
		if ref.ColumnImplicit {
			column = attr.Name
		}

		if !ref.HasRecord() {
			idx, ok := attrIndexes[column]
			if !ok {
				return errMissingColumn(tableScope, column)
			}
			return l.writeValue(ctx, attrs, attrIndexes, schemaKey, tableScope, attrs[idx], out)
		}

		key := referenceRecordKey(ref, schemaKey, tableScope)
		row, ok := l.refmap[key]
		if !ok {
			return errMissingRefmapEntry(key)
		}
		cell, present := row.Get(column)
		if !present {
			out.WriteString("null")
		} else {
			out.WriteString(quoteSQLString(cell))
		}
	}

	return nil
}

// referenceRecordKey mirrors analyze's reference-key reconstruction
// exactly, including the same-schema carry-forward for 3-segment
// references, since the refmap is keyed the same way the analyzer's
// refset is.
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

// asError normalizes whatever a QueryExecutor returns into this package's
// error type. QueryExecutor is an external-collaborator interface (the
// "simple-query executor" boundary), so an implementation is free to
// return a plain error; one of ours already is an *Error and passes
// through unchanged.
func asError(sql string, err error) *Error {
	if le, ok := err.(*Error); ok {
		return le
	}
	return errExec(sql, err)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// quoteSQLString renders a decoded Go string as a single-quoted SQL text
// literal, re-escaping embedded quotes. The lexer decodes '' to ' when it
// reads a Text token (and database-returned values are never escaped at
// all), so this is the one place that escaping happens before the value
// is spliced into a statement.
func quoteSQLString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
