// Package hldr wires the lexer, parser, analyzer, and loader into the
// single Place entry point: read a source file, validate it, and run it
// against one transaction.
package hldr

import (
	"context"
	"fmt"
	"os"

	"github.com/crudecomputer/hldr/analyze"
	"github.com/crudecomputer/hldr/lex"
	"github.com/crudecomputer/hldr/load"
	"github.com/crudecomputer/hldr/parse"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// Place reads dataFile, runs it through the full front-end pipeline, and
// executes the resulting inserts inside one transaction on conn. If
// searchPath is non-empty it is set before any statement runs. The
// transaction commits when commit is true, and rolls back otherwise —
// the default is a dry run.
func Place(ctx context.Context, logger logrus.FieldLogger, conn *pgx.Conn, dataFile, searchPath string, commit bool) error {
	text, err := os.ReadFile(dataFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dataFile, err)
	}

	tokens, lerr := lex.Tokenize(string(text))
	if lerr != nil {
		return lerr
	}

	tree, perr := parse.Parse(tokens)
	if perr != nil {
		return perr
	}

	validated, aerr := analyze.Analyze(tree)
	if aerr != nil {
		return aerr
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if searchPath != "" {
		if _, err := tx.Exec(ctx, "SET search_path TO "+searchPath); err != nil {
			return fmt.Errorf("setting search_path: %w", err)
		}
	}

	loader := load.NewLoader(&load.PGXExecutor{Tx: tx})
	loader.Logger = logger

	logger.Debugf("loading %s", dataFile)
	if lerr := loader.Load(ctx, validated); lerr != nil {
		return lerr
	}

	if commit {
		logger.Info("committing changes")
		return tx.Commit(ctx)
	}

	logger.Info("rolling back changes, pass --commit to apply")
	return tx.Rollback(ctx)
}
