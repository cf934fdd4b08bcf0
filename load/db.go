package load

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	applicationName       = "hldr"
	defaultConnectTimeout = 30 * time.Second
)

// Row is a single textual row of column values, as returned by a
// simple-query round trip: every cell arrives as its wire-format text
// representation (or absent, for SQL NULL).
type Row interface {
	// Get returns the column's textual value and whether it was present
	// (false for NULL or an unknown column).
	Get(column string) (value string, ok bool)

	// Len reports the number of columns in the row.
	Len() int

	// Sole returns the value of a row's only column. Only meaningful when
	// Len() == 1, which is what a SqlFragment round trip requires.
	Sole() (value string, ok bool)
}

// QueryExecutor is the loader's entire database dependency: execute one
// SQL string via the simple-query protocol and return its single result
// row. Both of the loader's uses — INSERT ... RETURNING * and SELECT
// <fragment> — expect exactly one row back; ExecSimple rejects zero or
// more than one with ErrUnexpectedRowCount rather than leaving the
// ambiguity to its caller.
type QueryExecutor interface {
	ExecSimple(ctx context.Context, sql string) (Row, error)
}

type textRow struct {
	order  []string
	values map[string]string
	nulls  map[string]bool
}

func (r *textRow) Get(column string) (string, bool) {
	if r.nulls[column] {
		return "", false
	}
	v, ok := r.values[column]
	return v, ok
}

func (r *textRow) Len() int { return len(r.order) }

func (r *textRow) Sole() (string, bool) {
	if len(r.order) != 1 {
		return "", false
	}
	return r.Get(r.order[0])
}

// PGXExecutor implements QueryExecutor over a pgx transaction, using the
// simple-query protocol so result cells arrive as raw text rather than
// pgx's usual type-decoded Go values.
type PGXExecutor struct {
	Tx pgx.Tx
}

func (e *PGXExecutor) ExecSimple(ctx context.Context, sql string) (Row, error) {
	rows, err := e.Tx.Query(ctx, sql, pgx.QueryExecModeSimpleProtocol)
	if err != nil {
		return nil, errExec(sql, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errExec(sql, err)
		}
		return nil, errRowCount(sql, 0)
	}

	fields := rows.FieldDescriptions()
	raw := rows.RawValues()

	row := &textRow{
		order:  make([]string, len(fields)),
		values: make(map[string]string, len(fields)),
		nulls:  make(map[string]bool, len(fields)),
	}
	for i, f := range fields {
		name := string(f.Name)
		row.order[i] = name
		if raw[i] == nil {
			row.nulls[name] = true
			continue
		}
		row.values[name] = string(raw[i])
	}

	if rows.Next() {
		count := 2
		for rows.Next() {
			count++
		}
		return nil, errRowCount(sql, count)
	}
	if err := rows.Err(); err != nil {
		return nil, errExec(sql, err)
	}

	return row, nil
}

// Connect dials a single connection configured with the application name
// and default connect timeout a caller's connection string does not
// already specify.
func Connect(ctx context.Context, connString string) (*pgx.Conn, error) {
	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, errConfig(connString, err)
	}
	applyDefaults(cfg)

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, errConnection(connString, err)
	}
	return conn, nil
}

func applyDefaults(cfg *pgx.ConnConfig) {
	if cfg.RuntimeParams == nil {
		cfg.RuntimeParams = map[string]string{}
	}
	if _, ok := cfg.RuntimeParams["application_name"]; !ok {
		cfg.RuntimeParams["application_name"] = applicationName
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
}
