// Package hldrtest provisions scratch Postgres schemas for integration
// tests that need a real database connection.
package hldrtest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
)

// Fixture is a uniquely named schema in a shared test database, so
// parallel test runs never collide with one another's records.
type Fixture struct {
	Conn   *pgx.Conn
	Schema string
}

// NewFixture connects to HLDR_TEST_DATABASE_URL and creates a schema
// named after a fresh UUID, setting it first on the connection's
// search_path. Panics on setup failure: a broken test database is not a
// condition any individual test can recover from.
func NewFixture() *Fixture {
	dsn := os.Getenv("HLDR_TEST_DATABASE_URL")
	if dsn == "" {
		panic("must set HLDR_TEST_DATABASE_URL to run hldrtest fixtures")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		panic(err)
	}

	schema := "hldrtest_" + strings.ReplaceAll(uuid.Must(uuid.NewV4()).String(), "-", "")

	if _, err := conn.Exec(ctx, fmt.Sprintf(`create schema %q`, schema)); err != nil {
		panic(err)
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf(`set search_path to %q`, schema)); err != nil {
		panic(err)
	}

	return &Fixture{Conn: conn, Schema: schema}
}

// Teardown drops the fixture's schema and closes its connection.
func (f *Fixture) Teardown() {
	if f.Conn == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	_, _ = f.Conn.Exec(ctx, fmt.Sprintf(`drop schema if exists %q cascade`, f.Schema))
	_ = f.Conn.Close(ctx)
	f.Conn = nil
}
