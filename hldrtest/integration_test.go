package hldrtest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/crudecomputer/hldr"
	"github.com/crudecomputer/hldr/hldrtest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestPlace_InsertsAndRollsBackByDefault(t *testing.T) {
	if os.Getenv("HLDR_TEST_DATABASE_URL") == "" {
		t.Skip("HLDR_TEST_DATABASE_URL not set")
	}

	fixture := hldrtest.NewFixture()
	defer fixture.Teardown()
	ctx := context.Background()

	_, err := fixture.Conn.Exec(ctx, `create table people (id serial primary key, name text not null)`)
	require.NoError(t, err)

	dataFile := filepath.Join(t.TempDir(), "seed.hldr")
	require.NoError(t, os.WriteFile(dataFile, []byte(`table people (alice (name 'Alice'))`), 0644))

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	require.NoError(t, hldr.Place(ctx, logger, fixture.Conn, dataFile, "", false))

	var count int
	require.NoError(t, fixture.Conn.QueryRow(ctx, `select count(*) from people`).Scan(&count))
	require.Equal(t, 0, count, "rollback by default should leave no rows")
}

func TestPlace_CommitPersistsRows(t *testing.T) {
	if os.Getenv("HLDR_TEST_DATABASE_URL") == "" {
		t.Skip("HLDR_TEST_DATABASE_URL not set")
	}

	fixture := hldrtest.NewFixture()
	defer fixture.Teardown()
	ctx := context.Background()

	_, err := fixture.Conn.Exec(ctx, `create table people (id serial primary key, name text not null)`)
	require.NoError(t, err)

	dataFile := filepath.Join(t.TempDir(), "seed.hldr")
	require.NoError(t, os.WriteFile(dataFile, []byte(`table people (alice (name 'Alice'))`), 0644))

	logger := logrus.New()

	require.NoError(t, hldr.Place(ctx, logger, fixture.Conn, dataFile, "", true))

	var name string
	require.NoError(t, fixture.Conn.QueryRow(ctx, `select name from people`).Scan(&name))
	require.Equal(t, "Alice", name)
}
