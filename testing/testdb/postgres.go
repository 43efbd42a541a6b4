// Package testdb runs integration tests against a throwaway PostgreSQL
// container.
//
//	pg := testdb.SetupSharedPostgres(t)
//	defer pg.Cleanup(t)
//	pg.RunMigrations(t, (*employee.Employee)(nil))
//
//	t.Run("Create", func(t *testing.T) {
//	    testdb.CleanupTables(t, pg.DB, "employees")
//	})
package testdb

import (
	"context"
	"sync"
	"testing"

	"employee-service/internal/db"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
)

const postgresImage = "postgres:16-alpine"

type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DB        *bun.DB
	DSN       string
}

var (
	shared    *PostgresContainer
	sharedErr error
	startOnce sync.Once
)

// SetupSharedPostgres starts the container once per test binary. Subtests
// share it, so they must not run in parallel.
func SetupSharedPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	startOnce.Do(func() {
		shared, sharedErr = startPostgres(context.Background())
	})
	require.NoError(t, sharedErr, "postgres container failed to start")
	return shared
}

func startPostgres(ctx context.Context) (*PostgresContainer, error) {
	ctr, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("employees_test"),
		postgres.WithUsername("employees"),
		postgres.WithPassword("employees"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, err
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, err
	}

	database, err := db.NewWithDSN(dsn)
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, err
	}

	return &PostgresContainer{Container: ctr, DB: database, DSN: dsn}, nil
}

func (pc *PostgresContainer) Cleanup(t *testing.T) {
	t.Helper()

	db.Close(pc.DB)
	if err := testcontainers.TerminateContainer(pc.Container); err != nil {
		t.Logf("failed to terminate container: %s", err)
	}
}

func (pc *PostgresContainer) RunMigrations(t *testing.T, models ...any) {
	t.Helper()
	require.NoError(t, db.RunMigrations(context.Background(), pc.DB, models...))
}

// CleanupTables empties tables and resets their id sequences.
func CleanupTables(t *testing.T, database *bun.DB, tables ...string) {
	t.Helper()

	_, err := database.NewTruncateTable().Table(tables...).Cascade().Exec(context.Background())
	require.NoError(t, err, "failed to truncate %v", tables)
}
