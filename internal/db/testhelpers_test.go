//go:build integration

package db

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// testPool — общий pool для всех тестов пакета.
var testPool *pgxpool.Pool

// TestMain поднимает PostgreSQL 16 в testcontainer и применяет миграции.
func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("starting postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("getting connection string: %v", err)
	}

	if err := RunMigrations(ctx, dsn); err != nil {
		log.Fatalf("running migrations: %v", err)
	}

	testPool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connecting to test db: %v", err)
	}

	code := m.Run()

	testPool.Close()
	if err := testcontainers.TerminateContainer(container); err != nil {
		log.Printf("terminating postgres container: %v", err)
	}
	os.Exit(code)
}

// setupTestDB очищает таблицы и возвращает общий pool.
func setupTestDB(tb testing.TB) *pgxpool.Pool {
	tb.Helper()

	ctx := context.Background()
	for _, q := range []string{
		"TRUNCATE accounts",
		"TRUNCATE account_data",
		"TRUNCATE accounts_ipauth",
		"TRUNCATE gameservers",
	} {
		if _, err := testPool.Exec(ctx, q); err != nil {
			tb.Fatalf("cleanup %q: %v", q, err)
		}
	}
	return testPool
}
