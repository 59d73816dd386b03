package testutils

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	pgxsession "github.com/typexs/typexs-base-sub000/typexs/session/pgx"
)

// PgConfig reads the test database settings from DB_USERNAME, DB_PASSWORD,
// DB_HOST, DB_PORT and DB_DATABASE.
func PgConfig() (*pgxpool.Config, error) {
	return pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		getEnv("DB_USERNAME", "devel"),
		getEnv("DB_PASSWORD", "devel"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_DATABASE", "devel_grade"),
	))
}

// PgSessionPool connects to the test database. The test is skipped in short
// mode and when the database does not answer.
func PgSessionPool(t testing.TB) *pgxsession.SessionPool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test")
	}
	config, err := PgConfig()
	if err != nil {
		t.Fatalf("invalid database settings: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		t.Fatalf("unable to create pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("postgres is not available: %v", err)
	}
	t.Cleanup(pool.Close)
	return pgxsession.NewSessionPool(pool)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
