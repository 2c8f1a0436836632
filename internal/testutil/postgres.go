//go:build integration

// Package testutil provides shared helpers for database-backed tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/lib/pq"
)

const (
	postgresImage          = "postgres:16-alpine"
	postgresDatabase       = "newsletter"
	postgresUser           = "postgres"
	postgresPassword       = "secret"
	postgresStartupTimeout = 2 * time.Minute
)

// StartPostgres launches a throwaway Postgres container, applies schema.sql
// and returns an open pool. Cleanup of both the pool and the container is
// registered on t.
func StartPostgres(t *testing.T, ctx context.Context) *sql.DB {
	t.Helper()

	port := nat.Port("5432/tcp")
	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{string(port)},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDatabase,
		},
		WaitingFor: wait.ForSQL(port, "postgres", func(host string, port nat.Port) string {
			return fmt.Sprintf(
				"postgres://%s:%s@%s:%s/%s?sslmode=disable",
				postgresUser,
				postgresPassword,
				host,
				port.Port(),
				postgresDatabase,
			)
		}).WithStartupTimeout(postgresStartupTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("resolve host: %v", err)
	}
	mappedPort, err := container.MappedPort(ctx, port)
	if err != nil {
		t.Fatalf("resolve port: %v", err)
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser,
		postgresPassword,
		host,
		mappedPort.Port(),
		postgresDatabase,
	)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	applySchema(t, ctx, db)

	return db
}

func applySchema(t *testing.T, ctx context.Context, db *sql.DB) {
	t.Helper()

	_, self, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("resolve schema path")
	}
	schema, err := os.ReadFile(filepath.Join(filepath.Dir(self), "..", "..", "schema.sql"))
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
}
