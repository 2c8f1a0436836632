// internal/db/db.go
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/inkwelldev/newsletter-backend/internal/config"
)

// Connect opens the postgres pool and verifies connectivity. The pool is
// handed to repositories explicitly rather than kept as a package global.
func Connect(cfg config.Config) (*sql.DB, error) {
	pool, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	if err := pool.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return pool, nil
}
