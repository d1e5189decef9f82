// Package database provides connection setup for the SQLite store. The
// connection is created once at startup and shared across the application
// via dependency injection. This package owns the connection lifecycle
// (open, configure, ping, close) and the schema migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// SQLite driver -- imported for side effect of registering the driver.
	_ "modernc.org/sqlite"

	"github.com/steveraffner/epicevents/internal/config"
)

// NewSQLite opens the SQLite database at the configured path. Foreign keys
// are enforced and WAL mode keeps concurrent CLI invocations from tripping
// over each other. It pings the database to verify the file is usable
// before returning.
func NewSQLite(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// churn inside one process.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}

	return db, nil
}
