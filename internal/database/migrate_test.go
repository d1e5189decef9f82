// Package database provides connection setup for the SQLite store.
// This file validates migration SQL files to catch schema mismatches early.
package database

import (
	"database/sql"
	"io/fs"
	"regexp"
	"strings"
	"testing"
)

// validRoles must match the CHECK constraint on users.role and the roles
// the authorization matrix knows about. Update both together.
var validRoles = map[string]bool{
	"management": true,
	"commercial": true,
	"support":    true,
}

// TestMigrations_RoleValues scans all .up.sql migration files for quoted
// role values in users-related statements and validates them against the
// known role set. This catches a migration seeding or constraining a role
// the authorization matrix would silently deny.
func TestMigrations_RoleValues(t *testing.T) {
	rolePattern := regexp.MustCompile(`'([a-z_]+)'`)

	entries, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		t.Fatalf("globbing migration files: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migration files embedded")
	}

	for _, name := range entries {
		data, err := fs.ReadFile(migrationsFS, name)
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}

		for _, line := range strings.Split(string(data), "\n") {
			if !strings.Contains(line, "role") {
				continue
			}
			for _, match := range rolePattern.FindAllStringSubmatch(line, -1) {
				if !validRoles[match[1]] {
					t.Errorf("%s: unknown role %q; valid roles: management, commercial, support",
						name, match[1])
				}
			}
		}
	}
}

// TestMigrations_UpDownPairs ensures every .up.sql has a matching .down.sql.
func TestMigrations_UpDownPairs(t *testing.T) {
	upFiles, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		t.Fatalf("globbing up files: %v", err)
	}

	for _, up := range upFiles {
		down := strings.Replace(up, ".up.sql", ".down.sql", 1)
		if _, err := fs.Stat(migrationsFS, down); err != nil {
			t.Errorf("missing down migration for %s", up)
		}
	}
}

// TestRunMigrations_Idempotent verifies a second run is a no-op instead
// of an error, so init-db can be rerun safely.
func TestRunMigrations_Idempotent(t *testing.T) {
	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := RunMigrations(db); err != nil {
		t.Fatalf("first RunMigrations() error = %v", err)
	}
	if err := RunMigrations(db); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatalf("querying migrated schema: %v", err)
	}
	if n != 0 {
		t.Errorf("users table has %d rows, want 0", n)
	}
}

// TestMigrations_TablesCovered ensures the schema defines every table the
// repositories query.
func TestMigrations_TablesCovered(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("reading init migration: %v", err)
	}
	schema := string(data)

	for _, table := range []string{"users", "clients", "contracts", "events"} {
		if !strings.Contains(schema, "CREATE TABLE "+table) {
			t.Errorf("init migration does not create table %q", table)
		}
	}
}
