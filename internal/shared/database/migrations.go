package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// migrationLockID serialises migrations across server instances sharing
// one database.
const migrationLockID = 0x636f6c6f6e79

// RunMigrations applies every *.sql file in the migrations directory that
// is not yet recorded in schema_migrations, in file name order. It returns
// the number of files applied.
func (db *DB) RunMigrations(ctx context.Context) (int, error) {
	logger := slog.With("component", "migrations", "dir", db.migrationsDir())
	logger.Info("Starting database migrations")

	if _, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT NOW()
	)`); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := db.migrationFiles()
	if err != nil {
		return 0, fmt.Errorf("failed to list migration files: %w", err)
	}
	logger.Debug("Found migration files", "count", len(files))

	applied := 0
	for _, file := range files {
		ran, err := db.apply(ctx, file)
		if err != nil {
			logger.Error("Migration failed", "migration", filepath.Base(file), "error", err)
			return applied, fmt.Errorf("failed to run migration %s: %w", filepath.Base(file), err)
		}
		if ran {
			applied++
		}
	}

	logger.Info("Database migrations complete", "applied", applied, "total", len(files))
	return applied, nil
}

func (db *DB) migrationsDir() string {
	if db.migrationsPath == "" {
		return "migrations"
	}
	return db.migrationsPath
}

func (db *DB) migrationFiles() ([]string, error) {
	entries, err := os.ReadDir(db.migrationsDir())
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		files = append(files, filepath.Join(db.migrationsDir(), e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// apply runs one migration file in its own transaction. It reports false
// when the file had already been applied.
func (db *DB) apply(ctx context.Context, file string) (bool, error) {
	version := filepath.Base(file)
	logger := slog.With("component", "migrations", "operation", "apply", "migration", version)

	tx, err := db.BeginTxContext(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Error("Failed to rollback migration", "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
		return false, fmt.Errorf("failed to take migration lock: %w", err)
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	if exists {
		logger.Debug("Migration already applied")
		return false, nil
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return false, fmt.Errorf("failed to read migration: %w", err)
	}

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return false, fmt.Errorf("failed to execute migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
		return false, fmt.Errorf("failed to record migration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit migration: %w", err)
	}

	logger.Info("Migration applied", "size_bytes", len(content))
	return true, nil
}
