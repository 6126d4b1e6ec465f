package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"

	"github.com/sandevgo/voxmem/pkg/log"
	_ "github.com/sandevgo/voxmem/pkg/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// NewDB opens (or creates) the database, runs migrations, and creates the
// vector table for the given embedding dimension. The vec0 table is created
// outside goose because its DDL depends on runtime configuration.
func NewDB(ctx context.Context, dbPath string, dimensions int) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3_vec", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := ensureVectorTable(ctx, db, dimensions); err != nil {
		return nil, fmt.Errorf("failed to create vector table: %w", err)
	}

	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(log.NewGooseLoggerFromCtx(ctx))

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

// ensureVectorTable creates the vec0 virtual table holding highlight
// embeddings. user_id is a partition key, so nearest-neighbour search is
// physically scoped per user and cross-user leakage cannot happen at the
// index level.
func ensureVectorTable(ctx context.Context, db *sql.DB, dimensions int) error {
	ddl := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS highlights_vec USING vec0(
		id TEXT PRIMARY KEY,
		user_id TEXT PARTITION KEY,
		embedding FLOAT[%d] distance_metric=cosine
	)`, dimensions)

	_, err := db.ExecContext(ctx, ddl)
	return err
}
