package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/rollcall/internal/client/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	// Set the database dialect
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the station database at dsn and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer; a single connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
