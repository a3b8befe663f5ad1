// Package database opens the configured SQL engine and keeps its schema up
// to date.
package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrations embed.FS

const pingTimeout = 5 * time.Second

// Open connects to url with the driver behind dialect and verifies the
// connection.
func Open(ctx context.Context, dialect Dialect, url string) (*sqlx.DB, error) {
	db, err := sqlx.Open(dialect.DriverName(), url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", dialect, err)
	}

	if dialect == SQLite {
		// SQLite allows a single writer; extra pooled writers only produce
		// SQLITE_BUSY errors.
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate applies every pending migration for dialect.
func Migrate(ctx context.Context, db *sqlx.DB, dialect Dialect, logger *zap.Logger) error {
	fsys, err := fs.Sub(migrations, "migrations/"+dialect.migrationsDir())
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect.gooseDialect(), db.DB, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	for _, result := range results {
		logger.Info(
			"applied migration",
			zap.String("dialect", string(dialect)),
			zap.Int64("version", result.Source.Version),
			zap.String("path", result.Source.Path),
			zap.Duration("duration", result.Duration),
		)
	}

	return nil
}
