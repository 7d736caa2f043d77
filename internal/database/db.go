// Package database owns the Postgres connection pool and schema
// migrations, and hosts one repository type per aggregate in the data
// model. Repositories talk to Postgres through database/sql with the
// pgx/v5 stdlib driver, hand-writing SQL the way the teacher's own
// history/watchlist repositories do rather than through an ORM.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Config is the subset of the application's layered viper config that
// the database package needs.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB wraps the shared connection pool handed to every repository.
type DB struct {
	*sql.DB
	log zerolog.Logger
}

// Open connects to Postgres and runs any pending migrations before
// returning. It is the one place in the module allowed to call
// goose.Up, keeping the migration directory tied to this package's
// embedded files.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*DB, error) {
	conn, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseZerologAdapter{log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	log.Info().Msg("database migrations up to date")
	return &DB{DB: conn, log: log}, nil
}

// gooseZerologAdapter routes goose's internal logging through the
// application's structured logger instead of stdlib log.
type gooseZerologAdapter struct {
	log zerolog.Logger
}

func (g gooseZerologAdapter) Fatalf(format string, v ...interface{}) {
	g.log.Fatal().Msgf(format, v...)
}

func (g gooseZerologAdapter) Printf(format string, v ...interface{}) {
	g.log.Info().Msgf(format, v...)
}
