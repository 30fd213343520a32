// Package sqlstore keeps credentials and submission logs in PostgreSQL or
// SQLite through bun.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	defaultMaxOpenConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
)

// Open connects to dsn with the given driver and returns a bun handle.
// The schema is not touched; call CreateSchema for that.
func Open(driver, dsn string) (*bun.DB, error) {
	var (
		sqlDB *sql.DB
		err   error
		db    *bun.DB
	)

	switch strings.ToLower(driver) {
	case DriverPostgres:
		// pgx stdlib registers itself as "pgx".
		sqlDB, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		sqlDB.SetMaxOpenConns(defaultMaxOpenConns)
		db = bun.NewDB(sqlDB, pgdialect.New())
	case DriverSQLite:
		sqlDB, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// An in-memory database lives and dies with its single connection.
		if strings.Contains(dsn, ":memory:") {
			sqlDB.SetMaxOpenConns(1)
			sqlDB.SetMaxIdleConns(1)
			return bun.NewDB(sqlDB, sqlitedialect.New()), nil
		}
		sqlDB.SetMaxOpenConns(defaultMaxOpenConns)
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	sqlDB.SetConnMaxLifetime(defaultConnMaxLifetime)
	return db, nil
}

// CreateSchema creates the tables and indexes if they do not exist.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{(*credentialModel)(nil), (*submissionLogModel)(nil)}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	if _, err := db.NewCreateIndex().
		Model((*submissionLogModel)(nil)).
		Index("indexing_submissions_user_created_idx").
		Column("user_id", "created_at").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}
