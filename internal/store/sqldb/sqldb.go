// Package sqldb implements store.ConfigStore over database/sql. PostgreSQL
// is the production backend; SQLite serves embedded and local deployments.
package sqldb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/alfredjeanlab/corrlog/internal/model"
	"github.com/alfredjeanlab/corrlog/internal/store"
)

//go:embed migrations
var migrationsFS embed.FS

// Dialect names a supported database/sql driver.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// ParseDialect validates a driver name.
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(name); d {
	case DialectPostgres, DialectSQLite:
		return d, nil
	}
	return "", fmt.Errorf("unsupported database driver %q (must be postgres or sqlite3)", name)
}

// Store implements store.ConfigStore backed by a relational database.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Compile-time check that Store implements store.ConfigStore.
var _ store.ConfigStore = (*Store)(nil)

// Open connects to the database, configures the connection pool, and runs
// any pending migrations.
func Open(dialect Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	switch dialect {
	case DialectSQLite:
		// SQLite allows a single writer; one connection also keeps
		// in-memory databases alive across calls.
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewWithDB(db, dialect), nil
}

// NewWithDB wraps an already opened handle. The schema must exist.
func NewWithDB(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func runMigrations(db *sql.DB, dialect Dialect) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	var dbDriver migratedb.Driver
	switch dialect {
	case DialectSQLite:
		dbDriver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	default:
		dbDriver, err = postgres.WithInstance(db, &postgres.Config{})
	}
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(dialect), dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Dialect reports the backend this store talks to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &model.PersistenceError{Op: "ping database", Err: err}
	}
	return nil
}

// Exists reports whether any correlation config row is stored.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	ok, err := queryExists(ctx, s.db)
	if err != nil {
		return false, &model.PersistenceError{Op: "check correlation configs", Err: err}
	}
	return ok, nil
}

// SeedDefaults inserts the default configs in one transaction, leaving
// rows that already exist untouched.
func (s *Store) SeedDefaults(ctx context.Context) error {
	err := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		return querySeedDefaults(ctx, tx, model.DefaultConfigs())
	})
	if err != nil {
		return &model.PersistenceError{Op: "seed correlation configs", Err: err}
	}
	return nil
}

// GetAll returns every config in catalog order with its properties
// ordered by name.
func (s *Store) GetAll(ctx context.Context) ([]model.CorrelationConfig, error) {
	configs, err := queryGetAll(ctx, s.db)
	if err != nil {
		return nil, &model.PersistenceError{Op: "retrieve correlation configs", Err: err}
	}
	return configs, nil
}

// UpdateAll runs the validate-then-write pass in one transaction. A
// validation error is returned as-is; anything else is a PersistenceError.
func (s *Store) UpdateAll(ctx context.Context, configs []model.CorrelationConfig) (bool, error) {
	err := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		return queryUpdateAll(ctx, tx, configs)
	})
	switch {
	case err == nil:
		return true, nil
	case model.IsValidationError(err):
		return false, err
	default:
		return false, &model.PersistenceError{Op: "update correlation configs", Err: err}
	}
}

// runInTransaction begins a transaction, calls fn, and commits on success
// or rolls back on error.
func runInTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
