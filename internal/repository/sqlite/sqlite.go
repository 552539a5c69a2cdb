// Package sqlite implements the repository interfaces on an embedded SQLite
// database. It backs development setups and the test suite; production uses
// the postgres package.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so no C toolchain is
// needed. database/sql provides the connection pool: every repository call
// checks out one *sql.Conn, runs a single statement on it and returns it.
//
// Per-connection settings (foreign keys, WAL, busy timeout) are passed as
// _pragma DSN parameters so they apply to every connection the pool opens,
// not only the first one.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/glencoden/cards-api/internal/apperror"
	"github.com/glencoden/cards-api/internal/migrations"
	"github.com/glencoden/cards-api/internal/repository"
)

const pragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and hands out the entity repositories.
type DB struct {
	conn *sql.DB
	pool repository.PoolConfig
}

// New opens (or creates) the database file at path, verifies the connection
// and applies pending migrations.
//
// path examples:
//   - "data/cards.db"           → file in a relative directory
//   - "/var/lib/cards/cards.db" → absolute path
func New(ctx context.Context, path string, pool repository.PoolConfig, logger *slog.Logger) (*DB, error) {
	if path == "" {
		return nil, errors.New("sqlite: empty database path")
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	conn, err := sql.Open("sqlite", path+sep+pragmas)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if pool.MaxConns > 0 {
		conn.SetMaxOpenConns(int(pool.MaxConns))
		conn.SetMaxIdleConns(int(pool.MaxConns))
	}
	conn.SetConnMaxLifetime(pool.MaxConnLifetime)
	conn.SetConnMaxIdleTime(pool.MaxConnIdleTime)

	// sql.Open is lazy; Ping surfaces a bad path or permissions immediately.
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if err := migrations.Up(ctx, conn, migrations.SQLite, logger); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	return &DB{conn: conn, pool: pool}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Users() repository.UserRepository { return &UserDB{db: db} }
func (db *DB) Decks() repository.DeckRepository { return &DeckDB{db: db} }
func (db *DB) Cards() repository.CardRepository { return &CardDB{db: db} }

func (db *DB) Ping(ctx context.Context) error {
	return db.withConn(ctx, func(ctx context.Context, c *sql.Conn) error {
		return c.PingContext(ctx)
	})
}

// withConn checks a connection out of the pool, runs fn under the statement
// timeout and returns the connection on every exit path, panics included.
func (db *DB) withConn(ctx context.Context, fn func(ctx context.Context, c *sql.Conn) error) error {
	acquireCtx, cancel := repository.WithTimeout(ctx, db.pool.AcquireTimeout)
	c, err := db.conn.Conn(acquireCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("sqlite: acquiring connection: %w", repository.AcquireError(ctx, err))
	}
	defer c.Close()

	stmtCtx, cancel := repository.WithTimeout(ctx, db.pool.StatementTimeout)
	defer cancel()

	return fn(stmtCtx, c)
}

// classify turns constraint violations into client-facing error kinds.
// Everything else is returned unchanged and ends up as a 500.
func classify(resource string, err error) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return apperror.ValidationFailed("", resource+" references a user or deck that does not exist")
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return apperror.Conflict(resource, "row already exists")
	}
	return err
}
