// Package postgres implements the repository interfaces on PostgreSQL using
// a pgxpool connection pool.
//
// Every repository call acquires one connection, runs one statement under the
// configured statement timeout and releases the connection before returning.
// Schema migrations run once in New, over a separate short-lived database/sql
// handle because goose speaks database/sql.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver for migrations

	"github.com/glencoden/cards-api/internal/apperror"
	"github.com/glencoden/cards-api/internal/migrations"
	"github.com/glencoden/cards-api/internal/repository"
)

// SQLSTATE codes mapped to client errors.
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

var _ repository.Store = (*DB)(nil)

type DB struct {
	pool     *pgxpool.Pool
	settings repository.PoolConfig
}

// New migrates the database at dsn and opens the connection pool.
func New(ctx context.Context, dsn string, settings repository.PoolConfig, logger *slog.Logger) (*DB, error) {
	if err := migrate(ctx, dsn, logger); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing database url: %w", err)
	}
	if settings.MaxConns > 0 {
		cfg.MaxConns = settings.MaxConns
	}
	cfg.MinConns = settings.MinConns
	if settings.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = settings.MaxConnLifetime
	}
	if settings.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = settings.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}

	db := &DB{pool: pool, settings: settings}
	if err := db.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	logger.Info("postgres pool ready",
		slog.Int("max_conns", int(cfg.MaxConns)),
		slog.Int("min_conns", int(cfg.MinConns)),
	)
	return db, nil
}

func migrate(ctx context.Context, dsn string, logger *slog.Logger) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("postgres: opening migration connection: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: connecting: %w", err)
	}
	if err := migrations.Up(ctx, sqlDB, migrations.Postgres, logger); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

func (db *DB) Users() repository.UserRepository { return &UserDB{db: db} }
func (db *DB) Decks() repository.DeckRepository { return &DeckDB{db: db} }
func (db *DB) Cards() repository.CardRepository { return &CardDB{db: db} }

func (db *DB) Ping(ctx context.Context) error {
	return db.withConn(ctx, func(ctx context.Context, c *pgxpool.Conn) error {
		return c.Ping(ctx)
	})
}

// withConn acquires a pooled connection, runs fn under the statement timeout
// and releases the connection on every exit path.
func (db *DB) withConn(ctx context.Context, fn func(ctx context.Context, c *pgxpool.Conn) error) error {
	acquireCtx, cancel := repository.WithTimeout(ctx, db.settings.AcquireTimeout)
	c, err := db.pool.Acquire(acquireCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("postgres: acquiring connection: %w", repository.AcquireError(ctx, err))
	}
	defer c.Release()

	stmtCtx, cancel := repository.WithTimeout(ctx, db.settings.StatementTimeout)
	defer cancel()

	return fn(stmtCtx, c)
}

func classify(resource string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case foreignKeyViolation:
		return apperror.ValidationFailed("", resource+" references a user or deck that does not exist")
	case uniqueViolation:
		return apperror.Conflict(resource, pgErr.ConstraintName)
	}
	return err
}
