// Package migrations embeds the versioned schema and applies it with goose.
//
// Each dialect has its own directory of numbered SQL files. goose records
// applied versions in its goose_db_version table, so Up applies every pending
// file exactly once and is a no-op when the schema is current.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Dialect selects the migration set and SQL flavour.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Up applies all pending migrations. A failure leaves earlier, successfully
// applied versions recorded and returns the error; callers must not serve
// traffic in that case.
func Up(ctx context.Context, db *sql.DB, dialect Dialect, logger *slog.Logger) error {
	provider, err := newProvider(db, dialect)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	for _, r := range results {
		if r.Source == nil {
			continue
		}
		logger.Info("migration applied",
			slog.Int64("version", r.Source.Version),
			slog.String("file", path.Base(r.Source.Path)),
			slog.Duration("duration", r.Duration),
		)
	}
	if err != nil {
		return fmt.Errorf("migrations: applying %s migrations: %w", dialect, err)
	}

	version, err := currentVersion(ctx, provider)
	if err != nil {
		return err
	}
	logger.Info("schema up to date",
		slog.String("dialect", string(dialect)),
		slog.Int64("version", version),
	)
	return nil
}

// currentVersion reports the highest applied migration version.
func currentVersion(ctx context.Context, provider *goose.Provider) (int64, error) {
	v, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrations: reading version: %w", err)
	}
	return v, nil
}

func newProvider(db *sql.DB, dialect Dialect) (*goose.Provider, error) {
	fsys, err := fs.Sub(files, string(dialect))
	if err != nil {
		return nil, fmt.Errorf("migrations: opening %s directory: %w", dialect, err)
	}

	var (
		gooseDialect goose.Dialect
		opts         []goose.ProviderOption
	)
	switch dialect {
	case Postgres:
		gooseDialect = goose.DialectPostgres
		// Serializes concurrent startups on an advisory lock.
		locker, err := lock.NewPostgresSessionLocker()
		if err != nil {
			return nil, fmt.Errorf("migrations: creating session locker: %w", err)
		}
		opts = append(opts, goose.WithSessionLocker(locker))
	case SQLite:
		gooseDialect = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	provider, err := goose.NewProvider(gooseDialect, db, fsys, opts...)
	if err != nil {
		return nil, fmt.Errorf("migrations: creating provider: %w", err)
	}
	return provider, nil
}
