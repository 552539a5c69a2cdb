package repository

import (
	"context"
	"errors"
	"time"

	"github.com/glencoden/cards-api/internal/apperror"
)

// PoolConfig bounds the connection pool shared by all requests.
type PoolConfig struct {
	// MaxConns is the maximum number of open connections.
	MaxConns int32
	// MinConns is the number of connections kept open when idle (postgres only).
	MinConns int32
	// AcquireTimeout bounds how long a request waits for a free connection.
	AcquireTimeout time.Duration
	// StatementTimeout bounds a single statement, including result scanning.
	StatementTimeout time.Duration
	// MaxConnLifetime closes connections older than this.
	MaxConnLifetime time.Duration
	// MaxConnIdleTime closes connections idle for longer than this.
	MaxConnIdleTime time.Duration
}

// DefaultPoolConfig provides defaults suited to a single small instance.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:         10,
		MinConns:         0,
		AcquireTimeout:   5 * time.Second,
		StatementTimeout: 10 * time.Second,
		MaxConnLifetime:  time.Hour,
		MaxConnIdleTime:  30 * time.Minute,
	}
}

// poolExhaustedMessage is reported when no connection frees up within
// AcquireTimeout.
const poolExhaustedMessage = "database connection pool exhausted"

// AcquireError classifies a failed connection acquire. If the acquire timed
// out while the caller's own context was still live, the pool is saturated
// and the error becomes apperror.ErrUnavailable. Cancellation by the caller
// and connect failures are returned unchanged.
func AcquireError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return apperror.Unavailable(poolExhaustedMessage, err)
	}
	return err
}

// WithTimeout derives a context bounded by d. A non-positive d leaves only
// the parent's deadline in effect.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
