// Package database centralises sqlx connection helpers.  The driver is
// go-sql-driver/mysql.
//
// Public entry points:
//
//	Open(ctx, dsn)                 – helper with conservative pool sizes.
//	OpenWithOptions(ctx, dsn, o)   – fine-grained control and boot retries.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  The returned *sqlx.DB is the one process-wide pool; it
// is opened once by cmd/web and handed to every store.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Options tunes the pool and the boot-time ping retries.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retries         int
	RetryBackoff    time.Duration
}

// DefaultOptions: 15 max open, 5 idle, 30-minute lifetime, no retries.
var DefaultOptions = Options{
	MaxOpenConns:    15,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
	RetryBackoff:    500 * time.Millisecond,
}

// Open returns a *sqlx.DB with DefaultOptions.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, DefaultOptions)
}

// OpenWithOptions opens the pool and pings it, retrying o.Retries times with
// linear backoff so a database that starts alongside the app does not abort
// boot.
func OpenWithOptions(ctx context.Context, dsn string, o Options) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	db.SetMaxOpenConns(o.MaxOpenConns)
	db.SetMaxIdleConns(o.MaxIdleConns)
	db.SetConnMaxLifetime(o.ConnMaxLifetime)

	for attempt := 0; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if attempt >= o.Retries {
			break
		}
		zap.S().Warnw("database ping failed, retrying", "attempt", attempt+1, "err", err)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(o.RetryBackoff * time.Duration(attempt+1)):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("database: ping: %w", err)
}
