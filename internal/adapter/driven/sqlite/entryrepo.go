package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/juju/clock"

	"github.com/ericfisherdev/ephemvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EntryStore = (*EntryRepo)(nil)

// EntryRepo is the SQLite implementation of the EntryStore port interface.
// Reads filter on expires_at, so an expired row is never returned even before
// the purge loop removes it.
type EntryRepo struct {
	db    *DB
	clock clock.Clock
}

// NewEntryRepo creates a new EntryRepo. Pass clock.WallClock in production.
func NewEntryRepo(db *DB, clk clock.Clock) *EntryRepo {
	return &EntryRepo{db: db, clock: clk}
}

// Set stores or replaces the entry for key.
func (r *EntryRepo) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	expiresAt := r.clock.Now().Add(ttl).UnixMilli()

	const query = `INSERT OR REPLACE INTO entries (key, value, expires_at) VALUES (?, ?, ?)`
	if _, err := r.db.Writer.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("set entry: %w: %w", driven.ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the live value for key.
func (r *EntryRepo) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM entries WHERE key = ? AND expires_at > ?`
	var value string
	err := r.db.Reader.QueryRowContext(ctx, query, key, r.clock.Now().UnixMilli()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get entry: %w: %w", driven.ErrStoreUnavailable, err)
	}
	return value, true, nil
}

// Exists reports whether a live entry is stored under key.
func (r *EntryRepo) Exists(ctx context.Context, key string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM entries WHERE key = ? AND expires_at > ?)`
	var exists bool
	if err := r.db.Reader.QueryRowContext(ctx, query, key, r.clock.Now().UnixMilli()).Scan(&exists); err != nil {
		return false, fmt.Errorf("check entry: %w: %w", driven.ErrStoreUnavailable, err)
	}
	return exists, nil
}

// Delete removes the entry for key.
func (r *EntryRepo) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM entries WHERE key = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete entry: %w: %w", driven.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping checks both connections.
func (r *EntryRepo) Ping(ctx context.Context) error {
	if err := r.db.Writer.PingContext(ctx); err != nil {
		return fmt.Errorf("ping writer: %w: %w", driven.ErrStoreUnavailable, err)
	}
	if err := r.db.Reader.PingContext(ctx); err != nil {
		return fmt.Errorf("ping reader: %w: %w", driven.ErrStoreUnavailable, err)
	}
	return nil
}

// Purge deletes every expired row and returns how many were removed.
func (r *EntryRepo) Purge(ctx context.Context) (int64, error) {
	const query = `DELETE FROM entries WHERE expires_at <= ?`
	res, err := r.db.Writer.ExecContext(ctx, query, r.clock.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge rows affected: %w", err)
	}
	return n, nil
}

// StartPurger removes expired rows every interval until ctx is canceled, so
// expired credentials do not linger in the database file.
func (r *EntryRepo) StartPurger(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("sqlite purger stopped")
			return
		case <-r.clock.After(interval):
			n, err := r.Purge(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("purge cycle failed", "error", err)
				}
				continue
			}
			if n > 0 {
				slog.Debug("purged expired entries", "count", n)
			}
		}
	}
}
