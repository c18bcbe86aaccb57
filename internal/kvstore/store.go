// Package kvstore is a small string key-value cache on SQLite. Values are
// zstd-compressed at rest and may carry a TTL.
package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // SQLite driver

	"ridewise/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_kv_expires_at ON kv(expires_at) WHERE expires_at > 0;
`

// Store is safe for concurrent use.
type Store struct {
	db      *sql.DB
	clock   types.Clock
	encoder *zstd.Encoder

	decoderPool sync.Pool
}

// Open opens (creating if needed) the store at path. ":memory:" gives a
// private in-memory store.
func Open(path string, clock types.Clock) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open kv store: %w", err)
	}
	// A single connection keeps ":memory:" coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize kv store: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	if clock == nil {
		clock = types.RealClock{}
	}

	return &Store{
		db:      db,
		clock:   clock,
		encoder: enc,
		decoderPool: sync.Pool{
			New: func() any {
				d, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
				if err != nil {
					panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
				}
				return d
			},
		},
	}, nil
}

// Get returns the value for key. Expired entries are reported as missing.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ? AND (expires_at = 0 OR expires_at > ?)`,
		key, s.clock.Now().UnixNano(),
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, cacheError("failed to read cache entry", err)
	}

	raw, err := s.decompress(blob)
	if err != nil {
		return "", false, cacheError("failed to decode cache entry", err)
	}
	return string(raw), true, nil
}

// Set stores value under key. A ttl of zero or less never expires.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	now := s.clock.Now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixNano()
	}

	blob := s.encoder.EncodeAll([]byte(value), nil)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, expires_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		key, blob, expiresAt, now.UnixNano(),
	)
	if err != nil {
		return cacheError("failed to write cache entry", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return cacheError("failed to delete cache entry", err)
	}
	return nil
}

// Purge deletes expired entries and reports how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at > 0 AND expires_at <= ?`,
		s.clock.Now().UnixNano(),
	)
	if err != nil {
		return 0, cacheError("failed to purge cache", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// GetJSON decodes the JSON value stored under key into dst.
func (s *Store) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		return false, cacheError("failed to decode cached JSON", err)
	}
	return true, nil
}

// SetJSON stores v encoded as JSON.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return cacheError("failed to encode cache value", err)
	}
	return s.Set(ctx, key, string(b), ttl)
}

// Ping verifies the database is reachable. It backs the /health probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the encoder and the database handle.
func (s *Store) Close() error {
	s.encoder.Close()
	return s.db.Close()
}

func (s *Store) decompress(blob []byte) ([]byte, error) {
	d := s.decoderPool.Get().(*zstd.Decoder)
	defer s.decoderPool.Put(d)
	return d.DecodeAll(blob, nil)
}

func cacheError(msg string, err error) *types.AppError {
	return types.NewAppError(types.ErrCodeInternalCache, msg, err)
}
