// Package sqlstore implements the session store on a SQL database. Postgres
// backs production deployments; the embedded sqlite driver serves local runs
// and tests without external services.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"geolens/domain/core"
	"geolens/ports"
)

const createTable = `
CREATE TABLE IF NOT EXISTS session_blobs (
	key        TEXT PRIMARY KEY,
	value      %s NOT NULL,
	expires_at BIGINT NOT NULL DEFAULT 0,
	updated_at BIGINT NOT NULL
)`

func init() {
	// The modernc driver registers as "sqlite", which sqlx does not know.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store persists session blobs in a single key-value table. Expiry is a unix
// timestamp column; zero means the entry never expires. Expired rows are
// filtered on read and purged lazily on write.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open connects to the database named by driver ("postgres" or "sqlite") and
// ensures the blob table exists.
func Open(driver, dsn string) (*Store, error) {
	blobType := ""
	switch driver {
	case "postgres":
		blobType = "BYTEA"
	case "sqlite":
		blobType = "BLOB"
	default:
		return nil, fmt.Errorf("unsupported session store driver: %s", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// A pooled second connection to an in-memory database would see a
		// different database entirely.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(fmt.Sprintf(createTable, blobType)); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session table: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

var _ ports.SessionStore = (*Store)(nil)

// Set stores a blob under a key, replacing any existing value.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	var expires int64
	if ttl > 0 {
		expires = now.Add(ttl).Unix()
	}

	query := s.db.Rebind(`
		INSERT INTO session_blobs (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value, expires_at = excluded.expires_at, updated_at = excluded.updated_at
	`)
	if _, err := s.db.ExecContext(ctx, query, key, value, expires, now.Unix()); err != nil {
		return fmt.Errorf("store session blob: %w", err)
	}
	s.purgeExpired(ctx)
	return nil
}

// Get retrieves a blob by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	query := s.db.Rebind(`
		SELECT value FROM session_blobs
		WHERE key = ? AND (expires_at = 0 OR expires_at > ?)
	`)
	err := s.db.GetContext(ctx, &value, query, key, s.now().Unix())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session blob: %w", err)
	}
	return value, nil
}

// ListKeys returns all live keys with the given prefix, newest first.
func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	query := s.db.Rebind(`
		SELECT key FROM session_blobs
		WHERE key LIKE ? AND (expires_at = 0 OR expires_at > ?)
		ORDER BY updated_at DESC
	`)
	if err := s.db.SelectContext(ctx, &keys, query, prefix+"%", s.now().Unix()); err != nil {
		return nil, fmt.Errorf("list session keys: %w", err)
	}
	return keys, nil
}

// Delete removes a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	query := s.db.Rebind(`DELETE FROM session_blobs WHERE key = ?`)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete session blob: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// purgeExpired drops expired rows. Failures are ignored; expired rows are
// also filtered on every read.
func (s *Store) purgeExpired(ctx context.Context) {
	query := s.db.Rebind(`DELETE FROM session_blobs WHERE expires_at != 0 AND expires_at <= ?`)
	_, _ = s.db.ExecContext(ctx, query, s.now().Unix())
}
