package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS labsync_kv (
    name TEXT PRIMARY KEY,
    data TEXT NOT NULL
);
`

const (
	selectQuery = `SELECT data FROM labsync_kv WHERE name = $1`
	upsertQuery = `INSERT INTO labsync_kv (name, data) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET data = excluded.data`
	deleteQuery = `DELETE FROM labsync_kv WHERE name = $1`
)

// SQLStore keeps pairs in one table of a SQLite or PostgreSQL database.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// OpenSQL connects with the given database/sql driver and creates the table.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer keeps sqlite from returning SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	s, err := NewSQLStore(ctx, db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database and creates the table if needed.
func NewSQLStore(ctx context.Context, db *sql.DB, driver string) (*SQLStore, error) {
	if err := CreateSchema(ctx, db); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, driver: driver}, nil
}

// CreateSchema creates the key/value table.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	defer func() { recordOp(s.driver, "get", err) }()

	var data string
	err = s.db.QueryRowContext(ctx, selectQuery, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return []byte(data), true, nil
}

// Put implements Store.
func (s *SQLStore) Put(ctx context.Context, entries map[string][]byte) (err error) {
	defer func() { recordOp(s.driver, "put", err) }()

	for k := range entries {
		if k == "" {
			return ErrEmptyKey
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for k, v := range entries {
		if v == nil {
			_, err = tx.ExecContext(ctx, deleteQuery, k)
		} else {
			_, err = tx.ExecContext(ctx, upsertQuery, k, string(v))
		}
		if err != nil {
			return fmt.Errorf("write %q: %w", k, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.Put(ctx, deleteEntries(keys))
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
