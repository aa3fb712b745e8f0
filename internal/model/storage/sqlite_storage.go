package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	// sqlite driver
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLiteGateway is the single-device default: one file on disk, no server.
type SQLiteGateway struct {
	db *sql.DB
}

func NewSQLiteGateway(config sqliteConfig) (*SQLiteGateway, error) {
	db, err := sql.Open("sqlite", config.Path())
	if err != nil {
		return nil, errors.Wrap(err, "cannot open database")
	}
	if _, err = db.Exec(sqliteSchema); err != nil {
		return nil, errors.Wrap(err, "cannot init schema")
	}
	return &SQLiteGateway{db}, nil
}

func (s *SQLiteGateway) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var val []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "get value")
	}
	return val, true, nil
}

func (s *SQLiteGateway) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, time.Now())
	return errors.Wrap(err, "set value")
}
