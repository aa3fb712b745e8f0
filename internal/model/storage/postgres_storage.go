package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	// postgres driver
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

const dsnTemplate = "user=%s password=%s host=%s port=%d dbname=%s sslmode=disable"

const pgSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresGateway struct {
	db *sql.DB
}

func NewPostgresGateway(config pgConfig) (*PostgresGateway, error) {
	db, err := sql.Open("postgres", fmt.Sprintf(dsnTemplate,
		config.Username(),
		config.Password(),
		config.Host(),
		config.Port(),
		config.Database()))
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	if _, err = db.Exec(pgSchema); err != nil {
		return nil, errors.Wrap(err, "cannot init schema")
	}
	return &PostgresGateway{db}, nil
}

func (s *PostgresGateway) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := psql.Select("value").
		From("kv").
		Where(sq.Eq{"key": key})

	var val []byte
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "get value")
	}
	return val, true, nil
}

func (s *PostgresGateway) Set(ctx context.Context, key string, value []byte) error {
	query := psql.Insert("kv").
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now()).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = ?",
			value, time.Now())

	_, err := query.RunWith(s.db).ExecContext(ctx)
	return errors.Wrap(err, "set value")
}
