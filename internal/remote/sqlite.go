package remote

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS blobs (
	key          TEXT PRIMARY KEY,
	data         BLOB NOT NULL,
	last_updated INTEGER NOT NULL
);
`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Fetch(ctx context.Context, key string) (*Blob, error) {
	var data []byte
	var ns int64
	err := s.db.QueryRowContext(ctx, `SELECT data, last_updated FROM blobs WHERE key = ?`, key).Scan(&data, &ns)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: fetch %s", key)
	}
	return &Blob{Data: data, LastUpdated: time.Unix(0, ns).UTC()}, nil
}

func (s *SQLiteStore) Push(ctx context.Context, key string, blob Blob) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO blobs (key, data, last_updated) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET data = excluded.data, last_updated = excluded.last_updated`,
		key, blob.Data, blob.LastUpdated.UnixNano())
	return eris.Wrapf(err, "sqlite: push %s", key)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
