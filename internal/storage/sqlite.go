package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/mattn/go-sqlite3"
)

const driverName = "solpass_sqlite3"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			_, err := conn.Exec(`
				PRAGMA busy_timeout  = 5000;
				PRAGMA journal_mode  = WAL;
				PRAGMA synchronous   = NORMAL;
				PRAGMA temp_store    = MEMORY;
			`, nil)

			return err
		},
	})
}

// SQLiteStore persists key-value pairs in a single local table. This is the
// backend of choice on mobile hosts where the app owns a data directory.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.Join(errors.New("opening database failed"), err)
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Join(errors.New("ping db failed"), err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS tbl_keyvalue (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return nil, errors.Join(errors.New("creating keyvalue table failed"), err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool) {
	var value string

	row := s.db.QueryRowContext(ctx, `SELECT value FROM tbl_keyvalue WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if err != sql.ErrNoRows {
			s.logger.Warn("storage read failed", "key", key, "error", err)
		}
		return "", false
	}

	return value, true
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value string) bool {
	_, err := s.db.ExecContext(ctx, `INSERT INTO tbl_keyvalue (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		s.logger.Warn("storage write failed", "key", key, "error", err)
		return false
	}

	return true
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) bool {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tbl_keyvalue WHERE key = ?`, key)
	if err != nil {
		s.logger.Warn("storage delete failed", "key", key, "error", err)
		return false
	}

	return true
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
