package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Store persists content, profiles, watch subscriptions and contact
// requests in a single sqlite database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates the database at path if needed and migrates it.
// ":memory:" opens a private in-memory database.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite serializes writers and an in-memory database lives only as
	// long as its connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	pragmas := []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database ready", zap.String("path", path))
	return s, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS content_items (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	slug TEXT NOT NULL,
	title TEXT NOT NULL,
	paragraph TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	author_name TEXT NOT NULL,
	author_avatar TEXT NOT NULL DEFAULT '',
	publish_date TEXT NOT NULL DEFAULT '',
	image TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL DEFAULT '',
	body_html TEXT NOT NULL DEFAULT '',
	published INTEGER NOT NULL DEFAULT 0,
	flow TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE (kind, slug)
);

CREATE INDEX IF NOT EXISTS idx_content_kind ON content_items(kind);

CREATE TABLE IF NOT EXISTS profiles (
	user_id TEXT PRIMARY KEY,
	email TEXT NOT NULL DEFAULT '',
	display_name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS watch_subscriptions (
	category TEXT NOT NULL,
	token TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (category, token)
);

CREATE INDEX IF NOT EXISTS idx_watch_token ON watch_subscriptions(token);

CREATE TABLE IF NOT EXISTS contact_requests (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	company TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(serr.Error(), "UNIQUE")
	}
	return false
}
