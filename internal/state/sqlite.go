package state

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tradebot/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.ProcessedStore on SQLite. Same contract as
// FileStore; Save replaces the table contents in one transaction.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS processed_posts (
		id          TEXT PRIMARY KEY,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Load() (*domain.ProcessedSet, error) {
	rows, err := s.db.Query(`SELECT id FROM processed_posts`)
	if err != nil {
		return nil, fmt.Errorf("load processed posts: %w", err)
	}
	defer rows.Close()

	set := domain.NewProcessedSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan processed post: %w", err)
		}
		set.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed posts: %w", err)
	}
	return set, nil
}

func (s *SQLiteStore) Save(set *domain.ProcessedSet) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM processed_posts`); err != nil {
		return fmt.Errorf("clear processed posts: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO processed_posts (id) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range set.IDs() {
		if _, err := stmt.Exec(id); err != nil {
			return fmt.Errorf("insert processed post %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.logger.Debug("state saved", "backend", "sqlite", "ids", set.Len())
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
