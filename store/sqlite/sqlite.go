// Package sqlite implements store.HistoryStore on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/xagent/store"
)

// HistoryStore persists session records in SQLite.
type HistoryStore struct {
	db        *sql.DB
	tableName string
}

// Options configures the SQLite connection.
type Options struct {
	Path      string
	TableName string // Default "history"
}

// NewHistoryStore opens the database at opts.Path and ensures the schema
// exists.
func NewHistoryStore(opts Options) (*HistoryStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "history"
	}

	s := &HistoryStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *HistoryStore) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			final_question TEXT NOT NULL,
			answer TEXT NOT NULL,
			document_count INTEGER NOT NULL,
			retry_count INTEGER NOT NULL,
			generate_attempts INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Save writes one record, overwriting any previous record with the same ID.
func (s *HistoryStore) Save(ctx context.Context, rec *store.Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, question, final_question, answer, document_count, retry_count, generate_attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			question = excluded.question,
			final_question = excluded.final_question,
			answer = excluded.answer,
			document_count = excluded.document_count,
			retry_count = excluded.retry_count,
			generate_attempts = excluded.generate_attempts,
			created_at = excluded.created_at
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Question,
		rec.FinalQuestion,
		rec.Answer,
		rec.DocumentCount,
		rec.RetryCount,
		rec.GenerateAttempts,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// Get returns the record with the given ID.
func (s *HistoryStore) Get(ctx context.Context, id string) (*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, question, final_question, answer, document_count, retry_count, generate_attempts, created_at
		FROM %s
		WHERE id = ?
	`, s.tableName)

	var rec store.Record
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.Question,
		&rec.FinalQuestion,
		&rec.Answer,
		&rec.DocumentCount,
		&rec.RetryCount,
		&rec.GenerateAttempts,
		&rec.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load record: %w", err)
	}
	return &rec, nil
}

// Recent returns up to limit records, newest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, question, final_question, answer, document_count, retry_count, generate_attempts, created_at
		FROM %s
		ORDER BY created_at DESC
		LIMIT ?
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*store.Record
	for rows.Next() {
		var rec store.Record
		err := rows.Scan(
			&rec.ID,
			&rec.Question,
			&rec.FinalQuestion,
			&rec.Answer,
			&rec.DocumentCount,
			&rec.RetryCount,
			&rec.GenerateAttempts,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}
	return records, nil
}
