// Package postgres implements store.HistoryStore on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/xagent/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// HistoryStore persists session records in PostgreSQL.
type HistoryStore struct {
	pool      DBPool
	tableName string
}

// Options configures the Postgres connection.
type Options struct {
	ConnString string
	TableName  string // Default "history"
}

// NewHistoryStore creates a connection pool for opts.ConnString.
func NewHistoryStore(ctx context.Context, opts Options) (*HistoryStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "history"
	}

	return &HistoryStore{
		pool:      pool,
		tableName: tableName,
	}, nil
}

// NewHistoryStoreWithPool creates a store over an existing pool.
// Useful for testing with mocks.
func NewHistoryStoreWithPool(pool DBPool, tableName string) *HistoryStore {
	if tableName == "" {
		tableName = "history"
	}
	return &HistoryStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist.
func (s *HistoryStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			final_question TEXT NOT NULL,
			answer TEXT NOT NULL,
			document_count INTEGER NOT NULL,
			retry_count INTEGER NOT NULL,
			generate_attempts INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *HistoryStore) Close() error {
	s.pool.Close()
	return nil
}

// Save writes one record, overwriting any previous record with the same ID.
func (s *HistoryStore) Save(ctx context.Context, rec *store.Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, question, final_question, answer, document_count, retry_count, generate_attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			question = EXCLUDED.question,
			final_question = EXCLUDED.final_question,
			answer = EXCLUDED.answer,
			document_count = EXCLUDED.document_count,
			retry_count = EXCLUDED.retry_count,
			generate_attempts = EXCLUDED.generate_attempts,
			created_at = EXCLUDED.created_at
	`, s.tableName)

	_, err := s.pool.Exec(ctx, query,
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
		WHERE id = $1
	`, s.tableName)

	var rec store.Record
	err := s.pool.QueryRow(ctx, query, id).Scan(
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
		if errors.Is(err, pgx.ErrNoRows) {
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
		LIMIT $1
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, limit)
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
