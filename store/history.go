// Package store defines persistence of finished chat sessions. A record is
// written once when a session terminates and is read back for history
// listings; the in-flight session itself is never stored.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record exists for the requested ID.
var ErrNotFound = errors.New("record not found")

// Record is the durable trace of one finished session.
type Record struct {
	// ID is the session ID.
	ID string `json:"id"`
	// Question is the question as the user asked it.
	Question string `json:"question"`
	// FinalQuestion is the retrieval question after any rewrites.
	FinalQuestion string `json:"final_question"`
	// Answer is the final generation, apologies included.
	Answer string `json:"answer"`
	// DocumentCount is how many relevant chunks backed the answer.
	DocumentCount int `json:"document_count"`
	// RetryCount is how many times the question was rewritten.
	RetryCount int `json:"retry_count"`
	// GenerateAttempts is how many times the generator ran.
	GenerateAttempts int `json:"generate_attempts"`
	// CreatedAt is when the session terminated.
	CreatedAt time.Time `json:"created_at"`
}

// HistoryStore persists finished sessions.
type HistoryStore interface {
	// Save writes one record. Saving the same ID twice overwrites.
	Save(ctx context.Context, rec *Record) error

	// Get returns the record with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*Record, error)

	// Close releases the underlying resources.
	Close() error
}
