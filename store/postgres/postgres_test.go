package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"

	"github.com/smallnest/xagent/store"
)

func TestHistoryStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewHistoryStoreWithPool(mock, "history")

	rec := &store.Record{
		ID:               "sess-1",
		Question:         "what's trending?",
		FinalQuestion:    "trending topics today",
		Answer:           "several things",
		DocumentCount:    5,
		RetryCount:       1,
		GenerateAttempts: 1,
		CreatedAt:        time.Now(),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO history")).
		WithArgs(
			rec.ID,
			rec.Question,
			rec.FinalQuestion,
			rec.Answer,
			rec.DocumentCount,
			rec.RetryCount,
			rec.GenerateAttempts,
			rec.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = s.Save(context.Background(), rec)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewHistoryStoreWithPool(mock, "history")

	createdAt := time.Now()
	rows := pgxmock.NewRows([]string{"id", "question", "final_question", "answer", "document_count", "retry_count", "generate_attempts", "created_at"}).
		AddRow("sess-1", "q", "q rewritten", "a", 3, 1, 2, createdAt)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, question, final_question, answer, document_count, retry_count, generate_attempts, created_at FROM history WHERE id = $1")).
		WithArgs("sess-1").
		WillReturnRows(rows)

	rec, err := s.Get(context.Background(), "sess-1")
	assert.NoError(t, err)
	assert.Equal(t, "sess-1", rec.ID)
	assert.Equal(t, "q rewritten", rec.FinalQuestion)
	assert.Equal(t, 3, rec.DocumentCount)
	assert.Equal(t, 2, rec.GenerateAttempts)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_Get_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewHistoryStoreWithPool(mock, "history")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, question, final_question, answer, document_count, retry_count, generate_attempts, created_at FROM history WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHistoryStore_Recent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewHistoryStoreWithPool(mock, "history")

	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "question", "final_question", "answer", "document_count", "retry_count", "generate_attempts", "created_at"}).
		AddRow("sess-2", "q2", "q2", "a2", 2, 0, 1, now).
		AddRow("sess-1", "q1", "q1", "a1", 1, 0, 1, now.Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, question, final_question, answer, document_count, retry_count, generate_attempts, created_at FROM history ORDER BY created_at DESC LIMIT $1")).
		WithArgs(10).
		WillReturnRows(rows)

	recs, err := s.Recent(context.Background(), 10)
	assert.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, "sess-2", recs[0].ID)
	assert.Equal(t, "sess-1", recs[1].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_Save_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewHistoryStoreWithPool(mock, "history")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO history")).
		WillReturnError(errors.New("connection lost"))

	err = s.Save(context.Background(), &store.Record{ID: "sess-1", CreatedAt: time.Now()})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save record")
}

func TestHistoryStore_InitSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewHistoryStoreWithPool(mock, "history")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS history").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, s.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
