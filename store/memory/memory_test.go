package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/xagent/store"
)

func TestSaveAndGet(t *testing.T) {
	s := NewHistoryStore()
	ctx := context.Background()

	rec := &store.Record{
		ID:            "sess-1",
		Question:      "what's new in AI?",
		FinalQuestion: "recent AI announcements",
		Answer:        "quite a lot",
		DocumentCount: 4,
		RetryCount:    1,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, rec.Question, got.Question)
	assert.Equal(t, rec.Answer, got.Answer)
	assert.Equal(t, 1, got.RetryCount)
}

func TestGetMissing(t *testing.T) {
	s := NewHistoryStore()

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveOverwrites(t *testing.T) {
	s := NewHistoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &store.Record{ID: "a", Answer: "first"}))
	require.NoError(t, s.Save(ctx, &store.Record{ID: "a", Answer: "second"}))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Answer)
}

func TestRecentNewestFirst(t *testing.T) {
	s := NewHistoryStore()
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, s.Save(ctx, &store.Record{
			ID:        id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "new", recs[0].ID)
	assert.Equal(t, "mid", recs[1].ID)
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewHistoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &store.Record{ID: "a", Answer: "original"}))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	got.Answer = "mutated"

	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Answer)
}
