package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/xagent/agent"
	"github.com/smallnest/xagent/rag"
	"github.com/smallnest/xagent/store"
	"github.com/smallnest/xagent/store/memory"
)

type fakeAgent struct {
	result    *agent.Result
	err       error
	questions []string
}

func (a *fakeAgent) Run(ctx context.Context, question string) (*agent.Result, error) {
	a.questions = append(a.questions, question)
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

func postChat(t *testing.T, s *Server, body string) (*chatResponse, int) {
	t.Helper()

	req := httptest.NewRequest("POST", "/xagent/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, resp.StatusCode
	}
	var out chatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return &out, resp.StatusCode
}

func TestChatEndpoint(t *testing.T) {
	fake := &fakeAgent{result: &agent.Result{
		SessionID:  "sess-1",
		Answer:     "**Bold** trends are emerging.",
		Documents:  []rag.Document{{Content: "a"}, {Content: "b"}},
		RetryCount: 1,
	}}
	history := memory.NewHistoryStore()
	s := New(fake, history)

	out, status := postChat(t, s, `{"question": "what's up?"}`)
	require.Equal(t, 200, status)

	assert.Equal(t, "sess-1", out.SessionID)
	assert.Equal(t, "**Bold** trends are emerging.", out.Answer)
	assert.Contains(t, out.AnswerHTML, "<strong>Bold</strong>")
	assert.Equal(t, 2, out.DocumentCount)
	assert.Equal(t, 1, out.RetryCount)
	assert.Equal(t, []string{"what's up?"}, fake.questions)

	// The session landed in history.
	rec, err := history.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "what's up?", rec.Question)
	assert.Equal(t, 2, rec.DocumentCount)
}

func TestChatEmptyQuestion(t *testing.T) {
	s := New(&fakeAgent{}, memory.NewHistoryStore())

	_, status := postChat(t, s, `{"question": ""}`)
	assert.Equal(t, 400, status)
}

func TestChatMalformedBody(t *testing.T) {
	s := New(&fakeAgent{}, memory.NewHistoryStore())

	_, status := postChat(t, s, `{"question": `)
	assert.Equal(t, 400, status)
}

func TestChatAgentFailure(t *testing.T) {
	s := New(&fakeAgent{err: errors.New("model unreachable")}, memory.NewHistoryStore())

	_, status := postChat(t, s, `{"question": "q"}`)
	assert.Equal(t, 500, status)
}

func TestChatSanitizesScript(t *testing.T) {
	fake := &fakeAgent{result: &agent.Result{
		SessionID: "sess-1",
		Answer:    `hello <script>alert("x")</script> world`,
	}}
	s := New(fake, memory.NewHistoryStore())

	out, status := postChat(t, s, `{"question": "q"}`)
	require.Equal(t, 200, status)
	assert.NotContains(t, out.AnswerHTML, "<script>")
	assert.Contains(t, out.AnswerHTML, "hello")
}

func TestHistoryEndpoint(t *testing.T) {
	history := memory.NewHistoryStore()
	require.NoError(t, history.Save(context.Background(), &store.Record{ID: "sess-1", Question: "q1"}))
	s := New(&fakeAgent{}, history)

	req := httptest.NewRequest("GET", "/xagent/history", nil)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	var records []*store.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "sess-1", records[0].ID)
}

func TestHistoryEmptyIsArray(t *testing.T) {
	s := New(&fakeAgent{}, memory.NewHistoryStore())

	req := httptest.NewRequest("GET", "/xagent/history", nil)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(bytes.TrimSpace(body)))
}

func TestHistoryRecordNotFound(t *testing.T) {
	s := New(&fakeAgent{}, memory.NewHistoryStore())

	req := httptest.NewRequest("GET", "/xagent/history/missing", nil)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 404, resp.StatusCode)
}

func TestIndexPage(t *testing.T) {
	s := New(&fakeAgent{}, memory.NewHistoryStore())

	req := httptest.NewRequest("GET", "/", nil)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "xagent")
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestHealthz(t *testing.T) {
	s := New(&fakeAgent{}, memory.NewHistoryStore())

	req := httptest.NewRequest("GET", "/healthz", nil)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}
