package agent

import (
	"github.com/google/uuid"

	"github.com/smallnest/xagent/rag"
)

// Session is the working memory of one question-answering run. It lives for
// exactly one Engine.Run call and is never persisted or shared.
type Session struct {
	// ID identifies the session in logs.
	ID string

	// OriginalQuestion is the question as the user asked it. Generation
	// always answers this, even after rewrites.
	OriginalQuestion string

	// Question is the current, possibly rewritten, retrieval question.
	Question string

	// Documents is the current working set of retrieved chunks. After
	// grading it holds only the chunks judged relevant, in retrieval order.
	Documents []rag.Document

	// Generation is the latest candidate answer, empty before the first
	// generation.
	Generation string

	// RetryCount is how many times the question has been rewritten.
	RetryCount int

	// GenerateAttempts is how many times the generator has run. It bounds
	// the regenerate-on-hallucination edge, which would otherwise cycle
	// forever on a model that never grounds its answers.
	GenerateAttempts int

	// FetchErr captures a fetch failure. Once set, generation short-circuits
	// to an apology carrying the reason and no grader runs.
	FetchErr string

	// Verdicts of the latest generation. graded is false while Generation
	// is a canned message that was never sent to the graders.
	graded   bool
	grounded bool
	useful   bool
}

func newSession(question string) *Session {
	return &Session{
		ID:               uuid.NewString(),
		OriginalQuestion: question,
		Question:         question,
	}
}
