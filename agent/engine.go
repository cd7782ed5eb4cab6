// Package agent implements the self-corrective answer loop of xagent: a
// session retrieves live posts, filters them for relevance, generates an
// answer, grades it for groundedness and usefulness, and rewrites the
// question for another pass when grading fails. Both retry edges (rewrite
// and regenerate) are bounded, so every session terminates with an answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smallnest/xagent/grader"
	"github.com/smallnest/xagent/llm"
	"github.com/smallnest/xagent/log"
	"github.com/smallnest/xagent/rag"
	"github.com/smallnest/xagent/twitter"
)

const (
	apologyTemplate = "I apologize, but I couldn't access X (Twitter) to retrieve information. Error: %s"

	noInfoMessage = "I apologize, but I couldn't retrieve any relevant information from X (Twitter) at this time. " +
		"This might be due to API limitations or network issues. Please try again later or rephrase your question."
)

// DocumentGrader judges one (question, chunk) pair.
type DocumentGrader interface {
	Grade(ctx context.Context, question string, doc rag.Document) (bool, error)
}

// GroundednessGrader judges whether an answer is supported by its context.
type GroundednessGrader interface {
	Grade(ctx context.Context, docs []rag.Document, answer string) (bool, error)
}

// UsefulnessGrader judges whether an answer addresses the question.
type UsefulnessGrader interface {
	Grade(ctx context.Context, question, answer string, docs []rag.Document) (bool, string, error)
}

// Rewriter reformulates a question for better retrieval.
type Rewriter interface {
	Rewrite(ctx context.Context, question string) (string, error)
}

// Generator produces an answer from a question and its context.
type Generator interface {
	Generate(ctx context.Context, question string, docs []rag.Document) (string, error)
}

// Config bounds the loop and its external calls.
type Config struct {
	// MaxRetries caps how many times the question may be rewritten.
	MaxRetries int
	// MaxGenerateAttempts caps total generator runs, bounding the
	// regenerate-on-hallucination edge.
	MaxGenerateAttempts int
	// GradeConcurrency is the relevance-grading fan-out width.
	GradeConcurrency int
	// FetchTimeout bounds one retrieval (fetch + index + search).
	FetchTimeout time.Duration
	// LLMTimeout bounds one grading, generation or rewrite call.
	LLMTimeout time.Duration
}

// DefaultConfig returns the default loop bounds.
func DefaultConfig() Config {
	return Config{
		MaxRetries:          3,
		MaxGenerateAttempts: 3,
		GradeConcurrency:    4,
		FetchTimeout:        30 * time.Second,
		LLMTimeout:          60 * time.Second,
	}
}

// Result is the externally visible outcome of a session.
type Result struct {
	SessionID        string         `json:"session_id"`
	Answer           string         `json:"generation"`
	FinalQuestion    string         `json:"final_question"`
	Documents        []rag.Document `json:"documents"`
	RetryCount       int            `json:"retry_count"`
	GenerateAttempts int            `json:"generate_attempts"`
}

// Engine drives the answer loop. Engines are safe for concurrent use; every
// Run owns its session exclusively.
type Engine struct {
	retriever    rag.Retriever
	relevance    DocumentGrader
	groundedness GroundednessGrader
	usefulness   UsefulnessGrader
	rewriter     Rewriter
	generator    Generator
	cfg          Config
	logger       log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the default loop bounds.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRelevanceGrader overrides the relevance grader.
func WithRelevanceGrader(g DocumentGrader) Option {
	return func(e *Engine) {
		e.relevance = g
	}
}

// WithGroundednessGrader overrides the groundedness grader.
func WithGroundednessGrader(g GroundednessGrader) Option {
	return func(e *Engine) {
		e.groundedness = g
	}
}

// WithUsefulnessGrader overrides the usefulness grader.
func WithUsefulnessGrader(g UsefulnessGrader) Option {
	return func(e *Engine) {
		e.usefulness = g
	}
}

// WithRewriter overrides the question rewriter.
func WithRewriter(r Rewriter) Option {
	return func(e *Engine) {
		e.rewriter = r
	}
}

// WithGenerator overrides the answer generator.
func WithGenerator(g Generator) Option {
	return func(e *Engine) {
		e.generator = g
	}
}

// NewEngine creates an engine over the given retriever. The graders,
// rewriter and generator default to the model-backed implementations on
// client; options can replace any of them.
func NewEngine(retriever rag.Retriever, client llm.Client, opts ...Option) *Engine {
	e := &Engine{
		retriever: retriever,
		cfg:       DefaultConfig(),
		logger:    log.GetDefaultLogger(),
	}
	if client != nil {
		e.relevance = grader.NewRelevanceGrader(client)
		e.groundedness = grader.NewGroundednessGrader(client)
		e.usefulness = grader.NewUsefulnessGrader(client)
		e.rewriter = grader.NewQuestionRewriter(client)
		e.generator = grader.NewGenerator(client)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run answers one question. It always yields an answer string, possibly an
// apology; the only errors it returns are unrecoverable ones (cancellation
// and unparseable grader responses).
func (e *Engine) Run(ctx context.Context, question string) (*Result, error) {
	sess := newSession(question)
	e.logger.Info("session %s: question %q", sess.ID, question)

	// Hard ceiling on loop steps; with both retry edges bounded it is
	// unreachable, but the loop must not depend on that arithmetic.
	maxSteps := (e.cfg.MaxRetries + 2) * (e.cfg.MaxGenerateAttempts + 3)

	state := StateRetrieve
	for steps := 0; state != StateTerminate; steps++ {
		if steps >= maxSteps {
			e.logger.Warn("session %s: step ceiling reached in state %s", sess.ID, state)
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.logger.Debug("session %s: entering state %s", sess.ID, state)
		var err error
		switch state {
		case StateRetrieve:
			err = e.retrieve(ctx, sess)
		case StateGradeDocuments:
			err = e.gradeDocuments(ctx, sess)
		case StateGenerate:
			err = e.generate(ctx, sess)
		case StateTransformQuery:
			err = e.transformQuery(ctx, sess)
		}
		if err != nil {
			return nil, fmt.Errorf("session %s failed in state %s: %w", sess.ID, state, err)
		}

		state = e.next(state, sess)
	}

	answer := sess.Generation
	if answer == "" {
		// Retry budget ran out before anything was generated.
		answer = noInfoMessage
	}

	e.logger.Info("session %s: terminated after %d retries, %d generate attempts",
		sess.ID, sess.RetryCount, sess.GenerateAttempts)

	return &Result{
		SessionID:        sess.ID,
		Answer:           answer,
		FinalQuestion:    sess.Question,
		Documents:        sess.Documents,
		RetryCount:       sess.RetryCount,
		GenerateAttempts: sess.GenerateAttempts,
	}, nil
}

// next is the pure transition function of the loop: it inspects only the
// session and returns the following state.
func (e *Engine) next(state State, sess *Session) State {
	switch state {
	case StateRetrieve:
		if sess.FetchErr != "" {
			// Straight to the apology; grading nothing is meaningless.
			return StateGenerate
		}
		return StateGradeDocuments

	case StateGradeDocuments:
		if len(sess.Documents) == 0 {
			return e.rewriteOrGiveUp(sess)
		}
		return StateGenerate

	case StateTransformQuery:
		return StateRetrieve

	case StateGenerate:
		if !sess.graded {
			// Canned apology or no-information answer, nothing to grade.
			return StateTerminate
		}
		if !sess.grounded {
			if sess.GenerateAttempts >= e.cfg.MaxGenerateAttempts {
				e.logger.Warn("session %s: generation budget exhausted while ungrounded", sess.ID)
				return StateTerminate
			}
			return StateGenerate
		}
		if sess.useful {
			return StateTerminate
		}
		return e.rewriteOrGiveUp(sess)
	}
	return StateTerminate
}

// rewriteOrGiveUp decides between another rewrite pass and terminating with
// whatever the session has so far.
func (e *Engine) rewriteOrGiveUp(sess *Session) State {
	if sess.RetryCount >= e.cfg.MaxRetries {
		e.logger.Warn("session %s: retry budget exhausted after %d rewrites", sess.ID, sess.RetryCount)
		return StateTerminate
	}
	return StateTransformQuery
}

// retrieve replaces the working document set with fresh chunks for the
// current question. A fetch failure is captured, not returned: the loop
// answers with an apology instead of failing the session.
func (e *Engine) retrieve(ctx context.Context, sess *Session) error {
	fctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	docs, err := e.retriever.Retrieve(fctx, sess.Question)
	if err != nil {
		var fetchErr *twitter.FetchError
		switch {
		case errors.As(err, &fetchErr):
			sess.FetchErr = fetchErr.Error()
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			// A timed-out fetch is the same failure class as an unreachable one.
			sess.FetchErr = "retrieval timed out"
		default:
			return err
		}
		e.logger.Warn("session %s: retrieval failed: %s", sess.ID, sess.FetchErr)
		sess.Documents = nil
		return nil
	}

	sess.Documents = docs
	e.logger.Info("session %s: retrieved %d chunks", sess.ID, len(docs))
	return nil
}

// gradeDocuments filters the working set down to relevant chunks. Grading
// fans out across chunks; the surviving set keeps the retriever's order.
func (e *Engine) gradeDocuments(ctx context.Context, sess *Session) error {
	if len(sess.Documents) == 0 {
		return nil
	}

	verdicts := make([]bool, len(sess.Documents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.GradeConcurrency)

	for i, doc := range sess.Documents {
		i, doc := i, doc
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, e.cfg.LLMTimeout)
			defer cancel()

			relevant, err := e.relevance.Grade(cctx, sess.Question, doc)
			if err != nil {
				return err
			}
			verdicts[i] = relevant
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	filtered := sess.Documents[:0:0]
	for i, doc := range sess.Documents {
		if verdicts[i] {
			filtered = append(filtered, doc)
		}
	}
	e.logger.Info("session %s: %d of %d chunks relevant", sess.ID, len(filtered), len(sess.Documents))
	sess.Documents = filtered
	return nil
}

// generate produces the candidate answer and, for real generations, grades
// it for groundedness and usefulness. Empty context and captured fetch
// failures yield canned answers without touching the model.
func (e *Engine) generate(ctx context.Context, sess *Session) error {
	sess.graded = false

	if sess.FetchErr != "" {
		sess.Generation = fmt.Sprintf(apologyTemplate, sess.FetchErr)
		return nil
	}
	if len(sess.Documents) == 0 {
		sess.Generation = noInfoMessage
		return nil
	}

	sess.GenerateAttempts++

	gctx, cancel := context.WithTimeout(ctx, e.cfg.LLMTimeout)
	answer, err := e.generator.Generate(gctx, sess.OriginalQuestion, sess.Documents)
	cancel()
	if err != nil {
		return err
	}
	sess.Generation = answer

	cctx, cancel := context.WithTimeout(ctx, e.cfg.LLMTimeout)
	grounded, err := e.groundedness.Grade(cctx, sess.Documents, answer)
	cancel()
	if err != nil {
		return err
	}
	sess.grounded = grounded
	sess.useful = false

	if grounded {
		// Usefulness of a hallucinated answer is meaningless, so the second
		// grader runs only on grounded ones.
		uctx, cancel := context.WithTimeout(ctx, e.cfg.LLMTimeout)
		useful, feedback, err := e.usefulness.Grade(uctx, sess.OriginalQuestion, answer, sess.Documents)
		cancel()
		if err != nil {
			return err
		}
		sess.useful = useful
		if feedback != "" {
			e.logger.Debug("session %s: usefulness feedback: %s", sess.ID, feedback)
		}
	} else {
		e.logger.Warn("session %s: generation not grounded (attempt %d)", sess.ID, sess.GenerateAttempts)
	}

	sess.graded = true
	return nil
}

// transformQuery rewrites the question and charges the retry budget.
func (e *Engine) transformQuery(ctx context.Context, sess *Session) error {
	sess.RetryCount++

	rctx, cancel := context.WithTimeout(ctx, e.cfg.LLMTimeout)
	defer cancel()

	rewritten, err := e.rewriter.Rewrite(rctx, sess.Question)
	if err != nil {
		return err
	}
	e.logger.Info("session %s: rewrite %d/%d: %q -> %q",
		sess.ID, sess.RetryCount, e.cfg.MaxRetries, sess.Question, rewritten)
	sess.Question = rewritten
	return nil
}
