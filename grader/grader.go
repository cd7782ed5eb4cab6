// Package grader implements the model-backed judgment calls of the agent:
// per-chunk relevance grading, answer groundedness and usefulness grading,
// query rewriting and answer generation. Each is a thin templated-prompt
// wrapper over an llm.Client; none keeps state between invocations.
package grader

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallnest/xagent/llm"
	"github.com/smallnest/xagent/rag"
)

// RelevanceGrader classifies whether a single chunk is relevant to a
// question. Chunks are graded independently, with no cross-chunk context.
type RelevanceGrader struct {
	client llm.Client
}

// NewRelevanceGrader creates a relevance grader.
func NewRelevanceGrader(client llm.Client) *RelevanceGrader {
	return &RelevanceGrader{client: client}
}

// Grade returns true when the document is relevant to the question. A
// malformed model response fails the call with *llm.ParseError, never a
// defaulted verdict.
func (g *RelevanceGrader) Grade(ctx context.Context, question string, doc rag.Document) (bool, error) {
	prompt := fmt.Sprintf(relevancePromptTemplate, doc.Content, question)
	verdict, err := llm.Classify(ctx, g.client, prompt)
	if err != nil {
		return false, fmt.Errorf("relevance grading failed: %w", err)
	}
	return verdict.Yes(), nil
}

// GroundednessGrader classifies whether an answer's claims are supported by
// the retrieved context, independent of whether it addresses the question.
type GroundednessGrader struct {
	client llm.Client
}

// NewGroundednessGrader creates a groundedness (hallucination) grader.
func NewGroundednessGrader(client llm.Client) *GroundednessGrader {
	return &GroundednessGrader{client: client}
}

// Grade returns true when the answer is grounded in the documents.
func (g *GroundednessGrader) Grade(ctx context.Context, docs []rag.Document, answer string) (bool, error) {
	prompt := fmt.Sprintf(groundednessPromptTemplate, joinDocuments(docs), answer)
	verdict, err := llm.Classify(ctx, g.client, prompt)
	if err != nil {
		return false, fmt.Errorf("groundedness grading failed: %w", err)
	}
	return verdict.Yes(), nil
}

// UsefulnessGrader classifies whether an answer actually addresses the
// original question. Only worth calling on answers already known grounded.
type UsefulnessGrader struct {
	client llm.Client
}

// NewUsefulnessGrader creates a usefulness grader.
func NewUsefulnessGrader(client llm.Client) *UsefulnessGrader {
	return &UsefulnessGrader{client: client}
}

// Grade returns true when the answer addresses the question, plus the
// grader's free-text feedback when it provides any.
func (g *UsefulnessGrader) Grade(ctx context.Context, question, answer string, docs []rag.Document) (bool, string, error) {
	prompt := fmt.Sprintf(usefulnessPromptTemplate, answer, question, joinDocuments(docs))
	verdict, err := llm.Classify(ctx, g.client, prompt)
	if err != nil {
		return false, "", fmt.Errorf("usefulness grading failed: %w", err)
	}
	return verdict.Yes(), verdict.Feedback, nil
}

// QuestionRewriter reformulates a question for better vector retrieval.
type QuestionRewriter struct {
	client llm.Client
}

// NewQuestionRewriter creates a question rewriter.
func NewQuestionRewriter(client llm.Client) *QuestionRewriter {
	return &QuestionRewriter{client: client}
}

// Rewrite returns a retrieval-optimized version of the question. If the
// model returns an empty rewrite, the original question is kept.
func (r *QuestionRewriter) Rewrite(ctx context.Context, question string) (string, error) {
	resp, err := r.client.Complete(ctx, fmt.Sprintf(rewritePromptTemplate, question))
	if err != nil {
		return "", fmt.Errorf("question rewrite failed: %w", err)
	}

	rewritten := strings.TrimSpace(resp)
	rewritten = strings.Trim(rewritten, `"`)
	if rewritten == "" {
		return question, nil
	}
	return rewritten, nil
}

// Generator produces an answer from the question and its retrieved context.
type Generator struct {
	client llm.Client
}

// NewGenerator creates an answer generator.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{client: client}
}

// Generate answers the question from the given context documents. The caller
// is responsible for never invoking it with empty context.
func (g *Generator) Generate(ctx context.Context, question string, docs []rag.Document) (string, error) {
	resp, err := g.client.Complete(ctx, fmt.Sprintf(generatePromptTemplate, joinDocuments(docs), question))
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	return strings.TrimSpace(resp), nil
}

func joinDocuments(docs []rag.Document) string {
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.Content
	}
	return strings.Join(parts, "\n\n")
}
