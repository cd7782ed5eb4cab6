// Package llm defines the language-model boundary of xagent.
//
// The control loop and the graders depend only on the Client interface, so
// any OpenAI-compatible backend (or a deterministic test double) can be
// plugged in. Binary grading calls go through Classify, which enforces the
// {"score": "yes"|"no"} response contract.
package llm

import (
	"context"
)

// Client is the minimal completion capability every model backend implements.
type Client interface {
	// Complete sends a single prompt and returns the model's text response.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Classify runs a grading prompt and parses the response into a Verdict.
// A response that cannot be parsed is a *ParseError; it is never defaulted
// to a guessed verdict.
func Classify(ctx context.Context, c Client, prompt string) (*Verdict, error) {
	raw, err := c.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseVerdict(raw)
}
