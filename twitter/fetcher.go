// Package twitter fetches posts from X (Twitter), either through the official
// API v2 recent-search endpoint or by scraping a search front-end. A redis
// read-through cache can be layered in front of either fetcher.
package twitter

import (
	"context"
	"fmt"
)

// Fetcher is the data-source boundary: keyword search over live posts.
type Fetcher interface {
	// Search returns the posts matching any of the keywords.
	// It fails with *FetchError when the source is unreachable, the
	// credentials are rejected, or every keyword search comes back empty.
	Search(ctx context.Context, keywords []string) ([]Post, error)
}

// FetchError reports that X could not be reached or yielded nothing.
// The control loop recovers from it locally: the reason surfaces in a
// user-facing apology instead of failing the session.
type FetchError struct {
	Reason string
	Err    error

	// authFailure marks credential rejections, which abort a multi-keyword
	// search early instead of being retried per keyword.
	authFailure bool
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no access to X: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("no access to X: %s", e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }
