// Package llm provides the completion-endpoint client used for analysis calls.
package llm

import "context"

// Client is the LLM endpoint collaborator. A call either returns the full
// response text or an error (timeout, rate limit, malformed response); there
// is no partial result.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
