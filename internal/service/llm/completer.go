// Package llm defines the interface for text-generation providers.
package llm

import "context"

// Completer defines the interface for text-generation providers
// (OpenAI-compatible endpoints, Bedrock proxies, local models, etc.).
//
// Implementations give no guarantee of well-formed output: callers must
// defensively parse whatever text comes back.
type Completer interface {
	// Complete sends a single-turn prompt and returns the raw response text.
	Complete(ctx context.Context, prompt string) (string, error)
}
