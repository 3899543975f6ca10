// Package mock provides a scripted Completer for testing without API
// credentials. Responses are returned in order; each call also records
// the prompt it received so tests can assert on prompt construction.
package mock

import (
	"context"
	"sync"

	"ai-meeting-insights-service/internal/service/llm"
)

// Completer implements llm.Completer with canned responses.
type Completer struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

var _ llm.Completer = (*Completer)(nil)

// New creates a mock Completer. The i-th call returns responses[i] and
// errs[i] (either slice may be shorter; missing entries default to the
// last response / nil error).
func New(responses []string, errs []error) *Completer {
	return &Completer{responses: responses, errs: errs}
}

// Complete returns the next scripted response.
func (c *Completer) Complete(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.calls
	c.calls++
	c.prompts = append(c.prompts, prompt)

	var err error
	if idx < len(c.errs) {
		err = c.errs[idx]
	}
	if err != nil {
		return "", err
	}

	if len(c.responses) == 0 {
		return "", nil
	}
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	return c.responses[idx], nil
}

// Calls returns how many times Complete was invoked.
func (c *Completer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Prompts returns the prompts received so far.
func (c *Completer) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.prompts))
	copy(out, c.prompts)
	return out
}
