// Package mock provides a canned Embedder for testing without a model
// endpoint.
package mock

import (
	"context"
	"sync"

	"ai-meeting-insights-service/internal/service/embed"
)

// Embedder implements embed.Embedder with fixed vectors.
type Embedder struct {
	mu      sync.Mutex
	Vectors map[string][]float64 // audio path -> embedding
	Default []float64            // returned when path is not in Vectors
	Err     error                // returned by every call when non-nil
	calls   int
}

var _ embed.Embedder = (*Embedder)(nil)

// New creates a mock Embedder returning vec for every path.
func New(vec []float64) *Embedder {
	return &Embedder{Default: vec}
}

// Embed returns the canned vector for the path, or Default.
func (e *Embedder) Embed(_ context.Context, audioPath string) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.Err != nil {
		return nil, e.Err
	}
	if v, ok := e.Vectors[audioPath]; ok {
		return v, nil
	}
	return e.Default, nil
}

// Calls returns how many times Embed was invoked.
func (e *Embedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
