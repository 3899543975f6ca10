// Package embed defines the interface for speaker embedding models.
package embed

import "context"

// Embedder defines the interface for voice embedding providers.
//
// An implementation turns an audio file into a fixed-length numeric vector
// representing the speaker's voice characteristics. For identical input the
// vector is deterministic; unreadable or invalid audio is an error.
type Embedder interface {
	// Embed computes the embedding for the audio file at path.
	Embed(ctx context.Context, audioPath string) ([]float64, error)
}
