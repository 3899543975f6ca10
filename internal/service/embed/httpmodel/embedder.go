// Package httpmodel provides an Embedder backed by an HTTP inference
// endpoint (e.g. a speaker-recognition model served behind a small REST
// shim). The endpoint accepts raw audio bytes and returns the embedding
// vector as JSON.
package httpmodel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"ai-meeting-insights-service/internal/service/embed"
)

const defaultTimeout = 60 * time.Second

// Embedder implements embed.Embedder against a remote model endpoint.
type Embedder struct {
	endpoint string
	client   *http.Client
}

var _ embed.Embedder = (*Embedder)(nil)

// New creates an HTTP Embedder. The endpoint is the full URL of the
// embedding route, e.g. "http://voiceprint-model:8080/v1/embed".
func New(endpoint string) *Embedder {
	return &Embedder{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

// embedResponse is the endpoint's reply shape.
type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed posts the audio file to the model endpoint and decodes the vector.
func (e *Embedder) Embed(ctx context.Context, audioPath string) ([]float64, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio %s: %w", audioPath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(audio))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding endpoint returned %d: %s", resp.StatusCode, body)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("embedding endpoint returned empty vector for %s", audioPath)
	}
	return out.Embedding, nil
}
