// Package voiceprint persists registered speaker voice embeddings and
// matches audio samples against them.
package voiceprint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"ai-meeting-insights-service/internal/observability/metrics"
)

// Record is one persisted voiceprint: the embedding vector plus
// caller-visible metadata (name, registration timestamp, source audio
// reference, arbitrary extra fields).
type Record struct {
	Embedding []float64      `json:"embedding"`
	Metadata  map[string]any `json:"metadata"`
}

// Store keeps one JSON file per sanitized speaker identifier under a base
// directory. File-per-identifier makes concurrent writes to different
// identifiers naturally independent; same-identifier writes are
// last-writer-wins, acceptable for an operator-driven registration flow.
type Store struct {
	dir     string
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewStore creates the base directory if needed and returns a Store.
func NewStore(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{
		dir:     dir,
		log:     log.With().Str("component", "voiceprint-store").Logger(),
		metrics: metrics.DefaultMetrics,
	}, nil
}

// SanitizeID maps a raw identifier to a filesystem-safe key: every rune
// that is not alphanumeric, '-' or '_' becomes '_'. Two distinct raw
// identifiers can sanitize to the same key and will silently overwrite
// each other; the store does not detect this.
func SanitizeID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, SanitizeID(id)+".json")
}

// Save persists the embedding and metadata for the identifier, overwriting
// any existing record for the same sanitized key. It never returns an
// error: I/O failures are logged and reported as false.
func (s *Store) Save(id string, embedding []float64, metadata map[string]any) bool {
	rec := Record{Embedding: embedding, Metadata: metadata}

	data, err := json.Marshal(rec)
	if err != nil {
		s.log.Error().Err(err).Str("speakerId", id).Msg("Failed to encode voiceprint")
		s.metrics.RecordStoreOp("save", false)
		return false
	}

	path := s.path(id)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.log.Error().Err(err).Str("speakerId", id).Str("path", path).
			Msg("Failed to write voiceprint")
		s.metrics.RecordStoreOp("save", false)
		return false
	}

	s.log.Info().Str("speakerId", id).Str("path", path).Msg("Saved voiceprint")
	s.metrics.RecordStoreOp("save", true)
	return true
}

// Load returns the record for the identifier, or (nil, false) when absent
// or unreadable. A missing record is not an error.
func (s *Store) Load(id string) (*Record, bool) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Error().Err(err).Str("speakerId", id).Msg("Failed to read voiceprint")
			s.metrics.RecordStoreOp("load", false)
		}
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Error().Err(err).Str("speakerId", id).Msg("Corrupt voiceprint record")
		s.metrics.RecordStoreOp("load", false)
		return nil, false
	}
	s.metrics.RecordStoreOp("load", true)
	return &rec, true
}

// List returns the sanitized identifiers of all stored voiceprints,
// sorted lexicographically.
func (s *Store) List() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list voiceprints")
		return nil
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids
}

// Delete removes the identifier's record. Returns false when the record
// does not exist or removal fails.
func (s *Store) Delete(id string) bool {
	path := s.path(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			s.log.Warn().Str("speakerId", id).Msg("Voiceprint not found for deletion")
		} else {
			s.log.Error().Err(err).Str("speakerId", id).Msg("Failed to delete voiceprint")
		}
		s.metrics.RecordStoreOp("delete", false)
		return false
	}
	s.log.Info().Str("speakerId", id).Msg("Deleted voiceprint")
	s.metrics.RecordStoreOp("delete", true)
	return true
}

// AllEmbeddings bulk-loads every stored embedding, keyed by sanitized
// identifier. A record deleted between listing and loading is skipped
// rather than treated as an error.
func (s *Store) AllEmbeddings() map[string][]float64 {
	out := make(map[string][]float64)
	for _, id := range s.List() {
		if rec, ok := s.Load(id); ok {
			out[id] = rec.Embedding
		}
	}
	return out
}
