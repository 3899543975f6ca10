package voiceprint

import (
	"context"
	"math"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"ai-meeting-insights-service/internal/media"
	"ai-meeting-insights-service/internal/observability/metrics"
	"ai-meeting-insights-service/internal/service/embed"
)

// DefaultThreshold is the cosine similarity a candidate must reach to be
// reported as a match when no threshold is configured. Callers may
// override the configured value per call.
const DefaultThreshold = 0.85

// Match is the result of a biometric identification attempt. Speaker is
// empty when no candidate reached the threshold; Similarity still carries
// the best score observed so callers can tell "no close candidate" apart
// from "no candidates existed at all" (Candidates == 0).
type Match struct {
	Speaker    string  `json:"matched_speaker,omitempty"`
	Similarity float64 `json:"similarity"`
	Candidates int     `json:"candidates"`
}

// Matcher identifies speakers by comparing a sample's embedding against
// the stored roster.
type Matcher struct {
	embedder  embed.Embedder
	store     *Store
	converter media.Converter
	threshold float64
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

// NewMatcher creates a Matcher. All collaborators are injected; the
// matcher owns none of their lifecycles. threshold is the similarity
// bound used when a call does not supply one; threshold <= 0 selects
// DefaultThreshold.
func NewMatcher(embedder embed.Embedder, store *Store, converter media.Converter, threshold float64, log zerolog.Logger) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{
		embedder:  embedder,
		store:     store,
		converter: converter,
		threshold: threshold,
		log:       log.With().Str("component", "voiceprint-matcher").Logger(),
		metrics:   metrics.DefaultMetrics,
	}
}

// cosineSimilarity returns 1 - cosine distance between two vectors.
// Mismatched lengths or a zero-magnitude vector score 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// FindMatch embeds the audio sample once and linearly scans the candidate
// pool for the highest cosine similarity.
//
// Semantics:
//   - empty pool: returns ("", 0.0) without invoking the embedding model;
//   - candidates are scanned in lexicographic identifier order, and only a
//     strictly greater score displaces the current best, so ties keep the
//     earliest-seen candidate;
//   - below-threshold best: returns ("", best) - the score is surfaced for
//     caller-side logging and threshold tuning;
//   - embedding model failure: returns ("", 0.0), logged, never raised.
//
// threshold <= 0 selects the matcher's configured default.
func (m *Matcher) FindMatch(ctx context.Context, audioPath string, pool map[string][]float64, threshold float64) (string, float64) {
	if threshold <= 0 {
		threshold = m.threshold
	}

	if len(pool) == 0 {
		m.log.Warn().Msg("No stored embeddings to match against")
		m.metrics.RecordMatch("no_candidates", 0)
		return "", 0.0
	}

	sample, err := m.embedder.Embed(ctx, audioPath)
	if err != nil {
		m.log.Error().Err(err).Str("audio", audioPath).Msg("Failed to embed sample")
		m.metrics.RecordMatch("error", 0)
		return "", 0.0
	}

	ids := make([]string, 0, len(pool))
	for id := range pool {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	bestID := ""
	bestSim := -1.0
	for _, id := range ids {
		sim := cosineSimilarity(sample, pool[id])
		m.log.Debug().Str("candidate", id).Float64("similarity", sim).Msg("Compared candidate")
		if sim > bestSim {
			bestSim = sim
			bestID = id
		}
	}

	if bestSim >= threshold {
		m.log.Info().Str("speaker", bestID).Float64("similarity", bestSim).Msg("Match found")
		m.metrics.RecordMatch("match", bestSim)
		return bestID, bestSim
	}

	m.log.Info().
		Float64("threshold", threshold).
		Float64("bestSimilarity", bestSim).
		Str("bestCandidate", bestID).
		Msg("No match above threshold")
	m.metrics.RecordMatch("no_match", bestSim)
	return "", bestSim
}

// Identify runs FindMatch against the full stored roster.
func (m *Matcher) Identify(ctx context.Context, audioPath string, threshold float64) Match {
	pool := m.store.AllEmbeddings()
	speaker, sim := m.FindMatch(ctx, audioPath, pool, threshold)
	return Match{Speaker: speaker, Similarity: sim, Candidates: len(pool)}
}

// Register computes and persists a voiceprint for the named speaker.
//
// Non-WAV input is converted to the standard encoding first; the
// conversion artifact is removed afterwards whether or not registration
// succeeds. Metadata is the built-in fields (name, registration timestamp,
// source audio reference) updated with extra - caller-supplied keys
// override the built-in ones.
func (m *Matcher) Register(ctx context.Context, audioPath, name string, extra map[string]any) bool {
	wavPath := audioPath
	if !media.IsWAV(audioPath) {
		converted, err := m.converter.ToWAV(ctx, audioPath, "")
		if err != nil {
			m.log.Error().Err(err).Str("audio", audioPath).Msg("WAV conversion failed")
			return false
		}
		wavPath = converted
		defer func() {
			if err := os.Remove(converted); err != nil {
				m.log.Warn().Err(err).Str("path", converted).Msg("Failed to clean up conversion artifact")
			}
		}()
	}

	embedding, err := m.embedder.Embed(ctx, wavPath)
	if err != nil {
		m.log.Error().Err(err).Str("audio", wavPath).Msg("Failed to embed registration sample")
		return false
	}

	metadata := map[string]any{
		"name":          name,
		"registered_at": time.Now().UTC().Format(time.RFC3339),
		"source_audio":  audioPath,
	}
	for k, v := range extra {
		metadata[k] = v
	}

	if !m.store.Save(name, embedding, metadata) {
		return false
	}
	m.metrics.RecordVoiceprintRegistered()
	return true
}
