// Package normalizer collapses raw diarization output from the
// transcription service into chronological per-speaker segments.
//
// The input is token-level: every word is a "pronunciation" item carrying
// a speaker label and timestamps, and every punctuation mark is a separate
// "punctuation" item with neither. A single left-to-right pass merges
// consecutive same-speaker words into one segment and attaches punctuation
// to the preceding word without a space.
package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"ai-meeting-insights-service/internal/models"
)

// Item types in the diarization output.
const (
	itemPronunciation = "pronunciation"
	itemPunctuation   = "punctuation"
)

// Errors for structurally incomplete input. These are fatal format errors:
// they are surfaced to the caller and never retried.
var (
	ErrMissingResults       = errors.New("invalid transcribe format: missing 'results' key")
	ErrMissingItems         = errors.New("invalid transcribe format: missing 'results.items'")
	ErrMissingSpeakerLabels = errors.New("invalid transcribe format: missing 'results.speaker_labels'; " +
		"ensure speaker identification was enabled for the transcription job")
)

// rawOutput mirrors the top level of the transcription service's JSON.
// Results stays raw so a missing key can be told apart from an empty one.
type rawOutput struct {
	JobName string          `json:"jobName"`
	Results json.RawMessage `json:"results"`
}

type rawResults struct {
	Items         json.RawMessage `json:"items"`
	SpeakerLabels json.RawMessage `json:"speaker_labels"`
}

type rawItem struct {
	Type         string           `json:"type"`
	SpeakerLabel string           `json:"speaker_label"`
	StartTime    string           `json:"start_time"`
	EndTime      string           `json:"end_time"`
	Alternatives []rawAlternative `json:"alternatives"`
}

type rawAlternative struct {
	Content string `json:"content"`
}

type rawSpeakerLabels struct {
	Speakers int `json:"speakers"`
}

// Normalizer turns raw diarization JSON into a NormalizedTranscript.
type Normalizer struct {
	log zerolog.Logger
}

// New creates a Normalizer that logs through the given logger.
func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log.With().Str("component", "normalizer").Logger()}
}

// Normalize parses and validates raw diarization JSON and collapses its
// token stream into per-speaker segments.
//
// Guarantees on the output:
//   - segments appear in token scan order (chronological if the input is);
//   - no two adjacent segments share a speaker label;
//   - each segment's start time is its first word's start and its end time
//     is its last word's end, so start <= end.
func (n *Normalizer) Normalize(data []byte) (*models.NormalizedTranscript, error) {
	var raw rawOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid transcribe format: %w", err)
	}
	if len(raw.Results) == 0 {
		return nil, ErrMissingResults
	}

	var results rawResults
	if err := json.Unmarshal(raw.Results, &results); err != nil {
		return nil, fmt.Errorf("invalid transcribe format: %w", err)
	}
	if results.Items == nil {
		return nil, ErrMissingItems
	}
	if results.SpeakerLabels == nil {
		return nil, ErrMissingSpeakerLabels
	}

	var items []rawItem
	if err := json.Unmarshal(results.Items, &items); err != nil {
		return nil, fmt.Errorf("invalid transcribe format: bad 'results.items': %w", err)
	}
	var labels rawSpeakerLabels
	if err := json.Unmarshal(results.SpeakerLabels, &labels); err != nil {
		return nil, fmt.Errorf("invalid transcribe format: bad 'results.speaker_labels': %w", err)
	}

	jobName := raw.JobName
	if jobName == "" {
		jobName = "unknown"
	}

	out := &models.NormalizedTranscript{
		JobName:       jobName,
		SpeakersCount: labels.Speakers,
		Segments:      mergeItems(items),
	}

	n.log.Info().
		Str("jobName", out.JobName).
		Int("segments", len(out.Segments)).
		Int("speakers", out.SpeakersCount).
		Msg("Normalized transcript")

	return out, nil
}

// mergeItems runs the single-pass segment merge over the token stream.
func mergeItems(items []rawItem) []models.SpeakerSegment {
	var segments []models.SpeakerSegment

	var (
		curSpeaker string
		curStart   float64
		curEnd     float64
		curWords   []string
		open       bool
	)

	flush := func() {
		if open && len(curWords) > 0 {
			segments = append(segments, models.SpeakerSegment{
				Speaker:   curSpeaker,
				StartTime: curStart,
				EndTime:   curEnd,
				Text:      joinWords(curWords),
			})
		}
		open = false
		curWords = nil
	}

	for _, item := range items {
		content := ""
		if len(item.Alternatives) > 0 {
			content = item.Alternatives[0].Content
		}

		if item.Type == itemPunctuation {
			// Punctuation has no timestamps. Attach it to the last word
			// without a space; drop it if no word has been seen yet.
			if len(curWords) > 0 {
				curWords[len(curWords)-1] += content
			}
			continue
		}

		start := parseSeconds(item.StartTime)
		end := parseSeconds(item.EndTime)

		switch {
		case !open:
			curSpeaker = item.SpeakerLabel
			curStart = start
			curEnd = end
			curWords = []string{content}
			open = true
		case item.SpeakerLabel == curSpeaker:
			curEnd = end
			curWords = append(curWords, content)
		default:
			flush()
			curSpeaker = item.SpeakerLabel
			curStart = start
			curEnd = end
			curWords = []string{content}
			open = true
		}
	}

	flush()
	return segments
}

func joinWords(words []string) string {
	n := 0
	for _, w := range words {
		n += len(w) + 1
	}
	buf := make([]byte, 0, n)
	for i, w := range words {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, w...)
	}
	return string(buf)
}

func parseSeconds(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
