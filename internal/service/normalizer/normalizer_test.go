package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func testNormalizer() *Normalizer {
	return New(zerolog.Nop())
}

func word(speaker, content string, start, end float64) string {
	return fmt.Sprintf(
		`{"type":"pronunciation","speaker_label":%q,"start_time":"%.2f","end_time":"%.2f","alternatives":[{"content":%q}]}`,
		speaker, start, end, content)
}

func punct(content string) string {
	return fmt.Sprintf(`{"type":"punctuation","alternatives":[{"content":%q}]}`, content)
}

func payload(jobName string, speakers int, items ...string) []byte {
	doc := fmt.Sprintf(`{"jobName":%q,"results":{"items":[`, jobName)
	for i, it := range items {
		if i > 0 {
			doc += ","
		}
		doc += it
	}
	doc += fmt.Sprintf(`],"speaker_labels":{"speakers":%d}}}`, speakers)
	return []byte(doc)
}

func TestNormalize_TwoSpeakers(t *testing.T) {
	data := payload("standup", 2,
		word("spk_0", "Hi", 0.0, 0.3),
		word("spk_0", "there", 0.3, 0.6),
		punct("."),
		word("spk_1", "Hello", 0.7, 1.0),
	)

	got, err := testNormalizer().Normalize(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.JobName != "standup" {
		t.Errorf("jobName = %q, want standup", got.JobName)
	}
	if got.SpeakersCount != 2 {
		t.Errorf("speakersCount = %d, want 2", got.SpeakersCount)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(got.Segments))
	}

	first := got.Segments[0]
	if first.Speaker != "spk_0" || first.Text != "Hi there." {
		t.Errorf("first segment = %+v, want spk_0 %q", first, "Hi there.")
	}
	if first.StartTime != 0.0 || first.EndTime != 0.6 {
		t.Errorf("first segment timing = [%v, %v], want [0, 0.6]", first.StartTime, first.EndTime)
	}

	second := got.Segments[1]
	if second.Speaker != "spk_1" || second.Text != "Hello" {
		t.Errorf("second segment = %+v, want spk_1 %q", second, "Hello")
	}
	if second.StartTime != 0.7 || second.EndTime != 1.0 {
		t.Errorf("second segment timing = [%v, %v], want [0.7, 1.0]", second.StartTime, second.EndTime)
	}
}

func TestNormalize_SingleSpeakerMergesToOneSegment(t *testing.T) {
	data := payload("solo", 1,
		word("spk_0", "This", 0.0, 0.2),
		word("spk_0", "is", 0.2, 0.4),
		word("spk_0", "fine", 0.4, 0.8),
		punct("."),
	)

	got, err := testNormalizer().Normalize(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(got.Segments))
	}
	if got.Segments[0].Text != "This is fine." {
		t.Errorf("text = %q, want %q", got.Segments[0].Text, "This is fine.")
	}
}

func TestNormalize_NoAdjacentSegmentsShareSpeaker(t *testing.T) {
	data := payload("pingpong", 2,
		word("spk_0", "a", 0.0, 0.1),
		word("spk_1", "b", 0.1, 0.2),
		word("spk_1", "c", 0.2, 0.3),
		word("spk_0", "d", 0.3, 0.4),
		word("spk_0", "e", 0.4, 0.5),
		word("spk_1", "f", 0.5, 0.6),
	)

	got, err := testNormalizer().Normalize(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Segments) != 4 {
		t.Fatalf("got %d segments, want 4", len(got.Segments))
	}
	for i := 1; i < len(got.Segments); i++ {
		if got.Segments[i].Speaker == got.Segments[i-1].Speaker {
			t.Errorf("segments %d and %d share speaker %q", i-1, i, got.Segments[i].Speaker)
		}
	}
	for _, seg := range got.Segments {
		if seg.StartTime > seg.EndTime {
			t.Errorf("segment %+v has start > end", seg)
		}
	}
}

func TestNormalize_PunctuationBeforeAnyWordIsDropped(t *testing.T) {
	data := payload("odd", 1,
		punct("."),
		word("spk_0", "Right", 0.0, 0.4),
	)

	got, err := testNormalizer().Normalize(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Segments) != 1 || got.Segments[0].Text != "Right" {
		t.Errorf("segments = %+v, want single %q segment", got.Segments, "Right")
	}
}

func TestNormalize_PunctuationAttachesAcrossSpeakerBoundary(t *testing.T) {
	// Punctuation right after a speaker change attaches to the new
	// segment's first word, not the finalized one.
	data := payload("boundary", 2,
		word("spk_0", "Done", 0.0, 0.3),
		word("spk_1", "Next", 0.4, 0.7),
		punct("?"),
	)

	got, err := testNormalizer().Normalize(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(got.Segments))
	}
	if got.Segments[0].Text != "Done" {
		t.Errorf("first text = %q, want %q", got.Segments[0].Text, "Done")
	}
	if got.Segments[1].Text != "Next?" {
		t.Errorf("second text = %q, want %q", got.Segments[1].Text, "Next?")
	}
}

func TestNormalize_DeclaredSpeakerCountWins(t *testing.T) {
	// Three speakers declared, only one realized in items.
	data := payload("short", 3,
		word("spk_0", "Hello", 0.0, 0.4),
	)

	got, err := testNormalizer().Normalize(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SpeakersCount != 3 {
		t.Errorf("speakersCount = %d, want declared 3", got.SpeakersCount)
	}
}

func TestNormalize_EmptyItems(t *testing.T) {
	got, err := testNormalizer().Normalize(payload("empty", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Segments) != 0 {
		t.Errorf("got %d segments, want 0", len(got.Segments))
	}
}

func TestNormalize_MissingJobNameDefaultsToUnknown(t *testing.T) {
	data := []byte(`{"results":{"items":[],"speaker_labels":{"speakers":0}}}`)
	got, err := testNormalizer().Normalize(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.JobName != "unknown" {
		t.Errorf("jobName = %q, want unknown", got.JobName)
	}
}

func TestNormalize_FormatErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"missing results", `{"jobName":"x"}`, ErrMissingResults},
		{"missing items", `{"results":{"speaker_labels":{"speakers":1}}}`, ErrMissingItems},
		{"missing speaker_labels", `{"results":{"items":[]}}`, ErrMissingSpeakerLabels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testNormalizer().Normalize([]byte(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Normalize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalize_MalformedJSON(t *testing.T) {
	if _, err := testNormalizer().Normalize([]byte(`{not json`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestNormalize_TimestampParsing(t *testing.T) {
	data := payload("ts", 1,
		`{"type":"pronunciation","speaker_label":"spk_0","start_time":"1.25","end_time":"2.5","alternatives":[{"content":"ok"}]}`,
	)
	got, err := testNormalizer().Normalize(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seg := got.Segments[0]
	if math.Abs(seg.StartTime-1.25) > 1e-9 || math.Abs(seg.EndTime-2.5) > 1e-9 {
		t.Errorf("timing = [%v, %v], want [1.25, 2.5]", seg.StartTime, seg.EndTime)
	}
}

func TestNormalize_OutputIsSerializable(t *testing.T) {
	data := payload("ser", 1, word("spk_0", "hey", 0.0, 0.2))
	got, err := testNormalizer().Normalize(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := json.Marshal(got); err != nil {
		t.Errorf("marshal failed: %v", err)
	}
}
