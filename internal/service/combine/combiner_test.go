package combine

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"ai-meeting-insights-service/internal/models"
)

func validTranscript() *models.NormalizedTranscript {
	return &models.NormalizedTranscript{
		JobName:       "standup",
		SpeakersCount: 2,
		Segments: []models.SpeakerSegment{
			{Speaker: "spk_0", StartTime: 0.0, EndTime: 0.6, Text: "Hi there."},
			{Speaker: "spk_1", StartTime: 0.7, EndTime: 1.0, Text: "Hello"},
		},
	}
}

func validNotes() *models.NormalizedNotes {
	return &models.NormalizedNotes{
		AttendeeNotes: map[string]models.AttendeeNotes{
			"Eli": {Name: "Eli", RawNotes: "- timeline"},
		},
	}
}

func TestCombine(t *testing.T) {
	c := New(zerolog.Nop())

	got, err := c.Combine(validTranscript(), validNotes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.JobName != "standup" || got.SpeakersCount != 2 {
		t.Errorf("header = (%q, %d), want (standup, 2)", got.JobName, got.SpeakersCount)
	}
	if len(got.Transcript.Segments) != 2 {
		t.Errorf("got %d segments, want 2", len(got.Transcript.Segments))
	}
	if _, ok := got.AttendeeNotes["Eli"]; !ok {
		t.Error("missing Eli notes")
	}
}

func TestCombine_ValidationErrors(t *testing.T) {
	c := New(zerolog.Nop())

	tests := []struct {
		name       string
		transcript *models.NormalizedTranscript
		notes      *models.NormalizedNotes
		wantErr    error
	}{
		{"nil transcript", nil, validNotes(), ErrNilTranscript},
		{"missing job name", &models.NormalizedTranscript{Segments: []models.SpeakerSegment{}}, validNotes(), ErrMissingJobName},
		{"nil segments", &models.NormalizedTranscript{JobName: "x"}, validNotes(), ErrMissingSegments},
		{"nil notes", validTranscript(), nil, ErrNilNotes},
		{"nil attendee map", validTranscript(), &models.NormalizedNotes{}, ErrMissingAttendees},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Combine(tt.transcript, tt.notes)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Combine() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCombine_EmptySegmentsAllowed(t *testing.T) {
	c := New(zerolog.Nop())

	tr := &models.NormalizedTranscript{JobName: "quiet", Segments: []models.SpeakerSegment{}}
	got, err := c.Combine(tr, validNotes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Transcript.Segments) != 0 {
		t.Errorf("got %d segments, want 0", len(got.Transcript.Segments))
	}
}

func TestApplyMapping(t *testing.T) {
	tr := validTranscript()
	n := tr.ApplyMapping(models.SpeakerMapping{"spk_0": "Alice"})

	if n != 1 {
		t.Errorf("rewritten = %d, want 1", n)
	}
	if tr.Segments[0].Speaker != "Alice" {
		t.Errorf("first speaker = %q, want Alice", tr.Segments[0].Speaker)
	}
	if tr.Segments[1].Speaker != "spk_1" {
		t.Errorf("second speaker = %q, want untouched spk_1", tr.Segments[1].Speaker)
	}
}
