// Package combine merges a normalized transcript and normalized notes
// into a single unified meeting record.
package combine

import (
	"errors"

	"github.com/rs/zerolog"

	"ai-meeting-insights-service/internal/models"
)

// Validation errors for structurally incomplete inputs.
var (
	ErrNilTranscript    = errors.New("invalid transcript: nil")
	ErrMissingJobName   = errors.New("invalid transcript: missing job name")
	ErrMissingSegments  = errors.New("invalid transcript: missing segments")
	ErrNilNotes         = errors.New("invalid notes: nil")
	ErrMissingAttendees = errors.New("invalid notes: missing attendee notes map")
)

// Combiner merges transcripts and notes.
type Combiner struct {
	log zerolog.Logger
}

// New creates a Combiner.
func New(log zerolog.Logger) *Combiner {
	return &Combiner{log: log.With().Str("component", "combiner").Logger()}
}

// ValidateTranscript checks the transcript half of the merge input.
func (c *Combiner) ValidateTranscript(t *models.NormalizedTranscript) error {
	if t == nil {
		return ErrNilTranscript
	}
	if t.JobName == "" {
		return ErrMissingJobName
	}
	if t.Segments == nil {
		return ErrMissingSegments
	}
	return nil
}

// ValidateNotes checks the notes half of the merge input.
func (c *Combiner) ValidateNotes(n *models.NormalizedNotes) error {
	if n == nil {
		return ErrNilNotes
	}
	if n.AttendeeNotes == nil {
		return ErrMissingAttendees
	}
	return nil
}

// Combine validates both inputs and merges them into a CombinedMeeting.
// The transcript is copied by value; the caller's transcript is not shared.
func (c *Combiner) Combine(t *models.NormalizedTranscript, n *models.NormalizedNotes) (*models.CombinedMeeting, error) {
	if err := c.ValidateTranscript(t); err != nil {
		return nil, err
	}
	if err := c.ValidateNotes(n); err != nil {
		return nil, err
	}

	combined := &models.CombinedMeeting{
		JobName:       t.JobName,
		SpeakersCount: t.SpeakersCount,
		Transcript:    *t,
		AttendeeNotes: n.AttendeeNotes,
	}

	c.log.Info().
		Str("jobName", combined.JobName).
		Int("segments", len(combined.Transcript.Segments)).
		Int("attendees", len(combined.AttendeeNotes)).
		Msg("Combined meeting")

	return combined, nil
}
