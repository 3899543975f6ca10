// Package models defines the data structures shared across the meeting
// processing pipeline: normalized transcripts, notes, speaker mappings
// and the combined meeting record.
package models

// SpeakerSegment is a contiguous run of transcript text attributed to a
// single diarization label (or, after mapping is applied, a real name).
type SpeakerSegment struct {
	Speaker   string  `json:"speaker"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
}

// NormalizedTranscript is the output of transcript normalization.
//
// SpeakersCount reflects the speaker count declared by the diarization
// metadata, not the number of speakers realized in Segments - a declared
// speaker may produce zero words.
type NormalizedTranscript struct {
	JobName       string           `json:"job_name"`
	SpeakersCount int              `json:"speakers_count"`
	Segments      []SpeakerSegment `json:"segments"`
}

// SpeakerMapping maps diarization labels (e.g. "spk_0") to human names.
// It may be empty (no confident mapping) or partial.
type SpeakerMapping map[string]string

// ApplyMapping rewrites segment speaker labels in place using the given
// mapping. Labels absent from the mapping are left untouched. This is the
// only permitted mutation of a normalized transcript.
func (t *NormalizedTranscript) ApplyMapping(mapping SpeakerMapping) int {
	rewritten := 0
	for i := range t.Segments {
		if name, ok := mapping[t.Segments[i].Speaker]; ok && name != "" {
			t.Segments[i].Speaker = name
			rewritten++
		}
	}
	return rewritten
}

// Labels returns the distinct speaker labels realized in Segments, in
// first-appearance order.
func (t *NormalizedTranscript) Labels() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, seg := range t.Segments {
		if !seen[seg.Speaker] {
			seen[seg.Speaker] = true
			labels = append(labels, seg.Speaker)
		}
	}
	return labels
}

// VerificationReport is the result of a local rule check over a speaker
// mapping. Ephemeral - produced and consumed within one resolution attempt.
type VerificationReport struct {
	Issues      []string `json:"issues"`
	ShouldRetry bool     `json:"should_retry"`
}

// AttendeeNotes holds the raw notes contributed by one attendee.
type AttendeeNotes struct {
	Name     string `json:"name"`
	RawNotes string `json:"raw_notes"`
}

// NormalizedNotes is the output of notes normalization, keyed by attendee.
type NormalizedNotes struct {
	AttendeeNotes map[string]AttendeeNotes `json:"attendee_notes"`
}

// CombinedMeeting is the unified meeting record: normalized transcript
// plus normalized notes.
type CombinedMeeting struct {
	JobName       string                   `json:"job_name"`
	SpeakersCount int                      `json:"speakers_count"`
	Transcript    NormalizedTranscript     `json:"transcript"`
	AttendeeNotes map[string]AttendeeNotes `json:"attendee_notes"`
}
