package models

// TranscriptNormalized is published after a raw diarization payload has
// been collapsed into per-speaker segments.
type TranscriptNormalized struct {
	EventType     string `json:"eventType"`
	MeetingID     string `json:"meetingId"`
	JobName       string `json:"jobName"`
	SpeakersCount int    `json:"speakersCount"`
	SegmentCount  int    `json:"segmentCount"`
	Timestamp     int64  `json:"timestamp"`
}

// SpeakersResolved is published after a speaker resolution pass, whether
// LLM-based or biometric. Mapping may be empty when resolution was
// inconclusive.
type SpeakersResolved struct {
	EventType string            `json:"eventType"`
	MeetingID string            `json:"meetingId"`
	JobName   string            `json:"jobName"`
	Method    string            `json:"method"` // "llm" or "voiceprint"
	Mapping   map[string]string `json:"mapping"`
	Attempts  int               `json:"attempts"`
	Success   bool              `json:"success"`
	Timestamp int64             `json:"timestamp"`
}
