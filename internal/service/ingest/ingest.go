// Package ingest accepts meeting recordings and note files, stages them
// in object storage, and prepares the audio for transcription.
package ingest

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-meeting-insights-service/internal/media"
	"ai-meeting-insights-service/internal/storage"
)

var nonWord = regexp.MustCompile(`\W+`)
var underscoreRun = regexp.MustCompile(`_+`)

// NormalizeFilename maps an arbitrary filename to a safe object key
// component: every run of non-word characters in the stem becomes a
// single underscore, and leading/trailing underscores are trimmed. The
// extension is kept, lowercased.
func NormalizeFilename(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	stem = nonWord.ReplaceAllString(stem, "_")
	stem = underscoreRun.ReplaceAllString(stem, "_")
	stem = strings.Trim(stem, "_")

	return stem + strings.ToLower(ext)
}

// Meeting describes an ingested meeting's staged artifacts.
type Meeting struct {
	ID           string   `json:"meeting_id"`
	RecordingURI string   `json:"recording_uri"`
	AudioURI     string   `json:"audio_uri"`
	NotesURIs    []string `json:"notes_uris,omitempty"`
}

// Ingestor stages recordings and notes for downstream processing.
type Ingestor struct {
	store     *storage.MeetingStore
	converter media.Converter
	log       zerolog.Logger
}

// New creates an Ingestor.
func New(store *storage.MeetingStore, converter media.Converter, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		store:     store,
		converter: converter,
		log:       log.With().Str("component", "ingestor").Logger(),
	}
}

// Ingest stages a local recording and any note files under a fresh
// meeting prefix. The recording is uploaded as-is, then converted to the
// standard WAV encoding and uploaded alongside it; the conversion
// artifact is removed from local disk afterwards.
func (i *Ingestor) Ingest(ctx context.Context, recordingPath string, notePaths []string) (*Meeting, error) {
	if err := media.CheckExtension(recordingPath); err != nil {
		return nil, err
	}

	meetingID := uuid.NewString()
	log := i.log.With().Str("meetingId", meetingID).Logger()

	recordingName := NormalizeFilename(filepath.Base(recordingPath))
	recordingURI, err := i.store.UploadFile(ctx, recordingPath,
		storage.MeetingKey(meetingID, recordingName), contentTypeFor(recordingPath))
	if err != nil {
		return nil, fmt.Errorf("upload recording: %w", err)
	}
	log.Info().Str("uri", recordingURI).Msg("Uploaded recording")

	audioURI := recordingURI
	if !media.IsWAV(recordingPath) {
		wavPath, err := i.converter.ToWAV(ctx, recordingPath, "")
		if err != nil {
			return nil, fmt.Errorf("convert recording: %w", err)
		}
		defer func() {
			if err := os.Remove(wavPath); err != nil {
				log.Warn().Err(err).Str("path", wavPath).Msg("Failed to clean up conversion artifact")
			}
		}()

		audioURI, err = i.store.UploadFile(ctx, wavPath,
			storage.MeetingKey(meetingID, "audio.wav"), "audio/wav")
		if err != nil {
			return nil, fmt.Errorf("upload audio: %w", err)
		}
		log.Info().Str("uri", audioURI).Msg("Uploaded converted audio")
	}

	var noteURIs []string
	for _, notePath := range notePaths {
		name := NormalizeFilename(filepath.Base(notePath))
		uri, err := i.store.UploadFile(ctx, notePath,
			storage.MeetingKey(meetingID, "notes", name), contentTypeFor(notePath))
		if err != nil {
			return nil, fmt.Errorf("upload notes %s: %w", notePath, err)
		}
		noteURIs = append(noteURIs, uri)
	}
	if len(noteURIs) > 0 {
		log.Info().Int("count", len(noteURIs)).Msg("Uploaded note files")
	}

	return &Meeting{
		ID:           meetingID,
		RecordingURI: recordingURI,
		AudioURI:     audioURI,
		NotesURIs:    noteURIs,
	}, nil
}

func contentTypeFor(path string) string {
	return mime.TypeByExtension(filepath.Ext(path))
}
