package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ai-meeting-insights-service/internal/models"
	"ai-meeting-insights-service/internal/observability/logging"
	"ai-meeting-insights-service/internal/observability/metrics"
	"ai-meeting-insights-service/internal/service/normalizer"
	"ai-meeting-insights-service/internal/service/voiceprint"
)

const maxUploadBytes = 512 << 20 // recordings can be large

type handlers struct {
	deps    Deps
	log     zerolog.Logger
	metrics *metrics.Metrics
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// normalizeTranscript accepts a raw diarization payload and returns the
// per-speaker normalized transcript.
func (h *handlers) normalizeTranscript(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	transcript, err := h.deps.Normalizer.Normalize(body)
	if err != nil {
		h.metrics.RecordNormalizeFailure()
		status := http.StatusUnprocessableEntity
		if errors.Is(err, normalizer.ErrMissingResults) ||
			errors.Is(err, normalizer.ErrMissingItems) ||
			errors.Is(err, normalizer.ErrMissingSpeakerLabels) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	h.metrics.RecordNormalized(len(transcript.Segments))

	meetingID := r.URL.Query().Get("meetingId")
	_ = h.deps.Publisher.PublishNormalized(r.Context(), eventKey(meetingID, transcript.JobName), models.TranscriptNormalized{
		EventType:     "meeting.transcript.normalized",
		MeetingID:     meetingID,
		JobName:       transcript.JobName,
		SpeakersCount: transcript.SpeakersCount,
		SegmentCount:  len(transcript.Segments),
		Timestamp:     time.Now().UnixMilli(),
	})

	writeJSON(w, http.StatusOK, transcript)
}

type notesRequest struct {
	Files []struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
	} `json:"files"`
}

// normalizeNotes sections note file contents by attendee markers.
func (h *handlers) normalizeNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Files) == 0 {
		writeError(w, http.StatusBadRequest, "no note files provided")
		return
	}

	contents := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		contents = append(contents, f.Content)
	}

	normalized := h.deps.Notes.Normalize(strings.Join(contents, "\n"))
	writeJSON(w, http.StatusOK, normalized)
}

type combineRequest struct {
	Transcript *models.NormalizedTranscript `json:"transcript"`
	Notes      *models.NormalizedNotes      `json:"notes"`
}

// combineMeeting merges a normalized transcript and normalized notes into
// the unified meeting record.
func (h *handlers) combineMeeting(w http.ResponseWriter, r *http.Request) {
	var req combineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	combined, err := h.deps.Combiner.Combine(req.Transcript, req.Notes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, combined)
}

type identifyRequest struct {
	MeetingID  string                       `json:"meeting_id"`
	Transcript *models.NormalizedTranscript `json:"transcript"`
	Hints      string                       `json:"hints"`
	Apply      bool                         `json:"apply"`
}

type identifyResponse struct {
	Success    bool                         `json:"success"`
	Mapping    models.SpeakerMapping        `json:"speaker_mapping"`
	Report     models.VerificationReport    `json:"verification"`
	Attempts   int                          `json:"attempts"`
	Applied    int                          `json:"applied,omitempty"`
	Transcript *models.NormalizedTranscript `json:"transcript,omitempty"`
}

// identifySpeakers resolves diarization labels to names via the language
// model, optionally applying the mapping to the submitted transcript.
func (h *handlers) identifySpeakers(w http.ResponseWriter, r *http.Request) {
	var req identifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Transcript == nil || len(req.Transcript.Segments) == 0 {
		writeError(w, http.StatusBadRequest, "transcript with segments is required")
		return
	}

	log := logging.WithMeeting(h.log, req.MeetingID)
	res := h.deps.Resolver.Resolve(r.Context(), req.Transcript, req.Hints)
	log.Info().
		Bool("success", res.Success).
		Int("attempts", res.Attempts).
		Msg("Speaker resolution finished")

	resp := identifyResponse{
		Success:  res.Success,
		Mapping:  res.Mapping,
		Report:   res.Report,
		Attempts: res.Attempts,
	}
	if req.Apply {
		resp.Applied = req.Transcript.ApplyMapping(res.Mapping)
		resp.Transcript = req.Transcript
	}

	_ = h.deps.Publisher.PublishResolved(r.Context(), eventKey(req.MeetingID, req.Transcript.JobName), models.SpeakersResolved{
		EventType: "meeting.speakers.resolved",
		MeetingID: req.MeetingID,
		JobName:   req.Transcript.JobName,
		Method:    "llm",
		Mapping:   res.Mapping,
		Attempts:  res.Attempts,
		Success:   res.Success,
		Timestamp: time.Now().UnixMilli(),
	})

	writeJSON(w, http.StatusOK, resp)
}

// registerVoiceprint accepts a multipart form with a speaker name and an
// audio sample and persists the speaker's voiceprint.
func (h *handlers) registerVoiceprint(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	var extra map[string]any
	if meta := r.FormValue("metadata"); meta != "" {
		if err := json.Unmarshal([]byte(meta), &extra); err != nil {
			writeError(w, http.StatusBadRequest, "metadata must be a JSON object")
			return
		}
	}

	audioPath, cleanup, err := h.saveUpload(r, "audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	if !h.deps.Matcher.Register(r.Context(), audioPath, name, extra) {
		writeError(w, http.StatusUnprocessableEntity, "voiceprint registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"speaker_id": voiceprint.SanitizeID(name),
	})
}

// identifyVoiceprint matches an uploaded audio sample against the stored
// roster.
func (h *handlers) identifyVoiceprint(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	threshold := 0.0
	if v := r.FormValue("threshold"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || t <= 0 || t > 1 {
			writeError(w, http.StatusBadRequest, "threshold must be in (0, 1]")
			return
		}
		threshold = t
	}

	audioPath, cleanup, err := h.saveUpload(r, "audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	match := h.deps.Matcher.Identify(r.Context(), audioPath, threshold)
	writeJSON(w, http.StatusOK, match)
}

func (h *handlers) listVoiceprints(w http.ResponseWriter, _ *http.Request) {
	ids := h.deps.Store.List()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"voiceprints": ids})
}

func (h *handlers) deleteVoiceprint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.deps.Store.Delete(id) {
		writeError(w, http.StatusNotFound, "voiceprint not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ingestMeeting accepts a multipart recording plus optional note files
// and stages them for transcription.
func (h *handlers) ingestMeeting(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	recordingPath, cleanup, err := h.saveUpload(r, "recording")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	var notePaths []string
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["notes"] {
			notePath, noteCleanup, err := h.saveUploadHeader(fh)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			defer noteCleanup()
			notePaths = append(notePaths, notePath)
		}
	}

	meeting, err := h.deps.Ingestor.Ingest(r.Context(), recordingPath, notePaths)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, meeting)
}

type transcribeRequest struct {
	MeetingID string `json:"meeting_id"`
	JobName   string `json:"job_name"`
	MediaURI  string `json:"media_uri"`
	OutputKey string `json:"output_key"`
}

// transcribeMeeting runs a diarized transcription job to completion and
// returns the normalized transcript. Long-running: the job is polled
// until it finishes or the configured wait bound elapses.
func (h *handlers) transcribeMeeting(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.JobName == "" || req.MediaURI == "" {
		writeError(w, http.StatusBadRequest, "job_name and media_uri are required")
		return
	}
	outputKey := req.OutputKey
	if outputKey == "" {
		if req.MeetingID == "" {
			writeError(w, http.StatusBadRequest, "output_key or meeting_id is required")
			return
		}
		outputKey = "meetings/" + req.MeetingID + "/transcript.json"
	}

	log := logging.WithJob(h.log, req.MeetingID, req.JobName)

	raw, err := h.deps.Transcriber.Run(r.Context(), req.JobName, req.MediaURI, outputKey)
	if err != nil {
		log.Error().Err(err).Msg("Transcription job failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	transcript, err := h.deps.Normalizer.Normalize(raw)
	if err != nil {
		h.metrics.RecordNormalizeFailure()
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.metrics.RecordNormalized(len(transcript.Segments))
	log.Info().Int("segments", len(transcript.Segments)).Msg("Transcription job completed")

	_ = h.deps.Publisher.PublishNormalized(r.Context(), eventKey(req.MeetingID, transcript.JobName), models.TranscriptNormalized{
		EventType:     "meeting.transcript.normalized",
		MeetingID:     req.MeetingID,
		JobName:       transcript.JobName,
		SpeakersCount: transcript.SpeakersCount,
		SegmentCount:  len(transcript.Segments),
		Timestamp:     time.Now().UnixMilli(),
	})

	writeJSON(w, http.StatusOK, transcript)
}

// saveUpload writes the named multipart file to a temp file, preserving
// its extension so media type checks still work.
func (h *handlers) saveUpload(r *http.Request, field string) (string, func(), error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, errors.New(field + " file is required")
	}
	defer file.Close()
	return h.saveUploadFile(file, header.Filename)
}

func (h *handlers) saveUploadHeader(fh *multipart.FileHeader) (string, func(), error) {
	file, err := fh.Open()
	if err != nil {
		return "", nil, err
	}
	defer file.Close()
	return h.saveUploadFile(file, fh.Filename)
}

func (h *handlers) saveUploadFile(file multipart.File, filename string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "upload-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			h.log.Warn().Err(err).Str("dir", dir).Msg("Failed to clean up upload")
		}
	}

	path := filepath.Join(dir, filepath.Base(filename))
	out, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

func eventKey(meetingID, jobName string) string {
	if meetingID != "" {
		return meetingID
	}
	return jobName
}
