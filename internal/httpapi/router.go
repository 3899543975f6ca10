// Package httpapi exposes the meeting processing pipeline over REST.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"ai-meeting-insights-service/internal/events"
	"ai-meeting-insights-service/internal/observability/logging"
	"ai-meeting-insights-service/internal/observability/metrics"
	"ai-meeting-insights-service/internal/service/assign"
	"ai-meeting-insights-service/internal/service/combine"
	"ai-meeting-insights-service/internal/service/ingest"
	"ai-meeting-insights-service/internal/service/normalizer"
	"ai-meeting-insights-service/internal/service/notes"
	"ai-meeting-insights-service/internal/service/transcribe"
	"ai-meeting-insights-service/internal/service/voiceprint"
)

// Deps are the collaborators the API dispatches to. Publisher may be a
// disabled (log-only) publisher but must not be nil. Ingestor and
// Transcriber may be nil, which disables their routes.
type Deps struct {
	Normalizer  *normalizer.Normalizer
	Notes       *notes.Normalizer
	Combiner    *combine.Combiner
	Resolver    *assign.Resolver
	Matcher     *voiceprint.Matcher
	Store       *voiceprint.Store
	Ingestor    *ingest.Ingestor
	Transcriber *transcribe.Runner
	Publisher   *events.Publisher
	Logger      zerolog.Logger
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(deps Deps) http.Handler {
	h := &handlers{
		deps:    deps,
		log:     logging.WithComponent(deps.Logger, "httpapi"),
		metrics: metrics.DefaultMetrics,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.recordRequest)

	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/transcripts/normalize", h.normalizeTranscript)
		r.Post("/notes/normalize", h.normalizeNotes)
		r.Post("/meetings/combine", h.combineMeeting)
		r.Post("/speakers/identify", h.identifySpeakers)

		r.Route("/voiceprints", func(r chi.Router) {
			r.Get("/", h.listVoiceprints)
			r.Post("/", h.registerVoiceprint)
			r.Post("/identify", h.identifyVoiceprint)
			r.Delete("/{id}", h.deleteVoiceprint)
		})

		if deps.Ingestor != nil {
			r.Post("/meetings/ingest", h.ingestMeeting)
		}
		if deps.Transcriber != nil {
			r.Post("/meetings/transcribe", h.transcribeMeeting)
		}
	})

	return r
}

// recordRequest observes per-route request counts and latency.
func (h *handlers) recordRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		h.metrics.RecordHTTPRequest(route, strconv.Itoa(ww.Status()), time.Since(start).Seconds())
	})
}
