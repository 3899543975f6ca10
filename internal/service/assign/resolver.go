package assign

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ai-meeting-insights-service/internal/models"
	"ai-meeting-insights-service/internal/observability/metrics"
)

// MaxAttempts bounds the number of generation calls per resolution.
const MaxAttempts = 2

// State is the resolution loop's position.
type State int

const (
	// StateInitial - no generation attempt has run yet.
	StateInitial State = iota
	// StateRetrying - a prior attempt had verification issues and another
	// attempt is about to run with corrective hints.
	StateRetrying
	// StateResolved - the last attempt's mapping verified clean.
	StateResolved
	// StateExhausted - the loop stopped without a clean verification:
	// either the mapping was empty or the attempt bound was reached.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StateRetrying:
		return "RETRYING"
	case StateResolved:
		return "RESOLVED"
	case StateExhausted:
		return "EXHAUSTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// Resolution is the outcome of a full resolution pass. Success reflects
// whether any mapping was produced, not whether its verification was clean;
// Report carries the last attempt's issues either way so the caller can
// tell "inconclusive" apart from "clean".
type Resolution struct {
	Success  bool                      `json:"success"`
	Mapping  models.SpeakerMapping     `json:"speaker_mapping"`
	Report   models.VerificationReport `json:"verification"`
	Attempts int                       `json:"attempts"`
	State    State                     `json:"-"`
}

// NextHints is the pure retry decision: given the number of the attempt
// that just completed and its verification report, it returns the hints for
// the next attempt and whether a retry should run at all. Caller-supplied
// base hints are carried into every retry.
func NextHints(attempt int, report models.VerificationReport, baseHints string) (string, bool) {
	if !report.ShouldRetry || attempt >= MaxAttempts {
		return "", false
	}

	var b strings.Builder
	b.WriteString("Previous mapping had these issues:\n")
	for _, issue := range report.Issues {
		b.WriteString("- ")
		b.WriteString(issue)
		b.WriteString("\n")
	}
	if baseHints != "" {
		b.WriteString(baseHints)
		b.WriteString("\n")
	}
	b.WriteString("Please fix these specific issues in the new mapping.")
	return b.String(), true
}

// Resolver drives the bounded generate/verify loop.
type Resolver struct {
	assigner *Assigner
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewResolver creates a Resolver around an Assigner.
func NewResolver(assigner *Assigner, log zerolog.Logger) *Resolver {
	return &Resolver{
		assigner: assigner,
		metrics:  metrics.DefaultMetrics,
		log:      log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve runs at most MaxAttempts generation attempts against the
// transcript. An empty mapping stops the loop immediately - it means the
// model could not identify anyone, which retrying will not fix. A mapping
// with verification issues triggers exactly one retry carrying the
// serialized issues as corrective hints; the returned Resolution reflects
// the last attempt executed, with or without remaining issues.
func (r *Resolver) Resolve(ctx context.Context, t *models.NormalizedTranscript, hints string) Resolution {
	var (
		mapping    models.SpeakerMapping
		report     models.VerificationReport
		attempt    int
		state      = StateInitial
		retryHints = hints
	)

	for {
		attempt++
		r.metrics.RecordAssignAttempt()

		mapping = r.assigner.GenerateMapping(ctx, t, retryHints)
		if len(mapping) == 0 {
			r.log.Warn().Int("attempt", attempt).Msg("Empty mapping generated, stopping")
			r.metrics.RecordAssignEmpty()
			state = StateExhausted
			report = models.VerificationReport{}
			break
		}

		report = r.assigner.VerifyMapping(mapping, t)
		if !report.ShouldRetry {
			r.log.Info().Int("attempt", attempt).Msg("Mapping verified clean")
			state = StateResolved
			break
		}

		next, retry := NextHints(attempt, report, hints)
		if !retry {
			r.log.Warn().
				Int("attempt", attempt).
				Strs("issues", report.Issues).
				Msg("Attempt bound reached with unresolved issues")
			state = StateExhausted
			break
		}

		r.log.Warn().
			Int("attempt", attempt).
			Strs("issues", report.Issues).
			Msg("Verification found issues, retrying with hints")
		r.metrics.RecordAssignRetry()
		state = StateRetrying
		retryHints = next
	}

	res := Resolution{
		Success:  len(mapping) > 0,
		Mapping:  mapping,
		Report:   report,
		Attempts: attempt,
		State:    state,
	}
	if res.Mapping == nil {
		res.Mapping = models.SpeakerMapping{}
	}
	r.metrics.RecordResolution("llm", res.Success)
	return res
}
