package assign

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"ai-meeting-insights-service/internal/models"
	llmmock "ai-meeting-insights-service/internal/service/llm/mock"
)

func newResolver(completer *llmmock.Completer) *Resolver {
	return NewResolver(New(completer, zerolog.Nop()), zerolog.Nop())
}

func TestResolve_CleanFirstAttempt(t *testing.T) {
	completer := llmmock.New([]string{`{"spk_0": "Alice", "spk_1": "Bob"}`}, nil)
	r := newResolver(completer)

	res := r.Resolve(context.Background(), twoSpeakerTranscript(), "")

	if !res.Success {
		t.Error("Success = false")
	}
	if res.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", res.Attempts)
	}
	if res.State != StateResolved {
		t.Errorf("State = %v, want RESOLVED", res.State)
	}
	if res.Mapping["spk_0"] != "Alice" {
		t.Errorf("mapping = %v", res.Mapping)
	}
	if res.Report.ShouldRetry {
		t.Errorf("report = %+v, want clean", res.Report)
	}
}

func TestResolve_RetryFixesIssues(t *testing.T) {
	completer := llmmock.New([]string{
		`{"spk_0": "Alice", "spk_1": "Alice"}`,
		`{"spk_0": "Alice", "spk_1": "Bob"}`,
	}, nil)
	r := newResolver(completer)

	res := r.Resolve(context.Background(), twoSpeakerTranscript(), "")

	if !res.Success || res.State != StateResolved {
		t.Errorf("Success = %v, State = %v, want resolved", res.Success, res.State)
	}
	if res.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", res.Attempts)
	}
	if res.Mapping["spk_1"] != "Bob" {
		t.Errorf("mapping = %v, want corrected second attempt", res.Mapping)
	}

	prompts := completer.Prompts()
	if len(prompts) != 2 {
		t.Fatalf("got %d prompts, want 2", len(prompts))
	}
	if strings.Contains(prompts[0], "Previous mapping had these issues") {
		t.Error("first prompt carries retry hints")
	}
	if !strings.Contains(prompts[1], "Previous mapping had these issues") ||
		!strings.Contains(prompts[1], `duplicate name: "Alice"`) {
		t.Errorf("retry prompt missing corrective hints:\n%s", prompts[1])
	}
}

func TestResolve_AttemptBound(t *testing.T) {
	// Both attempts produce the same duplicate; the loop must stop at
	// MaxAttempts and surface the unresolved issues.
	completer := llmmock.New([]string{
		`{"spk_0": "Alice", "spk_1": "Alice"}`,
	}, nil)
	r := newResolver(completer)

	res := r.Resolve(context.Background(), twoSpeakerTranscript(), "")

	if res.Attempts != MaxAttempts {
		t.Errorf("Attempts = %d, want %d", res.Attempts, MaxAttempts)
	}
	if completer.Calls() != MaxAttempts {
		t.Errorf("model calls = %d, want %d", completer.Calls(), MaxAttempts)
	}
	if res.State != StateExhausted {
		t.Errorf("State = %v, want EXHAUSTED", res.State)
	}
	if !res.Success {
		t.Error("Success = false, want true: a mapping was produced even if flawed")
	}
	if !res.Report.ShouldRetry || len(res.Report.Issues) == 0 {
		t.Errorf("report = %+v, want unresolved issues surfaced", res.Report)
	}
}

func TestResolve_EmptyMappingStopsImmediately(t *testing.T) {
	completer := llmmock.New([]string{`{}`}, nil)
	r := newResolver(completer)

	res := r.Resolve(context.Background(), twoSpeakerTranscript(), "")

	if res.Success {
		t.Error("Success = true for empty mapping")
	}
	if res.Attempts != 1 || completer.Calls() != 1 {
		t.Errorf("Attempts = %d, model calls = %d, want 1/1", res.Attempts, completer.Calls())
	}
	if res.State != StateExhausted {
		t.Errorf("State = %v, want EXHAUSTED", res.State)
	}
	if res.Mapping == nil {
		t.Error("Mapping is nil, want empty map")
	}
}

func TestResolve_CompletionFailureDegrades(t *testing.T) {
	completer := llmmock.New(nil, []error{errors.New("upstream down")})
	r := newResolver(completer)

	res := r.Resolve(context.Background(), twoSpeakerTranscript(), "")

	if res.Success {
		t.Error("Success = true despite completion failure")
	}
	if res.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1: an unavailable model is not retried", res.Attempts)
	}
	if len(res.Mapping) != 0 {
		t.Errorf("mapping = %v, want empty", res.Mapping)
	}
}

func TestResolve_BaseHintsCarriedIntoEveryPrompt(t *testing.T) {
	completer := llmmock.New([]string{
		`{"spk_0": "Alice", "spk_1": "Alice"}`,
		`{"spk_0": "Alice", "spk_1": "Bob"}`,
	}, nil)
	r := newResolver(completer)

	res := r.Resolve(context.Background(), twoSpeakerTranscript(), "Attendees: Alice, Bob")
	if !res.Success {
		t.Fatal("Success = false")
	}

	for i, p := range completer.Prompts() {
		if !strings.Contains(p, "Attendees: Alice, Bob") {
			t.Errorf("prompt %d missing caller hints", i)
		}
	}
}

func TestNextHints(t *testing.T) {
	cleanReport := models.VerificationReport{}
	dirtyReport := models.VerificationReport{
		Issues:      []string{`duplicate name: "Alice" assigned to labels spk_0, spk_1`},
		ShouldRetry: true,
	}

	tests := []struct {
		name      string
		attempt   int
		report    models.VerificationReport
		baseHints string
		wantRetry bool
	}{
		{"clean report never retries", 1, cleanReport, "", false},
		{"issues on first attempt retry", 1, dirtyReport, "", true},
		{"bound reached", MaxAttempts, dirtyReport, "", false},
		{"beyond bound", MaxAttempts + 1, dirtyReport, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hints, retry := NextHints(tt.attempt, tt.report, tt.baseHints)
			if retry != tt.wantRetry {
				t.Fatalf("retry = %v, want %v", retry, tt.wantRetry)
			}
			if !retry && hints != "" {
				t.Errorf("hints = %q without retry", hints)
			}
		})
	}

	hints, _ := NextHints(1, dirtyReport, "Attendees: Alice, Bob")
	if !strings.Contains(hints, dirtyReport.Issues[0]) {
		t.Error("hints missing the verification issue")
	}
	if !strings.Contains(hints, "Attendees: Alice, Bob") {
		t.Error("hints missing caller base hints")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateInitial, "INITIAL"},
		{StateRetrying, "RETRYING"},
		{StateResolved, "RESOLVED"},
		{StateExhausted, "EXHAUSTED"},
		{State(42), "UNKNOWN(42)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}
