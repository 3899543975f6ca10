// Package assign resolves anonymous diarization labels to real names by
// prompting a text-generation model with per-speaker transcript samples,
// verifying the proposed mapping locally, and retrying once with
// corrective hints when verification finds problems.
package assign

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"ai-meeting-insights-service/internal/models"
	"ai-meeting-insights-service/internal/service/llm"
)

// Assigner proposes and verifies speaker label -> name mappings.
type Assigner struct {
	completer llm.Completer
	log       zerolog.Logger
}

// New creates an Assigner using the given completion provider.
func New(completer llm.Completer, log zerolog.Logger) *Assigner {
	return &Assigner{
		completer: completer,
		log:       log.With().Str("component", "assigner").Logger(),
	}
}

// buildSpeakerSamples groups every segment's text by its speaker label.
// All segments are included; sampling strategies for very long meetings
// can slot in here later without changing callers.
func buildSpeakerSamples(t *models.NormalizedTranscript) map[string][]string {
	samples := make(map[string][]string)
	for _, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		samples[seg.Speaker] = append(samples[seg.Speaker], text)
	}
	return samples
}

const promptTemplate = `**Task**
Generate a speaker mapping that identifies real names from diarized speaker labels.

**Context**
- Environment: Tech company daily standup meetings
- Participants: Team members discussing projects
- Data format: Diarized transcript with speaker labels and text

**Data to analyze**
%s
%s
**Instructions - How to identify speakers**
1. Check for self introductions
2. Look for direct address
3. Pay attention to who is assigned tasks
4. Pay attention to who replies after a name is called
5. Use context clues to identify roles, topics, meeting flow
6. Use process of elimination to narrow down the possibilities

**Required Output from You**
Return ONLY a valid JSON object. No explanations, no markdown.

Example: {"spk_0": "Sarah", "spk_1": "Michael", "spk_2": "Emma"}

If you cannot identify ANY speakers confidently, return: {}
`

func buildPrompt(samples map[string][]string, fixInstructions string) string {
	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		data = []byte("{}")
	}

	hints := ""
	if fixInstructions != "" {
		hints = "\nAdditional Hints: " + fixInstructions + "\n"
	}

	return fmt.Sprintf(promptTemplate, data, hints)
}

// GenerateMapping prompts the model with per-label transcript samples and
// parses the proposed label -> name mapping.
//
// Failure modes all degrade to an empty mapping rather than an error: no
// transcript text (the model is not invoked at all), a completion call
// failure, or unparseable output. The cause is logged; the caller treats an
// empty mapping as "could not identify any speaker".
func (a *Assigner) GenerateMapping(ctx context.Context, t *models.NormalizedTranscript, fixInstructions string) models.SpeakerMapping {
	samples := buildSpeakerSamples(t)
	if len(samples) == 0 {
		a.log.Warn().Msg("No speaker samples found in transcript")
		return models.SpeakerMapping{}
	}

	prompt := buildPrompt(samples, fixInstructions)

	response, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		a.log.Error().Err(err).Msg("Completion call failed")
		return models.SpeakerMapping{}
	}

	mapping, err := parseMapping(response)
	if err != nil {
		a.log.Error().Err(err).Str("response", truncate(response, 256)).
			Msg("Failed to parse mapping from model response")
		return models.SpeakerMapping{}
	}

	a.log.Info().Interface("mapping", mapping).Msg("Generated speaker mapping")
	return mapping
}

// VerifyMapping runs a deterministic local rule check over a mapping:
// the same name bound to multiple labels, and labels realized in segments
// but absent from the mapping. No external call is made. ShouldRetry is
// true iff any issue was found.
func (a *Assigner) VerifyMapping(mapping models.SpeakerMapping, t *models.NormalizedTranscript) models.VerificationReport {
	var issues []string

	byName := make(map[string][]string)
	for label, name := range mapping {
		byName[name] = append(byName[name], label)
	}
	var dupNames []string
	for name, labels := range byName {
		if len(labels) > 1 {
			dupNames = append(dupNames, name)
		}
	}
	sort.Strings(dupNames)
	for _, name := range dupNames {
		labels := byName[name]
		sort.Strings(labels)
		issues = append(issues, fmt.Sprintf(
			"duplicate name: %q assigned to labels %s", name, strings.Join(labels, ", ")))
	}

	var missing []string
	for _, label := range t.Labels() {
		if _, ok := mapping[label]; !ok {
			missing = append(missing, label)
		}
	}
	sort.Strings(missing)
	if len(missing) > 0 {
		issues = append(issues, fmt.Sprintf(
			"missing speakers: %s", strings.Join(missing, ", ")))
	}

	return models.VerificationReport{
		Issues:      issues,
		ShouldRetry: len(issues) > 0,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
