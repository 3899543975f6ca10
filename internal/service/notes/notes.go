// Package notes parses free-text meeting notes into per-attendee buckets.
//
// Notes may be organized with attendee markers in brackets:
//
//	[Eli Thompson]
//	- Migration timeline: 2 weeks
//
//	[Fran Reyes]
//	- Timeline conflict
//
// A file with no markers at all is attributed to the "unknown" attendee.
// When markers are present, content ahead of the first one is discarded.
package notes

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"ai-meeting-insights-service/internal/models"
)

// DefaultAuthor is the attendee used when no marker claims the content.
const DefaultAuthor = "unknown"

// attendeePattern matches marker lines like "[Name]" or "[First Last]".
var attendeePattern = regexp.MustCompile(`(?m)^[ \t]*\[([^\]]+)\][ \t]*$`)

// Normalizer parses raw notes text into a NormalizedNotes structure.
type Normalizer struct {
	log zerolog.Logger
}

// New creates a notes Normalizer.
func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log.With().Str("component", "notes").Logger()}
}

// Normalize splits the content at attendee markers and collects each
// attendee's notes until the next marker. A repeated attendee name appends
// to the earlier bucket.
func (n *Normalizer) Normalize(content string) *models.NormalizedNotes {
	result := &models.NormalizedNotes{
		AttendeeNotes: make(map[string]models.AttendeeNotes),
	}

	matches := attendeePattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		cleaned := strings.TrimSpace(content)
		if cleaned != "" {
			result.AttendeeNotes[DefaultAuthor] = models.AttendeeNotes{
				Name:     DefaultAuthor,
				RawNotes: cleaned,
			}
		}
		n.log.Info().Msg("No attendee markers found, attributed notes to 'unknown'")
		return result
	}

	for i, m := range matches {
		name := strings.TrimSpace(content[m[2]:m[3]])

		sectionStart := m[1]
		sectionEnd := len(content)
		if i+1 < len(matches) {
			sectionEnd = matches[i+1][0]
		}
		raw := strings.TrimSpace(content[sectionStart:sectionEnd])

		if existing, ok := result.AttendeeNotes[name]; ok {
			existing.RawNotes = existing.RawNotes + "\n" + raw
			result.AttendeeNotes[name] = existing
		} else {
			result.AttendeeNotes[name] = models.AttendeeNotes{
				Name:     name,
				RawNotes: raw,
			}
		}
	}

	n.log.Info().Int("attendees", len(result.AttendeeNotes)).Msg("Normalized notes")
	return result
}
