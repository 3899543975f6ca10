package assign

import (
	"encoding/json"
	"regexp"

	"github.com/kaptinlin/jsonrepair"

	"ai-meeting-insights-service/internal/models"
)

// fencePattern matches a fenced code block, with or without a language tag.
var fencePattern = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")

// extractJSON pulls the JSON payload out of a model response. Models
// sometimes wrap the object in a markdown fence or surround it with prose,
// so extraction is tried in order: fenced block contents, first balanced
// top-level {...} substring, then the raw text as-is.
func extractJSON(text string) string {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if obj := firstObject(text); obj != "" {
		return obj
	}
	return text
}

// firstObject returns the first balanced top-level {...} substring, or ""
// if none exists. Brace depth inside JSON strings is ignored.
func firstObject(text string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}

// parseMapping decodes a label -> name object from raw model output.
// Malformed JSON gets one repair pass before giving up.
func parseMapping(response string) (models.SpeakerMapping, error) {
	payload := extractJSON(response)

	var mapping map[string]string
	err := json.Unmarshal([]byte(payload), &mapping)
	if err == nil {
		return mapping, nil
	}

	fixed, repairErr := jsonrepair.JSONRepair(payload)
	if repairErr != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fixed), &mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}
