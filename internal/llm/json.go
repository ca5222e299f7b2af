package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON parses a model response into target, tolerating the
// wrappers models commonly add: markdown code fences and prose around
// the JSON payload. It extracts the outermost JSON object or array
// before unmarshaling.
func DecodeJSON(text string, target any) error {
	cleaned := strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	// Extract the outermost object or array.
	start := strings.IndexAny(cleaned, "{[")
	if start < 0 {
		return fmt.Errorf("no JSON object in response")
	}
	var end int
	if cleaned[start] == '{' {
		end = strings.LastIndex(cleaned, "}")
	} else {
		end = strings.LastIndex(cleaned, "]")
	}
	if end <= start {
		return fmt.Errorf("unterminated JSON in response")
	}
	cleaned = cleaned[start : end+1]

	if err := json.Unmarshal([]byte(cleaned), target); err != nil {
		return fmt.Errorf("parsing JSON response: %w", err)
	}
	return nil
}
