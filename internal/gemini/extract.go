package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON extracts JSON content from a model response that may be wrapped
// in markdown code fences. It looks for content between ```json and ```
// markers, falls back to bare ``` fences, and returns unfenced input trimmed.
func ExtractJSON(responseText string) string {
	// Search for the first ```json fence on its own line and collect content
	// until the closing fence.
	lines := strings.Split(responseText, "\n")
	var jsonBuffer bytes.Buffer
	inJSONBlock := false
	foundJSON := false

	for _, line := range lines {
		if !inJSONBlock && strings.TrimSpace(line) == "```json" {
			inJSONBlock = true
			foundJSON = true
			continue
		}

		if inJSONBlock && strings.TrimSpace(line) == "```" {
			break
		}

		if inJSONBlock {
			if jsonBuffer.Len() > 0 {
				jsonBuffer.WriteString("\n")
			}
			jsonBuffer.WriteString(line)
		}
	}

	if foundJSON {
		return strings.TrimSpace(jsonBuffer.String())
	}

	// Fallback: strip any bare fences. These do nothing if the markers
	// aren't there.
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")

	return strings.TrimSpace(responseText)
}

// Decode extracts JSON content from a model response and unmarshals it into
// the provided type.
func Decode[T any](responseText string) (T, error) {
	var result T

	jsonContent := ExtractJSON(responseText)
	if jsonContent == "" {
		return result, fmt.Errorf("response contains no JSON content")
	}

	if err := json.Unmarshal([]byte(jsonContent), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return result, nil
}
