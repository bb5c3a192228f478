package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeDocument parses a model response into a JSON document. Models
// sometimes wrap their output in markdown code fences or surround it
// with prose despite being asked not to, so the decoder slices out the
// outermost object before unmarshaling.
func DecodeDocument(text string) (any, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}
	return doc, nil
}
