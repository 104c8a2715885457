package extract

import (
	"encoding/json"
	"strings"
)

// ParseCompletion returns the JSON object spanning the first '{' and the last '}'
// of a model completion. Prose around the object is ignored. When there is no such
// span, or the span is not a single valid JSON object, it reports ok=false; it never fails.
//
// Sibling objects ("{...} and {...}") produce an invalid outer span and are
// therefore reported as not found.
func ParseCompletion(raw string) (Fields, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return nil, false
	}
	span := raw[start : end+1]
	if !json.Valid([]byte(span)) {
		return nil, false
	}

	dec := json.NewDecoder(strings.NewReader(span))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, false
	}
	return fieldsFromJSON(m), true
}
