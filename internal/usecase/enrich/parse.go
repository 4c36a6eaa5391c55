package enrich

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
)

// ErrUnparseable is returned when a model reply holds no decodable JSON object.
var ErrUnparseable = errors.New("unparseable model response")

// parseError carries the decoder message and matches ErrUnparseable.
type parseError struct{ err error }

func (e *parseError) Error() string        { return e.err.Error() }
func (e *parseError) Unwrap() error        { return e.err }
func (e *parseError) Is(target error) bool { return target == ErrUnparseable }

// Fallback values for fields the model omitted or mistyped.
const (
	unknownName     = "Unknown"
	defaultReason   = "Analysis completed"
	fenceJSONPrefix = "```json"
	fence           = "```"
)

// extractJSON strips a leading code fence, then keeps the span from the first '{' to the last '}'.
func extractJSON(raw string) string {
	content := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(content, fenceJSONPrefix):
		content = untilFence(content[len(fenceJSONPrefix):])
	case strings.HasPrefix(content, fence):
		content = untilFence(content[len(fence):])
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

func untilFence(s string) string {
	if idx := strings.Index(s, fence); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// parseProfile decodes a model reply into a profile, coercing mistyped fields.
func parseProfile(raw string) (candidate.Profile, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return candidate.Profile{}, &parseError{err: err}
	}
	// A bare null decodes without error but carries no object.
	if data == nil {
		return candidate.Profile{}, &parseError{err: errors.New("reply is null, expected a JSON object")}
	}

	profile := candidate.Profile{Name: unknownName, Skills: []string{}, Reasons: []string{defaultReason}}

	if name, ok := data["name"].(string); ok {
		profile.Name = name
	}
	if skills, ok := coerceStrings(data["skills"]); ok {
		profile.Skills = skills
	}
	if reasons, ok := coerceStrings(data["reasons"]); ok {
		profile.Reasons = reasons
	}

	return profile, nil
}

// coerceStrings keeps the string items of a JSON array. ok is false when v is not an array.
func coerceStrings(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}
