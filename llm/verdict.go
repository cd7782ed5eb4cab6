package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Verdict is the structured result of a binary grading call.
type Verdict struct {
	// Score is "yes" or "no".
	Score string `json:"score"`
	// Feedback optionally explains the verdict (answer grader only).
	Feedback string `json:"feedback,omitempty"`
}

// Yes reports whether the verdict is positive.
func (v *Verdict) Yes() bool {
	return strings.EqualFold(v.Score, "yes")
}

// ParseError is returned when a model response cannot be parsed into the
// expected verdict shape.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable grader response %q: %v", truncate(e.Raw, 120), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseVerdict extracts a {"score": "yes"|"no"} object from a raw model
// response. Models often wrap the JSON in markdown fences or preamble text,
// so the first balanced JSON object in the response is used.
func ParseVerdict(raw string) (*Verdict, error) {
	payload := extractJSONObject(raw)
	if payload == "" {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("no JSON object found")}
	}

	var v Verdict
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	score := strings.ToLower(strings.TrimSpace(v.Score))
	if score != "yes" && score != "no" {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("score must be yes or no, got %q", v.Score)}
	}
	v.Score = score

	return &v, nil
}

// extractJSONObject returns the first balanced top-level {...} block in s.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
