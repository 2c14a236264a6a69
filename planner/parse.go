// ABOUTME: Tolerant JSON array parsing for per-role subtask generation.
// ABOUTME: Mirrors the scope package's fenced-block tolerance; kept separate since the two packages parse different shapes.
package planner

import (
	"encoding/json"
	"strings"
)

type subtaskPayload struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Tools       []string `json:"tools"`
}

// parseSubtasks extracts a JSON array of subtasks from text, tolerating
// surrounding prose and ```-fenced code blocks. Returns ok=false on any
// failure or if the array isn't exactly length 4.
func parseSubtasks(text string) ([]subtaskPayload, bool) {
	body := extractJSONArray(text)
	if body == "" {
		return nil, false
	}
	var payload []subtaskPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, false
	}
	if len(payload) != 4 {
		return nil, false
	}
	for _, p := range payload {
		if strings.TrimSpace(p.Title) == "" {
			return nil, false
		}
	}
	return payload, true
}

func extractJSONArray(text string) string {
	if fenced, ok := extractFenced(text); ok {
		text = fenced
	}
	start := strings.IndexByte(text, '[')
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func extractFenced(text string) (string, bool) {
	const fence = "```"
	start := strings.Index(text, fence)
	if start == -1 {
		return "", false
	}
	rest := text[start+len(fence):]
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "" || strings.EqualFold(firstLine, "json") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, fence)
	if end == -1 {
		return "", false
	}
	return rest[:end], true
}
