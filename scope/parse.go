// ABOUTME: Tolerant JSON parsing for the structured-extraction Completer response.
// ABOUTME: Strips leading/trailing prose and optional code fences before unmarshaling.
package scope

import (
	"encoding/json"
	"strings"

	"github.com/2389-research/swarmkernel/core"
)

type scopePayload struct {
	Project   string            `json:"project"`
	Goal      string            `json:"goal"`
	TechStack map[string]string `json:"tech_stack"`
	Features  []string          `json:"features"`
	Timeline  string            `json:"timeline"`
	Outcome   string            `json:"outcome"`
	ScopeOfWorks struct {
		InScope    []string `json:"in_scope"`
		OutScope   []string `json:"out_scope"`
		Milestones []string `json:"milestones"`
		Risks      []string `json:"risks"`
		KPIs       []string `json:"kpis"`
	} `json:"scope_of_works"`
}

// parseScope extracts a JSON object from text (tolerating surrounding prose
// and ```-fenced code blocks) and validates that the mandatory fields
// (project, goal) are present. Returns ok=false on any failure, leaving the
// caller to fall back.
func parseScope(text string) (*core.Scope, bool) {
	jsonBody := extractJSON(text)
	if jsonBody == "" {
		return nil, false
	}

	var p scopePayload
	if err := json.Unmarshal([]byte(jsonBody), &p); err != nil {
		return nil, false
	}
	if strings.TrimSpace(p.Project) == "" || strings.TrimSpace(p.Goal) == "" {
		return nil, false
	}

	techStack := p.TechStack
	if len(techStack) == 0 {
		techStack = core.DefaultTechStack()
	}

	return &core.Scope{
		Project:   p.Project,
		Goal:      p.Goal,
		TechStack: techStack,
		Features:  p.Features,
		Timeline:  p.Timeline,
		Outcome:   p.Outcome,
		ScopeOfWorks: core.ScopeOfWorks{
			InScope:    p.ScopeOfWorks.InScope,
			OutScope:   p.ScopeOfWorks.OutScope,
			Milestones: p.ScopeOfWorks.Milestones,
			Risks:      p.ScopeOfWorks.Risks,
			KPIs:       p.ScopeOfWorks.KPIs,
		},
		Extra: extraFields(jsonBody),
	}, true
}

// knownScopeFields are the top-level keys scopePayload already decodes;
// everything else in the payload is carried into Scope.Extra verbatim so it
// round-trips into swarm metadata instead of being silently dropped.
var knownScopeFields = map[string]bool{
	"project": true, "goal": true, "tech_stack": true, "features": true,
	"timeline": true, "outcome": true, "scope_of_works": true,
}

func extraFields(jsonBody string) map[string]any {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonBody), &raw); err != nil {
		return nil
	}
	var extra map[string]any
	for key, value := range raw {
		if knownScopeFields[key] {
			continue
		}
		var decoded any
		if err := json.Unmarshal(value, &decoded); err != nil {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[key] = decoded
	}
	return extra
}

// extractJSON finds the first balanced {...} object in text, preferring the
// contents of a ```json fenced block when one is present.
func extractJSON(text string) string {
	if fenced, ok := extractFenced(text); ok {
		text = fenced
	}

	start := strings.IndexByte(text, '{')
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
			// inside a string literal, braces don't count
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// extractFenced returns the contents of the first ``` fenced code block, if
// any (optionally tagged ```json).
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
