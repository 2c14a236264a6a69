// ABOUTME: ScopeExtractor turns a raw user message into a ClarificationNeeded response or a validated Scope.
// ABOUTME: Never surfaces a parse failure to the caller — a fallback Scope is synthesized instead.
package scope

import (
	"context"
	"strings"

	"github.com/2389-research/swarmkernel/core"
	"github.com/2389-research/swarmkernel/llm"
)

// Result is the ScopeExtractor's output: exactly one of ClarifyPrompt (when
// the message was judged vague) or Scope is set.
type Result struct {
	ClarifyPrompt string
	Scope         *core.Scope
}

func (r Result) NeedsClarification() bool { return r.ClarifyPrompt != "" }

// Extractor runs the four-step extraction algorithm against a Completer.
type Extractor struct {
	Completer llm.Completer

	// CatalogSummary is a short description of the known UI-component
	// catalog, passed as context to the structured-extraction prompt so
	// the extractor can reference it when inferring features.
	CatalogSummary string
}

// greetingPhrases are the only content a vague message may contain besides
// being short; a message containing just one of these, even if longer than
// the token threshold, is still judged vague.
var greetingPhrases = []string{"hi", "hello", "hey", "help me", "help", "yo", "sup"}

// Extract runs the extraction algorithm against msg.
func (e *Extractor) Extract(ctx context.Context, msg string, history []string) (Result, error) {
	if isVague(msg) {
		prompt := clarifyingPrompt(msg, history)
		text, err := e.Completer.Complete(ctx, prompt, llm.Options{Temperature: 0.7, MaxTokens: 256})
		if err != nil {
			// Even Completer failure doesn't escape to the caller as an
			// error here: a generic clarifying question still moves the
			// conversation forward.
			return Result{ClarifyPrompt: fallbackClarifyPrompt}, nil
		}
		return Result{ClarifyPrompt: strings.TrimSpace(text)}, nil
	}

	prompt := structuredExtractionPrompt(msg, history, e.CatalogSummary)
	text, err := e.Completer.Complete(ctx, prompt, llm.Options{Temperature: 0.2, MaxTokens: 2048})
	if err != nil {
		return Result{Scope: fallbackScope(msg)}, nil
	}

	parsed, ok := parseScope(text)
	if !ok {
		return Result{Scope: fallbackScope(msg)}, nil
	}
	return Result{Scope: parsed}, nil
}

// isVague applies spec's vagueness heuristic: fewer than 5 tokens, or the
// entire (trimmed, lowercased) message is a greeting/help phrase.
func isVague(msg string) bool {
	trimmed := strings.TrimSpace(msg)
	if trimmed == "" {
		return true
	}
	tokens := strings.Fields(trimmed)
	if len(tokens) < 5 {
		return true
	}
	lower := strings.ToLower(trimmed)
	lower = strings.Trim(lower, ".!? ")
	for _, phrase := range greetingPhrases {
		if lower == phrase {
			return true
		}
	}
	return false
}

const fallbackClarifyPrompt = "Could you tell me more about what you'd like to build — the goal, key features, and any tech stack preferences?"

func clarifyingPrompt(msg string, history []string) string {
	var b strings.Builder
	b.WriteString("The user sent a vague request. Ask one open-ended clarifying question ")
	b.WriteString("to understand what they want to build. Do not ask more than one question.\n\n")
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, h := range history {
			b.WriteString("- " + h + "\n")
		}
	}
	b.WriteString("User message: " + msg)
	return b.String()
}

func structuredExtractionPrompt(msg string, history []string, catalogSummary string) string {
	var b strings.Builder
	b.WriteString("Extract a project scope from the user's request as a single JSON object with fields: ")
	b.WriteString("project, goal, tech_stack (frontend, backend, database), features (array), timeline, outcome, ")
	b.WriteString("scope_of_works (in_scope, out_scope, milestones, risks, kpis, all arrays). ")
	b.WriteString("Emit only the JSON object, optionally fenced in a ```json code block.\n\n")
	if catalogSummary != "" {
		b.WriteString("Known reusable UI components: " + catalogSummary + "\n\n")
	}
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, h := range history {
			b.WriteString("- " + h + "\n")
		}
	}
	b.WriteString("User message: " + msg)
	return b.String()
}

// fallbackScope synthesizes a deterministic Scope when extraction fails or
// returns an unparsable payload, so a provider hiccup never surfaces as a
// hard failure to the caller.
func fallbackScope(msg string) *core.Scope {
	return &core.Scope{
		Project:   "UserProject",
		Goal:      msg,
		TechStack: core.DefaultTechStack(),
		Features:  []string{"core functionality"},
		Timeline:  "1-2h",
		Outcome:   "MVP",
	}
}
