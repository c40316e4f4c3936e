package decision

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pthm-cable/flock/components"
)

// defaultReasoning fills in when the oracle omits its reasoning.
const defaultReasoning = "no reasoning provided"

// rawDecision is the loose JSON shape the oracle is allowed to return.
// Every field is optional; ParseDecision supplies defaults.
type rawDecision struct {
	Action    string `json:"action"`
	Reasoning string `json:"reasoning"`
	Target    *struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"target"`
	Priority *int `json:"priority"`
}

// ParseDecision turns arbitrary oracle output into a Decision. Markdown
// fences and prose around the JSON object are tolerated. Field-level
// problems are defaulted, never errors: unknown or missing action becomes
// "continue", missing reasoning a placeholder, missing priority 5. Only
// output with no JSON object at all fails.
func ParseDecision(text string, now time.Time) (components.Decision, error) {
	payload, ok := extractJSON(text)
	if !ok {
		return components.Decision{}, fmt.Errorf("no JSON object in oracle response")
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return components.Decision{}, fmt.Errorf("decoding oracle response: %w", err)
	}

	dec := components.Decision{
		Action:    components.Action(raw.Action),
		Reasoning: raw.Reasoning,
		Priority:  5,
		IssuedAt:  now,
	}
	if !components.KnownAction(dec.Action) {
		dec.Action = components.ActionContinue
	}
	if dec.Reasoning == "" {
		dec.Reasoning = defaultReasoning
	}
	if raw.Priority != nil {
		dec.Priority = clampPriority(*raw.Priority)
	}
	if raw.Target != nil {
		dec.Target = &components.Position{
			X: float32(raw.Target.X),
			Y: float32(raw.Target.Y),
		}
	}

	return dec, nil
}

// extractJSON pulls the first JSON object out of possibly fenced or
// prose-wrapped text.
func extractJSON(text string) (string, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 10 {
		return 10
	}
	return p
}
