package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/pthm-cable/flock/components"
)

// GeminiOracle asks a Gemini model for steering decisions. Responses are
// free-form text that should contain a JSON object; ParseDecision handles
// whatever comes back.
type GeminiOracle struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiOracle connects to the Gemini API.
func NewGeminiOracle(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiOracle, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiOracle{client: client, model: model, timeout: timeout}, nil
}

// RequestDecision sends the agent context to the model and parses the
// reply. Quota failures are reported as ErrRateLimited so the service can
// fall back to rules instead of dropping the agent's decision.
func (g *GeminiOracle) RequestDecision(ctx context.Context, ac AgentContext) (components.Decision, error) {
	prompt, err := buildPrompt(ac)
	if err != nil {
		return components.Decision{}, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(timeoutCtx, g.model, genai.Text(prompt), nil)
	if err != nil {
		if isQuotaError(err) {
			return components.Decision{}, fmt.Errorf("gemini generate: %v: %w", err, ErrRateLimited)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return components.Decision{}, fmt.Errorf("gemini timeout after %v: %w", g.timeout, err)
		}
		return components.Decision{}, fmt.Errorf("gemini generate: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return components.Decision{}, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return ParseDecision(sb.String(), time.Now())
}

// promptContext is the JSON view of the agent handed to the model.
type promptContext struct {
	AgentID      string  `json:"agent_id"`
	Role         string  `json:"role"`
	X            float32 `json:"x"`
	Y            float32 `json:"y"`
	Energy       int     `json:"energy"`
	Material     int     `json:"material"`
	Data         int     `json:"data"`
	LocalDensity float32 `json:"local_density"`
	BoundaryMin  float32 `json:"boundary_min_dist"`
	Obstacles    []struct {
		Kind     string  `json:"kind"`
		Distance float32 `json:"distance"`
		Bearing  float32 `json:"bearing"`
	} `json:"obstacles"`
	Neighbors []struct {
		Role     string  `json:"role"`
		Distance float32 `json:"distance"`
	} `json:"neighbors"`
	Memory           []string `json:"recent_memory"`
	GoalOrientation  float64  `json:"goal_orientation"`
	Exploration      float64  `json:"exploration_weight"`
	ResourcePriority string   `json:"resource_priority"`
	Sharing          bool     `json:"sharing_enabled"`
}

func buildPrompt(ac AgentContext) (string, error) {
	pc := promptContext{
		AgentID:          ac.ID,
		Role:             ac.Role.String(),
		X:                ac.Pos.X,
		Y:                ac.Pos.Y,
		Energy:           ac.Res.Energy,
		Material:         ac.Res.Material,
		Data:             ac.Res.Data,
		LocalDensity:     ac.Sensors.LocalDensity,
		BoundaryMin:      ac.Sensors.Boundary.Min(),
		GoalOrientation:  ac.Goal.GoalOrientation,
		Exploration:      ac.Goal.ExplorationWeight,
		ResourcePriority: ac.Goal.ResourcePriority,
		Sharing:          ac.Goal.Sharing,
	}
	for _, o := range ac.Sensors.NearbyObstacles {
		pc.Obstacles = append(pc.Obstacles, struct {
			Kind     string  `json:"kind"`
			Distance float32 `json:"distance"`
			Bearing  float32 `json:"bearing"`
		}{string(o.Kind), o.Distance, o.Bearing})
	}
	for _, n := range ac.Neighbors {
		pc.Neighbors = append(pc.Neighbors, struct {
			Role     string  `json:"role"`
			Distance float32 `json:"distance"`
		}{n.Role.String(), n.Distance})
	}
	for _, m := range ac.Memory {
		pc.Memory = append(pc.Memory, fmt.Sprintf("[t%d] %s: %s", m.Tick, m.Kind, m.Details))
	}

	ctxJSON, err := json.Marshal(pc)
	if err != nil {
		return "", fmt.Errorf("marshaling agent context: %w", err)
	}

	return fmt.Sprintf(`You steer one agent in a 2D swarm simulation.
Agent state: %s

Pick the best next action for this agent. Respond with ONLY a JSON object:
{"action": "<move_towards|hold|explore|avoid|align|lead|follow|continue>",
 "reasoning": "<one sentence>",
 "target": {"x": <number>, "y": <number>},
 "priority": <1-10>}
Include "target" only when the action needs a destination.`, ctxJSON), nil
}

// isQuotaError spots rate-limit and quota failures in the transport error.
func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "quota")
}
