// Package decision produces per-agent steering intents: an external AI
// oracle with a short-lived per-agent cache, a rule-based fallback for
// quota failures, and field-level defaulting for the untyped oracle
// boundary. The simulation stays live no matter what the oracle does.
package decision

import (
	"context"
	"errors"

	"github.com/pthm-cable/flock/components"
)

// ErrRateLimited marks an oracle quota or rate-limit failure. The service
// recovers from it with a rule-based fallback; any other oracle error
// degrades to a non-cached continue.
var ErrRateLimited = errors.New("decision oracle rate limited")

// NeighborSummary is the compact view of one neighbor sent to the oracle.
type NeighborSummary struct {
	ID       string
	Role     components.Role
	Pos      components.Position
	Distance float32
}

// GoalContext carries the config-level intent knobs the oracle may weigh.
// They shape the external decision, never the force model.
type GoalContext struct {
	GoalOrientation   float64
	ExplorationWeight float64
	ResourcePriority  string
	Sharing           bool
}

// AgentContext bundles everything the oracle sees about one agent.
type AgentContext struct {
	ID        string
	Role      components.Role
	Pos       components.Position
	Res       components.Resources
	Sensors   components.SensorSnapshot
	Neighbors []NeighborSummary
	Memory    []components.Interaction // newest first, at most 5
	Goal      GoalContext
}

// Oracle is the external decision source.
type Oracle interface {
	RequestDecision(ctx context.Context, ac AgentContext) (components.Decision, error)
}

// offline is an oracle that always reports a rate limit, forcing every
// request down the rule-based fallback path. Used for runs without an API
// key.
type offline struct{}

// Offline returns an oracle for fully local runs.
func Offline() Oracle { return offline{} }

func (offline) RequestDecision(context.Context, AgentContext) (components.Decision, error) {
	return components.Decision{}, ErrRateLimited
}
