package components

import "time"

// Action is the intent attached to a decision.
type Action string

const (
	ActionMoveTowards Action = "move_towards"
	ActionHold        Action = "hold"
	ActionExplore     Action = "explore"
	ActionAvoid       Action = "avoid"
	ActionAlign       Action = "align"
	ActionLead        Action = "lead"
	ActionFollow      Action = "follow"
	ActionContinue    Action = "continue"
)

// KnownAction reports whether a is one of the recognized actions.
func KnownAction(a Action) bool {
	switch a {
	case ActionMoveTowards, ActionHold, ActionExplore, ActionAvoid,
		ActionAlign, ActionLead, ActionFollow, ActionContinue:
		return true
	}
	return false
}

// Decision is an externally (or fallback) produced intent used to bias an
// agent's movement. Target is present only when the action carries a
// destination.
type Decision struct {
	Action    Action
	Reasoning string
	Target    *Position
	Priority  int // 1-10
	IssuedAt  time.Time
	Reused    bool
}
