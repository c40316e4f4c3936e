// Package components defines the data model shared by the world store and
// the per-tick systems.
package components

// Role determines how an agent participates in the flock.
type Role uint8

const (
	RoleFollower Role = iota
	RoleLeader
)

// String returns the wire name of the role.
func (r Role) String() string {
	if r == RoleLeader {
		return "leader"
	}
	return "follower"
}

// Position represents an agent's world position.
type Position struct {
	X, Y float32
}

// Velocity is the displacement applied on the previous tick.
type Velocity struct {
	X, Y float32
}

// AgentMeta carries identity and role.
type AgentMeta struct {
	ID   string // uuid
	Role Role
}

// Resources holds per-agent resource counters. All counters stay
// non-negative.
type Resources struct {
	Energy   int
	Material int
	Data     int
}

// Add increments the counter named by resource type, clamping at zero.
func (r *Resources) Add(kind string, delta int) {
	switch kind {
	case "energy":
		r.Energy = maxInt(0, r.Energy+delta)
	case "material":
		r.Material = maxInt(0, r.Material+delta)
	case "data":
		r.Data = maxInt(0, r.Data+delta)
	}
}

// Interaction is one entry of an agent's bounded memory log.
type Interaction struct {
	Tick    int64
	Kind    string // "decision", "collect", "share"
	Details string
}

// Memory is a bounded interaction log, newest first.
type Memory struct {
	Entries []Interaction
}

// Push prepends an interaction and truncates to depth.
func (m *Memory) Push(entry Interaction, depth int) {
	if depth < 1 {
		depth = 1
	}
	m.Entries = append([]Interaction{entry}, m.Entries...)
	if len(m.Entries) > depth {
		m.Entries = m.Entries[:depth]
	}
}

// Recent returns up to n entries, newest first.
func (m *Memory) Recent(n int) []Interaction {
	if n > len(m.Entries) {
		n = len(m.Entries)
	}
	out := make([]Interaction, n)
	copy(out, m.Entries[:n])
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
