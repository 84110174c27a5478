package chat

import "time"

// State is the lifecycle position of a conversation.
type State int

const (
	// StateOpen means the greeting was sent and the doctor awaits the first message.
	StateOpen State = iota
	// StateResponded means at least one reply has been sent.
	StateResponded
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateResponded:
		return "responded"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MarshalText keeps the JSON form readable.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CanTransition reports whether moving from s to next is allowed.
// RESPONDED -> RESPONDED is accepted so later turns keep the session answered.
func (s State) CanTransition(next State) bool {
	switch s {
	case StateOpen:
		return next == StateResponded || next == StateClosed
	case StateResponded:
		return next == StateResponded || next == StateClosed
	default:
		return false
	}
}

// Session captures one connected client.
type Session struct {
	ID        string     `json:"id"`
	ScriptID  string     `json:"scriptId"`
	State     State      `json:"state"`
	Turns     int        `json:"turns"`
	CreatedAt time.Time  `json:"createdAt"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
}
