package eliza

import (
	"fmt"
	"sync"

	"github.com/zhouzirui/eliza/backend/internal/model/chat"
)

// Session is the handle a transport gives the engine for one client.
type Session interface {
	ID() string
	// SendAsync queues text for delivery and returns without waiting for the peer.
	SendAsync(text string) error
	State() chat.State
	// Turns is the number of replies already sent.
	Turns() int
	Advance(next chat.State) error
}

// Conversation holds the lifecycle bookkeeping of a Session.
// Transports embed it.
type Conversation struct {
	mu    sync.Mutex
	state chat.State
	turns int
}

// State returns the current lifecycle state.
func (c *Conversation) State() chat.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Turns returns how many replies have been recorded.
func (c *Conversation) Turns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turns
}

// Advance moves the conversation forward. Moving to StateResponded counts a turn.
func (c *Conversation) Advance(next chat.State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.state, next)
	}
	c.state = next
	if next == chat.StateResponded {
		c.turns++
	}
	return nil
}
