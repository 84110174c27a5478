package eliza

import (
	"errors"
	"fmt"
	"log"
)

// Greeter sends the opening lines of a script.
type Greeter struct {
	script []string
}

// NewGreeter copies script so later edits by the caller cannot leak into sessions.
func NewGreeter(script []string) *Greeter {
	return &Greeter{script: append([]string(nil), script...)}
}

// Script returns a copy of the greeting lines.
func (g *Greeter) Script() []string {
	return append([]string(nil), g.script...)
}

// OnOpen queues every greeting line, in order. A failed write stops the
// greeting; the failure is logged and never escalates to the caller.
func (g *Greeter) OnOpen(s Session) {
	for i, line := range g.script {
		if err := s.SendAsync(line); err != nil {
			log.Printf("[eliza] greeting aborted session=%s frame=%d: %v", s.ID(), i, transportClosed(err))
			return
		}
	}
}

func transportClosed(err error) error {
	if errors.Is(err, ErrTransportClosed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransportClosed, err)
}
