package eliza

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/zhouzirui/eliza/backend/internal/model/chat"
	"github.com/zhouzirui/eliza/backend/internal/model/script"
)

// FallbackGenerator produces a reply when no rule matches.
type FallbackGenerator interface {
	Generate(ctx context.Context, sessionID, text string) (string, error)
}

// Responder answers inbound text with exactly one frame.
type Responder struct {
	rules     *RuleSet
	fallbacks []string
	generator FallbackGenerator
}

// NewResponder builds a Responder. generator may be nil.
func NewResponder(rules *RuleSet, fallbacks []string, generator FallbackGenerator) (*Responder, error) {
	if len(fallbacks) == 0 {
		return nil, ErrEmptyScript
	}
	if rules == nil {
		rules = &RuleSet{}
	}
	return &Responder{
		rules:     rules,
		fallbacks: append([]string(nil), fallbacks...),
		generator: generator,
	}, nil
}

// FromScript compiles sc into a Greeter and a Responder.
func FromScript(sc script.Script, generator FallbackGenerator) (*Greeter, *Responder, error) {
	if len(sc.Greeting) == 0 {
		return nil, nil, ErrEmptyScript
	}

	rules, err := Compile(sc.Rules)
	if err != nil {
		return nil, nil, fmt.Errorf("compile script %s: %w", sc.ID, err)
	}

	responder, err := NewResponder(rules, sc.Fallbacks, generator)
	if err != nil {
		return nil, nil, err
	}
	return NewGreeter(sc.Greeting), responder, nil
}

// Reply computes the answer to text on the given turn without sending it.
func (r *Responder) Reply(ctx context.Context, sessionID, text string, turn int) (string, string) {
	reply, rule, err := r.rules.Respond(text, turn)
	if err == nil {
		return reply, rule
	}

	if r.generator != nil && strings.TrimSpace(text) != "" {
		generated, genErr := r.generator.Generate(ctx, sessionID, text)
		if genErr == nil && strings.TrimSpace(generated) != "" {
			return strings.TrimSpace(generated), "generated"
		}
		if genErr != nil {
			log.Printf("[eliza] fallback generator failed session=%s: %v", sessionID, genErr)
		}
	}

	return r.fallbacks[pick(turn, len(r.fallbacks))], "fallback"
}

// OnMessage emits one reply frame for text. Delivery is fire-and-forget: a
// closed session is logged and the reply dropped.
func (r *Responder) OnMessage(ctx context.Context, s Session, text string) {
	if s.State() == chat.StateClosed {
		log.Printf("[eliza] reply skipped session=%s: %v", s.ID(), ErrSessionClosed)
		return
	}

	reply, rule := r.Reply(ctx, s.ID(), text, s.Turns())

	if err := s.SendAsync(reply); err != nil {
		log.Printf("[eliza] reply dropped session=%s rule=%s: %v", s.ID(), rule, sessionClosed(err))
		return
	}

	if err := s.Advance(chat.StateResponded); err != nil {
		log.Printf("[eliza] state update failed session=%s: %v", s.ID(), err)
	}
}

func sessionClosed(err error) error {
	if errors.Is(err, ErrSessionClosed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSessionClosed, err)
}
