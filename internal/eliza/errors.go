package eliza

import "errors"

var (
	// ErrTransportClosed is returned by a Session whose outbound channel is gone.
	ErrTransportClosed = errors.New("eliza: transport closed")
	// ErrSessionClosed marks a reply that could not be delivered because the
	// session closed while the message was being handled.
	ErrSessionClosed = errors.New("eliza: session closed")
	// ErrNoRuleMatched is reported by RuleSet.Respond when the fallback applies.
	ErrNoRuleMatched = errors.New("eliza: no rule matched")
	// ErrInvalidTransition rejects backward lifecycle moves.
	ErrInvalidTransition = errors.New("eliza: invalid state transition")
	// ErrEmptyScript rejects scripts without greeting or fallback lines.
	ErrEmptyScript = errors.New("eliza: script has no greeting or fallback")
)
