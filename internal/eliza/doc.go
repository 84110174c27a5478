// Package eliza implements the doctor's side of a conversation: a fixed
// greeting on connect and one pattern-matched reply per inbound text frame.
//
// The package is transport agnostic. A transport adapts its connection to the
// Session interface and calls Greeter.OnOpen once, then Responder.OnMessage for
// every text frame it reads.
package eliza
