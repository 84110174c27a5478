package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zhouzirui/eliza/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/eliza/backend/internal/service/chat"
)

func TestServiceGetSession(t *testing.T) {
	svc := chatservice.NewService()
	ctx := context.Background()

	session, err := svc.Open(ctx, "doctor")
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
	if got.ScriptID != "doctor" {
		t.Fatalf("unexpected script ID: got %s", got.ScriptID)
	}
	if got.State != chat.StateOpen {
		t.Fatalf("expected open state, got %s", got.State)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chatservice.NewService()
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceOpenRequiresScript(t *testing.T) {
	svc := chatservice.NewService()
	if _, err := svc.Open(context.Background(), ""); !errors.Is(err, chatservice.ErrScriptRequired) {
		t.Fatalf("expected ErrScriptRequired, got %v", err)
	}
}

func TestServiceRecordOrdersFrames(t *testing.T) {
	svc := chatservice.NewService()
	ctx := context.Background()
	session, _ := svc.Open(ctx, "doctor")

	frames := []chat.Frame{
		{SessionID: session.ID, Direction: chat.Outbound, Content: "The doctor is in."},
		{SessionID: session.ID, Direction: chat.Inbound, Content: "I am feeling sad"},
		{SessionID: session.ID, Direction: chat.Outbound, Content: "How long have you been feeling sad?"},
	}
	for _, f := range frames {
		if err := svc.Record(ctx, f); err != nil {
			t.Fatalf("Record err: %v", err)
		}
	}

	transcript, err := svc.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(transcript))
	}
	for i, f := range transcript {
		if f.Seq != i {
			t.Fatalf("frame %d has seq %d", i, f.Seq)
		}
		if f.Content != frames[i].Content {
			t.Fatalf("frame %d content %q, want %q", i, f.Content, frames[i].Content)
		}
	}
	if transcript[1].Emotion != "sad" {
		t.Fatalf("expected inbound frame tagged sad, got %q", transcript[1].Emotion)
	}
	if transcript[0].Emotion != "" {
		t.Fatalf("outbound frames are not tagged, got %q", transcript[0].Emotion)
	}
}

func TestServiceRecordUnknownSession(t *testing.T) {
	svc := chatservice.NewService()
	err := svc.Record(context.Background(), chat.Frame{SessionID: "ghost", Content: "hi"})
	if !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceTransition(t *testing.T) {
	svc := chatservice.NewService()
	ctx := context.Background()
	session, _ := svc.Open(ctx, "doctor")

	if err := svc.Transition(ctx, session.ID, chat.StateResponded); err != nil {
		t.Fatalf("Transition responded err: %v", err)
	}
	if err := svc.Transition(ctx, session.ID, chat.StateClosed); err != nil {
		t.Fatalf("Transition closed err: %v", err)
	}
	if err := svc.Transition(ctx, session.ID, chat.StateOpen); !errors.Is(err, chatservice.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	got, _ := svc.GetSession(ctx, session.ID)
	if got.State != chat.StateClosed || got.ClosedAt == nil {
		t.Fatalf("expected closed session with timestamp, got %+v", got)
	}
	if got.Turns != 1 {
		t.Fatalf("expected 1 turn, got %d", got.Turns)
	}
}

func TestServiceListSessionsIsolated(t *testing.T) {
	svc := chatservice.NewService()
	ctx := context.Background()
	first, _ := svc.Open(ctx, "doctor")
	second, _ := svc.Open(ctx, "doctor")

	_ = svc.Record(ctx, chat.Frame{SessionID: first.ID, Direction: chat.Outbound, Content: "only first"})

	if got := len(svc.ListSessions(ctx)); got != 2 {
		t.Fatalf("expected 2 sessions, got %d", got)
	}
	transcript, _ := svc.LoadTranscript(ctx, second.ID)
	if len(transcript) != 0 {
		t.Fatalf("frames leaked across sessions: %+v", transcript)
	}
}

func TestServiceSubscribe(t *testing.T) {
	svc := chatservice.NewService()
	ctx := context.Background()

	session, _ := svc.Open(ctx, "doctor")
	if err := svc.Record(ctx, chat.Frame{SessionID: session.ID, Direction: chat.Outbound, Content: "The doctor is in."}); err != nil {
		t.Fatalf("Record err: %v", err)
	}

	snapshot, feed, cancel, err := svc.Subscribe(ctx, session.ID)
	if err != nil {
		t.Fatalf("Subscribe err: %v", err)
	}
	defer cancel()

	if len(snapshot) != 1 || snapshot[0].Content != "The doctor is in." {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}

	if err := svc.Record(ctx, chat.Frame{SessionID: session.ID, Direction: chat.Inbound, Content: "hello"}); err != nil {
		t.Fatalf("Record err: %v", err)
	}

	frame := <-feed
	if frame.Content != "hello" || frame.Seq != 1 {
		t.Fatalf("unexpected live frame %+v", frame)
	}

	if err := svc.Transition(ctx, session.ID, chat.StateClosed); err != nil {
		t.Fatalf("Transition err: %v", err)
	}
	if _, ok := <-feed; ok {
		t.Fatal("feed should be closed after the session closes")
	}

	// cancel after close must be a no-op
	cancel()

	_, closedFeed, _, err := svc.Subscribe(ctx, session.ID)
	if err != nil {
		t.Fatalf("Subscribe on closed session err: %v", err)
	}
	if _, ok := <-closedFeed; ok {
		t.Fatal("feed of a closed session should be closed immediately")
	}

	if _, _, _, err := svc.Subscribe(ctx, "missing"); !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
