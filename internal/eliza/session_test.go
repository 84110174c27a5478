package eliza

import (
	"errors"
	"sync"

	"github.com/zhouzirui/eliza/backend/internal/model/chat"
)

// fakeSession records frames in memory and can be closed mid-test.
type fakeSession struct {
	Conversation
	id string

	mu     sync.Mutex
	sent   []string
	closed bool
	// failAfter closes the transport after n successful sends when > 0.
	failAfter int
}

func newFakeSession(id string) *fakeSession {
	return &fakeSession{id: id}
}

func (f *fakeSession) ID() string { return f.id }

func (f *fakeSession) SendAsync(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrTransportClosed
	}
	if f.failAfter > 0 && len(f.sent) >= f.failAfter {
		return errors.New("broken pipe")
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeSession) close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	_ = f.Advance(chat.StateClosed)
}

func (f *fakeSession) frames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}
