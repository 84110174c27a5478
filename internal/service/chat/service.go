package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/eliza/backend/internal/analysis/emotion"
	"github.com/zhouzirui/eliza/backend/internal/model/chat"
)

var (
	ErrScriptRequired    = errors.New("script id is required")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidTransition = errors.New("invalid session transition")
)

// Service keeps the registry of sessions and their frame logs in memory.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	frames   map[string][]chat.Frame

	subs    map[string]map[int]chan chat.Frame
	nextSub int
}

// subscriberBuffer bounds how far a live feed may lag before frames are dropped.
const subscriberBuffer = 32

// NewService bootstraps the in-memory session registry.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]chat.Session),
		frames:   make(map[string][]chat.Frame),
		subs:     make(map[string]map[int]chan chat.Frame),
	}
}

// Open provisions a session for a freshly accepted connection.
func (s *Service) Open(_ context.Context, scriptID string) (chat.Session, error) {
	if scriptID == "" {
		return chat.Session{}, ErrScriptRequired
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		ScriptID:  scriptID,
		State:     chat.StateOpen,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.frames[session.ID] = make([]chat.Frame, 0, 8)
	s.mu.Unlock()

	return session, nil
}

// Record appends a frame to the session log. Inbound frames without an
// emotion label get one from the keyword analyzer.
func (s *Service) Record(_ context.Context, frame chat.Frame) error {
	if frame.SessionID == "" {
		return ErrSessionNotFound
	}

	if frame.Direction == chat.Inbound && frame.Emotion == "" {
		frame.Emotion = string(emotion.Analyze(frame.Content).Emotion)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[frame.SessionID]; !ok {
		return ErrSessionNotFound
	}

	frame.ID = uuid.NewString()
	frame.Seq = len(s.frames[frame.SessionID])
	if frame.CreatedAt.IsZero() {
		frame.CreatedAt = time.Now().UTC()
	}

	s.frames[frame.SessionID] = append(s.frames[frame.SessionID], frame)
	s.publishLocked(frame)
	return nil
}

// Transition mirrors a lifecycle move of a live session.
func (s *Service) Transition(_ context.Context, sessionID string, next chat.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if !session.State.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, session.State, next)
	}

	session.State = next
	switch next {
	case chat.StateResponded:
		session.Turns++
	case chat.StateClosed:
		closedAt := time.Now().UTC()
		session.ClosedAt = &closedAt
		s.closeSubscribersLocked(sessionID)
	}
	s.sessions[sessionID] = session
	return nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// ListSessions returns every known session, oldest first.
func (s *Service) ListSessions(_ context.Context) []chat.Session {
	s.mu.RLock()
	list := make([]chat.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		list = append(list, session)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// LoadTranscript returns stored frames for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	frames, ok := s.frames[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Frame, len(frames))
	copy(copied, frames)
	return copied, nil
}

// Subscribe returns the transcript so far plus a channel carrying every frame
// recorded afterwards. The channel is closed once the session is closed or
// cancel is called.
func (s *Service) Subscribe(_ context.Context, sessionID string) ([]chat.Frame, <-chan chat.Frame, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil, nil, ErrSessionNotFound
	}

	snapshot := make([]chat.Frame, len(s.frames[sessionID]))
	copy(snapshot, s.frames[sessionID])

	ch := make(chan chat.Frame, subscriberBuffer)
	if session.State == chat.StateClosed {
		close(ch)
		return snapshot, ch, func() {}, nil
	}

	if s.subs[sessionID] == nil {
		s.subs[sessionID] = make(map[int]chan chat.Frame)
	}
	id := s.nextSub
	s.nextSub++
	s.subs[sessionID][id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[sessionID][id]; ok {
			delete(s.subs[sessionID], id)
			close(sub)
		}
	}
	return snapshot, ch, cancel, nil
}

func (s *Service) publishLocked(frame chat.Frame) {
	for _, ch := range s.subs[frame.SessionID] {
		select {
		case ch <- frame:
		default:
			log.Printf("[chat] subscriber of session=%s lagging, dropped frame seq=%d", frame.SessionID, frame.Seq)
		}
	}
}

func (s *Service) closeSubscribersLocked(sessionID string) {
	for id, ch := range s.subs[sessionID] {
		close(ch)
		delete(s.subs[sessionID], id)
	}
	delete(s.subs, sessionID)
}
