package eliza

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zhouzirui/eliza/backend/internal/eliza"
	"github.com/zhouzirui/eliza/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/eliza/backend/internal/service/chat"
)

// wsSession adapts one gorilla connection to eliza.Session. Outbound text is
// queued and written by a single goroutine, so frames leave in the order they
// were queued.
type wsSession struct {
	eliza.Conversation

	id      string
	conn    *websocket.Conn
	chatSvc *chatservice.Service
	opts    Options

	mu       sync.RWMutex
	closed   bool
	outbound chan string
	done     chan struct{}
	once     sync.Once
}

func newWSSession(id string, conn *websocket.Conn, chatSvc *chatservice.Service, opts Options) *wsSession {
	return &wsSession{
		id:       id,
		conn:     conn,
		chatSvc:  chatSvc,
		opts:     opts,
		outbound: make(chan string, opts.SendQueue),
		done:     make(chan struct{}),
	}
}

// ID 返回会话标识
func (s *wsSession) ID() string {
	return s.id
}

// SendAsync 将文本放入发送队列，不等待对端确认
func (s *wsSession) SendAsync(text string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return eliza.ErrTransportClosed
	}

	select {
	case <-s.done:
		return eliza.ErrTransportClosed
	default:
	}

	select {
	case s.outbound <- text:
		return nil
	case <-s.done:
		return eliza.ErrTransportClosed
	}
}

// Advance 推进会话状态并同步到会话注册表
func (s *wsSession) Advance(next chat.State) error {
	if err := s.Conversation.Advance(next); err != nil {
		return err
	}
	if err := s.chatSvc.Transition(context.Background(), s.id, next); err != nil {
		log.Printf("[websocket] registry transition failed session=%s: %v", s.id, err)
	}
	return nil
}

// writeLoop 串行写出队列中的文本帧
func (s *wsSession) writeLoop() {
	defer close(s.done)

	for text := range s.outbound {
		s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
			log.Printf("[websocket] write failed session=%s: %v", s.id, err)
			return
		}

		frame := chat.Frame{SessionID: s.id, Direction: chat.Outbound, Content: text}
		if err := s.chatSvc.Record(context.Background(), frame); err != nil {
			log.Printf("[websocket] record outbound frame failed session=%s: %v", s.id, err)
		}
	}

	deadline := time.Now().Add(s.opts.WriteTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		log.Printf("[websocket] close frame failed session=%s: %v", s.id, err)
	}
}

// pingLoop 定期发送ping消息
func (s *wsSession) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.opts.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// shutdown 停止接收新帧，等待队列写完后关闭底层连接
func (s *wsSession) shutdown() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.outbound)
		s.mu.Unlock()

		select {
		case <-s.done:
		case <-time.After(s.opts.WriteTimeout):
			log.Printf("[websocket] writer did not drain in time session=%s", s.id)
		}
		s.conn.Close()
	})
}

// abort 立即关闭底层连接，读循环随之退出
func (s *wsSession) abort() {
	s.conn.Close()
}
