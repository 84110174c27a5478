package eliza

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/eliza/backend/internal/eliza"
	"github.com/zhouzirui/eliza/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/eliza/backend/internal/service/chat"
)

// Options 连接级参数
type Options struct {
	SendQueue    int
	WriteTimeout time.Duration
	PingInterval time.Duration
	IdleTimeout  time.Duration
	ReadLimit    int64
}

// DefaultOptions 默认连接参数
func DefaultOptions() Options {
	return Options{
		SendQueue:    16,
		WriteTimeout: 10 * time.Second,
		PingInterval: 54 * time.Second,
		IdleTimeout:  60 * time.Second,
		ReadLimit:    4096,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.SendQueue <= 0 {
		o.SendQueue = def.SendQueue
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = def.WriteTimeout
	}
	if o.PingInterval <= 0 {
		o.PingInterval = def.PingInterval
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = def.IdleTimeout
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = def.ReadLimit
	}
	return o
}

// Handler ELIZA WebSocket处理器
type Handler struct {
	greeter   *eliza.Greeter
	responder *eliza.Responder
	chatSvc   *chatservice.Service
	manager   *ConnectionManager
	scriptID  string
	opts      Options
	upgrader  websocket.Upgrader
}

// New 创建WebSocket处理器
func New(greeter *eliza.Greeter, responder *eliza.Responder, chatSvc *chatservice.Service, scriptID string, opts Options) *Handler {
	return &Handler{
		greeter:   greeter,
		responder: responder,
		chatSvc:   chatSvc,
		manager:   NewConnectionManager(),
		scriptID:  scriptID,
		opts:      opts.withDefaults(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router, path string) {
	r.Get(path, h.handleWebSocket)
}

// Manager 返回连接管理器，供优雅关闭使用
func (h *Handler) Manager() *ConnectionManager {
	return h.manager
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// 握手成功后才登记会话，普通 HTTP 请求不会留下记录。
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}

	record, err := h.chatSvc.Open(r.Context(), h.scriptID)
	if err != nil {
		log.Printf("[websocket] open session failed: %v", err)
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session unavailable")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.opts.WriteTimeout))
		conn.Close()
		return
	}

	session := newWSSession(record.ID, conn, h.chatSvc, h.opts)
	h.manager.add(session)
	defer h.manager.remove(session.ID())

	log.Printf("[websocket] new connection for session: %s", session.ID())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(h.opts.ReadLimit)
	conn.SetReadDeadline(time.Now().Add(h.opts.IdleTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.opts.IdleTimeout))
		return nil
	})

	go session.writeLoop()
	go session.pingLoop(ctx)

	// 问候语全部入队后才开始读取，回复不可能插到问候语之前。
	h.greeter.OnOpen(session)

	h.readLoop(ctx, session)

	if err := session.Advance(chat.StateClosed); err != nil {
		log.Printf("[websocket] close state failed session=%s: %v", session.ID(), err)
	}
	session.shutdown()
	log.Printf("[websocket] connection closed for session: %s", session.ID())
}

func (h *Handler) readLoop(ctx context.Context, session *wsSession) {
	for {
		msgType, data, err := session.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Printf("[websocket] read error session=%s: %v", session.ID(), err)
			}
			return
		}

		session.conn.SetReadDeadline(time.Now().Add(h.opts.IdleTimeout))

		if msgType != websocket.TextMessage {
			log.Printf("[websocket] ignoring non-text frame session=%s type=%d", session.ID(), msgType)
			continue
		}

		text := string(data)
		frame := chat.Frame{SessionID: session.ID(), Direction: chat.Inbound, Content: text}
		if err := h.chatSvc.Record(ctx, frame); err != nil {
			log.Printf("[websocket] record inbound frame failed session=%s: %v", session.ID(), err)
		}

		h.responder.OnMessage(ctx, session, text)
	}
}
