package stream

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/eliza/backend/internal/model/chat"
	chatService "github.com/zhouzirui/eliza/backend/internal/service/chat"
	"github.com/zhouzirui/eliza/backend/pkg/utils"
)

const (
	EventFrame = "frame"
	EventEnd   = "end"
)

// Handler 通过 Server-Sent Events 推送会话的实时帧日志
type Handler struct {
	chatSvc *chatService.Service
}

// New creates a new stream handler
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册实时帧日志路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/events", h.handleEvents)
}

// EndEvent 在会话关闭时发送
type EndEvent struct {
	SessionID string     `json:"sessionId"`
	State     chat.State `json:"state"`
	Frames    int        `json:"frames"`
}

// handleEvents 先回放已有帧，再推送新帧，会话关闭后发送 end 事件。
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	snapshot, feed, cancel, err := h.chatSvc.Subscribe(ctx, sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sent := 0
	for _, frame := range snapshot {
		if err := utils.SendSSEEvent(w, flusher, EventFrame, frame); err != nil {
			return
		}
		sent++
	}

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-feed:
			if !ok {
				h.sendEnd(ctx, w, flusher, sessionID, sent)
				return
			}
			if err := utils.SendSSEEvent(w, flusher, EventFrame, frame); err != nil {
				return
			}
			sent++
		}
	}
}

func (h *Handler) sendEnd(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, sent int) {
	state := chat.StateClosed
	if session, err := h.chatSvc.GetSession(ctx, sessionID); err == nil {
		state = session.State
	}

	if err := utils.SendSSEEvent(w, flusher, EventEnd, EndEvent{SessionID: sessionID, State: state, Frames: sent}); err != nil {
		log.Printf("[stream] failed to send end event for session=%s: %v", sessionID, err)
	}
}
