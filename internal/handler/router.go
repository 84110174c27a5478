package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/eliza/backend/internal/handler/chat"
	elizahandler "github.com/zhouzirui/eliza/backend/internal/handler/eliza"
	"github.com/zhouzirui/eliza/backend/internal/handler/script"
	"github.com/zhouzirui/eliza/backend/internal/handler/stream"
	scriptModel "github.com/zhouzirui/eliza/backend/internal/model/script"
	chatService "github.com/zhouzirui/eliza/backend/internal/service/chat"
	"github.com/zhouzirui/eliza/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(scripts scriptModel.Store, chatSvc *chatService.Service, wsHandler *elizahandler.Handler, elizaPath string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	scriptHandler := script.New(scripts)
	chatHandler := chat.New(chatSvc)
	streamHandler := stream.New(chatSvc)

	// WebSocket conversation endpoint
	wsHandler.RegisterRoutes(r, elizaPath)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "eliza",
		})
	})

	r.Route("/api", func(api chi.Router) {
		scriptHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
	})

	return r
}
