package script

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/eliza/backend/internal/model/script"
	"github.com/zhouzirui/eliza/backend/pkg/utils"
)

// Handler 脚本查询的HTTP处理器
type Handler struct {
	scripts script.Store
}

// New 创建脚本处理器
func New(scripts script.Store) *Handler {
	return &Handler{
		scripts: scripts,
	}
}

// RegisterRoutes 注册脚本相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/scripts", h.handleListScripts)
	r.Get("/scripts/{scriptID}", h.handleGetScript)
}

// handleListScripts 列出所有脚本
func (h *Handler) handleListScripts(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.scripts.List())
}

// handleGetScript 查询单个脚本
func (h *Handler) handleGetScript(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scripts.FindByID(chi.URLParam(r, "scriptID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "script not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, sc)
}
