package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/library/internal/interface/http/flash"
	"github.com/xiebiao/library/pkg/response"
)

// HomeHandler 首页与健康检查
type HomeHandler struct {
	flash flash.Store
}

// NewHomeHandler 创建首页处理器
func NewHomeHandler(flashStore flash.Store) *HomeHandler {
	return &HomeHandler{flash: flashStore}
}

// Index 首页
func (h *HomeHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title": "Home",
		"Flash": h.flash.Pop(c),
	})
}

// Ping 健康检查
// @Summary      健康检查
// @Tags         系统
// @Produce      json
// @Success      200 {object} response.Response
// @Router       /ping [get]
func (h *HomeHandler) Ping(c *gin.Context) {
	response.Success(c, gin.H{
		"message": "pong",
		"status":  "healthy",
	})
}
