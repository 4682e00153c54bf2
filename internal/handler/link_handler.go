// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"fanwall-go/internal/middleware"
	"fanwall-go/internal/service"

	"github.com/gin-gonic/gin"
)

// LinkHandler 负责处理上传链接的签发与管理请求。
type LinkHandler struct {
	linkService service.LinkService
}

// NewLinkHandler 创建一个新的 LinkHandler 实例。
func NewLinkHandler(linkService service.LinkService) *LinkHandler {
	return &LinkHandler{linkService: linkService}
}

// IssueLinkRequest 定义了签发上传链接 API 的请求体结构。
// expirationHours 与 maxUploads 缺省时使用默认值（24 小时 / 10 次）。
type IssueLinkRequest struct {
	EventID         string `json:"eventId" binding:"required"`
	ExpirationHours int    `json:"expirationHours"`
	MaxUploads      int    `json:"maxUploads"`
}

// Issue 处理签发上传链接的请求。
func (h *LinkHandler) Issue(c *gin.Context) {
	var req IssueLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}

	claims := middleware.CreativeFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少创作者身份"})
		return
	}

	link, err := h.linkService.Issue(c.Request.Context(), req.EventID, claims.CreativeID, req.ExpirationHours, req.MaxUploads)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, link)
}

// Get 返回一条上传链接及其当前校验结论。
func (h *LinkHandler) Get(c *gin.Context) {
	linkID := c.Param("linkId")

	link, err := h.linkService.Fetch(c.Request.Context(), linkID)
	if err != nil {
		respondError(c, err)
		return
	}
	verdict, err := h.linkService.Validate(c.Request.Context(), linkID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"link": link, "verdict": verdict})
}

// ListByEvent 返回某个活动下的全部上传链接。
func (h *LinkHandler) ListByEvent(c *gin.Context) {
	eventID := c.Param("eventId")
	links, err := h.linkService.ListForEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, links)
}

// Deactivate 处理停用上传链接的请求。重复停用是幂等的。
func (h *LinkHandler) Deactivate(c *gin.Context) {
	linkID := c.Param("linkId")
	if err := h.linkService.Deactivate(c.Request.Context(), linkID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}
