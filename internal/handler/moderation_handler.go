// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"fanwall-go/internal/model"
	"fanwall-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ModerationHandler 负责处理审核网关相关的 API 请求。
type ModerationHandler struct {
	moderationService service.ModerationService
}

// NewModerationHandler 创建一个新的 ModerationHandler 实例。
func NewModerationHandler(moderationService service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// ListPending 返回某个活动下等待审核的上传。
// 带 status 查询参数时改为按该状态筛选。
func (h *ModerationHandler) ListPending(c *gin.Context) {
	eventID := c.Param("eventId")

	var (
		items []model.UploadItem
		err   error
	)
	if status := c.Query("status"); status != "" {
		items, err = h.moderationService.ListByStatus(c.Request.Context(), eventID, model.UploadStatus(status))
	} else {
		items, err = h.moderationService.ListPending(c.Request.Context(), eventID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

// Approve 处理审核通过的请求。
func (h *ModerationHandler) Approve(c *gin.Context) {
	if err := h.moderationService.Approve(c.Request.Context(), c.Param("uploadId"), c.Param("eventId")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// RejectRequest 定义了驳回 API 的请求体结构。原因可选。
type RejectRequest struct {
	Reason string `json:"reason"`
}

// Reject 处理驳回的请求。
func (h *ModerationHandler) Reject(c *gin.Context) {
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}
	if err := h.moderationService.Reject(c.Request.Context(), c.Param("uploadId"), c.Param("eventId"), req.Reason); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// DownloadURL 为审核通过的上传签发限时下载链接。
func (h *ModerationHandler) DownloadURL(c *gin.Context) {
	url, err := h.moderationService.GenerateDownloadURL(c.Request.Context(), c.Param("uploadId"), c.Param("eventId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"downloadUrl": url})
}

// Notifications 返回某个上传者收到的全部通知。
func (h *ModerationHandler) Notifications(c *gin.Context) {
	list, err := h.moderationService.ListNotifications(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}
