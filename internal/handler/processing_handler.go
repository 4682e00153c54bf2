// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"time"

	"fanwall-go/internal/model"
	"fanwall-go/internal/service"
	"fanwall-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// progressPollInterval 是 WebSocket 进度推送的轮询间隔。
const progressPollInterval = time.Second

// ProcessingHandler 负责处理异步视频处理相关的 API 请求。
type ProcessingHandler struct {
	processingService service.ProcessingService
}

// NewProcessingHandler 创建一个新的 ProcessingHandler 实例。
func NewProcessingHandler(processingService service.ProcessingService) *ProcessingHandler {
	return &ProcessingHandler{processingService: processingService}
}

// Status 返回一条上传的处理状态视图。
// 元数据只有在全部字段就绪时才会出现在响应中。
func (h *ProcessingHandler) Status(c *gin.Context) {
	view, err := h.processingService.GetProcessingStatus(c.Request.Context(), c.Param("uploadId"), c.Param("eventId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

// Cancel 处理取消异步处理的请求。
func (h *ProcessingHandler) Cancel(c *gin.Context) {
	if err := h.processingService.CancelProcessing(c.Request.Context(), c.Param("uploadId"), c.Param("eventId")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// Retry 处理重新提交处理任务的请求。
func (h *ProcessingHandler) Retry(c *gin.Context) {
	view, err := h.processingService.RetryProcessing(c.Request.Context(), c.Param("uploadId"), c.Param("eventId"), nil)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

// Progress 返回最近一次上报的处理进度（轮询接口）。
func (h *ProcessingHandler) Progress(c *gin.Context) {
	progress, found, err := h.processingService.GetProgress(c.Request.Context(), c.Param("uploadId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "暂无进度信息",
			"data":    nil,
		})
		return
	}
	respondOK(c, progress)
}

// StreamProgress 通过 WebSocket 持续推送处理进度。
// 连接保持到处理进入终态、客户端断开或上下文取消为止。
func (h *ProcessingHandler) StreamProgress(c *gin.Context) {
	uploadID := c.Param("uploadId")
	eventID := c.Param("eventId")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("WebSocket 升级失败: %v", err)
		return
	}
	defer conn.Close()

	log.Infof("进度推送连接已建立, uploadId: %s", uploadID)

	ctx := c.Request.Context()
	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	lastPercent := -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		progress, found, err := h.processingService.GetProgress(ctx, uploadID)
		if err != nil {
			log.Warnf("读取进度失败, uploadId: %s, error: %v", uploadID, err)
			continue
		}
		if found && progress.Percent != lastPercent {
			lastPercent = progress.Percent
			if err := conn.WriteJSON(progress); err != nil {
				log.Warnf("推送进度失败, uploadId: %s, error: %v", uploadID, err)
				return
			}
		}

		view, err := h.processingService.GetProcessingStatus(ctx, uploadID, eventID)
		if err != nil {
			log.Warnf("读取处理状态失败, uploadId: %s, error: %v", uploadID, err)
			continue
		}
		if view.Status == model.ProcessingCompleted || view.Status == model.ProcessingFailed {
			_ = conn.WriteJSON(gin.H{"type": "done", "status": view.Status})
			return
		}
	}
}
