// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"fanwall-go/internal/middleware"
	"fanwall-go/internal/model"
	"fanwall-go/internal/service"

	"github.com/gin-gonic/gin"
)

// BatchHandler 负责处理批量操作与播放列表相关的 API 请求。
type BatchHandler struct {
	batchService service.BatchService
}

// NewBatchHandler 创建一个新的 BatchHandler 实例。
func NewBatchHandler(batchService service.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// BatchStatusRequest 定义了批量状态转移 API 的请求体结构。
type BatchStatusRequest struct {
	UploadIDs []string `json:"uploadIds" binding:"required"`
	Status    string   `json:"status" binding:"required"`
}

// UpdateStatuses 处理批量状态转移的请求。逐条结果在响应中返回。
func (h *BatchHandler) UpdateStatuses(c *gin.Context) {
	var req BatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}
	result := h.batchService.UpdateStatuses(c.Request.Context(), c.Param("eventId"), req.UploadIDs, model.UploadStatus(req.Status))
	respondOK(c, result)
}

// BatchProcessRequest 定义了批量送处理 API 的请求体结构。
type BatchProcessRequest struct {
	UploadIDs []string `json:"uploadIds" binding:"required"`
}

// ProcessUploads 处理批量送入异步处理的请求。
func (h *BatchHandler) ProcessUploads(c *gin.Context) {
	var req BatchProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}
	result := h.batchService.ProcessUploads(c.Request.Context(), c.Param("eventId"), req.UploadIDs)
	respondOK(c, result)
}

// CreatePlaylistRequest 定义了创建播放列表 API 的请求体结构。
type CreatePlaylistRequest struct {
	EventID string `json:"eventId" binding:"required"`
	Name    string `json:"name" binding:"required"`
}

// CreatePlaylist 处理创建播放列表的请求。
func (h *BatchHandler) CreatePlaylist(c *gin.Context) {
	var req CreatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}
	claims := middleware.CreativeFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少创作者身份"})
		return
	}
	playlist, err := h.batchService.CreatePlaylist(c.Request.Context(), req.EventID, claims.CreativeID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, playlist)
}

// GetPlaylist 返回播放列表及其按位置排序的条目。
func (h *BatchHandler) GetPlaylist(c *gin.Context) {
	playlist, entries, err := h.batchService.GetPlaylist(c.Request.Context(), c.Param("playlistId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"playlist": playlist, "entries": entries})
}

// PlaylistEntriesRequest 定义了播放列表成员增删 API 的请求体结构。
type PlaylistEntriesRequest struct {
	UploadIDs []string `json:"uploadIds" binding:"required"`
}

// AddToPlaylist 处理批量加入播放列表的请求。
func (h *BatchHandler) AddToPlaylist(c *gin.Context) {
	var req PlaylistEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}
	result := h.batchService.AddToPlaylist(c.Request.Context(), c.Param("playlistId"), req.UploadIDs)
	respondOK(c, result)
}

// RemoveFromPlaylist 处理批量移出播放列表的请求。
func (h *BatchHandler) RemoveFromPlaylist(c *gin.Context) {
	var req PlaylistEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}
	result := h.batchService.RemoveFromPlaylist(c.Request.Context(), c.Param("playlistId"), req.UploadIDs)
	respondOK(c, result)
}
