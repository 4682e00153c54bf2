// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"fanwall-go/internal/model"
	"fanwall-go/internal/service"
	"fanwall-go/pkg/log"
	"fanwall-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// UploadHandler 负责处理粉丝上传与创作者端上传管理的 API 请求。
type UploadHandler struct {
	uploadService  service.UploadService
	linkService    service.LinkService
	fanVideoPolicy service.UploadPolicy
	generalPolicy  service.UploadPolicy
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(uploadService service.UploadService, linkService service.LinkService, fanVideoPolicy, generalPolicy service.UploadPolicy) *UploadHandler {
	return &UploadHandler{
		uploadService:  uploadService,
		linkService:    linkService,
		fanVideoPolicy: fanVideoPolicy,
		generalPolicy:  generalPolicy,
	}
}

// ValidateLink 是粉丝打开上传页时的预校验：只返回结论，不消耗配额。
func (h *UploadHandler) ValidateLink(c *gin.Context) {
	linkID := c.Param("linkId")
	verdict, err := h.linkService.Validate(c.Request.Context(), linkID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, verdict)
}

// Submit 处理粉丝通过上传链接提交文件的请求（multipart 表单）。
// channel 字段选择校验策略：fan_video 只收视频，缺省走通用策略。
func (h *UploadHandler) Submit(c *gin.Context) {
	linkID := c.Param("linkId")
	uploaderName := c.PostForm("uploaderName")
	userID := c.PostForm("userId")
	channel := c.PostForm("channel")

	if uploaderName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 uploaderName 参数"})
		return
	}
	// 匿名粉丝没有账号，为其生成一次性的上传者标识
	if userID == "" {
		userID = "fan_" + token.GenerateRandomID(12)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未能获取上传的文件"})
		return
	}
	defer file.Close()

	// 活动归属取自链接本身，粉丝无法替换
	link, err := h.linkService.Fetch(c.Request.Context(), linkID)
	if err != nil {
		respondError(c, err)
		return
	}

	policy := h.generalPolicy
	if channel == "fan_video" {
		policy = h.fanVideoPolicy
	}

	desc := service.UploadDescriptor{
		EventID:      link.EventID,
		UserID:       userID,
		UploaderName: uploaderName,
		FileName:     header.Filename,
		MIMEType:     header.Header.Get("Content-Type"),
		FileSize:     header.Size,
	}

	item, err := h.uploadService.Create(c.Request.Context(), linkID, desc, file, policy)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Infof("[UploadHandler] 粉丝上传已接收, uploadId: %s, linkId: %s", item.ID, linkID)
	respondCreated(c, item)
}

// Get 返回单条上传记录。
func (h *UploadHandler) Get(c *gin.Context) {
	item, err := h.uploadService.Get(c.Request.Context(), c.Param("uploadId"), c.Param("eventId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, item)
}

// ListByEvent 返回某个活动下的全部上传。
func (h *UploadHandler) ListByEvent(c *gin.Context) {
	items, err := h.uploadService.ListForEvent(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

// ListByUser 返回某个上传者的全部上传。
func (h *UploadHandler) ListByUser(c *gin.Context) {
	items, err := h.uploadService.ListForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

// SetStatusRequest 定义了状态转移 API 的请求体结构。
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus 处理单条上传的状态转移请求。
func (h *UploadHandler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}
	err := h.uploadService.SetStatus(c.Request.Context(), c.Param("uploadId"), c.Param("eventId"), model.UploadStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// Remove 处理删除上传的请求（资产删除 + 记录软删除）。
func (h *UploadHandler) Remove(c *gin.Context) {
	if err := h.uploadService.Remove(c.Request.Context(), c.Param("uploadId"), c.Param("eventId")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// Replace 处理替换上传文件的请求（multipart 表单）。
func (h *UploadHandler) Replace(c *gin.Context) {
	uploadID := c.Param("uploadId")
	eventID := c.Param("eventId")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未能获取上传的文件"})
		return
	}
	defer file.Close()

	desc := service.UploadDescriptor{
		EventID:  eventID,
		FileName: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		FileSize: header.Size,
	}

	item, err := h.uploadService.Replace(c.Request.Context(), uploadID, eventID, desc, file, h.generalPolicy)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, item)
}
