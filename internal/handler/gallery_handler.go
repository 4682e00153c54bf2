// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strconv"

	"fanwall-go/internal/service"

	"github.com/gin-gonic/gin"
)

// GalleryHandler 负责处理展示端相册查询的 API 请求。
type GalleryHandler struct {
	galleryService service.GalleryService
}

// NewGalleryHandler 创建一个新的 GalleryHandler 实例。
func NewGalleryHandler(galleryService service.GalleryService) *GalleryHandler {
	return &GalleryHandler{galleryService: galleryService}
}

// Gallery 返回某个活动下全部审核通过的上传。
func (h *GalleryHandler) Gallery(c *gin.Context) {
	items, err := h.galleryService.Gallery(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

// Search 在相册索引中按上传者名称检索。
func (h *GalleryHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 q 参数"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	hits, err := h.galleryService.Search(c.Request.Context(), c.Param("eventId"), query, size)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, hits)
}
