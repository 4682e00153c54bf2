// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"fanwall-go/internal/apperr"
	"fanwall-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// respondOK 以统一的 code/message/data 结构返回成功响应。
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    data,
	})
}

// respondCreated 返回 201 响应。
func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "success",
		"data":    data,
	})
}

// respondError 把业务错误映射为 HTTP 状态码并返回统一的错误结构。
func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Errorf("请求处理失败, path: %s, error: %v", c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{
		"code":    status,
		"message": err.Error(),
		"data":    nil,
	})
}

// statusOf 是 apperr 错误种类到 HTTP 状态码的映射。
func statusOf(err error) int {
	var (
		validation *apperr.ValidationError
		notFound   *apperr.NotFoundError
		quota      *apperr.QuotaExceededError
		expired    *apperr.LinkExpiredError
		inactive   *apperr.LinkInactiveError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &quota):
		return http.StatusTooManyRequests
	case errors.As(err, &expired), errors.As(err, &inactive):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
