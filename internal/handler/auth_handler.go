// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"crypto/subtle"
	"net/http"

	"fanwall-go/pkg/log"
	"fanwall-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责签发创作者端的身份令牌。
// 本服务没有账号体系：创作者凭部署方下发的 provision key 换取 JWT。
type AuthHandler struct {
	jwtManager   *token.JWTManager
	provisionKey string
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(jwtManager *token.JWTManager, provisionKey string) *AuthHandler {
	return &AuthHandler{jwtManager: jwtManager, provisionKey: provisionKey}
}

// IssueTokenRequest 定义了签发创作者令牌 API 的请求体结构。
type IssueTokenRequest struct {
	CreativeID   string `json:"creativeId" binding:"required"`
	Name         string `json:"name" binding:"required"`
	ProvisionKey string `json:"provisionKey" binding:"required"`
}

// IssueToken 处理签发创作者令牌的请求。
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.ProvisionKey), []byte(h.provisionKey)) != 1 {
		log.Warnf("IssueToken: provision key 校验失败, creativeId: %s", req.CreativeID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无效的 provision key"})
		return
	}

	accessToken, err := h.jwtManager.GenerateToken(req.CreativeID, req.Name)
	if err != nil {
		log.Errorf("IssueToken: 生成令牌失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成令牌失败"})
		return
	}
	respondOK(c, gin.H{"accessToken": accessToken})
}
