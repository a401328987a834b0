package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sqldesk-go/internal/service"
)

// ConnectionService 连接管理接口
type ConnectionService interface {
	Connect(ctx context.Context, profile service.ConnectionProfile, secret string) *service.ConnectResult
	Disconnect(connectionID string)
}

// ConnectionHandler 连接管理处理器
// 处理连接建立和断开；连接配置由客户端持有，这里不做任何持久化
type ConnectionHandler struct {
	connections ConnectionService
	logger      *zap.Logger
}

// NewConnectionHandler 创建连接管理处理器
func NewConnectionHandler(connections ConnectionService, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		connections: connections,
		logger:      logger,
	}
}

// ConnectRequest 连接建立请求
// Secret是外部凭据存储解析出的不透明字符串
type ConnectRequest struct {
	ID             string `json:"id" binding:"required" example:"local-dev"`
	Host           string `json:"host" binding:"required" example:"localhost"`
	Port           int    `json:"port" binding:"omitempty,min=1,max=65535" example:"5432"`
	Database       string `json:"database" binding:"required" example:"appdb"`
	Username       string `json:"username" binding:"required" example:"postgres"`
	Secret         string `json:"secret" example:"s3cret"`
	SSLMode        string `json:"ssl_mode" binding:"omitempty,oneof=disable allow prefer require verify-ca verify-full" example:"prefer"`
	MaxConnections int32  `json:"max_connections" binding:"omitempty,min=1" example:"10"`
}

// Connect 建立数据库连接
// 探活失败不是HTTP错误：结果携带连接ID和错误信息，
// 客户端按error字段判断并做UI关联
func (h *ConnectionHandler) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	port := req.Port
	if port == 0 {
		port = 5432
	}

	profile := service.ConnectionProfile{
		ID:             req.ID,
		Host:           req.Host,
		Port:           port,
		Database:       req.Database,
		Username:       req.Username,
		SSLMode:        req.SSLMode,
		MaxConnections: req.MaxConnections,
	}

	result := h.connections.Connect(c.Request.Context(), profile, req.Secret)

	c.JSON(http.StatusOK, result)
}

// Disconnect 断开数据库连接
// 幂等操作，未知连接ID也返回204
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	connectionID := c.Param("id")

	h.connections.Disconnect(connectionID)

	c.Status(http.StatusNoContent)
}
