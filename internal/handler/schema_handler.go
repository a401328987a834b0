package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sqldesk-go/internal/service"
)

// IntrospectionService 数据库结构探测接口
type IntrospectionService interface {
	ListSchemas(ctx context.Context, connectionID string) ([]service.SchemaInfo, error)
	DescribeTable(ctx context.Context, connectionID, schema, table string) (*service.TableInfo, error)
	DescribeSchema(ctx context.Context, connectionID, schema string) ([]service.TableInfo, error)
}

// SchemaHandler 数据库结构处理器
// 提供schema枚举、单表详情和整schema批量详情三条只读路径
type SchemaHandler struct {
	introspector IntrospectionService
	logger       *zap.Logger
}

// NewSchemaHandler 创建结构处理器实例
func NewSchemaHandler(introspector IntrospectionService, logger *zap.Logger) *SchemaHandler {
	return &SchemaHandler{
		introspector: introspector,
		logger:       logger,
	}
}

// ListSchemas 枚举连接的schema和基础表
func (h *SchemaHandler) ListSchemas(c *gin.Context) {
	connectionID := c.Param("id")

	schemas, err := h.introspector.ListSchemas(c.Request.Context(), connectionID)
	if err != nil {
		h.respondIntrospectionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connection_id": connectionID,
		"schemas":       schemas,
	})
}

// DescribeSchema 探测整个schema的表结构
func (h *SchemaHandler) DescribeSchema(c *gin.Context) {
	connectionID := c.Param("id")
	schema := c.Param("schema")

	tables, err := h.introspector.DescribeSchema(c.Request.Context(), connectionID, schema)
	if err != nil {
		h.respondIntrospectionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connection_id": connectionID,
		"schema":        schema,
		"tables":        tables,
	})
}

// DescribeTable 探测单个表的列级结构
func (h *SchemaHandler) DescribeTable(c *gin.Context) {
	connectionID := c.Param("id")
	schema := c.Param("schema")
	table := c.Param("table")

	tableInfo, err := h.introspector.DescribeTable(c.Request.Context(), connectionID, schema, table)
	if err != nil {
		h.respondIntrospectionError(c, err)
		return
	}

	c.JSON(http.StatusOK, tableInfo)
}

// respondIntrospectionError 把探测错误映射为HTTP响应
func (h *SchemaHandler) respondIntrospectionError(c *gin.Context, err error) {
	switch {
	case service.IsConnectionNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "CONNECTION_NOT_FOUND",
			"message": err.Error(),
		})
	case service.IsQueryFailed(err):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "QUERY_FAILED",
			"message": err.Error(),
		})
	default:
		h.logger.Error("结构探测发生未分类错误", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "服务器内部错误",
		})
	}
}
