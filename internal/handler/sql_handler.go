package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"sqldesk-go/internal/metrics"
	"sqldesk-go/internal/service"
)

// QueryService SQL执行接口
type QueryService interface {
	Run(ctx context.Context, connectionID, sql string, params []any, schema, executionID string) (*service.QueryResult, error)
	CancelQuery(ctx context.Context, executionID string) bool
}

// SQLHandler SQL查询处理器
// 处理SQL执行和查询取消
type SQLHandler struct {
	executor QueryService
	metrics  *metrics.PrometheusMetrics
	logger   *zap.Logger
}

// NewSQLHandler 创建SQL处理器实例
func NewSQLHandler(executor QueryService, pm *metrics.PrometheusMetrics, logger *zap.Logger) *SQLHandler {
	return &SQLHandler{
		executor: executor,
		metrics:  pm,
		logger:   logger,
	}
}

// ExecuteSQLRequest SQL执行请求结构
type ExecuteSQLRequest struct {
	ConnectionID string `json:"connection_id" binding:"required" example:"local-dev"`
	SQL          string `json:"sql" binding:"required" example:"SELECT * FROM users LIMIT 10"`
	Params       []any  `json:"params,omitempty"`
	Schema       string `json:"schema,omitempty" example:"public"`
	ExecutionID  string `json:"execution_id,omitempty" example:"exec-42"`
}

// CancelQueryRequest 查询取消请求结构
type CancelQueryRequest struct {
	ExecutionID string `json:"execution_id" binding:"required" example:"exec-42"`
}

// SQLExecutionResponse SQL执行响应
type SQLExecutionResponse struct {
	ExecutionID   string                    `json:"execution_id"`
	Fields        []service.FieldDescriptor `json:"fields"`
	Rows          []map[string]any          `json:"rows"`
	RowCount      int32                     `json:"row_count"`
	ExecutionTime int32                     `json:"execution_time"`
	Status        string                    `json:"status"`
}

// ExecuteSQL 执行SQL查询
// 多语句文本在一个事务内执行，响应只包含最后一条语句的结果集
func (h *SQLHandler) ExecuteSQL(c *gin.Context) {
	var req ExecuteSQLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	// 执行ID在这里兜底生成，响应总是携带实际生效的ID，
	// 否则调用方无法取消服务端生成ID的执行
	if req.ExecutionID == "" {
		req.ExecutionID = uuid.NewString()
	}

	start := time.Now()
	result, err := h.executor.Run(c.Request.Context(), req.ConnectionID, req.SQL, req.Params, req.Schema, req.ExecutionID)
	duration := time.Since(start)

	if err != nil {
		h.metrics.RecordSQLExecution(req.ConnectionID, "error", duration)
		h.respondQueryError(c, err)
		return
	}

	h.metrics.RecordSQLExecution(req.ConnectionID, "success", duration)

	c.JSON(http.StatusOK, SQLExecutionResponse{
		ExecutionID:   req.ExecutionID,
		Fields:        result.Fields,
		Rows:          result.Rows,
		RowCount:      result.RowCount,
		ExecutionTime: result.ExecutionTime,
		Status:        "success",
	})
}

// CancelQuery 取消正在执行的查询
// 未知或已完成的执行ID返回cancelled=false，不是错误
func (h *SQLHandler) CancelQuery(c *gin.Context) {
	var req CancelQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	cancelled := h.executor.CancelQuery(c.Request.Context(), req.ExecutionID)
	h.metrics.RecordQueryCancel(cancelled)

	c.JSON(http.StatusOK, gin.H{
		"execution_id": req.ExecutionID,
		"cancelled":    cancelled,
	})
}

// respondQueryError 把执行层的类型化错误映射为HTTP响应
func (h *SQLHandler) respondQueryError(c *gin.Context, err error) {
	switch {
	case service.IsConnectionNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "CONNECTION_NOT_FOUND",
			"message": err.Error(),
		})
	case service.IsQueryCancelled(err):
		c.JSON(http.StatusConflict, gin.H{
			"code":    "QUERY_CANCELLED",
			"message": err.Error(),
		})
	case service.IsExecutionConflict(err):
		c.JSON(http.StatusConflict, gin.H{
			"code":    "EXECUTION_CONFLICT",
			"message": err.Error(),
		})
	case service.IsQueryFailed(err):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "QUERY_FAILED",
			"message": err.Error(),
		})
	default:
		h.logger.Error("SQL执行发生未分类错误", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "服务器内部错误",
		})
	}
}
