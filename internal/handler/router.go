package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// RouterConfig 路由配置结构
type RouterConfig struct {
	SQLHandler        *SQLHandler
	ConnectionHandler *ConnectionHandler
	SchemaHandler     *SchemaHandler
	MetricsHandler    gin.HandlerFunc // Prometheus指标端点处理器
	MetricsMiddleware gin.HandlerFunc // HTTP指标收集中间件
}

// SetupRoutes 配置所有API路由
// 版本化RESTful分组，系统端点挂在根路径
func SetupRoutes(r *gin.Engine, config *RouterConfig) {
	if config.MetricsMiddleware != nil {
		r.Use(config.MetricsMiddleware)
	}

	v1 := r.Group("/api/v1")
	{
		// SQL执行API
		sql := v1.Group("/sql")
		{
			sql.POST("/execute", config.SQLHandler.ExecuteSQL) // 执行SQL查询
			sql.POST("/cancel", config.SQLHandler.CancelQuery) // 取消查询
		}

		// 数据库连接管理API
		connections := v1.Group("/connections")
		{
			connections.POST("", config.ConnectionHandler.Connect)          // 建立连接
			connections.DELETE("/:id", config.ConnectionHandler.Disconnect) // 断开连接

			// 数据库结构探测API
			connections.GET("/:id/schemas", config.SchemaHandler.ListSchemas)                       // 枚举schema和表
			connections.GET("/:id/schemas/:schema", config.SchemaHandler.DescribeSchema)            // 整个schema的表结构
			connections.GET("/:id/schemas/:schema/tables/:table", config.SchemaHandler.DescribeTable) // 单表结构
		}
	}

	setupSystemRoutes(r, config)
}

// setupSystemRoutes 配置系统级路由
func setupSystemRoutes(r *gin.Engine, config *RouterConfig) {
	r.GET("/health", healthCheck)

	if config.MetricsHandler != nil {
		r.GET("/metrics", config.MetricsHandler)
	}
}

// healthCheck 健康检查处理器
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "sqldesk-api",
	})
}

func init() {
	// 配置JSON绑定选项，提高安全性
	binding.EnableDecoderUseNumber = true
	binding.EnableDecoderDisallowUnknownFields = true
}
