package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sqldesk-go/internal/config"
	"sqldesk-go/internal/handler"
	"sqldesk-go/internal/metrics"
	"sqldesk-go/internal/middleware"
	"sqldesk-go/internal/service"
)

func main() {
	// 初始化日志
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting SQLDesk Server",
		zap.String("version", "0.1.0"),
		zap.String("go_version", runtime.Version()))

	// 加载环境变量
	if err := config.LoadEnv(".env"); err != nil {
		logger.Warn("Failed to load .env file", zap.Error(err))
	}

	// 初始化配置
	serverConfig, err := config.LoadServerConfig()
	if err != nil {
		logger.Fatal("Failed to load server config", zap.Error(err))
	}
	metricsConfig := metrics.DefaultMetricsConfig()

	// 初始化Service层
	connectionRegistry := service.NewConnectionRegistryWithConfig(&service.ConnectionRegistryConfig{
		ConnectTimeout:  serverConfig.ConnectTimeout,
		DefaultMaxConns: serverConfig.DefaultPoolMax,
		PgxLogLevel:     serverConfig.PgxLogLevel,
	}, logger)
	defer connectionRegistry.Close()

	activeRegistry := service.NewActiveExecutionRegistry(logger)

	queryExecutor := service.NewQueryExecutorWithConfig(
		connectionRegistry,
		activeRegistry,
		&service.QueryExecutorConfig{QueryTimeout: serverConfig.QueryTimeout},
		logger,
	)

	schemaIntrospector := service.NewSchemaIntrospector(queryExecutor, logger)

	// 初始化Prometheus指标
	prometheusMetrics := metrics.NewPrometheusMetrics(metricsConfig, activeRegistry, logger)
	prometheusMetrics.RegisterPoolCollector(metrics.NewPoolStatsCollector(connectionRegistry))

	// 初始化处理器
	sqlHandler := handler.NewSQLHandler(queryExecutor, prometheusMetrics, logger)
	connectionHandler := handler.NewConnectionHandler(connectionRegistry, logger)
	schemaHandler := handler.NewSchemaHandler(schemaIntrospector, logger)

	// 初始化Gin路由器
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 配置全局中间件
	middlewareConfig := middleware.DefaultMiddlewareConfig(logger)
	middleware.SetupMiddleware(r, middlewareConfig)

	// 配置路由
	routerConfig := &handler.RouterConfig{
		SQLHandler:        sqlHandler,
		ConnectionHandler: connectionHandler,
		SchemaHandler:     schemaHandler,
		MetricsHandler:    prometheusMetrics.GetMetricsHandler(),
		MetricsMiddleware: prometheusMetrics.HTTPMetricsMiddleware(),
	}

	handler.SetupRoutes(r, routerConfig)

	// 启动HTTP服务器
	srv := &http.Server{
		Addr:           serverConfig.Addr(),
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	go func() {
		logger.Info("SQLDesk server starting",
			zap.String("addr", srv.Addr),
			zap.String("mode", gin.Mode()))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	} else {
		logger.Info("Server gracefully stopped")
	}

	// 关闭所有数据库连接池
	connectionRegistry.Close()
	logger.Info("Database connection pools closed")

	logger.Info("SQLDesk server exited")
}
