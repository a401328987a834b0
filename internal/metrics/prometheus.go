package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// PrometheusMetrics Prometheus指标收集器
// 收集HTTP请求、SQL执行、连接池等关键业务指标
type PrometheusMetrics struct {
	// HTTP请求相关指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 业务指标
	sqlExecutionsTotal   *prometheus.CounterVec
	sqlExecutionDuration *prometheus.HistogramVec
	queryCancelsTotal    *prometheus.CounterVec
	activeExecutions     prometheus.GaugeFunc

	// 注册器
	registry *prometheus.Registry

	logger *zap.Logger
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Namespace string // 指标命名空间
	Subsystem string // 指标子系统
}

// DefaultMetricsConfig 默认指标配置
func DefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Namespace: "sqldesk",
		Subsystem: "api",
	}
}

// ActiveExecutionCounter 活跃执行计数来源
// 由service.ActiveExecutionRegistry实现
type ActiveExecutionCounter interface {
	Count() int
}

// NewPrometheusMetrics 创建Prometheus指标收集器
func NewPrometheusMetrics(config *MetricsConfig, active ActiveExecutionCounter, logger *zap.Logger) *PrometheusMetrics {
	if config == nil {
		config = DefaultMetricsConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &PrometheusMetrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	pm.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	pm.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	pm.sqlExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "sql",
			Name:      "executions_total",
			Help:      "Total number of SQL executions",
		},
		[]string{"connection_id", "status"},
	)

	pm.sqlExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "sql",
			Name:      "execution_duration_seconds",
			Help:      "SQL execution duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30}, // 1ms到30s
		},
		[]string{"connection_id"},
	)

	pm.queryCancelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "sql",
			Name:      "cancels_total",
			Help:      "Total number of query cancel requests",
		},
		[]string{"result"},
	)

	pm.activeExecutions = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: "sql",
			Name:      "active_executions",
			Help:      "Number of currently registered executions",
		},
		func() float64 {
			if active == nil {
				return 0
			}
			return float64(active.Count())
		},
	)

	pm.registerMetrics()

	logger.Info("Prometheus指标初始化完成",
		zap.String("namespace", config.Namespace),
		zap.String("subsystem", config.Subsystem))

	return pm
}

// registerMetrics 注册所有指标到Prometheus
func (pm *PrometheusMetrics) registerMetrics() {
	pm.registry.MustRegister(pm.httpRequestsTotal)
	pm.registry.MustRegister(pm.httpRequestDuration)
	pm.registry.MustRegister(pm.sqlExecutionsTotal)
	pm.registry.MustRegister(pm.sqlExecutionDuration)
	pm.registry.MustRegister(pm.queryCancelsTotal)
	pm.registry.MustRegister(pm.activeExecutions)
}

// RegisterPoolCollector 注册连接池统计收集器
func (pm *PrometheusMetrics) RegisterPoolCollector(c prometheus.Collector) {
	pm.registry.MustRegister(c)
}

// HTTPMetricsMiddleware HTTP指标收集中间件
func (pm *PrometheusMetrics) HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		method := c.Request.Method
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		statusCode := strconv.Itoa(c.Writer.Status())

		pm.httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
		pm.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	}
}

// RecordSQLExecution 记录SQL执行指标
func (pm *PrometheusMetrics) RecordSQLExecution(connectionID, status string, duration time.Duration) {
	pm.sqlExecutionsTotal.WithLabelValues(connectionID, status).Inc()
	pm.sqlExecutionDuration.WithLabelValues(connectionID).Observe(duration.Seconds())
}

// RecordQueryCancel 记录取消请求指标
func (pm *PrometheusMetrics) RecordQueryCancel(cancelled bool) {
	result := "miss"
	if cancelled {
		result = "cancelled"
	}
	pm.queryCancelsTotal.WithLabelValues(result).Inc()
}

// GetMetricsHandler 获取Prometheus指标端点处理器
func (pm *PrometheusMetrics) GetMetricsHandler() gin.HandlerFunc {
	h := promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
