package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"

	"sqldesk-go/internal/config"
)

// ConnectionRegistry 连接池注册表
// 每个逻辑连接ID持有一个pgx连接池，管理其完整生命周期。
// 同一连接ID同时最多存在一个池；用相同ID重连会替换旧池并在后台排空
type ConnectionRegistry struct {
	mu     sync.RWMutex
	pools  map[string]*pgxpool.Pool
	logger *zap.Logger

	// 配置参数
	connectTimeout  time.Duration // 探活超时时间
	defaultMaxConns int32         // 默认连接池大小
	pgxLogLevel     string        // pgx驱动日志级别
}

// ConnectionRegistryConfig 连接池注册表配置
type ConnectionRegistryConfig struct {
	ConnectTimeout  time.Duration `json:"connect_timeout"`   // 探活超时，默认10秒
	DefaultMaxConns int32         `json:"default_max_conns"` // 默认连接池大小，默认10
	PgxLogLevel     string        `json:"pgx_log_level"`     // pgx日志级别，默认warn
}

// NewConnectionRegistry 创建连接池注册表
func NewConnectionRegistry(logger *zap.Logger) *ConnectionRegistry {
	return NewConnectionRegistryWithConfig(nil, logger)
}

// NewConnectionRegistryWithConfig 使用自定义配置创建连接池注册表
func NewConnectionRegistryWithConfig(cfg *ConnectionRegistryConfig, logger *zap.Logger) *ConnectionRegistry {
	if cfg == nil {
		cfg = &ConnectionRegistryConfig{}
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.DefaultMaxConns <= 0 {
		cfg.DefaultMaxConns = 10
	}
	if cfg.PgxLogLevel == "" {
		cfg.PgxLogLevel = "warn"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ConnectionRegistry{
		pools:           make(map[string]*pgxpool.Pool),
		logger:          logger,
		connectTimeout:  cfg.ConnectTimeout,
		defaultMaxConns: cfg.DefaultMaxConns,
		pgxLogLevel:     cfg.PgxLogLevel,
	}
}

// Connect 为指定连接配置建立连接池
// 池本身是惰性连接，构建不会同步失败；随后获取并立即释放一个连接
// 作为探活。只有探活成功才注册连接池。探活失败不抛出错误，
// 而是在结果中携带错误信息，调用方必须检查Error字段
func (cr *ConnectionRegistry) Connect(ctx context.Context, profile ConnectionProfile, secret string) *ConnectResult {
	result := &ConnectResult{ConnectionID: profile.ID}

	poolConfig, err := cr.buildPoolConfig(profile, secret)
	if err != nil {
		result.Error = fmt.Sprintf("%v: %v", ErrConnectionFailed, err)
		return result
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		result.Error = fmt.Sprintf("%v: %v", ErrConnectionFailed, err)
		return result
	}

	// 探活：获取并立即释放一个连接
	probeCtx, cancel := context.WithTimeout(ctx, cr.connectTimeout)
	defer cancel()

	conn, err := pool.Acquire(probeCtx)
	if err != nil {
		pool.Close()
		cr.logger.Warn("连接探活失败",
			zap.String("connection_id", profile.ID),
			zap.String("host", profile.Host),
			zap.String("database", profile.Database),
			zap.Error(err))
		result.Error = fmt.Sprintf("%v: %v", ErrConnectionFailed, err)
		return result
	}
	conn.Release()

	// 注册连接池，旧池在后台排空
	cr.mu.Lock()
	old := cr.pools[profile.ID]
	cr.pools[profile.ID] = pool
	cr.mu.Unlock()

	if old != nil {
		cr.logger.Info("替换已有连接池",
			zap.String("connection_id", profile.ID))
		go old.Close()
	}

	cr.logger.Info("创建数据库连接池",
		zap.String("connection_id", profile.ID),
		zap.String("host", profile.Host),
		zap.String("database", profile.Database),
		zap.Int32("max_conns", poolConfig.MaxConns))

	return result
}

// buildPoolConfig 根据连接配置构建pgxpool配置
func (cr *ConnectionRegistry) buildPoolConfig(profile ConnectionProfile, secret string) (*pgxpool.Config, error) {
	sslMode := profile.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=sqldesk connect_timeout=%d",
		profile.Host,
		profile.Port,
		profile.Username,
		secret,
		profile.Database,
		sslMode,
		int(cr.connectTimeout.Seconds()),
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("解析连接配置失败: %w", err)
	}

	maxConns := profile.MaxConnections
	if maxConns <= 0 {
		maxConns = cr.defaultMaxConns
	}
	poolConfig.MaxConns = maxConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 15 * time.Minute

	// 将pgx驱动日志接入zap
	pgxLogger := config.NewPgxZapLogger(cr.logger, cr.pgxLogLevel)
	poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   pgxLogger,
		LogLevel: pgxLogger.GetLogLevel(),
	}

	return poolConfig, nil
}

// Pool 按连接ID查找连接池
func (cr *ConnectionRegistry) Pool(connectionID string) (*pgxpool.Pool, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	pool, ok := cr.pools[connectionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConnectionNotFound, connectionID)
	}
	return pool, nil
}

// Disconnect 断开指定连接
// 幂等操作：排空并关闭连接池，移除注册表条目；未知ID是空操作
func (cr *ConnectionRegistry) Disconnect(connectionID string) {
	cr.mu.Lock()
	pool, ok := cr.pools[connectionID]
	if ok {
		delete(cr.pools, connectionID)
	}
	cr.mu.Unlock()

	if !ok {
		return
	}

	pool.Close()
	cr.logger.Info("关闭数据库连接池",
		zap.String("connection_id", connectionID))
}

// Close 关闭所有连接池（服务停机路径）
func (cr *ConnectionRegistry) Close() {
	cr.mu.Lock()
	pools := cr.pools
	cr.pools = make(map[string]*pgxpool.Pool)
	cr.mu.Unlock()

	for id, pool := range pools {
		pool.Close()
		cr.logger.Info("关闭数据库连接池",
			zap.String("connection_id", id))
	}
}

// Stats 获取所有连接池的统计信息快照
func (cr *ConnectionRegistry) Stats() map[string]*pgxpool.Stat {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	stats := make(map[string]*pgxpool.Stat, len(cr.pools))
	for id, pool := range cr.pools {
		stats[id] = pool.Stat()
	}
	return stats
}
