package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ServerConfig HTTP服务配置
// 支持环境变量配置，适用于容器化部署
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0" json:"host"` // 监听地址
	Port int    `env:"SERVER_PORT" envDefault:"8080" json:"port"`    // 监听端口

	// 优雅停机配置
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s" json:"shutdown_timeout"` // 停机超时

	// 执行层配置
	QueryTimeout   time.Duration `env:"QUERY_TIMEOUT" envDefault:"30s" json:"query_timeout"`      // SQL执行超时
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s" json:"connect_timeout"`  // 连接探活超时
	PgxLogLevel    string        `env:"PGX_LOG_LEVEL" envDefault:"warn" json:"pgx_log_level"`     // pgx驱动日志级别
	DefaultPoolMax int32         `env:"DEFAULT_POOL_MAX" envDefault:"10" json:"default_pool_max"` // 默认连接池大小
}

// DefaultServerConfig 返回默认的服务配置
// 适用于开发环境的默认设置
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 10 * time.Second,
		QueryTimeout:    30 * time.Second,
		ConnectTimeout:  10 * time.Second,
		PgxLogLevel:     "warn",
		DefaultPoolMax:  10,
	}
}

// LoadServerConfig 从环境变量加载服务配置
// 未设置的变量使用默认值
func LoadServerConfig() (*ServerConfig, error) {
	cfg := DefaultServerConfig()

	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("解析SERVER_PORT失败: %w", err)
		}
		cfg.Port = p
	}
	if timeout := os.Getenv("SERVER_SHUTDOWN_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("解析SERVER_SHUTDOWN_TIMEOUT失败: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	if timeout := os.Getenv("QUERY_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("解析QUERY_TIMEOUT失败: %w", err)
		}
		cfg.QueryTimeout = d
	}
	if timeout := os.Getenv("CONNECT_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("解析CONNECT_TIMEOUT失败: %w", err)
		}
		cfg.ConnectTimeout = d
	}
	if level := os.Getenv("PGX_LOG_LEVEL"); level != "" {
		cfg.PgxLogLevel = level
	}
	if max := os.Getenv("DEFAULT_POOL_MAX"); max != "" {
		n, err := strconv.ParseInt(max, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("解析DEFAULT_POOL_MAX失败: %w", err)
		}
		cfg.DefaultPoolMax = int32(n)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate 验证服务配置的有效性
func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("服务端口必须在1-65535范围内")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("SQL执行超时必须大于0")
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("连接探活超时必须大于0")
	}
	if c.DefaultPoolMax <= 0 {
		return fmt.Errorf("默认连接池大小必须大于0")
	}
	return nil
}

// Addr 返回监听地址字符串
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
