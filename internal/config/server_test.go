package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServerConfig 测试服务配置加载和校验
func TestServerConfig(t *testing.T) {
	t.Run("默认配置有效", func(t *testing.T) {
		cfg := DefaultServerConfig()

		assert.NoError(t, cfg.Validate())
		assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	})

	t.Run("环境变量覆盖默认值", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("QUERY_TIMEOUT", "45s")
		t.Setenv("PGX_LOG_LEVEL", "debug")
		t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "20s")
		t.Setenv("DEFAULT_POOL_MAX", "25")

		cfg, err := LoadServerConfig()
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Port)
		assert.Equal(t, 45*time.Second, cfg.QueryTimeout)
		assert.Equal(t, "debug", cfg.PgxLogLevel)
		assert.Equal(t, 20*time.Second, cfg.ShutdownTimeout)
		assert.Equal(t, int32(25), cfg.DefaultPoolMax)
	})

	t.Run("非法连接池大小被拒绝", func(t *testing.T) {
		t.Setenv("DEFAULT_POOL_MAX", "abc")

		_, err := LoadServerConfig()
		assert.Error(t, err)
	})

	t.Run("非法端口被拒绝", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "99999")

		_, err := LoadServerConfig()
		assert.Error(t, err)
	})

	t.Run("非法超时格式被拒绝", func(t *testing.T) {
		t.Setenv("QUERY_TIMEOUT", "not-a-duration")

		_, err := LoadServerConfig()
		assert.Error(t, err)
	})

	t.Run("校验拒绝非正超时", func(t *testing.T) {
		cfg := DefaultServerConfig()
		cfg.QueryTimeout = 0

		assert.Error(t, cfg.Validate())
	})
}
