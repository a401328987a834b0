package config

import (
	"fmt"
	"os"
	"strings"
)

// LoadEnv 将.env文件中的键值对写入进程环境
// 已设置的环境变量优先于文件内容；文件不存在不视为错误，
// 容器化部署通常只用真实环境变量
func LoadEnv(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("读取%s失败: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key == "" || os.Getenv(key) != "" {
			continue
		}

		os.Setenv(key, value)
	}

	return nil
}
