package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSplitStatements 测试SQL语句拆分
func TestSplitStatements(t *testing.T) {
	t.Run("单条语句无分号", func(t *testing.T) {
		statements := SplitStatements("SELECT 1")

		assert.Equal(t, []string{"SELECT 1"}, statements)
	})

	t.Run("多条语句按分号拆分", func(t *testing.T) {
		statements := SplitStatements("SELECT 1; SELECT 2; SELECT 3")

		assert.Equal(t, []string{"SELECT 1", "SELECT 2", "SELECT 3"}, statements)
	})

	t.Run("单引号字符串内的分号不是边界", func(t *testing.T) {
		statements := SplitStatements(`SELECT 1; SELECT 'a;b'; SELECT 2`)

		assert.Equal(t, []string{"SELECT 1", "SELECT 'a;b'", "SELECT 2"}, statements)
	})

	t.Run("双引号标识符内的分号不是边界", func(t *testing.T) {
		statements := SplitStatements(`SELECT "weird;name" FROM t; SELECT 2`)

		assert.Equal(t, []string{`SELECT "weird;name" FROM t`, "SELECT 2"}, statements)
	})

	t.Run("转义引号不结束字符串状态", func(t *testing.T) {
		statements := SplitStatements(`SELECT 'it''s; fine'; SELECT 2`)

		assert.Equal(t, []string{`SELECT 'it''s; fine'`, "SELECT 2"}, statements)
	})

	t.Run("转义引号后字符串正常结束", func(t *testing.T) {
		statements := SplitStatements(`SELECT 'a''b' ; SELECT ';'`)

		assert.Equal(t, []string{`SELECT 'a''b'`, `SELECT ';'`}, statements)
	})

	t.Run("空白片段被丢弃", func(t *testing.T) {
		statements := SplitStatements("SELECT 1;;  ; SELECT 2;")

		assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, statements)
	})

	t.Run("空输入返回空列表", func(t *testing.T) {
		assert.Empty(t, SplitStatements(""))
		assert.Empty(t, SplitStatements("   \n\t  "))
		assert.Empty(t, SplitStatements(";;;"))
	})

	t.Run("末尾无分号的片段保留", func(t *testing.T) {
		statements := SplitStatements("INSERT INTO t VALUES (1); SELECT * FROM t")

		assert.Equal(t, []string{"INSERT INTO t VALUES (1)", "SELECT * FROM t"}, statements)
	})

	t.Run("语句前后空白被修剪", func(t *testing.T) {
		statements := SplitStatements("  SELECT 1 ;\n  SELECT 2  \n")

		assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, statements)
	})

	t.Run("未闭合字符串吞掉剩余文本", func(t *testing.T) {
		statements := SplitStatements("SELECT 'unterminated; SELECT 2")

		assert.Equal(t, []string{"SELECT 'unterminated; SELECT 2"}, statements)
	})
}
