package service

import "errors"

// 定义执行层的通用错误类型
// 除connect探活（以数据形式返回错误）外，所有失败都以类型化错误返回

var (
	// ErrConnectionNotFound 连接不存在错误
	// 当run/disconnect/cancel收到未注册的连接ID时返回此错误
	ErrConnectionNotFound = errors.New("数据库连接不存在")

	// ErrConnectionFailed 连接失败错误
	// 连接探活失败时使用，仅作为ConnectResult.Error的组成部分
	ErrConnectionFailed = errors.New("数据库连接失败")

	// ErrQueryFailed 查询执行失败错误
	// 任一语句执行失败时返回此错误，携带底层驱动错误信息，
	// 返回前事务已回滚
	ErrQueryFailed = errors.New("SQL执行失败")

	// ErrQueryCancelled 查询已取消错误
	// 语句循环开始时执行ID已不在注册表中，或语句被后端取消时返回此错误
	ErrQueryCancelled = errors.New("查询已取消")

	// ErrExecutionConflict 执行ID冲突错误
	// 调用方指定的执行ID已有正在进行的执行时返回此错误
	ErrExecutionConflict = errors.New("执行ID已被占用")
)

// IsConnectionNotFound 检查错误是否为连接不存在错误
func IsConnectionNotFound(err error) bool {
	return errors.Is(err, ErrConnectionNotFound)
}

// IsQueryFailed 检查错误是否为查询执行失败错误
func IsQueryFailed(err error) bool {
	return errors.Is(err, ErrQueryFailed)
}

// IsQueryCancelled 检查错误是否为查询已取消错误
func IsQueryCancelled(err error) bool {
	return errors.Is(err, ErrQueryCancelled)
}

// IsExecutionConflict 检查错误是否为执行ID冲突错误
func IsExecutionConflict(err error) bool {
	return errors.Is(err, ErrExecutionConflict)
}
