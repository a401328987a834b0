package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CancelSignaler 带外取消信号的最小接口
// *pgconn.PgConn实现了此接口：CancelRequest通过独立连接向后端
// 发送携带进程ID和secret key的取消请求，而不是简单关闭socket
type CancelSignaler interface {
	CancelRequest(ctx context.Context) error
}

// ActiveExecutionRegistry 活跃执行注册表
// 执行ID到可取消句柄的并发映射，支持带外取消正在执行的查询。
// 所有操作都是O(1)且在单个互斥锁下原子完成，争用预期很低
type ActiveExecutionRegistry struct {
	mu      sync.Mutex
	entries map[string]CancelSignaler
	logger  *zap.Logger

	cancelTimeout time.Duration // 取消信号发送超时
}

// NewActiveExecutionRegistry 创建活跃执行注册表
func NewActiveExecutionRegistry(logger *zap.Logger) *ActiveExecutionRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ActiveExecutionRegistry{
		entries:       make(map[string]CancelSignaler),
		logger:        logger,
		cancelTimeout: 5 * time.Second,
	}
}

// Register 注册执行ID及其取消句柄
// 执行ID在整个语句循环期间保持注册，由执行器的defer路径保证注销。
// 同一执行ID同时最多存在一个条目：ID已被占用时拒绝注册并返回false，
// 覆盖旧句柄会让先注册执行的注销误删后注册执行的条目
func (r *ActiveExecutionRegistry) Register(executionID string, handle CancelSignaler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[executionID]; exists {
		return false
	}

	r.entries[executionID] = handle
	return true
}

// Unregister 注销执行ID
// 幂等操作，完成、失败、取消路径都会调用
func (r *ActiveExecutionRegistry) Unregister(executionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, executionID)
}

// Active 检查执行ID是否仍在注册表中
// 执行器在每条语句开始前检查，实现语句粒度的协作式取消
func (r *ActiveExecutionRegistry) Active(executionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.entries[executionID]
	return ok
}

// Count 返回当前活跃执行数量（用于监控指标）
func (r *ActiveExecutionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Cancel 取消指定执行
// 存在对应条目时发送带外取消信号并返回true，否则返回false。
// 无论信号是否发送成功，条目都会被移除——取消是尽力而为的，
// 信号失败只记录日志，语句自身的最终结果才是权威结论
func (r *ActiveExecutionRegistry) Cancel(ctx context.Context, executionID string) bool {
	r.mu.Lock()
	handle, ok := r.entries[executionID]
	if ok {
		delete(r.entries, executionID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	cancelCtx, cancel := context.WithTimeout(ctx, r.cancelTimeout)
	defer cancel()

	if err := handle.CancelRequest(cancelCtx); err != nil {
		r.logger.Warn("发送查询取消信号失败",
			zap.String("execution_id", executionID),
			zap.Error(err))
	} else {
		r.logger.Info("已发送查询取消信号",
			zap.String("execution_id", executionID))
	}

	return true
}
