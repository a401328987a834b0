package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeCancelSignaler 记录取消调用的测试句柄
type fakeCancelSignaler struct {
	mu     sync.Mutex
	calls  int
	result error
}

func (f *fakeCancelSignaler) CancelRequest(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	return f.result
}

func (f *fakeCancelSignaler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

// TestActiveExecutionRegistry 测试活跃执行注册表
func TestActiveExecutionRegistry(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("注册后可见，注销后不可见", func(t *testing.T) {
		registry := NewActiveExecutionRegistry(logger)
		handle := &fakeCancelSignaler{}

		assert.True(t, registry.Register("exec-1", handle))
		assert.True(t, registry.Active("exec-1"))
		assert.Equal(t, 1, registry.Count())

		registry.Unregister("exec-1")
		assert.False(t, registry.Active("exec-1"))
		assert.Equal(t, 0, registry.Count())
	})

	t.Run("重复注册同一执行ID被拒绝", func(t *testing.T) {
		registry := NewActiveExecutionRegistry(logger)
		first := &fakeCancelSignaler{}
		second := &fakeCancelSignaler{}

		assert.True(t, registry.Register("exec-1", first))
		assert.False(t, registry.Register("exec-1", second))

		// 第一个执行的句柄仍然有效，取消信号发给它
		assert.True(t, registry.Cancel(ctx, "exec-1"))
		assert.Equal(t, 1, first.callCount())
		assert.Equal(t, 0, second.callCount())
	})

	t.Run("拒绝注册不影响已有条目的注销", func(t *testing.T) {
		registry := NewActiveExecutionRegistry(logger)
		first := &fakeCancelSignaler{}

		assert.True(t, registry.Register("exec-1", first))
		assert.False(t, registry.Register("exec-1", &fakeCancelSignaler{}))

		// 单次注销恰好移除唯一条目，不会出现误删另一个执行的情况
		registry.Unregister("exec-1")
		assert.False(t, registry.Active("exec-1"))
		assert.True(t, registry.Register("exec-1", first))
	})

	t.Run("注销是幂等的", func(t *testing.T) {
		registry := NewActiveExecutionRegistry(logger)

		registry.Unregister("never-registered")
		registry.Unregister("never-registered")

		assert.Equal(t, 0, registry.Count())
	})

	t.Run("取消未知执行ID返回false", func(t *testing.T) {
		registry := NewActiveExecutionRegistry(logger)

		assert.False(t, registry.Cancel(ctx, "unknown"))
	})

	t.Run("取消已注册执行发送信号并移除条目", func(t *testing.T) {
		registry := NewActiveExecutionRegistry(logger)
		handle := &fakeCancelSignaler{}
		registry.Register("exec-1", handle)

		cancelled := registry.Cancel(ctx, "exec-1")

		assert.True(t, cancelled)
		assert.Equal(t, 1, handle.callCount())
		assert.False(t, registry.Active("exec-1"))
	})

	t.Run("重复取消同一执行ID第二次返回false", func(t *testing.T) {
		registry := NewActiveExecutionRegistry(logger)
		handle := &fakeCancelSignaler{}
		registry.Register("exec-1", handle)

		assert.True(t, registry.Cancel(ctx, "exec-1"))
		assert.False(t, registry.Cancel(ctx, "exec-1"))
		assert.Equal(t, 1, handle.callCount())
	})

	t.Run("取消信号失败仍返回true并移除条目", func(t *testing.T) {
		registry := NewActiveExecutionRegistry(logger)
		handle := &fakeCancelSignaler{result: errors.New("网络中断")}
		registry.Register("exec-1", handle)

		cancelled := registry.Cancel(ctx, "exec-1")

		assert.True(t, cancelled)
		assert.False(t, registry.Active("exec-1"))
	})

	t.Run("并发注册注销保持一致", func(t *testing.T) {
		registry := NewActiveExecutionRegistry(logger)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()

				id := fmt.Sprintf("exec-%d", n)
				registry.Register(id, &fakeCancelSignaler{})
				assert.True(t, registry.Active(id))
				registry.Unregister(id)
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 0, registry.Count())
	})

	t.Run("并发取消同一执行ID只有一个成功", func(t *testing.T) {
		registry := NewActiveExecutionRegistry(logger)
		handle := &fakeCancelSignaler{}
		registry.Register("exec-1", handle)

		var wg sync.WaitGroup
		results := make([]bool, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				results[n] = registry.Cancel(ctx, "exec-1")
			}(i)
		}
		wg.Wait()

		successCount := 0
		for _, ok := range results {
			if ok {
				successCount++
			}
		}
		assert.Equal(t, 1, successCount)
		assert.Equal(t, 1, handle.callCount())
	})
}
