package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// pgCodeQueryCanceled PostgreSQL的query_canceled错误码
// 带外取消信号生效后，执行中的语句以此错误码失败
const pgCodeQueryCanceled = "57014"

// QueryExecutor SQL执行器
// 在专用池连接上事务性地执行多语句SQL：获取连接、开启事务、
// 可选设置search_path、逐条执行语句、规范化最后一条语句的结果集。
// 整个执行期间持有同一个物理连接，保证事务状态一致
type QueryExecutor struct {
	// 核心组件
	connections *ConnectionRegistry      // 连接池注册表
	active      *ActiveExecutionRegistry // 活跃执行注册表
	logger      *zap.Logger              // 日志器

	// 配置参数
	queryTimeout time.Duration // 单次执行超时时间
}

// QueryExecutorConfig SQL执行器配置
type QueryExecutorConfig struct {
	QueryTimeout time.Duration `json:"query_timeout"` // 执行超时时间，默认30秒
}

// NewQueryExecutor 创建SQL执行器
func NewQueryExecutor(connections *ConnectionRegistry, active *ActiveExecutionRegistry, logger *zap.Logger) *QueryExecutor {
	return NewQueryExecutorWithConfig(connections, active, nil, logger)
}

// NewQueryExecutorWithConfig 使用自定义配置创建SQL执行器
func NewQueryExecutorWithConfig(
	connections *ConnectionRegistry,
	active *ActiveExecutionRegistry,
	cfg *QueryExecutorConfig,
	logger *zap.Logger,
) *QueryExecutor {
	if cfg == nil {
		cfg = &QueryExecutorConfig{}
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &QueryExecutor{
		connections:  connections,
		active:       active,
		logger:       logger,
		queryTimeout: cfg.QueryTimeout,
	}
}

// Run 执行一次SQL请求
// sql可以包含多条分号分隔的语句，全部在一个事务内按序执行；
// 任一语句失败则回滚并返回ErrQueryFailed，不再执行后续语句。
// 只有最后一条语句的结果集会返回给调用方。
// schema非空时在用户语句前设置事务级search_path。
// executionID为空时自动生成；执行期间注册在活跃执行表中，
// 支持语句间的协作式取消和语句中的带外取消。
// 执行ID已有正在进行的执行时返回ErrExecutionConflict
func (e *QueryExecutor) Run(
	ctx context.Context,
	connectionID string,
	sql string,
	params []any,
	schema string,
	executionID string,
) (*QueryResult, error) {
	pool, err := e.connections.Pool(connectionID)
	if err != nil {
		return nil, err
	}

	if executionID == "" {
		executionID = uuid.NewString()
	}

	e.logger.Info("开始执行SQL",
		zap.String("connection_id", connectionID),
		zap.String("execution_id", executionID),
		zap.String("schema", schema))

	runCtx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	// 整个执行持有同一个物理连接，事务状态才是一致的
	conn, err := pool.Acquire(runCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: 获取连接失败: %v", ErrQueryFailed, err)
	}
	defer conn.Release()

	start := time.Now()

	tx, err := conn.Begin(runCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: 开启事务失败: %v", ErrQueryFailed, err)
	}

	// 注册取消句柄；defer保证语句循环中途崩溃也会释放执行ID。
	// 同一执行ID的并发执行直接拒绝，否则先完成执行的注销会误删
	// 后注册执行的条目
	if !e.active.Register(executionID, conn.Conn().PgConn()) {
		_ = tx.Rollback(runCtx)
		return nil, fmt.Errorf("%w: %s", ErrExecutionConflict, executionID)
	}
	defer e.active.Unregister(executionID)

	if schema != "" {
		// 事务级search_path，随事务结束失效，不会泄漏回连接池
		if _, err := tx.Exec(runCtx, "SELECT set_config('search_path', $1, true)", schema); err != nil {
			_ = tx.Rollback(runCtx)
			return nil, fmt.Errorf("%w: 设置search_path失败: %v", ErrQueryFailed, err)
		}
	}

	statements := SplitStatements(sql)

	var lastFields []FieldDescriptor
	var lastRows [][]any

	for _, stmt := range statements {
		// 语句间的协作式取消检查
		if !e.active.Active(executionID) {
			_ = tx.Rollback(runCtx)
			e.logger.Info("查询在语句间被取消",
				zap.String("execution_id", executionID))
			return nil, fmt.Errorf("%w: %s", ErrQueryCancelled, executionID)
		}

		fields, rows, err := e.runStatement(runCtx, tx, stmt, params)
		if err != nil {
			_ = tx.Rollback(runCtx)
			e.logger.Error("SQL语句执行失败",
				zap.String("connection_id", connectionID),
				zap.String("execution_id", executionID),
				zap.Error(err))
			return nil, e.wrapStatementError(err)
		}

		lastFields, lastRows = fields, rows
	}

	// 统计口径：从BEGIN之前到最后一条语句完成，不含结果重塑
	executionTime := int32(time.Since(start).Milliseconds())

	if err := tx.Commit(runCtx); err != nil {
		return nil, fmt.Errorf("%w: 提交事务失败: %v", ErrQueryFailed, err)
	}

	result := e.buildResult(lastFields, lastRows, executionTime)

	e.logger.Info("SQL执行成功",
		zap.String("connection_id", connectionID),
		zap.String("execution_id", executionID),
		zap.Int("statement_count", len(statements)),
		zap.Int32("row_count", result.RowCount),
		zap.Int32("execution_time", result.ExecutionTime))

	return result, nil
}

// runStatement 在事务内执行单条语句，按位置（数组）形式读取行
// 必须用位置形式而不是按名称映射：SELECT * 跨JOIN时重名列会导致
// 按名称映射悄悄丢值，这是实际出现过的故障模式
func (e *QueryExecutor) runStatement(ctx context.Context, tx pgx.Tx, stmt string, params []any) ([]FieldDescriptor, [][]any, error) {
	rows, err := tx.Query(ctx, stmt, params...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	descs := rows.FieldDescriptions()
	fields := make([]FieldDescriptor, len(descs))
	for i, desc := range descs {
		fields[i] = FieldDescriptor{
			Name:        desc.Name,
			DataTypeOID: desc.DataTypeOID,
		}
	}

	var values [][]any
	for rows.Next() {
		rowValues, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		values = append(values, rowValues)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return fields, values, nil
}

// buildResult 消歧字段名并把位置行重建为命名行对象
func (e *QueryExecutor) buildResult(fields []FieldDescriptor, positionalRows [][]any, executionTime int32) *QueryResult {
	disambiguated := DisambiguateFields(fields)

	rows := make([]map[string]any, len(positionalRows))
	for i, values := range positionalRows {
		row := make(map[string]any, len(disambiguated))
		for j, field := range disambiguated {
			if j < len(values) {
				row[field.Name] = values[j]
			}
		}
		rows[i] = row
	}

	return &QueryResult{
		Fields:        disambiguated,
		Rows:          rows,
		RowCount:      int32(len(rows)),
		ExecutionTime: executionTime,
	}
}

// wrapStatementError 把驱动错误映射为类型化错误
// 带外取消生效后语句以57014失败，归类为ErrQueryCancelled；
// 其余一律归类为ErrQueryFailed并携带底层错误信息
func (e *QueryExecutor) wrapStatementError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgCodeQueryCanceled {
			return fmt.Errorf("%w: %s", ErrQueryCancelled, pgErr.Message)
		}
		return fmt.Errorf("%w: [%s] %s", ErrQueryFailed, pgErr.Code, pgErr.Message)
	}
	return fmt.Errorf("%w: %v", ErrQueryFailed, err)
}

// CancelQuery 取消指定执行
// 注册表中存在该执行ID时发送带外取消并移除条目，返回true；
// 未知或已完成的执行ID返回false，从不抛出错误。
// 取消信号本身失败也会移除条目，不会让执行ID卡在注册表里
func (e *QueryExecutor) CancelQuery(ctx context.Context, executionID string) bool {
	cancelled := e.active.Cancel(ctx, executionID)

	e.logger.Info("收到查询取消请求",
		zap.String("execution_id", executionID),
		zap.Bool("cancelled", cancelled))

	return cancelled
}
