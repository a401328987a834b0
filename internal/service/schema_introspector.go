package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SchemaIntrospector 数据库Schema探测器
// 通过information_schema元数据目录提供三条只读探测路径：
// schema/表枚举、单表详情、整个schema的批量详情。
// 全部经由QueryExecutor执行，继承其事务、注册表和取消语义。
// 每次调用都重新计算快照，不做任何缓存
type SchemaIntrospector struct {
	executor *QueryExecutor // SQL执行器
	logger   *zap.Logger    // 日志器
}

// NewSchemaIntrospector 创建Schema探测器
func NewSchemaIntrospector(executor *QueryExecutor, logger *zap.Logger) *SchemaIntrospector {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SchemaIntrospector{
		executor: executor,
		logger:   logger,
	}
}

// listSchemasSQL 枚举基础表的schema+表名对，排除系统schema
const listSchemasSQL = `
	SELECT table_schema, table_name
	FROM information_schema.tables
	WHERE table_type = 'BASE TABLE'
	  AND table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
	ORDER BY table_schema, table_name
`

// describeTableSQL 单表的列级详情
// 主键/外键标志通过对constraint/key-usage目录的左连接一次算出，
// 避免第二次往返
const describeTableSQL = `
	SELECT
		c.column_name,
		c.data_type,
		CASE WHEN c.is_nullable = 'YES' THEN true ELSE false END AS is_nullable,
		c.column_default,
		c.ordinal_position,
		CASE WHEN pk.column_name IS NOT NULL THEN true ELSE false END AS is_primary_key,
		CASE WHEN fk.column_name IS NOT NULL THEN true ELSE false END AS is_foreign_key
	FROM information_schema.columns c
	LEFT JOIN (
		SELECT ku.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage ku
			ON tc.constraint_name = ku.constraint_name
			AND tc.table_schema = ku.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
	) pk ON c.column_name = pk.column_name
	LEFT JOIN (
		SELECT ku.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage ku
			ON tc.constraint_name = ku.constraint_name
			AND tc.table_schema = ku.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
	) fk ON c.column_name = fk.column_name
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position
`

// describeSchemaSQL 一个schema内全部基础表的列级详情（单次查询）
// 结果在客户端按表名分组，保留每个表内的ordinal顺序
const describeSchemaSQL = `
	SELECT
		c.table_name,
		c.column_name,
		c.data_type,
		CASE WHEN c.is_nullable = 'YES' THEN true ELSE false END AS is_nullable,
		c.column_default,
		c.ordinal_position,
		CASE WHEN pk.column_name IS NOT NULL THEN true ELSE false END AS is_primary_key,
		CASE WHEN fk.column_name IS NOT NULL THEN true ELSE false END AS is_foreign_key
	FROM information_schema.columns c
	JOIN information_schema.tables t
		ON t.table_schema = c.table_schema
		AND t.table_name = c.table_name
		AND t.table_type = 'BASE TABLE'
	LEFT JOIN (
		SELECT ku.table_name, ku.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage ku
			ON tc.constraint_name = ku.constraint_name
			AND tc.table_schema = ku.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
	) pk ON c.table_name = pk.table_name AND c.column_name = pk.column_name
	LEFT JOIN (
		SELECT ku.table_name, ku.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage ku
			ON tc.constraint_name = ku.constraint_name
			AND tc.table_schema = ku.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
	) fk ON c.table_name = fk.table_name AND c.column_name = fk.column_name
	WHERE c.table_schema = $1
	ORDER BY c.table_name, c.ordinal_position
`

// ListSchemas 枚举schema和基础表
// 返回的SchemaInfo只有表名，列信息留待DescribeTable/DescribeSchema懒加载
func (si *SchemaIntrospector) ListSchemas(ctx context.Context, connectionID string) ([]SchemaInfo, error) {
	result, err := si.executor.Run(ctx, connectionID, listSchemasSQL, nil, "", "")
	if err != nil {
		return nil, fmt.Errorf("枚举schema失败: %w", err)
	}

	var schemas []SchemaInfo
	var current *SchemaInfo

	for _, row := range result.Rows {
		schemaName := stringValue(row["table_schema"])
		tableName := stringValue(row["table_name"])

		if current == nil || current.SchemaName != schemaName {
			schemas = append(schemas, SchemaInfo{SchemaName: schemaName})
			current = &schemas[len(schemas)-1]
		}

		current.Tables = append(current.Tables, TableInfo{
			SchemaName: schemaName,
			TableName:  tableName,
		})
	}

	si.logger.Info("枚举schema完成",
		zap.String("connection_id", connectionID),
		zap.Int("schema_count", len(schemas)))

	return schemas, nil
}

// DescribeTable 探测单个表的列级结构
// 列按ordinal_position排序，携带可空性、默认值和主键/外键标志
func (si *SchemaIntrospector) DescribeTable(ctx context.Context, connectionID, schema, table string) (*TableInfo, error) {
	result, err := si.executor.Run(ctx, connectionID, describeTableSQL, []any{schema, table}, "", "")
	if err != nil {
		return nil, fmt.Errorf("探测表结构失败: %w", err)
	}

	tableInfo := &TableInfo{
		SchemaName: schema,
		TableName:  table,
	}

	for _, row := range result.Rows {
		tableInfo.Columns = append(tableInfo.Columns, columnFromRow(row))
	}

	return tableInfo, nil
}

// DescribeSchema 一次查询探测整个schema的全部基础表
// 客户端按表名分组，保留每个表内的ordinal顺序
func (si *SchemaIntrospector) DescribeSchema(ctx context.Context, connectionID, schema string) ([]TableInfo, error) {
	result, err := si.executor.Run(ctx, connectionID, describeSchemaSQL, []any{schema}, "", "")
	if err != nil {
		return nil, fmt.Errorf("探测schema结构失败: %w", err)
	}

	var tables []TableInfo
	var current *TableInfo

	for _, row := range result.Rows {
		tableName := stringValue(row["table_name"])

		if current == nil || current.TableName != tableName {
			tables = append(tables, TableInfo{
				SchemaName: schema,
				TableName:  tableName,
			})
			current = &tables[len(tables)-1]
		}

		current.Columns = append(current.Columns, columnFromRow(row))
	}

	si.logger.Info("探测schema结构完成",
		zap.String("connection_id", connectionID),
		zap.String("schema", schema),
		zap.Int("table_count", len(tables)))

	return tables, nil
}

// columnFromRow 从结果行提取列信息
func columnFromRow(row map[string]any) ColumnInfo {
	col := ColumnInfo{
		ColumnName:      stringValue(row["column_name"]),
		DataType:        stringValue(row["data_type"]),
		IsNullable:      boolValue(row["is_nullable"]),
		IsPrimaryKey:    boolValue(row["is_primary_key"]),
		IsForeignKey:    boolValue(row["is_foreign_key"]),
		OrdinalPosition: int32Value(row["ordinal_position"]),
	}

	if row["column_default"] != nil {
		def := stringValue(row["column_default"])
		col.ColumnDefault = &def
	}

	return col
}

// 结果行值的类型收敛辅助函数
// QueryExecutor的行值是驱动解码后的any，目录查询只会出现
// 字符串、布尔和整数三类

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func boolValue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func int32Value(v any) int32 {
	switch n := v.(type) {
	case int32:
		return n
	case int64:
		return int32(n)
	case int:
		return int32(n)
	default:
		return 0
	}
}
