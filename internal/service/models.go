package service

// 核心数据模型
// 连接配置由调用方持有，本层只在connect时接收一次，不做任何持久化

// ConnectionProfile 数据库连接配置
// Secret（密码）不属于Profile，由外部凭据存储解析后单独传入
type ConnectionProfile struct {
	ID             string `json:"id"`              // 逻辑连接ID，由调用方指定
	Host           string `json:"host"`            // 数据库主机地址
	Port           int    `json:"port"`            // 数据库端口
	Database       string `json:"database"`        // 数据库名称
	Username       string `json:"username"`        // 数据库用户名
	SSLMode        string `json:"ssl_mode"`        // SSL模式，默认prefer
	MaxConnections int32  `json:"max_connections"` // 连接池大小提示，默认10
}

// ConnectResult 连接建立结果
// 探活失败不抛出错误，而是把错误信息作为数据返回，
// 调用方即使失败也需要ConnectionID做UI关联
type ConnectResult struct {
	ConnectionID string `json:"connection_id"`   // 连接ID（成功或失败都返回）
	Error        string `json:"error,omitempty"` // 探活失败时的错误信息
}

// FieldDescriptor 结果集字段描述
// 按结果集位置顺序排列，消歧后名称在单个结果集内唯一
type FieldDescriptor struct {
	Name        string `json:"name"`          // 字段名（消歧后）
	DataTypeOID uint32 `json:"data_type_oid"` // PostgreSQL类型OID
}

// QueryResult SQL查询结果
// 多语句执行时只保留最后一条语句的结果集，一旦构建完成即为只读
type QueryResult struct {
	Fields        []FieldDescriptor `json:"fields"`         // 字段描述（位置顺序）
	Rows          []map[string]any  `json:"rows"`           // 数据行（消歧后字段名 -> 值）
	RowCount      int32             `json:"row_count"`      // 行数
	ExecutionTime int32             `json:"execution_time"` // 执行时间(毫秒)
}

// SchemaInfo Schema信息
type SchemaInfo struct {
	SchemaName string      `json:"schema_name"` // Schema名称
	Tables     []TableInfo `json:"tables"`      // 表列表
}

// TableInfo 表信息
type TableInfo struct {
	SchemaName string       `json:"schema_name"` // Schema名称
	TableName  string       `json:"table_name"`  // 表名
	Columns    []ColumnInfo `json:"columns"`     // 列信息（按ordinal_position排序）
}

// ColumnInfo 列信息
type ColumnInfo struct {
	ColumnName      string  `json:"column_name"`      // 列名
	DataType        string  `json:"data_type"`        // 数据类型
	IsNullable      bool    `json:"is_nullable"`      // 是否可为空
	ColumnDefault   *string `json:"column_default"`   // 默认值表达式
	IsPrimaryKey    bool    `json:"is_primary_key"`   // 是否主键
	IsForeignKey    bool    `json:"is_foreign_key"`   // 是否外键
	OrdinalPosition int32   `json:"ordinal_position"` // 列位置
}
