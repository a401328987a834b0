package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDisambiguateFields 测试结果集字段名消歧
func TestDisambiguateFields(t *testing.T) {
	t.Run("唯一字段名保持不变", func(t *testing.T) {
		fields := []FieldDescriptor{
			{Name: "id", DataTypeOID: 23},
			{Name: "name", DataTypeOID: 25},
		}

		result := DisambiguateFields(fields)

		assert.Equal(t, fields, result)
	})

	t.Run("重名字段按首次出现顺序编号", func(t *testing.T) {
		fields := []FieldDescriptor{
			{Name: "id"},
			{Name: "name"},
			{Name: "id"},
			{Name: "id"},
		}

		result := DisambiguateFields(fields)

		assert.Equal(t, "id", result[0].Name)
		assert.Equal(t, "name", result[1].Name)
		assert.Equal(t, "id_1", result[2].Name)
		assert.Equal(t, "id_2", result[3].Name)
	})

	t.Run("消歧后所有名称唯一", func(t *testing.T) {
		fields := []FieldDescriptor{
			{Name: "a"}, {Name: "a"}, {Name: "b"}, {Name: "a"}, {Name: "b"},
		}

		result := DisambiguateFields(fields)

		seen := make(map[string]bool)
		for _, f := range result {
			assert.False(t, seen[f.Name], "字段名 %s 重复", f.Name)
			seen[f.Name] = true
		}
	})

	t.Run("名称区分大小写", func(t *testing.T) {
		fields := []FieldDescriptor{
			{Name: "ID"},
			{Name: "id"},
		}

		result := DisambiguateFields(fields)

		assert.Equal(t, "ID", result[0].Name)
		assert.Equal(t, "id", result[1].Name)
	})

	t.Run("类型OID跟随字段保留", func(t *testing.T) {
		fields := []FieldDescriptor{
			{Name: "id", DataTypeOID: 23},
			{Name: "id", DataTypeOID: 25},
		}

		result := DisambiguateFields(fields)

		assert.Equal(t, uint32(23), result[0].DataTypeOID)
		assert.Equal(t, uint32(25), result[1].DataTypeOID)
	})

	t.Run("不修改输入切片", func(t *testing.T) {
		fields := []FieldDescriptor{
			{Name: "id"},
			{Name: "id"},
		}

		_ = DisambiguateFields(fields)

		assert.Equal(t, "id", fields[1].Name)
	})

	t.Run("空输入返回空结果", func(t *testing.T) {
		assert.Empty(t, DisambiguateFields(nil))
	})
}
