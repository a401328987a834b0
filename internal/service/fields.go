package service

import "fmt"

// DisambiguateFields 对结果集字段名去重
// 无限定的 SELECT * FROM a JOIN b 会产生重名列，按名称映射行数据时
// 后出现的值会覆盖先出现的值，因此必须在位置到名称的转换前消歧。
// 规则：按首次出现顺序为每个名称计数（区分大小写），首次出现保持原名，
// 第k次重复重命名为 <name>_<k>。对已唯一的输入是恒等操作
func DisambiguateFields(fields []FieldDescriptor) []FieldDescriptor {
	seen := make(map[string]int, len(fields))
	result := make([]FieldDescriptor, len(fields))

	for i, field := range fields {
		count := seen[field.Name]
		seen[field.Name] = count + 1

		if count > 0 {
			field.Name = fmt.Sprintf("%s_%d", field.Name, count)
		}
		result[i] = field
	}

	return result
}
