package service

import "strings"

// SplitStatements 将原始SQL文本拆分为有序的语句列表
// 单次从左到右扫描，只维护两个状态：普通状态和字符串内状态。
// 字符串外的分号是语句边界；字符串内的连续两个引号（'' 或 ""）
// 是转义的字面引号，需要向前看一个字符再决定是否退出字符串状态。
// 纯空白片段被丢弃；末尾没有分号的非空片段作为最后一条语句保留。
//
// 已知限制：扫描器不理解SQL注释（-- 和 /* */）和美元引用字符串，
// 出现在其中的分号会被错误地当作语句边界
func SplitStatements(sql string) []string {
	var statements []string
	var inString bool
	var quote byte

	start := 0
	for i := 0; i < len(sql); i++ {
		c := sql[i]

		if inString {
			if c == quote {
				if i+1 < len(sql) && sql[i+1] == quote {
					// 转义引号，跳过第二个引号字符
					i++
					continue
				}
				inString = false
			}
			continue
		}

		switch c {
		case '\'', '"':
			inString = true
			quote = c
		case ';':
			if stmt := strings.TrimSpace(sql[start:i]); stmt != "" {
				statements = append(statements, stmt)
			}
			start = i + 1
		}
	}

	// 末尾未终止的片段
	if stmt := strings.TrimSpace(sql[start:]); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}
