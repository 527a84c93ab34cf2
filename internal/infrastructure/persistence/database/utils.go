package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateError 判断是否为唯一索引冲突错误
// 开启TranslateError后各驱动都会返回gorm.ErrDuplicatedKey，
// 这里保留按错误信息的兼容判断：
// - MySQL 1062:    Duplicate entry 'xxx' for key 'yyy'
// - SQLite:        UNIQUE constraint failed: books.isbn
// - PostgreSQL:    duplicate key value violates unique constraint
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// likeEscapeChar LIKE转义字符
// 三种方言默认转义规则不同（SQLite没有默认转义符），统一显式使用ESCAPE '!'
const likeEscapeChar = "!"

var likeEscaper = strings.NewReplacer(
	likeEscapeChar, likeEscapeChar+likeEscapeChar,
	"%", likeEscapeChar+"%",
	"_", likeEscapeChar+"_",
)

// containsPattern 构造忽略大小写的子串匹配模式
// 用户输入中的%和_按字面量处理
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"
}
