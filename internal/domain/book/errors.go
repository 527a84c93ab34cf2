package book

import (
	"fmt"
	"strings"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 图书领域错误定义
// 提示信息直接展示在页面flash中，使用英文
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "Book not found")

	// ErrISBNDuplicate ISBN已存在
	ErrISBNDuplicate = apperrors.New(apperrors.ErrCodeISBNDuplicate, "ISBN already exists")
)

// NotFoundError 带ID的图书不存在错误（errors.Is(err, ErrBookNotFound)成立）
func NotFoundError(id uint) error {
	return ErrBookNotFound.WithMessage(fmt.Sprintf("Book not found with id: %d", id))
}

// DuplicateISBNError 带ISBN的重复错误（errors.Is(err, ErrISBNDuplicate)成立）
func DuplicateISBNError(isbn string) error {
	return ErrISBNDuplicate.WithMessage(fmt.Sprintf("Book with ISBN %s already exists", isbn))
}

// FieldError 单个字段的校验失败
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 字段校验错误
// Unwrap到apperrors.ErrInvalidParams，响应层可以按错误码统一处理
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Unwrap 支持errors.Is(err, apperrors.ErrInvalidParams)
func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidParams.WithMessage(e.Error())
}
