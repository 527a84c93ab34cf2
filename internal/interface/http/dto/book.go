package dto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xiebiao/library/internal/domain/book"
)

// BookRequest JSON API的新增/更新请求
// 必填规则由book.Validate统一校验，这里只限制长度（与数据库列宽一致）
// publicationYear/quantity使用指针区分"未传"和"0"
type BookRequest struct {
	Title           string `json:"title" binding:"max=255" example:"Dune"`
	Author          string `json:"author" binding:"max=255" example:"Frank Herbert"`
	ISBN            string `json:"isbn" binding:"max=32" example:"9780441013593"`
	PublicationYear *int   `json:"publicationYear" example:"1965"`
	Quantity        *int   `json:"quantity" example:"1"` // 不传时默认为1
}

// ToEntity 转换为领域实体
func (r *BookRequest) ToEntity() *book.Book {
	year := 0
	if r.PublicationYear != nil {
		year = *r.PublicationYear
	}
	quantity := book.DefaultQuantity
	if r.Quantity != nil {
		quantity = *r.Quantity
	}
	return book.NewBook(r.Title, r.Author, r.ISBN, year, quantity)
}

// BookForm 页面表单
// 数字字段按字符串接收：空值表示未填写，非数字给出字段错误
type BookForm struct {
	Title           string `form:"title" binding:"max=255"`
	Author          string `form:"author" binding:"max=255"`
	ISBN            string `form:"isbn" binding:"max=32"`
	PublicationYear string `form:"publicationYear"`
	Quantity        string `form:"quantity"`
}

// ToEntity 转换为领域实体
func (f *BookForm) ToEntity() (*book.Book, error) {
	var fields []book.FieldError

	year, err := parseOptionalInt(f.PublicationYear)
	if err != nil {
		fields = append(fields, book.FieldError{Field: "publication_year", Message: "Publication year must be a number"})
	}
	quantity := book.DefaultQuantity
	if strings.TrimSpace(f.Quantity) != "" {
		q, err := parseOptionalInt(f.Quantity)
		if err != nil {
			fields = append(fields, book.FieldError{Field: "quantity", Message: "Quantity must be a number"})
		}
		quantity = q
	}
	if len(fields) > 0 {
		return nil, &book.ValidationError{Fields: fields}
	}

	return book.NewBook(f.Title, f.Author, f.ISBN, year, quantity), nil
}

// FromEntity 用已有图书填充表单（编辑页）
func FromEntity(b *book.Book) BookForm {
	return BookForm{
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		PublicationYear: strconv.Itoa(b.PublicationYear),
		Quantity:        strconv.Itoa(b.Quantity),
	}
}

func parseOptionalInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// BookResponse 图书响应（字段名沿用原有JSON格式）
type BookResponse struct {
	ID              uint   `json:"id" example:"1"`
	Title           string `json:"title" example:"Dune"`
	Author          string `json:"author" example:"Frank Herbert"`
	ISBN            string `json:"isbn" example:"9780441013593"`
	PublicationYear int    `json:"publicationYear" example:"1965"`
	Quantity        int    `json:"quantity" example:"1"`
}

// NewBookResponse 领域实体 → 响应
func NewBookResponse(b *book.Book) BookResponse {
	return BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		PublicationYear: b.PublicationYear,
		Quantity:        b.Quantity,
	}
}

// NewBookListResponse 列表响应，空列表序列化为[]
func NewBookListResponse(books []*book.Book) []BookResponse {
	list := make([]BookResponse, len(books))
	for i, b := range books {
		list[i] = NewBookResponse(b)
	}
	return list
}

// ListBooksQuery 列表过滤条件（互斥）
type ListBooksQuery struct {
	ISBN   string `form:"isbn" example:"9780441013593"`
	Author string `form:"author" example:"Frank Herbert"`
	Title  string `form:"title" example:"dune"`
}

// fieldNames 结构体字段 → 错误提示中的字段名
var fieldNames = map[string]struct{ key, label string }{
	"Title":  {"title", "Title"},
	"Author": {"author", "Author"},
	"ISBN":   {"isbn", "ISBN"},
}

// BindError 将gin绑定错误转换为领域校验错误
// validator的字段错误逐条转换，其他错误（如JSON格式错误）返回ErrMalformedRequest
func BindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrMalformedRequest
	}

	fields := make([]book.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		name, ok := fieldNames[fe.StructField()]
		if !ok {
			name.key, name.label = strings.ToLower(fe.StructField()), fe.StructField()
		}
		msg := fmt.Sprintf("%s is invalid", name.label)
		if fe.Tag() == "max" {
			msg = fmt.Sprintf("%s must be at most %s characters", name.label, fe.Param())
		}
		fields = append(fields, book.FieldError{Field: name.key, Message: msg})
	}
	return &book.ValidationError{Fields: fields}
}
