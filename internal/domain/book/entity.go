package book

import (
	"strings"
	"time"
)

// DefaultQuantity 未指定馆藏数量时的默认值
const DefaultQuantity = 1

// Book 图书实体（聚合根）
// 设计说明：
// 1. ID是存储层分配的代理键，首次保存前为0，保存后不再变化
// 2. ISBN作为业务唯一标识（服务层检查 + 数据库唯一索引双重保证）
// 3. Quantity是馆藏数量，允许为0
type Book struct {
	ID              uint
	Title           string // 书名
	Author          string // 作者
	ISBN            string // ISBN号
	PublicationYear int    // 出版年份
	Quantity        int    // 馆藏数量
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewBook 创建新图书（工厂方法）
func NewBook(title, author, isbn string, publicationYear, quantity int) *Book {
	return &Book{
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		PublicationYear: publicationYear,
		Quantity:        quantity,
	}
}

// IsNew 是否尚未持久化
func (b *Book) IsNew() bool {
	return b.ID == 0
}

// Overwrite 用新数据整体覆盖可编辑字段
// 业务规则：ID与创建时间保持不变，其余字段全部以payload为准（不做部分更新）
func (b *Book) Overwrite(data *Book) {
	b.Title = data.Title
	b.Author = data.Author
	b.ISBN = data.ISBN
	b.PublicationYear = data.PublicationYear
	b.Quantity = data.Quantity
	b.UpdatedAt = time.Now()
}

// Clone 返回副本
// 内存仓储和缓存返回副本，调用方修改实体不会影响已存储的数据
func (b *Book) Clone() *Book {
	c := *b
	return &c
}

// Validate 保存前的字段校验
// 必填字段：title、author、isbn（不能为空白），publication_year（不能缺失）
func (b *Book) Validate() error {
	var fields []FieldError
	if strings.TrimSpace(b.Title) == "" {
		fields = append(fields, FieldError{Field: "title", Message: "Title is required"})
	}
	if strings.TrimSpace(b.Author) == "" {
		fields = append(fields, FieldError{Field: "author", Message: "Author is required"})
	}
	if strings.TrimSpace(b.ISBN) == "" {
		fields = append(fields, FieldError{Field: "isbn", Message: "ISBN is required"})
	}
	if b.PublicationYear == 0 {
		fields = append(fields, FieldError{Field: "publication_year", Message: "Publication year is required"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
