package book

import (
	"context"
)

// Repository 图书仓储接口（依赖倒置原则）
// 设计说明：
// 1. 由domain层定义接口，infrastructure层实现（内存、GORM、Redis缓存装饰器）
// 2. 查询不到单条记录时统一返回ErrBookNotFound，列表查询返回空切片
// 3. 列表结果按ID升序（即插入顺序）
type Repository interface {
	// Save 保存图书
	// ID为0时插入并回填新ID，否则按ID整体覆盖已有记录
	Save(ctx context.Context, book *Book) (*Book, error)

	// FindByID 根据ID查找图书
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByISBN 根据ISBN精确查找
	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// FindByAuthor 根据作者精确查找
	FindByAuthor(ctx context.Context, author string) ([]*Book, error)

	// FindByTitleContains 书名子串查找（忽略大小写）
	FindByTitleContains(ctx context.Context, text string) ([]*Book, error)

	// FindAll 查询全部图书
	FindAll(ctx context.Context) ([]*Book, error)

	// Delete 删除图书（物理删除）
	Delete(ctx context.Context, book *Book) error
}
