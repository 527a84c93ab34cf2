package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
)

// bookRepository 图书仓储实现（内存）
// 设计说明：
// 1. map按ID存储，另维护isbn→id索引，FindByISBN为O(1)
// 2. nextID只增不减，删除后ID不会被复用
// 3. 存取都做拷贝，调用方持有的实体与仓储内部数据互不影响
// 4. 进程重启数据丢失，适合开发与测试
type bookRepository struct {
	mu     sync.RWMutex
	books  map[uint]*book.Book
	isbns  map[string]uint
	nextID uint
}

// NewBookRepository 创建内存图书仓储
func NewBookRepository() book.Repository {
	return &bookRepository{
		books:  make(map[uint]*book.Book),
		isbns:  make(map[string]uint),
		nextID: 1,
	}
}

// Save 插入或整体覆盖
func (r *bookRepository) Save(_ context.Context, b *book.Book) (*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	// ISBN唯一约束（模拟数据库唯一索引）
	if ownerID, ok := r.isbns[b.ISBN]; ok && ownerID != b.ID {
		return nil, book.DuplicateISBNError(b.ISBN)
	}

	if b.IsNew() {
		b.ID = r.nextID
		r.nextID++
		b.CreatedAt = now
	} else {
		existing, ok := r.books[b.ID]
		if !ok {
			return nil, book.NotFoundError(b.ID)
		}
		// ISBN变更时移除旧索引
		if existing.ISBN != b.ISBN {
			delete(r.isbns, existing.ISBN)
		}
		b.CreatedAt = existing.CreatedAt
	}
	b.UpdatedAt = now

	r.books[b.ID] = b.Clone()
	r.isbns[b.ISBN] = b.ID

	return b, nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(_ context.Context, id uint) (*book.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	return b.Clone(), nil
}

// FindByISBN 根据ISBN精确查找
func (r *bookRepository) FindByISBN(_ context.Context, isbn string) (*book.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.isbns[isbn]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	return r.books[id].Clone(), nil
}

// FindByAuthor 根据作者精确查找
func (r *bookRepository) FindByAuthor(_ context.Context, author string) ([]*book.Book, error) {
	return r.filter(func(b *book.Book) bool {
		return b.Author == author
	}), nil
}

// FindByTitleContains 书名子串查找（忽略大小写）
func (r *bookRepository) FindByTitleContains(_ context.Context, text string) ([]*book.Book, error) {
	needle := strings.ToLower(text)
	return r.filter(func(b *book.Book) bool {
		return strings.Contains(strings.ToLower(b.Title), needle)
	}), nil
}

// FindAll 查询全部图书
func (r *bookRepository) FindAll(_ context.Context) ([]*book.Book, error) {
	return r.filter(func(*book.Book) bool { return true }), nil
}

// Delete 删除图书
// 记录不存在时为空操作
func (r *bookRepository) Delete(_ context.Context, b *book.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.books[b.ID]
	if !ok {
		return nil
	}
	delete(r.isbns, existing.ISBN)
	delete(r.books, b.ID)
	return nil
}

// filter 按条件筛选，结果按ID升序
func (r *bookRepository) filter(match func(*book.Book) bool) []*book.Book {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*book.Book, 0, len(r.books))
	for _, b := range r.books {
		if match(b) {
			result = append(result, b.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}
