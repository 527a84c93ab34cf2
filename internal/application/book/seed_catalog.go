package book

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/book"
)

// Transactor 事务执行器（database.TxManager实现）
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SeedCatalogUseCase 示例数据初始化用例
// 设计说明：
// 1. 通过领域服务添加，走同样的校验与ISBN唯一规则
// 2. 已存在的ISBN跳过，重复启动不会报错
// 3. 配置了Transactor时整批在一个事务内完成，变更事件在提交后才发布
type SeedCatalogUseCase struct {
	bookService book.Service
	tx          Transactor
	logger      *zap.Logger
}

// NewSeedCatalogUseCase 创建示例数据用例，tx可以为nil（内存存储）
func NewSeedCatalogUseCase(bookService book.Service, tx Transactor, logger *zap.Logger) *SeedCatalogUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedCatalogUseCase{
		bookService: bookService,
		tx:          tx,
		logger:      logger,
	}
}

// SampleBooks 示例图书
func SampleBooks() []*book.Book {
	return []*book.Book{
		book.NewBook("To Kill a Mockingbird", "Harper Lee", "9780061120084", 1960, 3),
		book.NewBook("1984", "George Orwell", "9780451524935", 1949, 5),
		book.NewBook("Pride and Prejudice", "Jane Austen", "9780141439518", 1813, 2),
		book.NewBook("The Great Gatsby", "F. Scott Fitzgerald", "9780743273565", 1925, 4),
		book.NewBook("War and Peace", "Leo Tolstoy", "9780199232765", 1869, 1),
	}
}

// Execute 写入示例数据，返回新增数量
func (uc *SeedCatalogUseCase) Execute(ctx context.Context, books []*book.Book) (int, error) {
	added := 0
	run := func(ctx context.Context) error {
		added = 0
		for _, b := range books {
			if _, err := uc.bookService.AddBook(ctx, b.Clone()); err != nil {
				if errors.Is(err, book.ErrISBNDuplicate) {
					continue
				}
				return err
			}
			added++
		}
		return nil
	}

	if uc.tx != nil {
		txCtx, pending := deferEvents(ctx)
		if err := uc.tx.Transaction(txCtx, run); err != nil {
			return 0, err
		}
		pending.flush(ctx)
	} else if err := run(ctx); err != nil {
		return 0, err
	}

	uc.logger.Info("示例数据初始化完成", zap.Int("added", added), zap.Int("total", len(books)))
	return added, nil
}
