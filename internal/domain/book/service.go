package book

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

const tracerName = "book-service"

// Service 图书领域服务接口
// 设计说明：
// 1. 查询类方法直接透传给Repository
// 2. 写操作封装业务规则：ISBN唯一、更新/删除前检查存在性
type Service interface {
	// GetAllBooks 查询全部图书
	GetAllBooks(ctx context.Context) ([]*Book, error)

	// GetBookByID 根据ID获取图书，不存在返回ErrBookNotFound
	GetBookByID(ctx context.Context, id uint) (*Book, error)

	// GetBookByISBN 根据ISBN获取图书
	GetBookByISBN(ctx context.Context, isbn string) (*Book, error)

	// GetBooksByAuthor 按作者查询
	GetBooksByAuthor(ctx context.Context, author string) ([]*Book, error)

	// SearchBooksByTitle 书名模糊查询（忽略大小写）
	SearchBooksByTitle(ctx context.Context, text string) ([]*Book, error)

	// AddBook 新增图书
	// 业务规则：字段必须合法，ISBN不能重复
	AddBook(ctx context.Context, book *Book) (*Book, error)

	// UpdateBook 整体更新图书
	// 业务规则：图书必须存在；不重新检查新ISBN是否与其他图书冲突
	UpdateBook(ctx context.Context, id uint, data *Book) (*Book, error)

	// DeleteBook 删除图书
	// 业务规则：图书必须存在
	DeleteBook(ctx context.Context, id uint) error
}

// service 领域服务实现
// 写操作是"先查再写"，writeMu把同一进程内的写操作串行化，
// 避免两个并发AddBook同时通过ISBN检查。跨进程的并发由数据库唯一索引兜底
type service struct {
	repo    Repository
	logger  *zap.Logger
	writeMu sync.Mutex
}

// NewService 创建图书领域服务
func NewService(repo Repository, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: repo, logger: logger}
}

// GetAllBooks 查询全部图书
func (s *service) GetAllBooks(ctx context.Context) ([]*Book, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "GetAllBooks")
	defer span.End()

	return s.repo.FindAll(ctx)
}

// GetBookByID 根据ID获取图书
func (s *service) GetBookByID(ctx context.Context, id uint) (*Book, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "GetBookByID")
	defer span.End()
	span.SetAttributes(attribute.Int64("book.id", int64(id)))

	return s.repo.FindByID(ctx, id)
}

// GetBookByISBN 根据ISBN获取图书
func (s *service) GetBookByISBN(ctx context.Context, isbn string) (*Book, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "GetBookByISBN")
	defer span.End()
	span.SetAttributes(attribute.String("book.isbn", isbn))

	return s.repo.FindByISBN(ctx, isbn)
}

// GetBooksByAuthor 按作者查询
func (s *service) GetBooksByAuthor(ctx context.Context, author string) ([]*Book, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "GetBooksByAuthor")
	defer span.End()

	return s.repo.FindByAuthor(ctx, author)
}

// SearchBooksByTitle 书名模糊查询
func (s *service) SearchBooksByTitle(ctx context.Context, text string) ([]*Book, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "SearchBooksByTitle")
	defer span.End()

	return s.repo.FindByTitleContains(ctx, text)
}

// AddBook 新增图书
func (s *service) AddBook(ctx context.Context, book *Book) (result *Book, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "AddBook")
	defer func() {
		metrics.RecordBookOperation("add", err)
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	// 1. 字段校验
	if err := book.Validate(); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// 2. 检查ISBN是否已存在
	existing, err := s.repo.FindByISBN(ctx, book.ISBN)
	if err == nil && existing != nil {
		return nil, DuplicateISBNError(book.ISBN)
	}
	// ErrBookNotFound以外的错误直接返回
	if err != nil && !errors.Is(err, ErrBookNotFound) {
		s.logger.Error("查询ISBN失败", zap.String("isbn", book.ISBN), zap.Error(err))
		return nil, err
	}

	// 3. 持久化（存储层分配ID）
	book.ID = 0
	saved, err := s.repo.Save(ctx, book)
	if err != nil {
		s.logger.Error("保存图书失败", zap.String("isbn", book.ISBN), zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int64("book.id", int64(saved.ID)))
	s.logger.Info("图书已添加",
		zap.Uint("id", saved.ID),
		zap.String("isbn", saved.ISBN),
		zap.String("trace_id", tracing.ExtractTraceID(ctx)),
	)
	return saved, nil
}

// UpdateBook 整体更新图书
func (s *service) UpdateBook(ctx context.Context, id uint, data *Book) (result *Book, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "UpdateBook")
	span.SetAttributes(attribute.Int64("book.id", int64(id)))
	defer func() {
		metrics.RecordBookOperation("update", err)
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// 1. 查询图书
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return nil, NotFoundError(id)
		}
		return nil, err
	}

	// 2. 字段校验（存在性优先于字段校验）
	if err := data.Validate(); err != nil {
		return nil, err
	}

	// 3. 整体覆盖字段
	// 注意：这里不检查新ISBN是否与其他图书冲突，数据库存储由唯一索引拒绝
	book.Overwrite(data)

	// 4. 持久化
	saved, err := s.repo.Save(ctx, book)
	if err != nil {
		s.logger.Error("更新图书失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("图书已更新", zap.Uint("id", id), zap.String("isbn", saved.ISBN))
	return saved, nil
}

// DeleteBook 删除图书
func (s *service) DeleteBook(ctx context.Context, id uint) (err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "DeleteBook")
	span.SetAttributes(attribute.Int64("book.id", int64(id)))
	defer func() {
		metrics.RecordBookOperation("delete", err)
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// 1. 查询图书
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return NotFoundError(id)
		}
		return err
	}

	// 2. 物理删除
	if err := s.repo.Delete(ctx, book); err != nil {
		s.logger.Error("删除图书失败", zap.Uint("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("图书已删除", zap.Uint("id", id))
	return nil
}
