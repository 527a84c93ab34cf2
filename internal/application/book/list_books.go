package book

import (
	"context"
	"errors"
	"strings"

	"github.com/xiebiao/library/internal/domain/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// ListBooksUseCase 图书列表查询用例
// 设计说明：
// 1. 根据过滤条件选择领域服务的查询方法
// 2. 过滤条件互斥，都为空时返回全部图书
// 3. 页面列表（?q=）和JSON API共用
type ListBooksUseCase struct {
	bookService book.Service
}

// NewListBooksUseCase 创建列表查询用例
func NewListBooksUseCase(bookService book.Service) *ListBooksUseCase {
	return &ListBooksUseCase{
		bookService: bookService,
	}
}

// ListBooksRequest 列表查询请求
type ListBooksRequest struct {
	ISBN   string // ISBN精确匹配
	Author string // 作者精确匹配
	Title  string // 书名子串（忽略大小写）
}

// ErrConflictingFilters 同时指定了多个过滤条件
var ErrConflictingFilters = apperrors.New(apperrors.ErrCodeInvalidParams, "Only one of isbn, author, title may be set")

// Execute 执行列表查询用例
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) ([]*book.Book, error) {
	// 1. 参数整理
	req.ISBN = strings.TrimSpace(req.ISBN)
	req.Author = strings.TrimSpace(req.Author)
	req.Title = strings.TrimSpace(req.Title)

	set := 0
	for _, v := range []string{req.ISBN, req.Author, req.Title} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return nil, ErrConflictingFilters
	}

	// 2. 选择查询方法
	switch {
	case req.ISBN != "":
		b, err := uc.bookService.GetBookByISBN(ctx, req.ISBN)
		if err != nil {
			if errors.Is(err, book.ErrBookNotFound) {
				return []*book.Book{}, nil
			}
			return nil, err
		}
		return []*book.Book{b}, nil
	case req.Author != "":
		return uc.bookService.GetBooksByAuthor(ctx, req.Author)
	case req.Title != "":
		return uc.bookService.SearchBooksByTitle(ctx, req.Title)
	default:
		return uc.bookService.GetAllBooks(ctx)
	}
}
