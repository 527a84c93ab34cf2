package book_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

func newService() (book.Service, book.Repository) {
	repo := memory.NewBookRepository()
	return book.NewService(repo, nil), repo
}

func TestService_AddBook(t *testing.T) {
	ctx := context.Background()

	t.Run("分配新ID", func(t *testing.T) {
		svc, _ := newService()
		first, err := svc.AddBook(ctx, book.NewBook("Dune", "Frank Herbert", "111", 1965, 3))
		require.NoError(t, err)
		second, err := svc.AddBook(ctx, book.NewBook("Emma", "Jane Austen", "222", 1815, 1))
		require.NoError(t, err)

		assert.NotZero(t, first.ID)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("忽略调用方传入的ID", func(t *testing.T) {
		svc, _ := newService()
		b := book.NewBook("Dune", "Frank Herbert", "111", 1965, 3)
		b.ID = 99
		saved, err := svc.AddBook(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, uint(1), saved.ID)
	})

	t.Run("ISBN重复", func(t *testing.T) {
		svc, repo := newService()
		_, err := svc.AddBook(ctx, book.NewBook("Dune", "Frank Herbert", "111", 1965, 3))
		require.NoError(t, err)

		_, err = svc.AddBook(ctx, book.NewBook("Other", "Someone", "111", 2000, 1))
		assert.ErrorIs(t, err, book.ErrISBNDuplicate)
		assert.Equal(t, "Book with ISBN 111 already exists", apperrors.GetAppError(err).Message)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("字段校验", func(t *testing.T) {
		svc, repo := newService()
		_, err := svc.AddBook(ctx, book.NewBook("", "Frank Herbert", "111", 1965, 3))
		var verr *book.ValidationError
		require.True(t, errors.As(err, &verr))

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("并发添加同一ISBN只成功一次", func(t *testing.T) {
		svc, repo := newService()

		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.AddBook(ctx, book.NewBook("Dune", "Frank Herbert", "111", 1965, 1)); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestService_Queries(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	for _, b := range []*book.Book{
		book.NewBook("War and Peace", "Leo Tolstoy", "1", 1869, 1),
		book.NewBook("THE WARLORD", "Someone", "2", 1990, 1),
		book.NewBook("Anna Karenina", "Leo Tolstoy", "3", 1878, 1),
	} {
		_, err := svc.AddBook(ctx, b)
		require.NoError(t, err)
	}

	t.Run("书名搜索忽略大小写", func(t *testing.T) {
		books, err := svc.SearchBooksByTitle(ctx, "war")
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, "War and Peace", books[0].Title)
		assert.Equal(t, "THE WARLORD", books[1].Title)
	})

	t.Run("按作者", func(t *testing.T) {
		books, err := svc.GetBooksByAuthor(ctx, "Leo Tolstoy")
		require.NoError(t, err)
		assert.Len(t, books, 2)
	})

	t.Run("按ISBN", func(t *testing.T) {
		b, err := svc.GetBookByISBN(ctx, "3")
		require.NoError(t, err)
		assert.Equal(t, "Anna Karenina", b.Title)

		_, err = svc.GetBookByISBN(ctx, "404")
		assert.ErrorIs(t, err, book.ErrBookNotFound)
	})

	t.Run("按ID往返所有字段", func(t *testing.T) {
		b, err := svc.GetBookByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "War and Peace", b.Title)
		assert.Equal(t, "Leo Tolstoy", b.Author)
		assert.Equal(t, "1", b.ISBN)
		assert.Equal(t, 1869, b.PublicationYear)
		assert.Equal(t, 1, b.Quantity)
	})

	t.Run("全部", func(t *testing.T) {
		books, err := svc.GetAllBooks(ctx)
		require.NoError(t, err)
		assert.Len(t, books, 3)
	})
}

func TestService_UpdateBook(t *testing.T) {
	ctx := context.Background()

	t.Run("整体覆盖并保留ID", func(t *testing.T) {
		svc, _ := newService()
		saved, err := svc.AddBook(ctx, book.NewBook("Dune", "Frank Herbert", "111", 1965, 3))
		require.NoError(t, err)

		updated, err := svc.UpdateBook(ctx, saved.ID, book.NewBook("Dune Messiah", "F. Herbert", "112", 1969, 0))
		require.NoError(t, err)
		assert.Equal(t, saved.ID, updated.ID)

		found, err := svc.GetBookByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dune Messiah", found.Title)
		assert.Equal(t, "F. Herbert", found.Author)
		assert.Equal(t, "112", found.ISBN)
		assert.Equal(t, 1969, found.PublicationYear)
		assert.Equal(t, 0, found.Quantity)
	})

	t.Run("不存在", func(t *testing.T) {
		svc, repo := newService()
		_, err := svc.UpdateBook(ctx, 42, book.NewBook("Dune", "Frank Herbert", "111", 1965, 3))
		assert.ErrorIs(t, err, book.ErrBookNotFound)
		assert.Equal(t, "Book not found with id: 42", apperrors.GetAppError(err).Message)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("不存在优先于字段校验", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.UpdateBook(ctx, 42, &book.Book{})
		assert.ErrorIs(t, err, book.ErrBookNotFound)
	})

	t.Run("字段校验失败不修改记录", func(t *testing.T) {
		svc, _ := newService()
		saved, err := svc.AddBook(ctx, book.NewBook("Dune", "Frank Herbert", "111", 1965, 3))
		require.NoError(t, err)

		_, err = svc.UpdateBook(ctx, saved.ID, book.NewBook("", "Frank Herbert", "111", 1965, 3))
		assert.ErrorIs(t, err, apperrors.ErrInvalidParams)

		found, err := svc.GetBookByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dune", found.Title)
	})

	// 更新不重新检查ISBN唯一性，冲突只能由存储层发现
	t.Run("更新为其他图书的ISBN", func(t *testing.T) {
		repo := &mockRepository{}
		svc := book.NewService(repo, nil)

		existing := book.NewBook("Emma", "Jane Austen", "222", 1815, 1)
		existing.ID = 2
		repo.On("FindByID", mock.Anything, uint(2)).Return(existing, nil)
		repo.On("Save", mock.Anything, mock.MatchedBy(func(b *book.Book) bool {
			return b.ID == 2 && b.ISBN == "111"
		})).Return(nil, book.DuplicateISBNError("111"))

		_, err := svc.UpdateBook(ctx, 2, book.NewBook("Emma", "Jane Austen", "111", 1815, 1))
		assert.ErrorIs(t, err, book.ErrISBNDuplicate)

		repo.AssertNotCalled(t, "FindByISBN", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})
}

func TestService_DeleteBook(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	saved, err := svc.AddBook(ctx, book.NewBook("Dune", "Frank Herbert", "111", 1965, 3))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBook(ctx, saved.ID))

	_, err = svc.GetBookByID(ctx, saved.ID)
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	err = svc.DeleteBook(ctx, saved.ID)
	assert.ErrorIs(t, err, book.ErrBookNotFound)
	assert.Equal(t, "Book not found with id: 1", apperrors.GetAppError(err).Message)
}

// TestService_DuneScenario 添加→重复添加→更新→删除→再次删除
func TestService_DuneScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	dune, err := svc.AddBook(ctx, book.NewBook("Dune", "Frank Herbert", "9780441013593", 1965, 1))
	require.NoError(t, err)
	require.NotZero(t, dune.ID)

	_, err = svc.AddBook(ctx, book.NewBook("Dune", "Frank Herbert", "9780441013593", 1965, 1))
	assert.ErrorIs(t, err, book.ErrISBNDuplicate)

	updated, err := svc.UpdateBook(ctx, dune.ID, book.NewBook("Dune", "Frank Herbert", "9780441013593", 1965, 5))
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	require.NoError(t, svc.DeleteBook(ctx, dune.ID))

	_, err = svc.GetBookByID(ctx, dune.ID)
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	assert.ErrorIs(t, svc.DeleteBook(ctx, dune.ID), book.ErrBookNotFound)
}

func TestService_StorageErrors(t *testing.T) {
	ctx := context.Background()
	errDB := apperrors.WrapCode(errors.New("connection refused"), apperrors.ErrCodeDatabaseError, "查询图书失败")

	t.Run("AddBook查询ISBN失败", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("FindByISBN", mock.Anything, "111").Return(nil, errDB)
		svc := book.NewService(repo, nil)

		_, err := svc.AddBook(ctx, book.NewBook("Dune", "Frank Herbert", "111", 1965, 1))
		assert.ErrorIs(t, err, errDB)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("DeleteBook查询失败", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("FindByID", mock.Anything, uint(1)).Return(nil, errDB)
		svc := book.NewService(repo, nil)

		err := svc.DeleteBook(ctx, 1)
		assert.ErrorIs(t, err, errDB)
		assert.NotErrorIs(t, err, book.ErrBookNotFound)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

// mockRepository testify mock实现的图书仓储
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Save(ctx context.Context, b *book.Book) (*book.Book, error) {
	args := m.Called(ctx, b)
	return bookArg(args, 0), args.Error(1)
}

func (m *mockRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	args := m.Called(ctx, id)
	return bookArg(args, 0), args.Error(1)
}

func (m *mockRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	args := m.Called(ctx, isbn)
	return bookArg(args, 0), args.Error(1)
}

func (m *mockRepository) FindByAuthor(ctx context.Context, author string) ([]*book.Book, error) {
	args := m.Called(ctx, author)
	return args.Get(0).([]*book.Book), args.Error(1)
}

func (m *mockRepository) FindByTitleContains(ctx context.Context, text string) ([]*book.Book, error) {
	args := m.Called(ctx, text)
	return args.Get(0).([]*book.Book), args.Error(1)
}

func (m *mockRepository) FindAll(ctx context.Context) ([]*book.Book, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*book.Book), args.Error(1)
}

func (m *mockRepository) Delete(ctx context.Context, b *book.Book) error {
	return m.Called(ctx, b).Error(0)
}

func bookArg(args mock.Arguments, i int) *book.Book {
	if b, ok := args.Get(i).(*book.Book); ok {
		return b
	}
	return nil
}
