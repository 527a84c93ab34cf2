package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/infrastructure/config"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// openTestDB 打开sqlite内存库
// 内存库按连接隔离，连接池限制为1保证所有操作看到同一个库
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Database: config.DatabaseConfig{
			Driver:       config.DriverSQLite,
			Path:         ":memory:",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
	}
	db, err := NewDB(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func mustSave(t *testing.T, repo book.Repository, b *book.Book) *book.Book {
	t.Helper()
	saved, err := repo.Save(context.Background(), b)
	require.NoError(t, err)
	return saved
}

func TestBookRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewBookRepository(openTestDB(t))

	saved := mustSave(t, repo, book.NewBook("Dune", "Frank Herbert", "9780441013593", 1965, 0))
	require.NotZero(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", found.Title)
	assert.Equal(t, "Frank Herbert", found.Author)
	assert.Equal(t, "9780441013593", found.ISBN)
	assert.Equal(t, 1965, found.PublicationYear)
	assert.Equal(t, 0, found.Quantity, "数量0应原样保存")

	byISBN, err := repo.FindByISBN(ctx, "9780441013593")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, byISBN.ID)

	_, err = repo.FindByID(ctx, saved.ID+100)
	assert.True(t, errors.Is(err, book.ErrBookNotFound))

	_, err = repo.FindByISBN(ctx, "unknown")
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

func TestBookRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewBookRepository(openTestDB(t))

	dune := mustSave(t, repo, book.NewBook("Dune", "Frank Herbert", "111", 1965, 1))
	other := mustSave(t, repo, book.NewBook("Emma", "Jane Austen", "222", 1815, 1))

	t.Run("整体覆盖", func(t *testing.T) {
		dune.Overwrite(book.NewBook("Dune Messiah", "Frank Herbert", "333", 1969, 5))
		_, err := repo.Save(ctx, dune)
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, dune.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dune Messiah", found.Title)
		assert.Equal(t, "333", found.ISBN)
		assert.Equal(t, 5, found.Quantity)
	})

	t.Run("ISBN与其他记录冲突", func(t *testing.T) {
		other.ISBN = "333"
		_, err := repo.Save(ctx, other)
		assert.ErrorIs(t, err, book.ErrISBNDuplicate)
	})

	t.Run("记录不存在", func(t *testing.T) {
		ghost := book.NewBook("Ghost", "Nobody", "999", 2000, 1)
		ghost.ID = 404
		_, err := repo.Save(ctx, ghost)
		assert.ErrorIs(t, err, book.ErrBookNotFound)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2, "不应插入新记录")
	})
}

func TestBookRepository_DuplicateISBN(t *testing.T) {
	repo := NewBookRepository(openTestDB(t))
	mustSave(t, repo, book.NewBook("Dune", "Frank Herbert", "111", 1965, 1))

	_, err := repo.Save(context.Background(), book.NewBook("Copy", "Someone", "111", 2000, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, book.ErrISBNDuplicate)
	assert.Equal(t, "Book with ISBN 111 already exists", apperrors.GetAppError(err).Message)
}

func TestBookRepository_Queries(t *testing.T) {
	ctx := context.Background()
	repo := NewBookRepository(openTestDB(t))

	mustSave(t, repo, book.NewBook("War and Peace", "Leo Tolstoy", "1", 1869, 1))
	mustSave(t, repo, book.NewBook("THE WARLORD", "Someone", "2", 1990, 1))
	mustSave(t, repo, book.NewBook("Anna Karenina", "Leo Tolstoy", "3", 1878, 1))
	mustSave(t, repo, book.NewBook("100% Go", "Gopher", "4", 2020, 1))

	t.Run("书名忽略大小写", func(t *testing.T) {
		books, err := repo.FindByTitleContains(ctx, "war")
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, "War and Peace", books[0].Title)
		assert.Equal(t, "THE WARLORD", books[1].Title)
	})

	t.Run("通配符按字面量匹配", func(t *testing.T) {
		books, err := repo.FindByTitleContains(ctx, "%")
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "100% Go", books[0].Title)

		none, err := repo.FindByTitleContains(ctx, "_")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("作者精确匹配", func(t *testing.T) {
		books, err := repo.FindByAuthor(ctx, "Leo Tolstoy")
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Less(t, books[0].ID, books[1].ID)

		none, err := repo.FindByAuthor(ctx, "Tolstoy")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("FindAll按ID升序", func(t *testing.T) {
		books, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, books, 4)
		for i := 1; i < len(books); i++ {
			assert.Less(t, books[i-1].ID, books[i].ID)
		}
	})
}

func TestBookRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewBookRepository(db)

	b := mustSave(t, repo, book.NewBook("Dune", "Frank Herbert", "111", 1965, 1))
	require.NoError(t, repo.Delete(ctx, b))

	_, err := repo.FindByID(ctx, b.ID)
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	// 物理删除：同一ISBN可以重新添加
	var count int64
	require.NoError(t, db.Unscoped().Model(&BookModel{}).Count(&count).Error)
	assert.Zero(t, count)
	mustSave(t, repo, book.NewBook("Dune", "Frank Herbert", "111", 1965, 1))
}

func TestTxManager_Transaction(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewBookRepository(db)
	txManager := NewTxManager(db)

	t.Run("返回错误时回滚", func(t *testing.T) {
		errAbort := errors.New("abort")
		err := txManager.Transaction(ctx, func(ctx context.Context) error {
			if _, err := repo.Save(ctx, book.NewBook("A", "X", "1", 2000, 1)); err != nil {
				return err
			}
			return errAbort
		})
		assert.ErrorIs(t, err, errAbort)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("成功时提交", func(t *testing.T) {
		err := txManager.Transaction(ctx, func(ctx context.Context) error {
			if _, err := repo.Save(ctx, book.NewBook("A", "X", "1", 2000, 1)); err != nil {
				return err
			}
			_, err := repo.Save(ctx, book.NewBook("B", "Y", "2", 2001, 1))
			return err
		})
		require.NoError(t, err)

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%war%", containsPattern("WAR"))
	assert.Equal(t, "%100!%%", containsPattern("100%"))
	assert.Equal(t, "%a!_b%", containsPattern("a_b"))
	assert.Equal(t, "%!!%", containsPattern("!"))
}

func TestIsDuplicateError(t *testing.T) {
	assert.False(t, isDuplicateError(nil))
	assert.True(t, isDuplicateError(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateError(errors.New("UNIQUE constraint failed: books.isbn")))
	assert.True(t, isDuplicateError(errors.New("Error 1062: Duplicate entry '1' for key 'isbn'")))
	assert.False(t, isDuplicateError(errors.New("connection refused")))
}

// TestBookRepository_UpdateUnchanged 内容未变化时MySQL报告0行受影响
// 通过回调把RowsAffected清零来模拟
func TestBookRepository_UpdateUnchanged(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.Callback().Update().After("gorm:update").
		Register("test:unchanged_rows", func(tx *gorm.DB) { tx.RowsAffected = 0 }))
	repo := NewBookRepository(db)

	dune := mustSave(t, repo, book.NewBook("Dune", "Frank Herbert", "111", 1965, 1))

	t.Run("记录存在视为成功", func(t *testing.T) {
		saved, err := repo.Save(ctx, dune)
		require.NoError(t, err)
		assert.Equal(t, dune.ID, saved.ID)
	})

	t.Run("记录不存在", func(t *testing.T) {
		ghost := book.NewBook("Ghost", "Nobody", "999", 2000, 1)
		ghost.ID = 404
		_, err := repo.Save(ctx, ghost)
		assert.ErrorIs(t, err, book.ErrBookNotFound)
	})
}
