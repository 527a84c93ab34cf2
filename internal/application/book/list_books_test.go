package book

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

func newTestService(t *testing.T) book.Service {
	t.Helper()
	svc := book.NewService(memory.NewBookRepository(), nil)
	added, err := NewSeedCatalogUseCase(svc, nil, nil).Execute(context.Background(), SampleBooks())
	require.NoError(t, err)
	require.Equal(t, len(SampleBooks()), added)
	return svc
}

func TestListBooksUseCase_Execute(t *testing.T) {
	ctx := context.Background()
	uc := NewListBooksUseCase(newTestService(t))

	tests := []struct {
		name   string
		req    ListBooksRequest
		titles []string
	}{
		{"无过滤条件返回全部", ListBooksRequest{}, []string{
			"To Kill a Mockingbird", "1984", "Pride and Prejudice", "The Great Gatsby", "War and Peace",
		}},
		{"按ISBN", ListBooksRequest{ISBN: "9780451524935"}, []string{"1984"}},
		{"ISBN不存在返回空列表", ListBooksRequest{ISBN: "0000"}, []string{}},
		{"按作者", ListBooksRequest{Author: "Jane Austen"}, []string{"Pride and Prejudice"}},
		{"按书名子串", ListBooksRequest{Title: "  THE  "}, []string{"The Great Gatsby"}},
		{"空白条件视为未设置", ListBooksRequest{Title: "   "}, []string{
			"To Kill a Mockingbird", "1984", "Pride and Prejudice", "The Great Gatsby", "War and Peace",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := uc.Execute(ctx, tt.req)
			require.NoError(t, err)

			titles := make([]string, len(books))
			for i, b := range books {
				titles[i] = b.Title
			}
			assert.Equal(t, tt.titles, titles)
		})
	}

	t.Run("多个条件冲突", func(t *testing.T) {
		_, err := uc.Execute(ctx, ListBooksRequest{ISBN: "1", Author: "x"})
		assert.ErrorIs(t, err, ErrConflictingFilters)
		assert.ErrorIs(t, err, apperrors.ErrInvalidParams)
	})
}
