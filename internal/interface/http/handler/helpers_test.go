package handler

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/xiebiao/library/internal/domain/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		raw string
		id  uint
		ok  bool
	}{
		{"1", 1, true},
		{"42", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Params = gin.Params{{Key: "id", Value: tt.raw}}

		id, ok := parseID(c)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.id, id, tt.raw)
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Book not found with id: 3", userMessage(book.NotFoundError(3)))
	assert.Equal(t, "Book with ISBN 123 already exists", userMessage(book.DuplicateISBNError("123")))

	// 系统错误不暴露细节
	dbErr := apperrors.WrapCode(errors.New("connection refused"), apperrors.ErrCodeDatabaseError, "查询失败")
	assert.Equal(t, "Something went wrong, please try again later", userMessage(dbErr))
	assert.Equal(t, "Something went wrong, please try again later", userMessage(errors.New("boom")))
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "Book not found with id: abc", notFoundMessage("abc"))
}
