package flash

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// roundTrip 第一个请求Set，第二个请求带上cookie后Pop
func roundTrip(t *testing.T, store Store, kind Kind, text string) (Messages, *httptest.ResponseRecorder) {
	t.Helper()

	w1 := httptest.NewRecorder()
	c1, _ := gin.CreateTestContext(w1)
	c1.Request = httptest.NewRequest(http.MethodPost, "/books/add", nil)
	store.Set(c1, kind, text)

	cookies := w1.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Request = httptest.NewRequest(http.MethodGet, "/books", nil)
	c2.Request.AddCookie(cookies[0])
	return store.Pop(c2), w2
}

func TestCookieStore(t *testing.T) {
	store := NewCookieStore()

	t.Run("成功消息", func(t *testing.T) {
		m, w := roundTrip(t, store, Success, "Book added successfully!")
		assert.Equal(t, "Book added successfully!", m.Success)
		assert.Empty(t, m.Error)

		// 读取后清除cookie
		cleared := w.Result().Cookies()
		require.Len(t, cleared, 1)
		assert.Less(t, cleared[0].MaxAge, 0)
	})

	t.Run("错误消息含特殊字符", func(t *testing.T) {
		m, _ := roundTrip(t, store, Error, "Book with ISBN 978-0;\"x\" already exists")
		assert.Equal(t, "Book with ISBN 978-0;\"x\" already exists", m.Error)
	})

	t.Run("无cookie", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/books", nil)
		assert.True(t, store.Pop(c).Empty())
	})

	t.Run("cookie被篡改", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/books", nil)
		c.Request.AddCookie(&http.Cookie{Name: CookieName, Value: "%%%"})
		assert.True(t, store.Pop(c).Empty())
	})
}

// memoryBackend 测试用Backend
type memoryBackend struct {
	data map[string][]byte
	err  error
}

func (b *memoryBackend) Put(_ context.Context, id string, payload []byte, _ time.Duration) error {
	if b.err != nil {
		return b.err
	}
	b.data[id] = payload
	return nil
}

func (b *memoryBackend) Take(_ context.Context, id string) ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	v, ok := b.data[id]
	if !ok {
		return nil, nil
	}
	delete(b.data, id)
	return v, nil
}

func TestRedisStore(t *testing.T) {
	t.Run("消息保存在服务端", func(t *testing.T) {
		backend := &memoryBackend{data: map[string][]byte{}}
		store := NewRedisStore(backend, time.Minute, nil)

		m, _ := roundTrip(t, store, Success, "Book deleted successfully!")
		assert.Equal(t, "Book deleted successfully!", m.Success)
		assert.Empty(t, backend.data, "读取后删除")
	})

	t.Run("后端故障不写cookie", func(t *testing.T) {
		store := NewRedisStore(&memoryBackend{err: errors.New("down")}, time.Minute, nil)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/books/add", nil)
		store.Set(c, Error, "x")
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("非法ID", func(t *testing.T) {
		store := NewRedisStore(&memoryBackend{data: map[string][]byte{}}, time.Minute, nil)
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/books", nil)
		c.Request.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})
		assert.True(t, store.Pop(c).Empty())
	})
}
