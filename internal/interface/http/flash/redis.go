package flash

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend flash消息的服务端存储（redis.FlashStore实现）
type Backend interface {
	Put(ctx context.Context, id string, payload []byte, ttl time.Duration) error
	Take(ctx context.Context, id string) ([]byte, error)
}

// RedisStore 消息保存在服务端，cookie中只有随机ID
type RedisStore struct {
	backend Backend
	ttl     time.Duration
	logger  *zap.Logger
}

// NewRedisStore 创建服务端存储
func NewRedisStore(backend Backend, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{backend: backend, ttl: ttl, logger: logger}
}

// Set 保存消息并写入ID cookie
// 存储失败时只记录日志，页面照常重定向
func (s *RedisStore) Set(c *gin.Context, kind Kind, text string) {
	var m Messages
	m.set(kind, text)

	data, err := json.Marshal(m)
	if err != nil {
		return
	}

	id := uuid.NewString()
	if err := s.backend.Put(c.Request.Context(), id, data, s.ttl); err != nil {
		s.logger.Warn("保存flash消息失败", zap.Error(err))
		return
	}
	setCookie(c, id, int(s.ttl.Seconds()))
}

// Pop 读取并删除消息
func (s *RedisStore) Pop(c *gin.Context) Messages {
	var m Messages

	id, err := c.Cookie(CookieName)
	if err != nil || id == "" {
		return m
	}
	clearCookie(c)

	if _, err := uuid.Parse(id); err != nil {
		return m
	}

	data, err := s.backend.Take(c.Request.Context(), id)
	if err != nil {
		s.logger.Warn("读取flash消息失败", zap.Error(err))
		return m
	}
	if data != nil {
		_ = json.Unmarshal(data, &m)
	}
	return m
}
