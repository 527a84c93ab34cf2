package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// FlashStore flash消息存储（Redis）
// 设计说明：
// 1. 消息体存在Redis，浏览器cookie里只保存随机ID
// 2. 读取使用GETDEL，保证消息只被消费一次
// 3. Key格式：flash:{id}，设置较短TTL，未被读取的消息自动过期
type FlashStore struct {
	client *redis.Client
}

// NewFlashStore 创建flash消息存储
func NewFlashStore(client *redis.Client) *FlashStore {
	return &FlashStore{client: client}
}

// Put 保存消息
func (s *FlashStore) Put(ctx context.Context, id string, payload []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, flashKey(id), payload, ttl).Err(); err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "保存flash消息失败")
	}
	return nil
}

// Take 读取并删除消息，不存在时返回nil
func (s *FlashStore) Take(ctx context.Context, id string) ([]byte, error) {
	val, err := s.client.GetDel(ctx, flashKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "读取flash消息失败")
	}
	return val, nil
}

func flashKey(id string) string {
	return "flash:" + id
}
