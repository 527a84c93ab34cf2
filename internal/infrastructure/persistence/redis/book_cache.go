package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/pkg/circuitbreaker"
	"github.com/xiebiao/library/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// 缓存结果（指标标签）
const (
	cacheHit      = "hit"
	cacheMiss     = "miss"
	cacheError    = "error"
	cacheRejected = "rejected" // 熔断器打开,未访问Redis
)

// cachedBookRepository 图书仓储缓存装饰器（Cache-Aside）
// 设计说明：
// 1. 只缓存单条查询：FindByID存整条记录，FindByISBN存isbn→id映射
// 2. 写操作先落库，再删除相关key（不更新缓存，避免并发写导致脏数据）
// 3. Redis调用经过熔断器，Redis故障时直接回源，不影响请求结果
// 4. 列表查询不缓存，直接透传
//
// Key格式：
//   - library:book:id:{id}      → 图书JSON
//   - library:book:isbn:{isbn}  → 图书ID
type cachedBookRepository struct {
	book.Repository

	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
	ttl     time.Duration
	logger  *zap.Logger
}

// cachedBook 缓存中的图书结构
type cachedBook struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	PublicationYear int       `json:"publication_year"`
	Quantity        int       `json:"quantity"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewCachedBookRepository 用Redis缓存包装图书仓储
func NewCachedBookRepository(
	next book.Repository,
	client *redis.Client,
	ttl time.Duration,
	logger *zap.Logger,
) book.Repository {
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := circuitbreaker.NewCircuitBreaker("book-cache", circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 缓存未命中不算失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			logger.Warn("熔断器状态变化",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetCircuitBreakerState(name, int(to))
		},
	})

	return &cachedBookRepository{
		Repository: next,
		client:     client,
		breaker:    breaker,
		ttl:        ttl,
		logger:     logger,
	}
}

// FindByID 先查缓存，未命中再查仓储并回填
func (r *cachedBookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	if b, ok := r.getBook(ctx, id); ok {
		return b, nil
	}

	b, err := r.Repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.setBook(ctx, b)
	return b, nil
}

// FindByISBN 通过isbn→id映射复用详情缓存
// 映射过期（图书已删除或ISBN已变更）时删除映射并回源
func (r *cachedBookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	if id, ok := r.getISBN(ctx, isbn); ok {
		b, err := r.FindByID(ctx, id)
		if err == nil && b.ISBN == isbn {
			return b, nil
		}
		if err != nil && !errors.Is(err, book.ErrBookNotFound) {
			return nil, err
		}
		r.del(ctx, isbnKey(isbn))
	}

	b, err := r.Repository.FindByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}

	r.setBook(ctx, b)
	return b, nil
}

// Save 落库后删除缓存
func (r *cachedBookRepository) Save(ctx context.Context, b *book.Book) (*book.Book, error) {
	saved, err := r.Repository.Save(ctx, b)
	if err != nil {
		return nil, err
	}

	r.del(ctx, idKey(saved.ID), isbnKey(saved.ISBN))
	return saved, nil
}

// Delete 删除后清理缓存
func (r *cachedBookRepository) Delete(ctx context.Context, b *book.Book) error {
	if err := r.Repository.Delete(ctx, b); err != nil {
		return err
	}

	r.del(ctx, idKey(b.ID), isbnKey(b.ISBN))
	return nil
}

// getBook 读取详情缓存
func (r *cachedBookRepository) getBook(ctx context.Context, id uint) (*book.Book, bool) {
	var val []byte
	err := r.breaker.Execute(func() error {
		var err error
		val, err = r.client.Get(ctx, idKey(id)).Bytes()
		return err
	})
	if !r.record(err, idKey(id)) {
		return nil, false
	}

	var cb cachedBook
	if err := json.Unmarshal(val, &cb); err != nil {
		r.logger.Warn("缓存反序列化失败", zap.Uint("id", id), zap.Error(err))
		r.del(ctx, idKey(id))
		return nil, false
	}
	return fromCached(&cb), true
}

// getISBN 读取isbn→id映射
func (r *cachedBookRepository) getISBN(ctx context.Context, isbn string) (uint, bool) {
	var val string
	err := r.breaker.Execute(func() error {
		var err error
		val, err = r.client.Get(ctx, isbnKey(isbn)).Result()
		return err
	})
	if !r.record(err, isbnKey(isbn)) {
		return 0, false
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		r.del(ctx, isbnKey(isbn))
		return 0, false
	}
	return uint(id), true
}

// setBook 回填详情缓存和isbn映射
func (r *cachedBookRepository) setBook(ctx context.Context, b *book.Book) {
	val, err := json.Marshal(toCached(b))
	if err != nil {
		r.logger.Warn("缓存序列化失败", zap.Uint("id", b.ID), zap.Error(err))
		return
	}

	err = r.breaker.Execute(func() error {
		pipe := r.client.TxPipeline()
		pipe.Set(ctx, idKey(b.ID), val, r.ttl)
		pipe.Set(ctx, isbnKey(b.ISBN), b.ID, r.ttl)
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		r.logger.Warn("写入缓存失败", zap.Uint("id", b.ID), zap.Error(err))
	}
}

// del 删除缓存key，失败只记录日志（缓存会在TTL后过期）
func (r *cachedBookRepository) del(ctx context.Context, keys ...string) {
	err := r.breaker.Execute(func() error {
		return r.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		r.logger.Warn("删除缓存失败", zap.Strings("keys", keys), zap.Error(err))
	}
}

// record 记录缓存读取结果，返回是否命中
func (r *cachedBookRepository) record(err error, key string) bool {
	switch {
	case err == nil:
		metrics.RecordCacheResult(cacheHit)
		return true
	case errors.Is(err, redis.Nil):
		metrics.RecordCacheResult(cacheMiss)
	case errors.Is(err, circuitbreaker.ErrOpenState):
		metrics.RecordCacheResult(cacheRejected)
	default:
		metrics.RecordCacheResult(cacheError)
		r.logger.Warn("读取缓存失败,回源查询", zap.String("key", key), zap.Error(err))
	}
	return false
}

func idKey(id uint) string {
	return fmt.Sprintf("library:book:id:%d", id)
}

func isbnKey(isbn string) string {
	return "library:book:isbn:" + isbn
}

func toCached(b *book.Book) *cachedBook {
	return &cachedBook{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		PublicationYear: b.PublicationYear,
		Quantity:        b.Quantity,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func fromCached(cb *cachedBook) *book.Book {
	return &book.Book{
		ID:              cb.ID,
		Title:           cb.Title,
		Author:          cb.Author,
		ISBN:            cb.ISBN,
		PublicationYear: cb.PublicationYear,
		Quantity:        cb.Quantity,
		CreatedAt:       cb.CreatedAt,
		UpdatedAt:       cb.UpdatedAt,
	}
}
