package book

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/book"
)

// 图书变更事件的路由键
const (
	EventBookAdded   = "book.added"
	EventBookUpdated = "book.updated"
	EventBookDeleted = "book.deleted"
)

// EventPublisher 消息发布（mq.Publisher实现）
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// BookEvent 图书变更事件
type BookEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	BookID     uint      `json:"book_id"`
	ISBN       string    `json:"isbn,omitempty"`
	Title      string    `json:"title,omitempty"`
	Quantity   *int      `json:"quantity,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// notifyingService 写操作成功后发布变更事件
// 发布失败只记日志，不影响写操作的结果
type notifyingService struct {
	book.Service

	publisher EventPublisher
	logger    *zap.Logger
}

// NewNotifyingService 包装领域服务，查询方法原样透传
func NewNotifyingService(next book.Service, publisher EventPublisher, logger *zap.Logger) book.Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &notifyingService{
		Service:   next,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *notifyingService) AddBook(ctx context.Context, b *book.Book) (*book.Book, error) {
	saved, err := s.Service.AddBook(ctx, b)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, newBookEvent(EventBookAdded, saved))
	return saved, nil
}

func (s *notifyingService) UpdateBook(ctx context.Context, id uint, data *book.Book) (*book.Book, error) {
	updated, err := s.Service.UpdateBook(ctx, id, data)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, newBookEvent(EventBookUpdated, updated))
	return updated, nil
}

func (s *notifyingService) DeleteBook(ctx context.Context, id uint) error {
	if err := s.Service.DeleteBook(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, BookEvent{
		ID:         uuid.NewString(),
		Type:       EventBookDeleted,
		BookID:     id,
		OccurredAt: time.Now(),
	})
	return nil
}

// pendingEventsKey context中待发布事件的key
type pendingEventsKey struct{}

// pendingEvents 事务内产生的事件，提交后统一发布
type pendingEvents struct {
	mu     sync.Mutex
	events []func(ctx context.Context)
}

// deferEvents 返回的context中写操作产生的事件只入队，调用flush才真正发布
// 事务回滚时丢弃即可，不调用flush
func deferEvents(ctx context.Context) (context.Context, *pendingEvents) {
	p := &pendingEvents{}
	return context.WithValue(ctx, pendingEventsKey{}, p), p
}

func (p *pendingEvents) add(fn func(ctx context.Context)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, fn)
}

// flush 按产生顺序发布并清空
func (p *pendingEvents) flush(ctx context.Context) {
	p.mu.Lock()
	events := p.events
	p.events = nil
	p.mu.Unlock()

	for _, fn := range events {
		fn(ctx)
	}
}

func (s *notifyingService) publish(ctx context.Context, event BookEvent) {
	if p, ok := ctx.Value(pendingEventsKey{}).(*pendingEvents); ok {
		p.add(func(ctx context.Context) { s.send(ctx, event) })
		return
	}
	s.send(ctx, event)
}

func (s *notifyingService) send(ctx context.Context, event BookEvent) {
	if err := s.publisher.Publish(ctx, event.Type, event); err != nil {
		s.logger.Warn("发布图书事件失败",
			zap.String("type", event.Type),
			zap.Uint("book_id", event.BookID),
			zap.Error(err),
		)
	}
}

func newBookEvent(typ string, b *book.Book) BookEvent {
	quantity := b.Quantity
	return BookEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		BookID:     b.ID,
		ISBN:       b.ISBN,
		Title:      b.Title,
		Quantity:   &quantity,
		OccurredAt: time.Now(),
	}
}
