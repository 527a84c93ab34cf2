package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/database"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/http/flash"
	"github.com/xiebiao/library/internal/interface/http/router"
	"github.com/xiebiao/library/pkg/logger"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/mq"
	"github.com/xiebiao/library/pkg/tracing"
)

// 自定义Provider
// main.go手动组装和wire.go共用同一组函数

// provideLogger 根据配置创建zap Logger
func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

// telemetry 标记指标与追踪已初始化
type telemetry struct {
	tracing bool
}

// provideTelemetry 初始化Prometheus指标和OpenTelemetry追踪
// 追踪导出器创建失败只记录警告，不影响启动
func provideTelemetry(cfg *config.Config, log *zap.Logger) (*telemetry, func(), error) {
	if cfg.Metrics.Enabled {
		metrics.InitMetrics()
	}

	t := &telemetry{}
	cleanup := func() {}
	if !cfg.Tracing.Enabled {
		return t, cleanup, nil
	}

	shutdown, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		log.Warn("初始化追踪失败，继续以无追踪模式运行", zap.Error(err))
		return t, cleanup, nil
	}
	t.tracing = true
	log.Info("追踪已开启", zap.String("endpoint", cfg.Tracing.Endpoint))

	return t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			log.Warn("关闭追踪失败", zap.Error(err))
		}
	}, nil
}

// provideDB 非memory驱动时打开数据库，memory驱动返回nil
func provideDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		return nil, func() {}, nil
	}
	db, err := database.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if err := database.Close(db); err != nil {
			log.Warn("关闭数据库失败", zap.Error(err))
		}
	}, nil
}

// provideRedis redis.enabled为false时返回nil
func provideRedis(cfg *config.Config, log *zap.Logger) (*goredis.Client, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() {
		if err := client.Close(); err != nil {
			log.Warn("关闭Redis失败", zap.Error(err))
		}
	}, nil
}

// provideBookRepository 按驱动选择仓储实现，开启缓存时外包一层Redis缓存
func provideBookRepository(cfg *config.Config, db *gorm.DB, client *goredis.Client, log *zap.Logger) book.Repository {
	var repo book.Repository
	if db == nil {
		repo = memory.NewBookRepository()
	} else {
		repo = database.NewBookRepository(db)
	}

	if cfg.Cache.Enabled && client != nil {
		repo = redis.NewCachedBookRepository(repo, client, cfg.Cache.DetailTTL, log)
	}
	return repo
}

// providePublisher events.enabled为false时返回nil
func providePublisher(cfg *config.Config, log *zap.Logger) (appbook.EventPublisher, func(), error) {
	if !cfg.Events.Enabled {
		return nil, func() {}, nil
	}
	publisher, err := mq.NewPublisher(cfg.Events.URL, cfg.Events.Exchange, "topic", log)
	if err != nil {
		return nil, nil, err
	}
	return publisher, func() { _ = publisher.Close() }, nil
}

// provideBookService 领域服务，开启事件时包装为发布变更事件的服务
func provideBookService(repo book.Repository, publisher appbook.EventPublisher, log *zap.Logger) book.Service {
	svc := book.NewService(repo, log)
	if publisher == nil {
		return svc
	}
	return appbook.NewNotifyingService(svc, publisher, log)
}

// provideTransactor 内存存储没有事务，返回nil
func provideTransactor(db *gorm.DB) appbook.Transactor {
	if db == nil {
		return nil
	}
	return database.NewTxManager(db)
}

// provideFlashStore 按配置选择flash消息存储
func provideFlashStore(cfg *config.Config, client *goredis.Client, log *zap.Logger) flash.Store {
	if cfg.Flash.Store == config.FlashStoreRedis && client != nil {
		return flash.NewRedisStore(redis.NewFlashStore(client), cfg.Flash.TTL, log)
	}
	return flash.NewCookieStore()
}

// provideRouterOptions 路由开关
func provideRouterOptions(cfg *config.Config) router.Options {
	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	return router.Options{
		Metrics: cfg.Metrics.Enabled,
		Swagger: cfg.Server.Swagger,
	}
}

// provideServer 创建HTTP服务
func provideServer(cfg *config.Config, engine *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
