package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/router"

	_ "github.com/xiebiao/library/docs"
)

// @title       Library Catalog API
// @version     1.0
// @description 图书馆目录管理：页面与JSON API
// @BasePath    /
func main() {
	os.Exit(run(config.Load))
}

// run 启动并阻塞到服务退出，返回进程退出码
// 在run内defer清理资源，保证os.Exit前已全部执行
func run(load func() (*config.Config, error)) int {
	// 1. 加载配置
	cfg, err := load()
	if err != nil {
		log.Printf("加载配置失败: %v", err)
		return 1
	}

	// 2. 组装依赖
	app, cleanup, err := buildApp(cfg)
	if err != nil {
		log.Printf("初始化应用失败: %v", err)
		return 1
	}
	defer cleanup()

	// 3. 运行，收到SIGINT/SIGTERM后优雅关闭
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		app.logger.Error("服务异常退出", zap.Error(err))
		return 1
	}
	return 0
}

// buildApp 手动依赖注入
// 依赖链：Repository ← Service ← UseCase ← Handler ← Router
// 与wire.go中InitializeApp的组装结果一致
func buildApp(cfg *config.Config) (*App, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// 基础设施层
	logger, closeLogger, err := provideLogger(cfg)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeLogger)

	t, closeTelemetry, err := provideTelemetry(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeTelemetry)

	db, closeDB, err := provideDB(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeDB)

	redisClient, closeRedis, err := provideRedis(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeRedis)

	publisher, closePublisher, err := providePublisher(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closePublisher)

	bookRepo := provideBookRepository(cfg, db, redisClient, logger)

	// 领域层
	bookService := provideBookService(bookRepo, publisher, logger)

	// 应用层
	listBooks := appbook.NewListBooksUseCase(bookService)
	seedCatalog := appbook.NewSeedCatalogUseCase(bookService, provideTransactor(db), logger)

	// 接口层
	flashStore := provideFlashStore(cfg, redisClient, logger)
	engine := router.New(
		provideRouterOptions(cfg),
		logger,
		handler.NewHomeHandler(flashStore),
		handler.NewBookViewHandler(bookService, listBooks, flashStore, logger),
		handler.NewBookAPIHandler(bookService, listBooks, logger),
	)

	return newApp(cfg, logger, provideServer(cfg, engine), seedCatalog, t), cleanup, nil
}
