//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 说明：
// 1. Wire在编译期生成依赖创建代码，零运行时开销
// 2. 运行 `wire gen ./cmd/api` 生成wire_gen.go
// 3. Provider与main.go的buildApp共用（见providers.go）

package main

import (
	"github.com/google/wire"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/router"
)

// ========================================
// Wire Provider Sets（依赖分组）
// ========================================

// infrastructureSet 基础设施层依赖
// 包含：日志、指标与追踪、数据库连接、Redis连接、事件发布
var infrastructureSet = wire.NewSet(
	provideLogger,
	provideTelemetry,
	provideDB,
	provideRedis,
	providePublisher,
)

// repositorySet 仓储层依赖
// 按驱动选择memory/database实现，可选Redis缓存
var repositorySet = wire.NewSet(
	provideBookRepository,
	provideTransactor,
)

// domainSet 领域层依赖
var domainSet = wire.NewSet(
	provideBookService,
)

// applicationSet 应用层依赖
var applicationSet = wire.NewSet(
	appbook.NewListBooksUseCase,
	appbook.NewSeedCatalogUseCase,
)

// handlerSet HTTP处理器依赖
var handlerSet = wire.NewSet(
	provideFlashStore,
	handler.NewHomeHandler,
	handler.NewBookViewHandler,
	handler.NewBookAPIHandler,
)

// serverSet 路由与HTTP服务
var serverSet = wire.NewSet(
	provideRouterOptions,
	router.New,
	provideServer,
	newApp,
)

// InitializeApp 初始化整个应用
// 返回的cleanup按创建的逆序释放资源
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		handlerSet,
		serverSet,
	)
	return nil, nil, nil
}
