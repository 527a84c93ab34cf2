package main

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/infrastructure/config"
)

// App 组装完成的应用
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	server    *http.Server
	seed      *appbook.SeedCatalogUseCase
	telemetry *telemetry
}

func newApp(
	cfg *config.Config,
	log *zap.Logger,
	server *http.Server,
	seed *appbook.SeedCatalogUseCase,
	t *telemetry,
) *App {
	return &App{
		cfg:       cfg,
		logger:    log,
		server:    server,
		seed:      seed,
		telemetry: t,
	}
}

// Run 启动HTTP服务，ctx取消后优雅关闭
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Seed.Enabled {
		added, err := a.seed.Execute(ctx, appbook.SampleBooks())
		if err != nil {
			return err
		}
		a.logger.Info("示例数据初始化完成", zap.Int("added", added))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("服务启动",
			zap.String("addr", a.server.Addr),
			zap.String("driver", a.cfg.Database.Driver),
			zap.Bool("cache", a.cfg.Cache.Enabled),
			zap.String("flash", a.cfg.Flash.Store),
			zap.Bool("tracing", a.telemetry.tracing),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("正在关闭服务")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
