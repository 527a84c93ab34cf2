package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/internal/interface/http/view"
)

// Options 路由开关
type Options struct {
	Metrics bool // 暴露/metrics
	Swagger bool // 暴露/swagger/*any
}

// New 创建Gin引擎并注册路由
// 中间件顺序：Recovery → RequestID → Tracing → Metrics → Logger
func New(
	opts Options,
	logger *zap.Logger,
	home *handler.HomeHandler,
	views *handler.BookViewHandler,
	api *handler.BookAPIHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Metrics(),
		middleware.Logger(logger),
	)
	r.SetHTMLTemplate(view.Templates())

	// 运维接口
	r.GET("/ping", home.Ping)
	if opts.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 页面
	r.GET("/", home.Index)

	books := r.Group("/books")
	{
		books.GET("", views.List)
		books.GET("/add", views.AddForm)
		books.POST("/add", views.Add)
		books.GET("/edit/:id", views.EditForm)
		books.POST("/update/:id", views.Update)
		books.POST("/delete/:id", views.Delete)

		// JSON API
		books.GET("/api", api.List)
		books.GET("/api/:id", api.Get)
		books.POST("/api", api.Create)
		books.PUT("/api/:id", api.Update)
		books.DELETE("/api/:id", api.Delete)
	}

	return r
}
