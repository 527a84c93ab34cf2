// Package metrics 提供基于Prometheus的指标收集
//
// # 指标类型
//
//   - Counter（计数器）：只增不减的累计值，如HTTP请求总数、图书新增次数
//   - Gauge（仪表盘）：可增可减的瞬时值，如正在处理的请求数、熔断器状态
//   - Histogram（直方图）：观测值的分布，如HTTP请求耗时
//
// # 使用示例
//
//	// 1. 程序启动时初始化
//	metrics.InitMetrics()
//
//	// 2. 暴露/metrics端点
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	// 3. 业务代码记录指标
//	metrics.RecordBookOperation("add", err)
//
// # 命名规范
//
//   - Counter以`_total`结尾：`books_operations_total`
//   - Histogram以单位结尾：`http_request_duration_seconds`
//   - 标签只用有限取值（method、operation、result），不要用book_id之类的高基数字段
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

var (
	// initOnce 防止重复注册
	initOnce sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数（Counter）
	// 标签：method（GET/POST）、path（路由模板，如/books/api/:id）、status（200/404）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（Histogram）
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数（Gauge）
	HTTPRequestsInProgress prometheus.Gauge

	// 业务指标

	// BookOperationsTotal 图书写操作总数（Counter）
	// 标签：operation（add/update/delete）、result（success/not_found/duplicate/invalid/error）
	BookOperationsTotal *prometheus.CounterVec

	// BookCacheRequestsTotal 图书缓存访问总数（Counter）
	// 标签：result（hit/miss/error/rejected）
	BookCacheRequestsTotal *prometheus.CounterVec

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（Gauge）
	// 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec
)

// InitMetrics 初始化所有Prometheus指标
// 使用promauto注册到默认Registry，可以重复调用
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP请求总数",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP请求耗时（秒）",
				// 桶设置：1ms、10ms、100ms、500ms、1s、5s、10s
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		)

		HTTPRequestsInProgress = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_progress",
				Help: "正在处理的HTTP请求数",
			},
		)

		BookOperationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "books_operations_total",
				Help: "图书写操作总数",
			},
			[]string{"operation", "result"},
		)

		BookCacheRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "book_cache_requests_total",
				Help: "图书缓存访问总数",
			},
			[]string{"result"},
		)

		CircuitBreakerState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
			},
			[]string{"name"},
		)
	})
}

// Enabled 指标是否已初始化
// 未初始化时所有Record*函数都是空操作，单元测试不必关心指标注册
func Enabled() bool {
	return HTTPRequestsTotal != nil
}

// IncCounterVec 递增CounterVec（带标签）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter == nil {
		return
	}
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Dec()
}

// ObserveHistogramVec 记录Histogram观测值（带标签）
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	if histogram == nil {
		return
	}
	histogram.With(labels).Observe(value)
}

// RecordBookOperation 记录一次图书写操作
func RecordBookOperation(operation string, err error) {
	IncCounterVec(BookOperationsTotal, map[string]string{
		"operation": operation,
		"result":    classify(err),
	})
}

// RecordCacheResult 记录一次缓存访问结果（hit/miss/error/rejected）
func RecordCacheResult(result string) {
	IncCounterVec(BookCacheRequestsTotal, map[string]string{"result": result})
}

// SetCircuitBreakerState 记录熔断器状态
func SetCircuitBreakerState(name string, state int) {
	if CircuitBreakerState == nil {
		return
	}
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// classify 按业务错误码把错误归类为有限的标签值
func classify(err error) string {
	if err == nil {
		return "success"
	}
	switch apperrors.GetAppError(err).Code {
	case apperrors.ErrCodeBookNotFound, apperrors.ErrCodeNotFound:
		return "not_found"
	case apperrors.ErrCodeISBNDuplicate, apperrors.ErrCodeDuplicateEntry:
		return "duplicate"
	case apperrors.ErrCodeInvalidParams, apperrors.ErrCodeBindError:
		return "invalid"
	default:
		return "error"
	}
}
