package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// TestInitMetrics 测试指标初始化
func TestInitMetrics(t *testing.T) {
	InitMetrics()
	// 重复调用不应panic（promauto重复注册会panic）
	InitMetrics()

	if !Enabled() {
		t.Fatal("指标未初始化")
	}
	if HTTPRequestDuration == nil || HTTPRequestsInProgress == nil {
		t.Error("HTTP指标未初始化")
	}
	if BookOperationsTotal == nil || BookCacheRequestsTotal == nil {
		t.Error("业务指标未初始化")
	}
}

// TestRecordBookOperation 测试按错误码归类
func TestRecordBookOperation(t *testing.T) {
	InitMetrics()

	tests := []struct {
		name   string
		err    error
		result string
	}{
		{"成功", nil, "success"},
		{"不存在", apperrors.New(apperrors.ErrCodeBookNotFound, "Book not found"), "not_found"},
		{"重复", apperrors.New(apperrors.ErrCodeISBNDuplicate, "dup"), "duplicate"},
		{"参数错误", apperrors.ErrInvalidParams, "invalid"},
		{"其他错误", errors.New("disk full"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := map[string]string{"operation": "test_" + tt.result, "result": tt.result}
			before := getCounterVecValue(t, BookOperationsTotal, labels)

			RecordBookOperation("test_"+tt.result, tt.err)

			after := getCounterVecValue(t, BookOperationsTotal, labels)
			if after-before != 1 {
				t.Errorf("Counter值错误: expected=+1, got=%+f", after-before)
			}
		})
	}
}

// TestGauge 测试Gauge递增递减
func TestGauge(t *testing.T) {
	InitMetrics()

	initial := getGaugeValue(t, HTTPRequestsInProgress)
	IncGauge(HTTPRequestsInProgress)
	IncGauge(HTTPRequestsInProgress)
	DecGauge(HTTPRequestsInProgress)

	if v := getGaugeValue(t, HTTPRequestsInProgress); v != initial+1 {
		t.Errorf("Gauge值错误: expected=%f, got=%f", initial+1, v)
	}
}

// TestNilSafe 未初始化的指标不应panic
func TestNilSafe(t *testing.T) {
	IncCounterVec(nil, map[string]string{"a": "b"})
	IncGauge(nil)
	DecGauge(nil)
	ObserveHistogramVec(nil, nil, 1)
}

// 辅助函数：获取CounterVec值
func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels map[string]string) float64 {
	var metric dto.Metric
	if err := counterVec.With(labels).Write(&metric); err != nil {
		t.Fatalf("读取CounterVec值失败: %v", err)
	}
	return metric.Counter.GetValue()
}

// 辅助函数：获取Gauge值
func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	var metric dto.Metric
	if err := gauge.Write(&metric); err != nil {
		t.Fatalf("读取Gauge值失败: %v", err)
	}
	return metric.Gauge.GetValue()
}
