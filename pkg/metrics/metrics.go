package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "classroom_reservation"

// ── 预约业务指标 ──

var (
	// ReservationTransitions 状态流转次数
	// Labels: action, result (ok | invalid | conflict | error)
	ReservationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reservation",
		Name:      "transitions_total",
		Help:      "Total reservation lifecycle transitions",
	}, []string{"action", "result"})

	// ConflictRejections 因时间冲突被拒绝的写入
	// Labels: operation (submit | modify | reject_cancellation)
	ConflictRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reservation",
		Name:      "conflict_rejections_total",
		Help:      "Total writes refused because of an overlapping reservation",
	}, []string{"operation"})
)

// ── 外部依赖指标 ──

var (
	// HolidayFetchFailures 节假日数据源失败次数（失败时按无节假日处理）
	HolidayFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "holiday",
		Name:      "fetch_failures_total",
		Help:      "Total holiday source failures degraded to an empty list",
	})

	// NotificationsSent 邮件通知发送结果
	// Labels: kind (approval | rejection | holiday), result (sent | failed | skipped)
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifier",
		Name:      "notifications_total",
		Help:      "Total notification attempts by kind and result",
	}, []string{"kind", "result"})
)

// ── HTTP 指标 ──

var (
	// HTTPRequestDuration 请求耗时
	// Labels: method, path (路由模板), status
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})
)
