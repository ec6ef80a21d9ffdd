package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingOperations 訂位操作次數，outcome 為 ok 或錯誤種類
	BookingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "operations_total",
			Help:      "The total number of booking operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// BookingDuration 單次訂位操作（含重試）花費的時間
	BookingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "booking",
			Name:      "operation_duration_seconds",
			Help:      "Time spent in booking operations including retries",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// BookingRetries 因 reference 碰撞或暫時性錯誤重跑交易的次數
	BookingRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "transaction_retries_total",
			Help:      "The total number of retried booking transactions",
		},
		[]string{"operation"},
	)

	SeatsReserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "seats_reserved_total",
			Help:      "The total number of seats taken from the ledger",
		},
	)

	SeatsReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "seats_released_total",
			Help:      "The total number of seats returned to the ledger",
		},
	)

	// EventsProcessed worker 處理的訂位事件
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking_events",
			Name:      "processed_total",
			Help:      "The total number of processed booking events",
		},
		[]string{"type", "result"},
	)

	EventsPublishFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking_events",
			Name:      "publish_failed_total",
			Help:      "The total number of booking events that could not be published",
		},
		[]string{"type"},
	)
)
