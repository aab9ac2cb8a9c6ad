package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики жизненного цикла заказов.
type OrderMetrics struct {
	ordersCreated  prometheus.Counter
	ordersUpdated  prometheus.Counter
	statusChanges  *prometheus.CounterVec
	numberRetries  prometheus.Counter
	failedRequests *prometheus.CounterVec

	opDuration *prometheus.HistogramVec

	outboxEvents  prometheus.Counter
	historyEvents prometheus.Counter
}

// NewOrderMetrics создаёт метрики с регистрацией в default registerer.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "vendaspro_orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersUpdated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "vendaspro_orders_updated_total",
			Help: "Total number of order updates persisted",
		}),
		statusChanges: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "vendaspro_order_status_changes_total",
			Help: "Total number of order status transitions by target status",
		}, []string{"status"}),
		numberRetries: registerCounter(registerer, prometheus.CounterOpts{
			Name: "vendaspro_order_number_retries_total",
			Help: "Total number of retried order number allocations",
		}),
		failedRequests: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "vendaspro_order_requests_failed_total",
			Help: "Total number of failed order operations by kind",
		}, []string{"op"}),
		opDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "vendaspro_order_op_duration_seconds",
			Help:    "Duration of order operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"op"}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "vendaspro_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
		historyEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "vendaspro_order_history_events_total",
			Help: "Total number of order history events recorded",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordOrderUpdated увеличивает счётчик обновлённых заказов.
func (m *OrderMetrics) RecordOrderUpdated() {
	m.ordersUpdated.Inc()
}

// RecordStatusChange увеличивает счётчик переходов в указанный статус.
func (m *OrderMetrics) RecordStatusChange(status string) {
	m.statusChanges.WithLabelValues(status).Inc()
}

// RecordNumberRetry увеличивает счётчик повторных выдач номера заказа.
func (m *OrderMetrics) RecordNumberRetry() {
	m.numberRetries.Inc()
}

// RecordRequestFailed увеличивает счётчик неудачных операций.
func (m *OrderMetrics) RecordRequestFailed(op string) {
	m.failedRequests.WithLabelValues(op).Inc()
}

// RecordOpDuration записывает длительность операции.
func (m *OrderMetrics) RecordOpDuration(op string, duration time.Duration) {
	m.opDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *OrderMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}

// RecordHistoryEvent увеличивает счётчик событий истории заказа.
func (m *OrderMetrics) RecordHistoryEvent() {
	m.historyEvents.Inc()
}
