package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики жизненного цикла заказов.
type OrderMetrics struct {
	// Счётчики операций
	ordersCreated   prometheus.Counter
	ordersCanceled  prometheus.Counter
	statusChanges   prometheus.Counter
	publishFailures prometheus.Counter

	// Гистограмма времени выполнения операций сервиса
	operationDuration *prometheus.HistogramVec

	// Gauge активных публикаций саги
	inflightPublishes prometheus.Gauge
}

// NewOrderMetrics создаёт новый экземпляр метрик заказов.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersCanceled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_canceled_total",
			Help: "Total number of orders canceled",
		}),
		statusChanges: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_status_changes_total",
			Help: "Total number of order status transitions recorded",
		}),
		publishFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_saga_publish_failures_total",
			Help: "Total number of failed reserve_inventory publications",
		}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "orders_operation_duration_seconds",
			Help:    "Duration of order service operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		inflightPublishes: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "orders_saga_publishes_in_flight",
			Help: "Number of reserve_inventory publications in flight",
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

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
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

// RecordOrderCanceled увеличивает счётчик отменённых заказов.
func (m *OrderMetrics) RecordOrderCanceled() {
	m.ordersCanceled.Inc()
}

// RecordStatusChange увеличивает счётчик переходов статуса.
func (m *OrderMetrics) RecordStatusChange() {
	m.statusChanges.Inc()
}

// RecordPublishFailure увеличивает счётчик отказов публикации саги.
func (m *OrderMetrics) RecordPublishFailure() {
	m.publishFailures.Inc()
}

// RecordOperationDuration записывает время выполнения операции сервиса.
func (m *OrderMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordPublishStarted увеличивает число публикаций в полёте.
func (m *OrderMetrics) RecordPublishStarted() {
	m.inflightPublishes.Inc()
}

// RecordPublishFinished уменьшает число публикаций в полёте.
func (m *OrderMetrics) RecordPublishFinished() {
	m.inflightPublishes.Dec()
}
