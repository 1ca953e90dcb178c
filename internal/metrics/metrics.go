// Package metrics регистрирует счётчики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics объединяет счётчики сервиса. Отдаются через /metrics.
type Metrics struct {
	extractions    *prometheus.CounterVec
	solves         prometheus.Counter
	degradedOrders prometheus.Counter
}

// New регистрирует счётчики в реестре по умолчанию.
func New() *Metrics {
	return &Metrics{
		extractions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "solvem8_extractions_total",
			Help: "Number of successful text extractions by document format.",
		}, []string{"format"}),
		solves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "solvem8_solves_total",
			Help: "Number of successfully generated solutions.",
		}),
		degradedOrders: promauto.NewCounter(prometheus.CounterOpts{
			Name: "solvem8_degraded_orders_total",
			Help: "Number of payment orders issued locally because the gateway was unreachable.",
		}),
	}
}

// ExtractionDone учитывает успешное извлечение текста.
func (m *Metrics) ExtractionDone(format string) {
	m.extractions.WithLabelValues(format).Inc()
}

// SolveDone учитывает успешно сгенерированное решение.
func (m *Metrics) SolveDone() {
	m.solves.Inc()
}

// DegradedOrder учитывает заказ, созданный в обход шлюза.
func (m *Metrics) DegradedOrder() {
	m.degradedOrders.Inc()
}
