package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal       *prometheus.CounterVec
	processDuration    *prometheus.HistogramVec
	processInFlight    prometheus.Gauge
	lineItemsExtracted *prometheus.HistogramVec
	validationOutcomes *prometheus.CounterVec
	tablesRejected     *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invaudit",
			Subsystem: "worker",
			Name:      "invoice_process_total",
			Help:      "Total processed invoices by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invaudit",
			Subsystem: "worker",
			Name:      "invoice_process_duration_seconds",
			Help:      "Invoice pipeline duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "invaudit",
			Subsystem: "worker",
			Name:      "invoice_process_in_flight",
			Help:      "Number of in-flight invoice pipeline runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	lineItemsExtracted := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invaudit",
			Subsystem: "worker",
			Name:      "line_items_extracted",
			Help:      "Line items extracted per invoice.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"service"},
	)
	validationOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invaudit",
			Subsystem: "worker",
			Name:      "validation_outcomes_total",
			Help:      "Validation outcomes by anomaly kind.",
		},
		[]string{"service", "anomaly"},
	)
	tablesRejected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invaudit",
			Subsystem: "worker",
			Name:      "tables_rejected_total",
			Help:      "Candidate tables hard-rejected as garbage.",
		},
		[]string{"service", "strategy"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, lineItemsExtracted, validationOutcomes, tablesRejected)

	return &WorkerMetrics{
		registry:           registry,
		processTotal:       processTotal,
		processDuration:    processDuration,
		processInFlight:    processInFlight,
		lineItemsExtracted: lineItemsExtracted,
		validationOutcomes: validationOutcomes,
		tablesRejected:     tablesRejected,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartInvoice() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishInvoice(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveLineItems(service string, count int) {
	m.lineItemsExtracted.WithLabelValues(service).Observe(float64(count))
}

func (m *WorkerMetrics) CountOutcomes(service, anomaly string, count int) {
	if count <= 0 {
		return
	}
	if anomaly == "" {
		anomaly = "pass"
	}
	m.validationOutcomes.WithLabelValues(service, anomaly).Add(float64(count))
}

func (m *WorkerMetrics) CountRejectedTables(service, strategy string, count int) {
	if count <= 0 {
		return
	}
	m.tablesRejected.WithLabelValues(service, strategy).Add(float64(count))
}
