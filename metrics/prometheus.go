package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector records upscaler lifetime events on a private
// Prometheus registry.
type PrometheusCollector struct {
	contextsLive      prometheus.Gauge
	contextsDestroyed prometheus.Counter
	fencesPending     prometheus.Gauge
	fencesDrained     prometheus.Counter
	historyLive       prometheus.Gauge
	registry          *prometheus.Registry
}

// NewPrometheusCollector creates a collector with all metrics registered.
func NewPrometheusCollector() *PrometheusCollector {
	registry := prometheus.NewRegistry()

	c := &PrometheusCollector{
		contextsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "upscaler_contexts_live",
			Help: "Number of upscaler contexts that still hold a reference",
		}),
		contextsDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "upscaler_contexts_destroyed_total",
			Help: "Total number of upscaler contexts torn down on last release",
		}),
		fencesPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "upscaler_fences_pending",
			Help: "Number of GPU fences queued and not yet drained",
		}),
		fencesDrained: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "upscaler_fences_drained_total",
			Help: "Total number of GPU fences removed from activity queues",
		}),
		historyLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "upscaler_history_records_live",
			Help: "Number of per-view history records that still hold a reference",
		}),
		registry: registry,
	}

	registry.MustRegister(
		c.contextsLive,
		c.contextsDestroyed,
		c.fencesPending,
		c.fencesDrained,
		c.historyLive,
	)
	return c
}

func (c *PrometheusCollector) ContextCreated() {
	c.contextsLive.Inc()
}

func (c *PrometheusCollector) ContextDestroyed() {
	c.contextsLive.Dec()
	c.contextsDestroyed.Inc()
}

func (c *PrometheusCollector) FenceQueued() {
	c.fencesPending.Inc()
}

func (c *PrometheusCollector) FencesDrained(n int) {
	if n <= 0 {
		return
	}
	c.fencesPending.Sub(float64(n))
	c.fencesDrained.Add(float64(n))
}

func (c *PrometheusCollector) HistoryCreated() {
	c.historyLive.Inc()
}

func (c *PrometheusCollector) HistoryDestroyed() {
	c.historyLive.Dec()
}

// Registry returns the Prometheus registry for HTTP exposure.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}
