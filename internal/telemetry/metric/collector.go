package metric

import "github.com/prometheus/client_golang/prometheus"

// ListenerStats is implemented by the enrollment listener.
type ListenerStats interface {
	// QueueDepth is the number of datagrams waiting for a worker.
	QueueDepth() int
	// QueueCapacity is the queue size, zero when processing inline.
	QueueCapacity() int
	// TrackedSources is the number of senders with a live rate limiter.
	TrackedSources() int
}

// Collector reports listener state at scrape time.
type Collector struct {
	stats ListenerStats

	queueDepth    *prometheus.Desc
	queueCapacity *prometheus.Desc
	sources       *prometheus.Desc
}

// NewCollector creates a collector reading from stats.
func NewCollector(stats ListenerStats) *Collector {
	return &Collector{
		stats: stats,
		queueDepth: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "listener", "queue_depth"),
			"Datagrams waiting for a worker",
			nil, nil,
		),
		queueCapacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "listener", "queue_capacity"),
			"Datagram queue size, 0 when processing inline",
			nil, nil,
		),
		sources: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "listener", "rate_limited_sources"),
			"Senders with a live rate limiter",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queueDepth
	ch <- c.queueCapacity
	ch <- c.sources
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(c.stats.QueueDepth()))
	ch <- prometheus.MustNewConstMetric(c.queueCapacity, prometheus.GaugeValue, float64(c.stats.QueueCapacity()))
	ch <- prometheus.MustNewConstMetric(c.sources, prometheus.GaugeValue, float64(c.stats.TrackedSources()))
}
