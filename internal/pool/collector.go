package pool

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource reports the pools to export, keyed by a stable pool label.
type StatsSource interface {
	PoolStats() map[string]Stats
}

// Collector exports pool snapshots as Prometheus metrics.
type Collector struct {
	src StatsSource

	connections *prometheus.Desc
	maxConns    *prometheus.Desc
	acquired    *prometheus.Desc
	exhausted   *prometheus.Desc
	discarded   *prometheus.Desc
}

// NewCollector builds a collector over src. Register it with a
// prometheus.Registerer to expose the metrics.
func NewCollector(src StatsSource) *Collector {
	labels := []string{"pool"}
	return &Collector{
		src: src,
		connections: prometheus.NewDesc("dbinspect_pool_connections",
			"Sessions held by the pool, by state.", []string{"pool", "state"}, nil),
		maxConns: prometheus.NewDesc("dbinspect_pool_max_connections",
			"Configured maximum pool size.", labels, nil),
		acquired: prometheus.NewDesc("dbinspect_pool_acquired_total",
			"Successful session acquisitions.", labels, nil),
		exhausted: prometheus.NewDesc("dbinspect_pool_exhausted_total",
			"Acquisitions that timed out on a full pool.", labels, nil),
		discarded: prometheus.NewDesc("dbinspect_pool_discarded_total",
			"Sessions discarded after failed validation or a suspect release.", labels, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.connections
	ch <- c.maxConns
	ch <- c.acquired
	ch <- c.exhausted
	ch <- c.discarded
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, st := range c.src.PoolStats() {
		ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(st.Total), name, "total")
		ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(st.Available), name, "available")
		ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(st.Borrowed), name, "borrowed")
		ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(st.Pending), name, "pending")
		ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(st.Max), name)
		ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.CounterValue, float64(st.Acquired), name)
		ch <- prometheus.MustNewConstMetric(c.exhausted, prometheus.CounterValue, float64(st.Exhausted), name)
		ch <- prometheus.MustNewConstMetric(c.discarded, prometheus.CounterValue, float64(st.Discarded), name)
	}
}
