package oclstat

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports tracker statistics as Prometheus metrics. Values are
// read from the registry at scrape time.
type Collector struct {
	t *Tracker

	alive      *prometheus.Desc
	created    *prometheus.Desc
	violations *prometheus.Desc
	leaked     *prometheus.Desc
	estimated  *prometheus.Desc
}

// NewCollector creates a collector for t.
func NewCollector(t *Tracker) *Collector {
	return &Collector{
		t: t,
		alive: prometheus.NewDesc("oclstat_alive_resources",
			"OpenCL objects with a reference count above zero.",
			[]string{"category"}, nil),
		created: prometheus.NewDesc("oclstat_created_resources_total",
			"OpenCL objects created since the process started.",
			[]string{"category"}, nil),
		violations: prometheus.NewDesc("oclstat_protocol_violations_total",
			"Retain, release or create calls that did not match the tracked state.",
			[]string{"category"}, nil),
		leaked: prometheus.NewDesc("oclstat_leaked_bytes",
			"Bytes held by alive memory objects; a lower bound when images are alive.",
			nil, nil),
		estimated: prometheus.NewDesc("oclstat_estimated_image_bytes",
			"Estimated bytes held by alive images.",
			nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.alive
	ch <- c.created
	ch <- c.violations
	ch <- c.leaked
	ch <- c.estimated
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	var leaked, estimated uint64
	for _, st := range c.t.reg.Stats() {
		key := st.Category.Key()
		ch <- prometheus.MustNewConstMetric(c.alive, prometheus.GaugeValue, float64(st.Alive), key)
		ch <- prometheus.MustNewConstMetric(c.created, prometheus.CounterValue, float64(st.Created), key)
		ch <- prometheus.MustNewConstMetric(c.violations, prometheus.CounterValue, float64(st.Violations), key)
		leaked += st.Bytes
		estimated += st.EstimatedBytes
	}
	ch <- prometheus.MustNewConstMetric(c.leaked, prometheus.GaugeValue, float64(leaked))
	ch <- prometheus.MustNewConstMetric(c.estimated, prometheus.GaugeValue, float64(estimated))
}
