package allocator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	bytesInUseDesc = prometheus.NewDesc(
		"scopetree_scope_bytes_in_use",
		"Bytes handed out by the scope arena since its last reset.",
		[]string{"scope"}, nil,
	)
	chunksDesc = prometheus.NewDesc(
		"scopetree_scope_chunks",
		"Backing regions currently held by the scope arena.",
		[]string{"scope"}, nil,
	)
	resetsDesc = prometheus.NewDesc(
		"scopetree_scope_resets_total",
		"Number of times the scope has been reset.",
		[]string{"scope"}, nil,
	)
	subscriptionsDesc = prometheus.NewDesc(
		"scopetree_scope_subscriptions",
		"Lifecycle subscriptions currently registered on the scope.",
		[]string{"scope"}, nil,
	)
)

// Collector exports Stats for a set of scopes. Destroyed scopes are dropped
// from the output on the next scrape.
type Collector struct {
	mu     sync.Mutex
	scopes []*Scope
}

// NewCollector returns a collector watching scopes.
func NewCollector(scopes ...*Scope) *Collector {
	return &Collector{scopes: scopes}
}

// Add starts exporting s.
func (c *Collector) Add(s *Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopes = append(c.scopes, s)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- bytesInUseDesc
	ch <- chunksDesc
	ch <- resetsDesc
	ch <- subscriptionsDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	live := c.scopes[:0]
	for _, s := range c.scopes {
		if !s.Destroyed() {
			live = append(live, s)
		}
	}
	c.scopes = live
	scopes := make([]*Scope, len(live))
	copy(scopes, live)
	c.mu.Unlock()

	for _, s := range scopes {
		st := s.Stats()
		ch <- prometheus.MustNewConstMetric(bytesInUseDesc, prometheus.GaugeValue, float64(st.BytesInUse), s.Name())
		ch <- prometheus.MustNewConstMetric(chunksDesc, prometheus.GaugeValue, float64(st.Chunks), s.Name())
		ch <- prometheus.MustNewConstMetric(resetsDesc, prometheus.CounterValue, float64(st.Resets), s.Name())
		ch <- prometheus.MustNewConstMetric(subscriptionsDesc, prometheus.GaugeValue, float64(st.Subscriptions), s.Name())
	}
}

var _ prometheus.Collector = (*Collector)(nil)
