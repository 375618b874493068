package rib

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/message"
)

// LevelStats is the per-length counters of component C9, grounded on
// original_source/src/common.rs's TrieLevelStats.
type LevelStats struct {
	Length int
	Nodes  uint64
	Prefix uint64
}

// stats holds one atomic counter pair per address length, plus the
// Prometheus collector wired over them.
type stats struct {
	nodes   []atomic.Uint64
	prefix  []atomic.Uint64
	family  string
	nodeGV  *prometheus.GaugeVec
	prefGV  *prometheus.GaugeVec
}

func newStats(width int, family string) *stats {
	s := &stats{
		nodes:  make([]atomic.Uint64, width+1),
		prefix: make([]atomic.Uint64, width+1),
		family: family,
		nodeGV: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rib",
			Subsystem: "store",
			Name:      "nodes",
			Help:      "Number of trie nodes stored, by prefix length.",
		}, []string{"family", "length"}),
		prefGV: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rib",
			Subsystem: "store",
			Name:      "prefixes",
			Help:      "Number of stored prefixes, by length.",
		}, []string{"family", "length"}),
	}
	return s
}

func (s *stats) recordNode(length uint8) {
	s.nodes[length].Add(1)
}

func (s *stats) recordPrefix(length uint8, isNew bool) {
	if isNew {
		s.prefix[length].Add(1)
	}
}

// PerLevel returns a snapshot of LevelStats for every configured length,
// satisfying the "stats_per_level()" external interface (spec.md §6).
func (s *stats) PerLevel() []LevelStats {
	out := make([]LevelStats, len(s.nodes))
	for i := range s.nodes {
		out[i] = LevelStats{
			Length: i,
			Nodes:  s.nodes[i].Load(),
			Prefix: s.prefix[i].Load(),
		}
	}
	return out
}

// Collect implements prometheus.Collector, publishing the per-level
// counters as gauges labeled by address family and length.
func (s *stats) Collect(ch chan<- prometheus.Metric) {
	p := message.NewPrinter(message.MatchLanguage("en"))
	for i := range s.nodes {
		length := p.Sprintf("%d", i)
		s.nodeGV.WithLabelValues(s.family, length).Set(float64(s.nodes[i].Load()))
		s.prefGV.WithLabelValues(s.family, length).Set(float64(s.prefix[i].Load()))
	}
	s.nodeGV.Collect(ch)
	s.prefGV.Collect(ch)
}

// Describe implements prometheus.Collector.
func (s *stats) Describe(ch chan<- *prometheus.Desc) {
	s.nodeGV.Describe(ch)
	s.prefGV.Describe(ch)
}
