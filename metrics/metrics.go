// Package metrics exports parser statistics as Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava12/packrat/parser"
)

const (
	namespace    = "packrat"
	grammarLabel = "grammar"
	resultLabel  = "result"
)

// Parse results used as label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector holds parser metrics labeled by grammar name.
type Collector struct {
	parses     *prometheus.CounterVec
	calls      *prometheus.CounterVec
	memoHits   *prometheus.CounterVec
	memoStores *prometheus.CounterVec
	backtracks *prometheus.CounterVec
	actions    *prometheus.CounterVec
	inputSize  *prometheus.HistogramVec
	depth      *prometheus.HistogramVec
}

// New creates collector and registers its metrics.
// Default registerer is used if reg is nil.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	grammarLabels := []string{grammarLabel}
	c := &Collector{
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parses_total",
			Help:      "The number of Parse calls by result.",
		}, []string{grammarLabel, resultLabel}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_calls_total",
			Help:      "The number of rule procedure invocations.",
		}, grammarLabels),
		memoHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memo_hits_total",
			Help:      "The number of rule invocations answered from memo table.",
		}, grammarLabels),
		memoStores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memo_stores_total",
			Help:      "The number of memo table entries stored.",
		}, grammarLabels),
		backtracks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backtracks_total",
			Help:      "The number of cursor restorations moving cursor back.",
		}, grammarLabels),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "The number of host action calls.",
		}, grammarLabels),
		inputSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "input_codepoints",
			Help:      "Histogram of parsed input length in codepoints.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}, grammarLabels),
		depth: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "max_depth",
			Help:      "Histogram of maximum rule invocation depth per parse.",
			Buckets:   prometheus.ExponentialBuckets(4, 2, 8),
		}, grammarLabels),
	}

	for _, col := range c.collectors() {
		if e := reg.Register(col); e != nil {
			return nil, e
		}
	}
	return c, nil
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.parses, c.calls, c.memoHits, c.memoStores,
		c.backtracks, c.actions, c.inputSize, c.depth,
	}
}

// Observe adds statistics of single parse.
func (c *Collector) Observe(grammar string, s parser.Stats) {
	result := ResultFailure
	if s.Success {
		result = ResultSuccess
	}
	c.parses.WithLabelValues(grammar, result).Inc()
	c.calls.WithLabelValues(grammar).Add(float64(s.Calls))
	c.memoHits.WithLabelValues(grammar).Add(float64(s.MemoHits))
	c.memoStores.WithLabelValues(grammar).Add(float64(s.MemoStores))
	c.backtracks.WithLabelValues(grammar).Add(float64(s.Backtracks))
	c.actions.WithLabelValues(grammar).Add(float64(s.Actions))
	c.inputSize.WithLabelValues(grammar).Observe(float64(s.Input))
	c.depth.WithLabelValues(grammar).Observe(float64(s.MaxDepth))
}

// Option returns parser option feeding statistics of grammar to collector.
func (c *Collector) Option(grammar string) parser.Option {
	return parser.WithObserver(func(s parser.Stats) {
		c.Observe(grammar, s)
	})
}
