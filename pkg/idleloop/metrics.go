package idleloop

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/criteo/cpuload-probe/pkg/cpuload"
	"github.com/criteo/cpuload-probe/pkg/utils"
)

var loadAverage = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: utils.MetricSuffix + "_average",
	Help: "Busy ratio averaged over the sliding window, in scale units",
}, []string{"name"})

var loadPeak = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: utils.MetricSuffix + "_peak",
	Help: "Highest windowed average seen since start, in scale units",
}, []string{"name"})

var loadRatio = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: utils.MetricSuffix + "_average_ratio",
	Help: "Busy ratio averaged over the sliding window, between 0 and 1",
}, []string{"name"})

var loadScale = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: utils.MetricSuffix + "_scale",
	Help: "Value of the average and peak gauges at 100% load",
}, []string{"name"})

var intervalsClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: utils.MetricSuffix + "_intervals_closed_total",
	Help: "Total number of measurement intervals closed",
}, []string{"name"})

var spansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: utils.MetricSuffix + "_spans_total",
	Help: "Total number of measured spans by classification",
}, []string{"name", "class"})

// instruments holds the label-resolved metrics of one driver so the idle
// loop does not look them up on every cycle.
type instruments struct {
	average prometheus.Gauge
	peak    prometheus.Gauge
	ratio   prometheus.Gauge
	closed  prometheus.Counter
	spans   [2]prometheus.Counter
	scale   uint32
}

func newInstruments(cfg cpuload.Config) *instruments {
	loadScale.WithLabelValues(cfg.Name).Set(float64(cfg.Scale))
	m := &instruments{
		average: loadAverage.WithLabelValues(cfg.Name),
		peak:    loadPeak.WithLabelValues(cfg.Name),
		ratio:   loadRatio.WithLabelValues(cfg.Name),
		closed:  intervalsClosedTotal.WithLabelValues(cfg.Name),
		scale:   cfg.Scale,
	}
	m.spans[Idle] = spansTotal.WithLabelValues(cfg.Name, Idle.String())
	m.spans[Busy] = spansTotal.WithLabelValues(cfg.Name, Busy.String())
	m.observe(cpuload.Snapshot{Average: cfg.Scale})
	return m
}

func (m *instruments) observe(s cpuload.Snapshot) {
	m.average.Set(float64(s.Average))
	m.peak.Set(float64(s.Peak))
	m.ratio.Set(utils.Ratio(s.Average, m.scale))
}
