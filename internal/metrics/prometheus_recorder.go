package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

const namespace = "blogbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	moduleLoads   *prom.HistogramVec
	contentItems  *prom.GaugeVec
	assetBytes    prom.Counter
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		moduleLoads: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "module_load_duration_seconds",
			Help:      "Duration of module loads by handler",
			Buckets:   prom.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"handler"}),
		contentItems: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "content_items",
			Help:      "Items in the last aggregated manifest of a content directory",
		}, []string{"dir"}),
		assetBytes: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "asset_bytes_total",
			Help:      "Bytes of emitted build assets",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.moduleLoads, pr.contentItems, pr.assetBytes)
	return pr
}

// Registry returns the registry the metrics are registered with.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveModuleLoad(handler string, d time.Duration) {
	if p == nil {
		return
	}
	p.moduleLoads.WithLabelValues(handler).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetContentItems(dir string, n int) {
	if p == nil {
		return
	}
	p.contentItems.WithLabelValues(dir).Set(float64(n))
}

func (p *PrometheusRecorder) AddAssetBytes(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.assetBytes.Add(float64(n))
}

// WriteTextfile writes the current metrics in the text exposition format,
// for the node exporter's textfile collector. The file is replaced
// atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write metrics textfile").
			WithContext("path", path).
			Build()
	}
	return nil
}
