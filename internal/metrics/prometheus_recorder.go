package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	applyResults   *prom.CounterVec
	applyDuration  prom.Histogram
	revertAttempts *prom.CounterVec
	parseFailures  *prom.CounterVec
	superseded     *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.applyResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "displayctl",
			Name:      "apply_results_total",
			Help:      "Display configuration apply attempts by result",
		}, []string{"result"})
		pr.applyDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "displayctl",
			Name:      "apply_duration_seconds",
			Help:      "Duration of individual apply attempts",
			Buckets:   prom.DefBuckets,
		})
		pr.revertAttempts = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "displayctl",
			Name:      "revert_attempts_total",
			Help:      "Display configuration revert attempts by outcome",
		}, []string{"result"})
		pr.parseFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "displayctl",
			Name:      "parse_failures_total",
			Help:      "Configuration parse failures by axis",
		}, []string{"axis"})
		pr.superseded = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "displayctl",
			Name:      "tasks_superseded_total",
			Help:      "Scheduled tasks replaced before completion",
		}, []string{"task"})
		reg.MustRegister(pr.applyResults, pr.applyDuration, pr.revertAttempts, pr.parseFailures, pr.superseded)
	})
	return pr
}

func (p *PrometheusRecorder) IncApplyResult(result string) {
	if p == nil || p.applyResults == nil {
		return
	}
	p.applyResults.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) ObserveApplyDuration(d time.Duration) {
	if p == nil || p.applyDuration == nil {
		return
	}
	p.applyDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRevertAttempt(success bool) {
	if p == nil || p.revertAttempts == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.revertAttempts.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) IncParseFailure(axis string) {
	if p == nil || p.parseFailures == nil {
		return
	}
	p.parseFailures.WithLabelValues(axis).Inc()
}

func (p *PrometheusRecorder) IncTaskSuperseded(task string) {
	if p == nil || p.superseded == nil {
		return
	}
	p.superseded.WithLabelValues(task).Inc()
}
