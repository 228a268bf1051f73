package pipeline

import "github.com/prometheus/client_golang/prometheus"

type executorMetricsProvider struct {
	steps    *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newExecutorMetricsProvider(registry *prometheus.Registry) *executorMetricsProvider {
	if registry == nil {
		return nil
	}

	provider := &executorMetricsProvider{
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_steps_total",
				Help: "Total number of executed pipeline steps by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_step_retries_total",
				Help: "Total number of step retry attempts by provider",
			},
			[]string{"provider"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_step_duration_seconds",
				Help:    "Wall-clock duration of pipeline steps by provider",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		provider.steps,
		provider.retries,
		provider.duration,
	)

	return provider
}

func (p *executorMetricsProvider) ObserveStep(provider, outcome string, seconds float64) {
	if p == nil {
		return
	}
	p.steps.WithLabelValues(provider, outcome).Inc()
	p.duration.WithLabelValues(provider).Observe(seconds)
}

func (p *executorMetricsProvider) IncrementRetries(provider string) {
	if p == nil {
		return
	}
	p.retries.WithLabelValues(provider).Inc()
}
