// Package metrics instruments compiled programs with Prometheus counters and a latency
// histogram, labelled by evaluation strategy.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/robbyt/go-polyexpr/engines/types"
	"github.com/robbyt/go-polyexpr/platform"
	"github.com/robbyt/go-polyexpr/platform/future"
)

const (
	resultSuccess  = "success"
	resultError    = "error"
	resultCanceled = "canceled"
)

// Metrics holds the collectors shared by every instrumented program.
type Metrics struct {
	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inflight    *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. Collectors already registered
// by an earlier call with the same reg are reused, so New may be called once per
// compilation. A nil reg leaves the collectors unregistered.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "polyexpr_evaluations_total",
			Help: "Total number of expression evaluations by strategy and result.",
		}, []string{"strategy", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "polyexpr_evaluation_duration_seconds",
			Help:    "Time from the start of an evaluation until its result is available.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"strategy"}),
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "polyexpr_evaluations_inflight",
			Help: "Number of evaluations started and not yet complete.",
		}, []string{"strategy"}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.evaluations, err = register(reg, m.evaluations); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.inflight, err = register(reg, m.inflight); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

// Wrap returns p instrumented under the strategy label.
func Wrap[E any](m *Metrics, strategy types.Type, p platform.Program[E]) platform.Program[E] {
	return &program[E]{
		Program:     p,
		evaluations: m.evaluations.MustCurryWith(prometheus.Labels{"strategy": strategy.String()}),
		duration:    m.duration.WithLabelValues(strategy.String()),
		inflight:    m.inflight.WithLabelValues(strategy.String()),
	}
}

type program[E any] struct {
	platform.Program[E]
	evaluations *prometheus.CounterVec
	duration    prometheus.Observer
	inflight    prometheus.Gauge
}

func (p *program[E]) Eval(ctx context.Context, env E) (string, error) {
	done := p.start()
	out, err := p.Program.Eval(ctx, env)
	done(err)
	return out, err
}

func (p *program[E]) EvalAsync(ctx context.Context, env E) *future.Future {
	done := p.start()
	f := p.Program.EvalAsync(ctx, env)
	f.OnComplete(func(_ any, err error) { done(err) })
	return f
}

func (p *program[E]) start() func(error) {
	p.inflight.Inc()
	begin := time.Now()
	return func(err error) {
		p.inflight.Dec()
		p.duration.Observe(time.Since(begin).Seconds())
		p.evaluations.WithLabelValues(result(err)).Inc()
	}
}

func result(err error) string {
	switch {
	case err == nil:
		return resultSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resultCanceled
	default:
		return resultError
	}
}
