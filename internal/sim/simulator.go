package sim

import (
	"context"

	"github.com/san-kum/linkage/internal/mechanism"
)

// Simulator samples a linkage over a time grid.
type Simulator struct {
	linkage   *mechanism.Linkage
	metrics   []Metric
	observers []Observer
}

func New(l *mechanism.Linkage) *Simulator {
	return &Simulator{
		linkage:   l,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Linkage() *mechanism.Linkage { return s.linkage }

// Sample evaluates the linkage at t.
func (s *Simulator) Sample(t float64) Sample {
	p := s.linkage.Params()
	return Sample{
		T:         t,
		Omega1:    p.Omega1(t),
		Omega2:    p.Omega2(t),
		Reactions: s.linkage.ReactionsAt(t),
	}
}

// Run evaluates every grid instant. On a non-finite sample it stops and
// returns the samples taken so far together with a SimError.
func (s *Simulator) Run(ctx context.Context, grid Grid) (*Result, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	times := grid.Times()
	result := &Result{
		Grid:        grid,
		Times:       make([]float64, 0, len(times)),
		Samples:     make([]Sample, 0, len(times)),
		Metrics:     make(map[string]float64),
		MetricTimes: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	for i, t := range times {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		smp := s.Sample(t)
		if !smp.IsValid() {
			return result, SimError{Time: t, Step: i, Message: "invalid sample (NaN/Inf)"}
		}

		for _, m := range s.metrics {
			m.Observe(smp)
		}
		for _, obs := range s.observers {
			obs.OnSample(smp)
		}

		result.Times = append(result.Times, t)
		result.Samples = append(result.Samples, smp)
		result.StepsTaken++
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
		if tm, ok := m.(Timed); ok {
			result.MetricTimes[m.Name()] = tm.At()
		}
	}

	return result, nil
}
