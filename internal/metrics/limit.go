package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/sim"
)

// Within reports the fraction of samples whose reaction magnitude stays at
// or below a bearing load limit.
type Within struct {
	name       string
	component  mechanism.Component
	limit      float64
	violations int
	samples    int
}

func NewWithin(c mechanism.Component, limit float64) *Within {
	return &Within{
		name:      fmt.Sprintf("within_%s", c),
		component: c,
		limit:     limit,
	}
}

func (w *Within) Name() string {
	return w.name
}

func (w *Within) Observe(s sim.Sample) {
	w.samples++
	if math.Abs(s.Get(w.component)) > w.limit {
		w.violations++
	}
}

func (w *Within) Value() float64 {
	if w.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(w.violations)/float64(w.samples)
}

func (w *Within) Reset() {
	w.violations = 0
	w.samples = 0
}

// Defaults returns peak and RMS metrics for every component, plus a load
// limit check per component when limit > 0.
func Defaults(limit float64) []sim.Metric {
	ms := make([]sim.Metric, 0, 3*len(mechanism.Components))
	for _, c := range mechanism.Components {
		ms = append(ms, NewPeak(c), NewRMS(c))
		if limit > 0 {
			ms = append(ms, NewWithin(c, limit))
		}
	}
	return ms
}
