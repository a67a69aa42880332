package metrics

import (
	"math"

	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/sim"
)

type RMS struct {
	name      string
	component mechanism.Component
	sumSq     float64
	samples   int
}

func NewRMS(c mechanism.Component) *RMS {
	return &RMS{
		name:      "rms_" + c.String(),
		component: c,
	}
}

func (r *RMS) Name() string {
	return r.name
}

func (r *RMS) Observe(s sim.Sample) {
	v := s.Get(r.component)
	r.sumSq += v * v
	r.samples++
}

func (r *RMS) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return math.Sqrt(r.sumSq / float64(r.samples))
}

func (r *RMS) Reset() {
	r.sumSq = 0
	r.samples = 0
}
