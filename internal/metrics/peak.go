package metrics

import (
	"math"

	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/sim"
)

// Peak tracks the largest magnitude of one reaction component.
type Peak struct {
	name      string
	component mechanism.Component
	peak      float64
	at        float64
	samples   int
}

func NewPeak(c mechanism.Component) *Peak {
	return &Peak{
		name:      "peak_" + c.String(),
		component: c,
	}
}

func (p *Peak) Name() string {
	return p.name
}

func (p *Peak) Observe(s sim.Sample) {
	v := math.Abs(s.Get(p.component))
	if p.samples == 0 || v > p.peak {
		p.peak = v
		p.at = s.T
	}
	p.samples++
}

func (p *Peak) Value() float64 {
	return p.peak
}

// At is the time of the peak.
func (p *Peak) At() float64 {
	return p.at
}

func (p *Peak) Reset() {
	p.peak = 0
	p.at = 0
	p.samples = 0
}
