package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/linkage/internal/mechanism"
)

// maxSamples caps a grid so a typo in dt cannot exhaust memory.
const maxSamples = 10_000_000

// Sample is the linkage state at one instant.
type Sample struct {
	T      float64
	Omega1 float64
	Omega2 float64
	mechanism.Reactions
}

func (s Sample) IsValid() bool {
	for _, v := range []float64{s.T, s.Omega1, s.Omega2, s.Dx, s.Dy, s.Ex, s.Ey} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Timed is implemented by metrics whose value belongs to one instant.
type Timed interface {
	At() float64
}

type Observer interface {
	OnSample(s Sample)
}

// Grid is an evenly spaced time vector from Start to Start+Duration
// inclusive.
type Grid struct {
	Start    float64 `yaml:"start" json:"start"`
	Duration float64 `yaml:"duration" json:"duration"`
	Dt       float64 `yaml:"dt" json:"dt"`
}

func DefaultGrid() Grid {
	return Grid{Start: 0, Duration: 4.0, Dt: 0.2}
}

func (g Grid) Validate() error {
	if math.IsNaN(g.Start) || math.IsInf(g.Start, 0) {
		return fmt.Errorf("start must be finite, got %f", g.Start)
	}
	if !(g.Dt > 0) || math.IsInf(g.Dt, 0) {
		return fmt.Errorf("dt must be positive, got %f", g.Dt)
	}
	if !(g.Duration > 0) || math.IsInf(g.Duration, 0) {
		return fmt.Errorf("duration must be positive, got %f", g.Duration)
	}
	if g.Duration/g.Dt > maxSamples {
		return fmt.Errorf("grid too fine: %.0f samples exceeds %d", g.Duration/g.Dt, maxSamples)
	}
	return nil
}

// Steps is the number of intervals. Rounding keeps 4.0/0.2 at 20.
func (g Grid) Steps() int {
	return int(math.Round(g.Duration / g.Dt))
}

// Times returns the sample instants. Each is computed from its index so
// no rounding error accumulates.
func (g Grid) Times() []float64 {
	n := g.Steps() + 1
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = g.Start + float64(i)*g.Dt
	}
	return ts
}

func (g Grid) End() float64 {
	return g.Start + float64(g.Steps())*g.Dt
}

type Result struct {
	Grid    Grid
	Times   []float64
	Samples []Sample
	Metrics map[string]float64
	// MetricTimes holds the instant of each Timed metric.
	MetricTimes map[string]float64
	StepsTaken  int
}

// Series extracts one reaction component across all samples.
func (r *Result) Series(c mechanism.Component) []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Get(c)
	}
	return out
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
