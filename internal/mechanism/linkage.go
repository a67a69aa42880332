package mechanism

import (
	"fmt"
	"math"
	"sort"
)

// Params are the geometry and mass properties of the linkage, in SI units.
type Params struct {
	AB      float64 `yaml:"ab" json:"ab"`             // distance A to B (m)
	BC      float64 `yaml:"bc" json:"bc"`             // distance B to C (m)
	CD      float64 `yaml:"cd" json:"cd"`             // distance C to D (m)
	DE      float64 `yaml:"de" json:"de"`             // distance D to E (m)
	Mass    float64 `yaml:"mass" json:"mass"`         // disk mass (kg)
	Radius  float64 `yaml:"radius" json:"radius"`     // disk radius (m)
	Torque  float64 `yaml:"torque" json:"torque"`     // drive torque M0 (N*m)
	Omega10 float64 `yaml:"omega1_0" json:"omega1_0"` // initial disk spin (rad/s)
	Alpha1  float64 `yaml:"alpha1" json:"alpha1"`     // disk spin acceleration (rad/s^2)
}

func DefaultParams() Params {
	return Params{
		AB:      0.06,
		BC:      0.12,
		CD:      0.15,
		DE:      0.30,
		Mass:    3.0,
		Radius:  0.08,
		Torque:  1.0,
		Omega10: 90,
		Alpha1:  -15,
	}
}

func (p Params) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"ab", p.AB}, {"bc", p.BC}, {"cd", p.CD}, {"de", p.DE},
		{"mass", p.Mass}, {"radius", p.Radius},
	}
	for _, f := range positive {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidParams, f.name, f.v)
		}
	}
	for name, v := range map[string]float64{"torque": p.Torque, "omega1_0": p.Omega10, "alpha1": p.Alpha1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %g", ErrInvalidParams, name, v)
		}
	}
	return nil
}

// Inertia is the arm's moment of inertia about the drive axis.
func (p Params) Inertia() float64 {
	return p.Mass * (0.25*p.Radius*p.Radius + p.BC*p.BC + p.AB*p.AB)
}

// Alpha2 is the arm's angular acceleration under the drive torque.
func (p Params) Alpha2() float64 {
	return p.Torque / p.Inertia()
}

func (p Params) Omega1(t float64) float64 {
	return p.Omega10 + p.Alpha1*t
}

func (p Params) Omega2(t float64) float64 {
	return p.Alpha2() * t
}

// Linkage evaluates the support reactions of the driven disk linkage.
// The zero value is not usable; build one with New or NewLinkage.
type Linkage struct {
	params Params
}

func NewLinkage() *Linkage {
	return &Linkage{params: DefaultParams()}
}

func New(p Params) (*Linkage, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Linkage{params: p}, nil
}

func (l *Linkage) Params() Params {
	return l.params
}

// Reactions are the support forces at D and E (N).
type Reactions struct {
	Dx, Dy float64
	Ex, Ey float64
}

// Get returns the value of one component.
func (r Reactions) Get(c Component) float64 {
	switch c {
	case Dx:
		return r.Dx
	case Dy:
		return r.Dy
	case Ex:
		return r.Ex
	case Ey:
		return r.Ey
	}
	return math.NaN()
}

func (l *Linkage) Ex(t float64) float64 {
	p := l.params
	w2 := p.Omega2(t)
	return (p.Mass / p.DE) * (-0.5*p.Radius*p.Radius*p.Alpha1 + p.CD*p.AB*p.Alpha2() - p.CD*p.BC*w2*w2)
}

func (l *Linkage) Ey(t float64) float64 {
	p := l.params
	w1, w2 := p.Omega1(t), p.Omega2(t)
	return (p.Mass / p.DE) * (-0.5*p.Radius*p.Radius*w1*w2 + p.CD*p.BC*p.Alpha2() + p.CD*p.AB*w2*w2)
}

func (l *Linkage) Dx(t float64) float64 {
	p := l.params
	w2 := p.Omega2(t)
	return p.Mass*(p.AB*p.Alpha2()-p.BC*w2*w2) - l.Ex(t)
}

func (l *Linkage) Dy(t float64) float64 {
	p := l.params
	w2 := p.Omega2(t)
	return p.Mass*(p.BC*p.Alpha2()+p.AB*w2*w2) - l.Ey(t)
}

func (l *Linkage) ReactionsAt(t float64) Reactions {
	ex, ey := l.Ex(t), l.Ey(t)
	p := l.params
	w2 := p.Omega2(t)
	a2 := p.Alpha2()
	return Reactions{
		Dx: p.Mass*(p.AB*a2-p.BC*w2*w2) - ex,
		Dy: p.Mass*(p.BC*a2+p.AB*w2*w2) - ey,
		Ex: ex,
		Ey: ey,
	}
}

// GetParams exposes the parameters by yaml name for sweeps and the TUI.
func (l *Linkage) GetParams() map[string]float64 {
	p := l.params
	return map[string]float64{
		"ab":       p.AB,
		"bc":       p.BC,
		"cd":       p.CD,
		"de":       p.DE,
		"mass":     p.Mass,
		"radius":   p.Radius,
		"torque":   p.Torque,
		"omega1_0": p.Omega10,
		"alpha1":   p.Alpha1,
	}
}

// SetParam updates one parameter; the change is rejected when the result
// would not validate.
func (l *Linkage) SetParam(name string, value float64) error {
	p := l.params
	switch name {
	case "ab":
		p.AB = value
	case "bc":
		p.BC = value
	case "cd":
		p.CD = value
	case "de":
		p.DE = value
	case "mass":
		p.Mass = value
	case "radius":
		p.Radius = value
	case "torque":
		p.Torque = value
	case "omega1_0":
		p.Omega10 = value
	case "alpha1":
		p.Alpha1 = value
	default:
		return fmt.Errorf("%w: unknown parameter %q (available: %v)", ErrInvalidParams, name, ParamNames())
	}
	if err := p.Validate(); err != nil {
		return err
	}
	l.params = p
	return nil
}

// ParamNames lists the names accepted by SetParam, sorted.
func ParamNames() []string {
	names := make([]string, 0, 9)
	for k := range NewLinkage().GetParams() {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
