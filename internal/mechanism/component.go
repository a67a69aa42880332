package mechanism

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/linkage/internal/rootfind"
)

var ErrInvalidParams = errors.New("mechanism: invalid parameters")

// Component selects one reaction force.
type Component int

const (
	Dx Component = iota
	Dy
	Ex
	Ey
)

// Components lists every component in table order.
var Components = []Component{Dx, Dy, Ex, Ey}

func (c Component) String() string {
	switch c {
	case Dx:
		return "dx"
	case Dy:
		return "dy"
	case Ex:
		return "ex"
	case Ey:
		return "ey"
	}
	return fmt.Sprintf("component(%d)", int(c))
}

// Label is the display name, e.g. "Dx".
func (c Component) Label() string {
	s := c.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// Support is the support point the component acts on.
func (c Component) Support() string {
	if c == Dx || c == Dy {
		return "D"
	}
	return "E"
}

func ParseComponent(s string) (Component, error) {
	for _, c := range Components {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown component: %s (available: dx, dy, ex, ey)", s)
}

// Func returns the component as a function of time. The closure captures
// a copy of the parameters, so later SetParam calls do not affect it.
func (l *Linkage) Func(c Component) rootfind.Func {
	snapshot := &Linkage{params: l.params}
	switch c {
	case Dx:
		return snapshot.Dx
	case Dy:
		return snapshot.Dy
	case Ex:
		return snapshot.Ex
	default:
		return snapshot.Ey
	}
}
