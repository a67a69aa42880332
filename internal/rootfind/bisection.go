package rootfind

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Func is a pure scalar function of one variable.
type Func func(x float64) float64

// Bracket is an interval [A, B] expected to contain a sign change.
type Bracket struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
}

// Width returns B - A.
func (b Bracket) Width() float64 {
	return b.B - b.A
}

// Params bounds the iteration.
type Params struct {
	Tol     float64 `json:"tol" yaml:"tol"`
	MaxIter int     `json:"max_iter" yaml:"max_iter"`
}

// DefaultParams matches the tolerance and budget used for the reaction
// crossings.
func DefaultParams() Params {
	return Params{Tol: 1e-8, MaxIter: 100}
}

func (p Params) validate() error {
	if math.IsNaN(p.Tol) || p.Tol <= 0 {
		return &ArgumentError{Name: "tolerance", Reason: fmt.Sprintf("must be positive, got %g", p.Tol)}
	}
	if p.MaxIter <= 0 {
		return &ArgumentError{Name: "iteration budget", Reason: fmt.Sprintf("must be positive, got %d", p.MaxIter)}
	}
	return nil
}

func (b Bracket) validate() error {
	if math.IsNaN(b.A) || math.IsInf(b.A, 0) || math.IsNaN(b.B) || math.IsInf(b.B, 0) {
		return &ArgumentError{Name: "bracket", Reason: fmt.Sprintf("bounds must be finite, got [%g, %g]", b.A, b.B)}
	}
	if b.A >= b.B {
		return &ArgumentError{Name: "bracket", Reason: fmt.Sprintf("need a < b, got [%g, %g]", b.A, b.B)}
	}
	return nil
}

// Result is the outcome of a solve.
type Result struct {
	Root       float64
	FRoot      float64
	Iterations int
	HalfWidth  float64
	// Converged is false when the budget ran out before either stopping
	// criterion fired; Root is then the best-effort midpoint.
	Converged bool
}

// Iteration is one halving step as seen by a trace hook.
type Iteration struct {
	K         int
	A, B      float64
	C, FC     float64
	HalfWidth float64
}

// Bisection finds roots by interval halving.
type Bisection struct {
	logger *zap.Logger
	trace  func(Iteration)
}

type Option func(*Bisection)

// WithLogger routes the budget-exhaustion diagnostic to l. Without it the
// global logger (zap.L) at construction time is used.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bisection) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithTrace calls fn after every midpoint evaluation, including the last.
func WithTrace(fn func(Iteration)) Option {
	return func(b *Bisection) { b.trace = fn }
}

func NewBisection(opts ...Option) *Bisection {
	b := &Bisection{logger: zap.L()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Logger is the logger diagnostics are written to.
func (s *Bisection) Logger() *zap.Logger {
	return s.logger
}

// Solve narrows br onto a root of f.
//
// Arguments are checked before f is called. The sign-change precondition
// costs exactly two evaluations; after that each iteration evaluates f
// once at the midpoint, reusing the cached value at the left end. A NaN or
// Inf at a midpoint aborts the solve with an [EvaluationError].
func (s *Bisection) Solve(f Func, br Bracket, p Params) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}
	if err := br.validate(); err != nil {
		return Result{}, err
	}

	a, b := br.A, br.B
	fa, fb := f(a), f(b)
	if !isFinite(fa) || !isFinite(fb) || sameSign(fa, fb) {
		return Result{}, &BracketError{A: a, B: b, FA: fa, FB: fb}
	}

	if fa == 0 {
		return Result{Root: a, HalfWidth: (b - a) / 2, Converged: true}, nil
	}
	if fb == 0 {
		return Result{Root: b, HalfWidth: (b - a) / 2, Converged: true}, nil
	}

	for k := 1; k <= p.MaxIter; k++ {
		c := (a + b) / 2
		fc := f(c)
		hw := (b - a) / 2

		if s.trace != nil {
			s.trace(Iteration{K: k, A: a, B: b, C: c, FC: fc, HalfWidth: hw})
		}
		if !isFinite(fc) {
			return Result{}, &EvaluationError{X: c, FX: fc, Iteration: k}
		}

		if math.Abs(fc) < p.Tol || hw < p.Tol {
			return Result{Root: c, FRoot: fc, Iterations: k, HalfWidth: hw, Converged: true}, nil
		}

		if oppositeSign(fa, fc) {
			b = c
		} else {
			a, fa = c, fc
		}
	}

	root := (a + b) / 2
	hw := (b - a) / 2
	s.logger.Warn(fmt.Sprintf("best approximation after %d iterations: t = %.8f", p.MaxIter, root),
		zap.Int("iterations", p.MaxIter),
		zap.Float64("root", root),
		zap.Float64("half_width", hw),
	)

	return Result{Root: root, FRoot: f(root), Iterations: p.MaxIter, HalfWidth: hw}, nil
}

// Bisect is the plain form of [Bisection.Solve]: it returns only the root.
// Budget exhaustion is reported on the global logger.
func Bisect(f Func, a, b, tol float64, maxIter int) (float64, error) {
	res, err := NewBisection().Solve(f, Bracket{A: a, B: b}, Params{Tol: tol, MaxIter: maxIter})
	if err != nil {
		return 0, err
	}
	return res.Root, nil
}

// Signs are compared directly; a product can overflow or underflow.
func sameSign(x, y float64) bool {
	return (x > 0 && y > 0) || (x < 0 && y < 0)
}

func oppositeSign(x, y float64) bool {
	return (x > 0 && y < 0) || (x < 0 && y > 0)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
