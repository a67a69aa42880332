// Package expr compiles user expressions in t into root-finding targets.
package expr

import (
	"fmt"
	"math"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/rootfind"
)

// Expr is a compiled expression of the single variable t.
type Expr struct {
	source string
	expr   *govaluate.EvaluableExpression
}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// Compile parses source. Besides the usual math functions it understands
// dx, dy, ex, ey, omega1 and omega2 of t, evaluated on a snapshot of l's
// parameters taken now.
func Compile(source string, l *mechanism.Linkage) (*Expr, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("empty expression")
	}

	funcs := map[string]govaluate.ExpressionFunction{
		"sin":  unary(math.Sin),
		"cos":  unary(math.Cos),
		"tan":  unary(math.Tan),
		"exp":  unary(math.Exp),
		"log":  unary(math.Log),
		"sqrt": unary(math.Sqrt),
		"abs":  unary(math.Abs),
		"pow": func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("pow takes 2 arguments, got %d", len(args))
			}
			return math.Pow(toFloat(args[0]), toFloat(args[1])), nil
		},
	}

	if l != nil {
		for _, c := range mechanism.Components {
			funcs[c.String()] = unary(l.Func(c))
		}
		p := l.Params()
		funcs["omega1"] = unary(p.Omega1)
		funcs["omega2"] = unary(p.Omega2)
	}

	parsed, err := govaluate.NewEvaluableExpressionWithFunctions(source, funcs)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", source, err)
	}
	for _, v := range parsed.Vars() {
		if _, ok := constants[v]; !ok && v != "t" {
			return nil, fmt.Errorf("parse %q: unknown variable %q (only t is free)", source, v)
		}
	}

	return &Expr{source: source, expr: parsed}, nil
}

func (e *Expr) String() string {
	return e.source
}

// Eval evaluates the expression at t. Each call uses its own parameter
// map, so an Expr may be shared between goroutines.
func (e *Expr) Eval(t float64) (float64, error) {
	params := make(map[string]interface{}, len(constants)+1)
	for k, v := range constants {
		params[k] = v
	}
	params["t"] = t

	v, err := e.expr.Evaluate(params)
	if err != nil {
		return math.NaN(), err
	}

	switch r := v.(type) {
	case float64:
		return r, nil
	case int:
		return float64(r), nil
	case int64:
		return float64(r), nil
	case bool:
		return math.NaN(), fmt.Errorf("%q is a condition, not a number", e.source)
	default:
		return math.NaN(), fmt.Errorf("%q did not evaluate to a number: %T", e.source, v)
	}
}

// Func adapts e for the solver. Evaluation errors become NaN, which the
// solver rejects: as an invalid bracket at the ends, as a non-finite
// evaluation inside.
func (e *Expr) Func() rootfind.Func {
	return func(t float64) float64 {
		v, err := e.Eval(t)
		if err != nil {
			return math.NaN()
		}
		return v
	}
}

func unary(f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		return f(toFloat(args[0])), nil
	}
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return math.NaN()
	}
}
