package rootfind

import (
	"errors"
	"fmt"
)

// Domain errors for root finding.
var (
	// ErrInvalidBracket indicates f(a) and f(b) share a strict sign.
	ErrInvalidBracket = errors.New("rootfind: interval does not contain a sign change")

	// ErrInvalidArgument indicates a bad tolerance, budget or bound.
	ErrInvalidArgument = errors.New("rootfind: invalid argument")

	// ErrNonFinite indicates f returned NaN or Inf inside the bracket.
	ErrNonFinite = errors.New("rootfind: function is not finite inside the interval")
)

// BracketError carries the endpoint values of a rejected bracket.
type BracketError struct {
	A, B   float64
	FA, FB float64
}

func (e *BracketError) Error() string {
	return fmt.Sprintf("rootfind: interval [%g, %g] does not contain a sign change (f(a)=%g, f(b)=%g)", e.A, e.B, e.FA, e.FB)
}

func (e *BracketError) Unwrap() error {
	return ErrInvalidBracket
}

// ArgumentError names the offending argument.
type ArgumentError struct {
	Name   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("rootfind: invalid %s: %s", e.Name, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// EvaluationError records the midpoint at which f stopped being finite.
type EvaluationError struct {
	X, FX     float64
	Iteration int
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("rootfind: f(%g) = %g at iteration %d", e.X, e.FX, e.Iteration)
}

func (e *EvaluationError) Unwrap() error {
	return ErrNonFinite
}
