// Package rootfind provides a bracketing root finder for scalar functions.
//
// The package exposes a single method, interval bisection:
//
//   - [Bisect]: one-shot call returning only the root estimate
//   - [Bisection]: reusable solver with logging and tracing options
//   - [Bracket], [Params], [Result]: immutable inputs and outputs
//
// # Example
//
//	f := func(t float64) float64 { return t*t - 2 }
//	res, err := rootfind.NewBisection().Solve(f, rootfind.Bracket{A: 0, B: 2}, rootfind.Params{Tol: 1e-10, MaxIter: 200})
//
// # Stopping
//
// Iteration stops as soon as |f(c)| < Tol or the bracket half-width drops
// below Tol. When MaxIter halvings are spent first, the final midpoint is
// returned with Converged=false and a warning is logged; this is not an
// error. A non-finite f at either end fails with [ErrInvalidBracket]; at a
// midpoint it fails with [ErrNonFinite].
//
// # Thread Safety
//
// A Bisection carries no mutable state and may be shared between
// goroutines, provided the functions it is given are pure.
package rootfind
