// Package analysis locates zero-crossings of sampled reaction forces.
//
// A crossing search runs in two passes:
//
//   - [ScanBrackets]: walk a time grid and keep every interval across which
//     the function changes sign
//   - [FindCrossings]: refine each interval with the bisection solver
//
// # Example
//
//	targets := analysis.ReactionTargets(linkage, mechanism.Ex, mechanism.Ey)
//	crossings, err := analysis.FindCrossings(ctx, solver, targets, grid.Times(), rootfind.DefaultParams())
//
// Only sign changes visible on the grid are found. Two roots closer than
// one grid step, or a root where the function touches zero between
// samples, can be missed; refine the grid when that matters.
package analysis
