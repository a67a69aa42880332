// Package viz renders sampled linkage runs in the terminal.
//
//   - [WriteTable]: tabulated reactions per sample
//   - [WriteCrossings], [WriteMetrics]: summaries of a run
//   - [ReactionPlots]: asciigraph charts of the D and E reactions
//   - [WatchModel]: a Bubble Tea viewer stepping through the samples
//
// # Key Bindings (watch)
//
//	Space - Play/Pause
//	←/→   - Step one sample
//	n/p   - Jump to next/previous crossing
//	Home  - Back to the first sample
//	q     - Quit
package viz
