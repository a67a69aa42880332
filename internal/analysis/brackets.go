package analysis

import (
	"math"

	"github.com/san-kum/linkage/internal/rootfind"
)

// ScanBrackets evaluates f at each instant and returns the intervals
// between consecutive instants across which f changes sign. A sample that
// is exactly zero yields the interval it starts (or, for the last sample,
// the interval it ends) so each such root is reported once.
//
// Intervals with a NaN or Inf at either end are skipped.
func ScanBrackets(f rootfind.Func, times []float64) []rootfind.Bracket {
	brackets, _ := scan(f, times)
	return brackets
}

// scan also returns the intervals skipped for a non-finite end sample.
func scan(f rootfind.Func, times []float64) (brackets, skipped []rootfind.Bracket) {
	if len(times) < 2 {
		return nil, nil
	}

	values := make([]float64, len(times))
	for i, t := range times {
		values[i] = f(t)
	}

	last := len(times) - 1
	for i := 0; i < last; i++ {
		fa, fb := values[i], values[i+1]
		br := rootfind.Bracket{A: times[i], B: times[i+1]}
		if !finite(fa) || !finite(fb) {
			skipped = append(skipped, br)
			continue
		}
		crosses := (fa < 0 && fb > 0) || (fa > 0 && fb < 0)
		if crosses || fa == 0 || (fb == 0 && i+1 == last) {
			brackets = append(brackets, br)
		}
	}
	return brackets, skipped
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
