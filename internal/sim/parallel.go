package sim

import (
	"context"
	"sync"

	"github.com/san-kum/linkage/internal/mechanism"
)

// Ensemble samples several linkages over the same grid concurrently.
type Ensemble struct {
	linkages   []*mechanism.Linkage
	newMetrics func() []Metric
}

// NewEnsemble builds an ensemble. newMetrics, if set, is called once per
// run so metric state is never shared between goroutines.
func NewEnsemble(linkages []*mechanism.Linkage, newMetrics func() []Metric) *Ensemble {
	return &Ensemble{linkages: linkages, newMetrics: newMetrics}
}

// Run returns one result per linkage, in input order.
func (e *Ensemble) Run(ctx context.Context, grid Grid) ([]*Result, error) {
	results := make([]*Result, len(e.linkages))
	errs := make([]error, len(e.linkages))

	var wg sync.WaitGroup
	for i, l := range e.linkages {
		wg.Add(1)
		go func(idx int, l *mechanism.Linkage) {
			defer wg.Done()

			s := New(l)
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					s.AddMetric(m)
				}
			}

			results[idx], errs[idx] = s.Run(ctx, grid)
		}(i, l)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
