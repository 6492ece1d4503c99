package sim

import (
	"context"
	"fmt"
	"sync"
)

// Ensemble runs independent simulators side by side, one goroutine per run.
// Each run builds its own world so nothing is shared between goroutines.
type Ensemble struct {
	build   func(run int) (*Simulator, error)
	clock   func(run int) TimeSource
	numRuns int
}

func NewEnsemble(numRuns int, build func(run int) (*Simulator, error), clock func(run int) TimeSource) *Ensemble {
	return &Ensemble{build: build, clock: clock, numRuns: numRuns}
}

func (e *Ensemble) Run(ctx context.Context, maxTicks int) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s, err := e.build(idx)
			if err != nil {
				errs[idx] = fmt.Errorf("run %d: %w", idx, err)
				return
			}
			results[idx], err = s.Run(ctx, e.clock(idx), NoInput{}, maxTicks)
			if err != nil {
				errs[idx] = fmt.Errorf("run %d: %w", idx, err)
			}
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
