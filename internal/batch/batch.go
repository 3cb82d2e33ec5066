// Package batch runs repair loops over many units concurrently.
package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/codecritic/internal/repair"
	"github.com/dshills/codecritic/internal/source"
)

// DefaultWorkers bounds concurrent runs when no limit is configured.
const DefaultWorkers = 4

// Runner executes one repair run. *repair.Loop satisfies it.
type Runner interface {
	Run(ctx context.Context, u *source.Unit) (*repair.Result, error)
}

// Processor fans units out to a bounded pool of workers and collects results
// in input order.
type Processor struct {
	runner  Runner
	workers int
}

// New creates a processor. Non-positive workers uses DefaultWorkers.
func New(runner Runner, workers int) *Processor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Processor{runner: runner, workers: workers}
}

// Process runs every unit and returns results indexed like the input. The
// first run error cancels the remaining work.
func (p *Processor) Process(ctx context.Context, units []*source.Unit) ([]*repair.Result, error) {
	results := make([]*repair.Result, len(units))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, u := range units {
		g.Go(func() error {
			res, err := p.runner.Run(ctx, u)
			if err != nil {
				return fmt.Errorf("batch: unit %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
