package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ExecuteAll runs several independent pipelines concurrently, at most
// limit at a time (limit <= 0 uses the number of CPUs). Results are
// returned in input order. The first failure cancels the remaining runs.
//
// Each run must use its own session; runs sharing a session ID race on
// the persisted state.
func (r *Runner) ExecuteAll(ctx context.Context, all []Options, limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	results := make([]*Result, len(all))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, opts := range all {
		g.Go(func() error {
			res, err := r.Execute(ctx, opts)
			if err != nil {
				return err
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
