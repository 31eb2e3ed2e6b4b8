package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/chauffeur/internal/expand"
	"github.com/leapstack-labs/chauffeur/internal/param"
)

// Dispatcher runs instances through the per-instance pipeline on a
// bounded worker pool.
type Dispatcher struct {
	opts   Options
	interp *param.Interpolator
	batch  *OutputList
	logger *slog.Logger
}

// New creates a dispatcher. The interpolator's namespaces must be
// frozen before Run is called.
func New(interp *param.Interpolator, opts Options) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		opts:   opts,
		interp: interp,
		batch:  NewOutputList(),
		logger: logger,
	}
}

// BatchOutputs returns the rendered output paths tagged for batch
// submission, in completion order across workers.
func (d *Dispatcher) BatchOutputs() []string {
	return d.batch.Paths()
}

// Run drains every instance through the worker pool. Workers consume
// from a shared queue in unspecified interleaving; within one
// instance the pre, exec, and post commands execute strictly in
// order. The first instance failure cancels the pool unless KeepGoing
// is set, in which case failures are collected and joined.
func (d *Dispatcher) Run(ctx context.Context, instances []expand.Instance) error {
	if !d.opts.DryRun && d.opts.DriverType != SetupDriverType && d.opts.Executable == "" {
		return ErrMissingExecutable
	}

	d.logger.Info("dispatching instances",
		slog.Int("instances", len(instances)),
		slog.Int("workers", d.opts.Workers),
		slog.Bool("dry_run", d.opts.DryRun))

	queue := make(chan expand.Instance)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		for _, inst := range instances {
			select {
			case queue <- inst:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	var mu sync.Mutex
	var failures []error

	for w := 0; w < d.opts.Workers; w++ {
		worker := fmt.Sprintf("%02d", w)
		g.Go(func() error {
			for inst := range queue {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if err := d.process(ctx, worker, inst); err != nil {
					err = fmt.Errorf("instance %s[%d]: %w", inst.Group, inst.Index, err)
					if !d.opts.KeepGoing {
						return err
					}
					mu.Lock()
					failures = append(failures, err)
					mu.Unlock()
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(failures...)
}
