package collage

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	errs "github.com/matzehuels/collage/pkg/errors"
)

// discovery is the outcome of stage 2.
type discovery struct {
	survivors []ImageRef // shuffled order, AspectRatio filled in
	succeeded int
	failed    int
	pending   int
	timedOut  bool
	elapsed   time.Duration
}

// measured is one settled measurement, sent from a worker to the collector.
type measured struct {
	index int
	size  Size
	err   error
}

// discover measures every item concurrently and returns once all of them
// settled or the global deadline fired, whichever comes first.
//
// Workers report on a channel buffered for every item so stragglers never
// block after the collector has moved on. Survivors are returned in the input
// order, not in completion order, so seeded runs stay reproducible.
//
// The only error returned is the parent context's; timeouts are recorded in
// the result.
func discover(ctx context.Context, items []ImageRef, m Measurer, opts Options) (discovery, error) {
	start := time.Now()
	deadline, cancel := context.WithTimeout(ctx, opts.GlobalTimeout)
	defer cancel()

	var sem *semaphore.Weighted
	if opts.MaxConcurrency > 0 {
		sem = semaphore.NewWeighted(int64(opts.MaxConcurrency))
	}

	results := make(chan measured, len(items))
	for i, item := range items {
		go func() {
			if sem != nil {
				if err := sem.Acquire(deadline, 1); err != nil {
					results <- measured{index: i, err: err}
					return
				}
			}
			itemCtx, cancel := context.WithTimeout(deadline, opts.PerImageTimeout)
			defer cancel()

			// The item settles once: on its result or when itemCtx ends,
			// even if the measurer ignores ctx.
			var once sync.Once
			settle := func(size Size, err error) {
				once.Do(func() {
					results <- measured{index: i, size: size, err: err}
					if sem != nil {
						sem.Release(1)
					}
				})
			}
			stop := context.AfterFunc(itemCtx, func() { settle(Size{}, itemCtx.Err()) })
			defer stop()

			size, err := m.Measure(itemCtx, item.Path)
			settle(size, err)
		}()
	}

	sizes := make([]Size, len(items))
	ok := make([]bool, len(items))
	var d discovery
	settled := 0

collect:
	for settled < len(items) {
		select {
		case r := <-results:
			if deadline.Err() != nil {
				break collect
			}
			settled++
			if err := checkMeasured(r); err != nil {
				d.failed++
				opts.Logger.Warn("dropping image",
					"path", items[r.index].Path,
					"code", errs.GetCode(err),
					"err", err)
				continue
			}
			sizes[r.index] = r.size
			ok[r.index] = true
			d.succeeded++
		case <-deadline.Done():
			break collect
		}
	}
	d.elapsed = time.Since(start)

	if err := ctx.Err(); err != nil {
		return d, err
	}
	if settled < len(items) {
		d.timedOut = true
		d.pending = len(items) - settled
		opts.Logger.Warn("discovery deadline reached",
			"timeout", opts.GlobalTimeout,
			"pending", d.pending,
			"succeeded", d.succeeded)
	}

	d.survivors = make([]ImageRef, 0, d.succeeded)
	for i, item := range items {
		if ok[i] {
			item.AspectRatio = sizes[i].AspectRatio()
			d.survivors = append(d.survivors, item)
		}
	}
	return d, nil
}

// checkMeasured classifies a settled measurement. Errors, timeouts and empty
// sizes all become ITEM_DISCOVERY_FAILED.
func checkMeasured(r measured) error {
	switch {
	case errors.Is(r.err, context.DeadlineExceeded):
		return errs.Wrap(errs.ErrCodeItemDiscovery, r.err, "measurement timed out")
	case r.err != nil:
		return errs.Wrap(errs.ErrCodeItemDiscovery, r.err, "measurement failed")
	case r.size.Empty():
		return errs.New(errs.ErrCodeItemDiscovery, "empty size %dx%d", r.size.Width, r.size.Height)
	}
	return nil
}
