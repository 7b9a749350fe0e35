package collage

import (
	"context"
	"sync"

	errs "github.com/matzehuels/collage/pkg/errors"
)

// ErrSuperseded is returned by [Slot.Run] when a newer run started before
// this one finished.
var ErrSuperseded = errs.New(errs.ErrCodeSuperseded, "layout superseded by a newer request")

// Slot serializes layout passes that write into the same output target.
// Starting a run cancels the previous one; only the newest run may publish
// its result. The zero value is ready to use.
type Slot struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	latest *Result
}

// Run cancels any in-flight run and computes a new layout. A run overtaken by
// a newer one returns [ErrSuperseded] and its result is discarded.
func (s *Slot) Run(ctx context.Context, req Request, m Measurer, opts *Options) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.mu.Unlock()

	res, err := Layout(ctx, req, m, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return Result{}, ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		return Result{}, err
	}
	s.latest = &res
	return res, nil
}

// Latest returns the result of the newest completed run.
func (s *Slot) Latest() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Result{}, false
	}
	return *s.latest, true
}
