package pipeline

import (
	"context"

	"github.com/matzehuels/collage/pkg/collage"
)

// ComputeLayout runs the engine for items, going through opts.Slot when one
// is set so a newer run supersedes this one.
func ComputeLayout(ctx context.Context, items []collage.ImageRef, m collage.Measurer, opts Options) (collage.Result, error) {
	req := collage.Request{Items: items, Canvas: opts.Canvas()}
	if opts.Slot != nil {
		return opts.Slot.Run(ctx, req, m, opts.LayoutOptions())
	}
	return collage.Layout(ctx, req, m, opts.LayoutOptions())
}

// cacheable reports whether a layout may be stored: only seeded runs whose
// discovery finished before the global deadline are reproducible.
func cacheable(res collage.Result, opts Options) bool {
	return opts.Seeded && !res.Stats.TimedOut && res.Stats.Pending == 0 && !res.Empty()
}
