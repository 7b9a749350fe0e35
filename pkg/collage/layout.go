package collage

import (
	"context"
	"math/rand/v2"
	"slices"
	"time"

	errs "github.com/matzehuels/collage/pkg/errors"
	"github.com/matzehuels/collage/pkg/observability"
)

// Layout computes a collage for req.
//
// An invalid canvas fails with INVALID_CANVAS before any measurement starts.
// Every other degenerate case (no items, no survivors, no area) returns an
// empty result and a nil error; the caller decides whether an empty collage
// matters. Items whose measurement fails or times out are dropped with a
// warning on opts.Logger.
//
// Layout returns ctx.Err() when ctx is cancelled during discovery. Deadlines
// from opts never surface as errors; they only shrink the result.
func Layout(ctx context.Context, req Request, m Measurer, opts *Options) (Result, error) {
	o := opts.WithDefaults()
	if !req.Canvas.Valid() {
		return Result{}, errs.New(errs.ErrCodeInvalidCanvas,
			"canvas %gx%g: width and height must be positive and finite", req.Canvas.Width, req.Canvas.Height)
	}
	if m == nil && len(req.Items) > 0 {
		return Result{}, errs.New(errs.ErrCodeInvalidInput, "no measurer for %d items", len(req.Items))
	}

	start := time.Now()
	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, len(req.Items))

	res := Result{
		Canvas: req.Canvas,
		Items:  []PlacedItem{},
		Stats:  Stats{Requested: len(req.Items)},
	}
	if len(req.Items) == 0 {
		hooks.OnLayoutComplete(ctx, 0, 0, time.Since(start), nil)
		return res, nil
	}

	rng := newRand(o)
	items := slices.Clone(req.Items)
	rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

	d, err := discover(ctx, items, m, o)
	hooks.OnDiscoveryComplete(ctx, d.succeeded, d.failed, d.pending, d.elapsed)
	res.Stats.Succeeded = d.succeeded
	res.Stats.Failed = d.failed
	res.Stats.Pending = d.pending
	res.Stats.TimedOut = d.timedOut
	res.Stats.DiscoveryTime = d.elapsed
	if err != nil {
		hooks.OnLayoutComplete(ctx, 0, 0, time.Since(start), err)
		return Result{}, err
	}

	placeStart := time.Now()
	placed, stats := placeAll(req.Canvas, d.survivors, o, rng)
	res.Items = placed
	res.Stats.Clustered = stats.Clustered
	res.Stats.Fallback = stats.Fallback
	res.Stats.Clouds = stats.Clouds
	res.Stats.ScaleFactor = stats.ScaleFactor
	res.Stats.ScaledArea = stats.ScaledArea
	res.Stats.PlacementTime = time.Since(placeStart)

	o.Logger.Debug("collage placed",
		"clustered", res.Stats.Clustered,
		"fallback", res.Stats.Fallback,
		"dropped", res.Stats.Failed+res.Stats.Pending,
		"scale", res.Stats.ScaleFactor)
	hooks.OnLayoutComplete(ctx, len(res.Items), res.Stats.Fallback, time.Since(start), nil)
	return res, nil
}

// Place runs the synchronous stages 3 to 7 on items whose AspectRatio is
// already known, skipping shuffle and discovery. Items with a zero aspect
// ratio are treated as portrait.
func Place(canvas Canvas, items []ImageRef, opts *Options) (Result, error) {
	o := opts.WithDefaults()
	if !canvas.Valid() {
		return Result{}, errs.New(errs.ErrCodeInvalidCanvas,
			"canvas %gx%g: width and height must be positive and finite", canvas.Width, canvas.Height)
	}
	start := time.Now()
	placed, stats := placeAll(canvas, items, o, newRand(o))
	stats.Requested = len(items)
	stats.Succeeded = len(items)
	stats.PlacementTime = time.Since(start)
	return Result{Canvas: canvas, Items: placed, Stats: stats}, nil
}

func placeAll(canvas Canvas, survivors []ImageRef, o Options, rng *rand.Rand) ([]PlacedItem, Stats) {
	var stats Stats
	if len(survivors) == 0 {
		return []PlacedItem{}, stats
	}

	p := newPlacer(canvas, o, rng)
	p.size(survivors)
	stats.ScaleFactor, stats.ScaledArea = p.scale()
	if stats.ScaledArea <= 0 {
		return []PlacedItem{}, stats
	}
	p.cluster()
	p.place()

	stats.Clouds = len(p.clouds)
	for _, it := range p.placed {
		if it.Fallback {
			stats.Fallback++
		} else {
			stats.Clustered++
		}
	}
	return p.placed, stats
}

func newRand(o Options) *rand.Rand {
	if o.Seeded {
		return rand.New(rand.NewPCG(o.Seed, o.Seed^0xdeadbeef))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
