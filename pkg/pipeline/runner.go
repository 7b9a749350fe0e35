package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/collage/pkg/cache"
	"github.com/matzehuels/collage/pkg/collage"
	errs "github.com/matzehuels/collage/pkg/errors"
	"github.com/matzehuels/collage/pkg/measure"
	"github.com/matzehuels/collage/pkg/observability"
	"github.com/matzehuels/collage/pkg/project"
	"github.com/matzehuels/collage/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching behaves the same everywhere.
//
// The Runner is stateless except for the cache, the measurer and the logger.
// Multiple goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	Measurer collage.Measurer
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// UseMeasurer installs m behind the runner's size cache. source namespaces
// the cached sizes ("file", "http").
func (r *Runner) UseMeasurer(m collage.Measurer, source string) *Runner {
	r.Measurer = measure.NewCached(m, r.Cache, r.Keyer, source)
	return r
}

// Execute runs the complete load → layout → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	doc, err := opts.Source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	items := doc.ImageRefs(opts.Category)
	result.Document = doc
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Projects = len(doc.Filter(opts.Category))
	result.Stats.Images = len(items)

	r.Logger.Info("loaded projects",
		"projects", result.Stats.Projects,
		"images", result.Stats.Images,
		"category", categoryLabel(opts.Category))

	// Stage 2: Layout
	layoutStart := time.Now()
	layout, layoutID, layoutHit, err := r.GenerateLayoutWithCacheInfo(ctx, items, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = layout
	result.LayoutID = layoutID
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed collage",
		"placed", len(layout.Items),
		"fallback", layout.Stats.Fallback,
		"dropped", layout.Stats.Failed+layout.Stats.Pending,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, layout, layoutID, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// GenerateLayoutWithCacheInfo lays out items and returns the layout ID and
// whether the layout came from cache. Only seeded runs consult the cache.
func (r *Runner) GenerateLayoutWithCacheInfo(ctx context.Context, items []collage.ImageRef, opts Options) (collage.Result, string, bool, error) {
	r.applyLogger(&opts)
	opts.SetLayoutDefaults()
	if r.Measurer == nil && len(items) > 0 {
		return collage.Result{}, "", false, errs.New(errs.ErrCodeInvalidInput, "runner has no measurer")
	}

	if !opts.Seeded {
		res, err := ComputeLayout(ctx, items, r.Measurer, opts)
		if err != nil {
			return collage.Result{}, "", false, err
		}
		return res, uuid.NewString(), false, nil
	}

	itemsHash, err := cache.HashJSON(items)
	if err != nil {
		return collage.Result{}, "", false, fmt.Errorf("hash items: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(itemsHash, opts.LayoutKeyOpts())
	layoutID := cache.Hash([]byte(cacheKey))[:16]
	hooks := observability.Cache()

	if !opts.Refresh && opts.Canvas().Valid() {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if res, _, err := render.ParseJSON(data); err == nil {
				hooks.OnCacheHit(ctx, "layout")
				return res, layoutID, true, nil
			}
		}
		hooks.OnCacheMiss(ctx, "layout")
	}

	res, err := ComputeLayout(ctx, items, r.Measurer, opts)
	if err != nil {
		return collage.Result{}, "", false, err
	}

	if cacheable(res, opts) {
		if data, err := render.RenderJSON(res, render.WithJSONSeed(opts.Seed), render.WithJSONStats()); err == nil {
			if r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout) == nil {
				hooks.OnCacheSet(ctx, "layout", len(data))
			}
		}
	}
	return res, layoutID, false, nil
}

// GenerateLayout is a convenience wrapper that discards the cache info.
func (r *Runner) GenerateLayout(ctx context.Context, items []collage.ImageRef, opts Options) (collage.Result, error) {
	res, _, _, err := r.GenerateLayoutWithCacheInfo(ctx, items, opts)
	return res, err
}

// RenderWithCacheInfo generates artifacts and reports whether all of them
// came from cache. Artifacts of unseeded layouts are never cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res collage.Result, layoutID string, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	if !cacheable(res, opts) {
		artifacts, err := Render(ctx, res, layoutID, opts)
		return artifacts, false, err
	}

	layoutData, err := render.RenderJSON(res)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)
	hooks := observability.Cache()

	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				hooks.OnCacheMiss(ctx, "artifact")
				break
			}
			hooks.OnCacheHit(ctx, "artifact")
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := Render(ctx, res, layoutID, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact) == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func categoryLabel(c project.Category) string {
	if c == project.CategoryAll {
		return "all"
	}
	return string(c)
}
