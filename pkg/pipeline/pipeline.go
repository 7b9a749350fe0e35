// Package pipeline provides the load → layout → render pipeline behind the
// CLI and the HTTP API.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read the project document from its [project.Source] and collect
//     the images of the visible projects
//  2. Layout: Measure the images and place them with [collage.Layout]
//  3. Render: Generate output in the requested formats (JSON, SVG, PDF)
//
// Image sizes are always cached. Layouts and artifacts are cached only for
// seeded runs; an unseeded run is a fresh shuffle every time.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	runner.UseMeasurer(measure.NewFile("./public"), "file")
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:   project.FileSource{Path: "projects.json"},
//	    Category: project.CategoryPhoto,
//	    Width:    1600,
//	    Height:   900,
//	    Formats:  []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/collage/pkg/cache"
	"github.com/matzehuels/collage/pkg/collage"
	errs "github.com/matzehuels/collage/pkg/errors"
	"github.com/matzehuels/collage/pkg/project"
	"github.com/matzehuels/collage/pkg/render"
)

const (
	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = 1600.0

	// DefaultHeight is the default canvas height in pixels.
	DefaultHeight = 900.0
)

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Category project.Category `json:"category,omitempty"`

	// Layout options
	Width           float64       `json:"width,omitempty"`
	Height          float64       `json:"height,omitempty"`
	Seed            uint64        `json:"seed,omitempty"`
	Seeded          bool          `json:"seeded,omitempty"`
	MinGap          float64       `json:"min_gap,omitempty"`
	Attempts        int           `json:"attempts,omitempty"`
	PerImageTimeout time.Duration `json:"per_image_timeout,omitempty"`
	GlobalTimeout   time.Duration `json:"global_timeout,omitempty"`
	MaxConcurrency  int           `json:"max_concurrency,omitempty"`
	Refresh         bool          `json:"refresh,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Animate   bool     `json:"animate,omitempty"`
	Debug     bool     `json:"debug,omitempty"`
	ImageBase string   `json:"image_base,omitempty"` // SVG href prefix
	ImageRoot string   `json:"-"`                    // PDF image directory
	LinkBase  string   `json:"link_base,omitempty"`  // PDF link target

	// Runtime options (not serialized)
	Source project.Source `json:"-"`
	Slot   *collage.Slot  `json:"-"` // newer runs sharing a slot supersede older ones
	Logger *log.Logger    `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the loaded project document.
	Document *project.Document

	// Layout is the computed collage.
	Layout collage.Result

	// LayoutID identifies the collage; seeded runs derive it from the
	// layout key, so it is stable across repeats.
	LayoutID string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Projects   int
	Images     int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Source == nil {
		return errs.New(errs.ErrCodeInvalidInput, "project source is required")
	}
	if o.Category != project.CategoryAll && !o.Category.Known() {
		return errs.New(errs.ErrCodeInvalidCategory, "unknown category %q", o.Category)
	}
	o.SetLayoutDefaults()
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation. The canvas
// is only defaulted when both sides are unset, so a half-specified canvas
// still fails validation in the engine.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 && o.Height == 0 {
		o.Width, o.Height = DefaultWidth, DefaultHeight
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{render.FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return render.ValidateFormats(o.Formats)
}

// Canvas returns the requested canvas.
func (o *Options) Canvas() collage.Canvas {
	return collage.Canvas{Width: o.Width, Height: o.Height}
}

// LayoutOptions translates the pipeline options into engine options.
func (o *Options) LayoutOptions() *collage.Options {
	return &collage.Options{
		PerImageTimeout:      o.PerImageTimeout,
		GlobalTimeout:        o.GlobalTimeout,
		MinGap:               o.MinGap,
		MaxPlacementAttempts: o.Attempts,
		MaxConcurrency:       o.MaxConcurrency,
		Seed:                 o.Seed,
		Seeded:               o.Seeded,
		Logger:               o.Logger,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:  o.Width,
		Height: o.Height,
		Seed:   o.Seed,
		MinGap: o.MinGap,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case render.FormatSVG:
		opts.Animate = o.Animate
		opts.Debug = o.Debug
		opts.Images = o.ImageBase
	case render.FormatPDF:
		opts.Debug = o.Debug
		opts.Images = o.ImageRoot
		opts.LinkBase = o.LinkBase
	}
	return opts
}
