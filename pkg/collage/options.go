package collage

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Defaults for [Options].
const (
	DefaultPerImageTimeout      = 5 * time.Second
	DefaultGlobalTimeout        = 15 * time.Second
	DefaultMinGap               = 15.0
	DefaultTargetFillRatio      = 0.75
	DefaultMaxPlacementAttempts = 100
	DefaultBaseWidthFraction    = 0.25
	DefaultMaxBaseWidth         = 280.0
)

// Cloud count bounds: min(minClouds + N/itemsPerCloud, maxClouds).
const (
	minClouds     = 3
	maxClouds     = 6
	itemsPerCloud = 15
)

// Options configures a layout pass. The zero value of every field selects
// its default; a nil *Options is valid.
type Options struct {
	// PerImageTimeout bounds a single size measurement.
	PerImageTimeout time.Duration

	// GlobalTimeout bounds the whole discovery stage. Placement starts with
	// whatever succeeded once it fires.
	GlobalTimeout time.Duration

	// MinGap is the clearance enforced between clustered rectangles. A
	// negative value disables it.
	MinGap float64

	// TargetFillRatio is the fraction of the canvas area the items should
	// cover after scale correction.
	TargetFillRatio float64

	// MaxPlacementAttempts is the per-item retry budget before fallback.
	MaxPlacementAttempts int

	// CloudCount overrides the derived number of clouds when positive.
	CloudCount int

	// BaseWidthFraction and MaxBaseWidth define the base item width
	// min(canvas.Width*BaseWidthFraction, MaxBaseWidth).
	BaseWidthFraction float64
	MaxBaseWidth      float64

	// MaxConcurrency bounds parallel measurements; zero means unbounded.
	MaxConcurrency int

	// Seed drives every random draw when Seeded is set. Unseeded runs draw
	// from a fresh random source.
	Seed   uint64
	Seeded bool

	// Logger receives per-item discovery warnings. Nil discards them.
	Logger *log.Logger
}

// WithDefaults returns a copy of o with zero fields replaced by defaults.
func (o *Options) WithDefaults() Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.PerImageTimeout <= 0 {
		out.PerImageTimeout = DefaultPerImageTimeout
	}
	if out.GlobalTimeout <= 0 {
		out.GlobalTimeout = DefaultGlobalTimeout
	}
	if out.MinGap < 0 {
		out.MinGap = 0
	} else if out.MinGap == 0 {
		out.MinGap = DefaultMinGap
	}
	if out.TargetFillRatio <= 0 {
		out.TargetFillRatio = DefaultTargetFillRatio
	}
	if out.MaxPlacementAttempts <= 0 {
		out.MaxPlacementAttempts = DefaultMaxPlacementAttempts
	}
	if out.BaseWidthFraction <= 0 {
		out.BaseWidthFraction = DefaultBaseWidthFraction
	}
	if out.MaxBaseWidth <= 0 {
		out.MaxBaseWidth = DefaultMaxBaseWidth
	}
	if out.Logger == nil {
		out.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return out
}

// Clouds returns the number of clouds for n placed items.
func (o Options) Clouds(n int) int {
	if o.CloudCount > 0 {
		return o.CloudCount
	}
	return min(minClouds+n/itemsPerCloud, maxClouds)
}
