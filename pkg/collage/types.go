package collage

import (
	"context"
	"math"
	"time"
)

// ImageRef is an image to be placed.
type ImageRef struct {
	// Path is an opaque resource identifier handed to the [Measurer].
	Path string `json:"path"`

	// GroupID identifies the owning project. Placement ignores it; renderers
	// use it for click-through links.
	GroupID string `json:"group_id,omitempty"`

	// AspectRatio is width/height. It is zero until discovery fills it in on
	// the survivor's copy.
	AspectRatio float64 `json:"aspect_ratio,omitempty"`
}

// Landscape reports whether the image is at least as wide as it is tall.
func (r ImageRef) Landscape() bool { return r.AspectRatio >= 1 }

// Canvas is the drawing area in pixels.
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns Width*Height.
func (c Canvas) Area() float64 { return c.Width * c.Height }

// Valid reports whether both dimensions are positive and finite and the area
// does not overflow.
func (c Canvas) Valid() bool {
	return c.Width > 0 && c.Height > 0 &&
		!math.IsInf(c.Width, 0) && !math.IsInf(c.Height, 0) &&
		!math.IsInf(c.Area(), 0)
}

// Center returns the geometric center of the canvas.
func (c Canvas) Center() (x, y float64) { return c.Width / 2, c.Height / 2 }

// Request is the input of one layout pass.
type Request struct {
	Items  []ImageRef `json:"items"`
	Canvas Canvas     `json:"canvas"`
}

// PlacedItem is one positioned rectangle of the output.
type PlacedItem struct {
	Item     ImageRef `json:"item"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Rotation float64  `json:"rotation"`

	// Fallback marks items placed at a random position after exhausting
	// their attempts. Fallback items may overlap anything.
	Fallback bool `json:"fallback,omitempty"`
}

// Rect returns the item's axis-aligned bounding box, ignoring rotation.
func (p PlacedItem) Rect() Rect {
	return Rect{X: p.X, Y: p.Y, W: p.Width, H: p.Height}
}

// Size is an intrinsic image size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether either dimension is zero or negative.
func (s Size) Empty() bool { return s.Width <= 0 || s.Height <= 0 }

// AspectRatio returns Width/Height, or 0 for an empty size.
func (s Size) AspectRatio() float64 {
	if s.Empty() {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

// Measurer discovers the intrinsic size of an image.
//
// Measure must honor ctx: the engine cancels it when the per-image or global
// deadline expires and ignores any later result. Implementations must be safe
// for concurrent use.
type Measurer interface {
	Measure(ctx context.Context, path string) (Size, error)
}

// MeasurerFunc adapts a function to [Measurer].
type MeasurerFunc func(ctx context.Context, path string) (Size, error)

// Measure calls f(ctx, path).
func (f MeasurerFunc) Measure(ctx context.Context, path string) (Size, error) {
	return f(ctx, path)
}

// Result is the output of [Layout].
type Result struct {
	Canvas Canvas       `json:"canvas"`
	Items  []PlacedItem `json:"items"`
	Stats  Stats        `json:"stats"`
}

// Empty reports whether nothing was placed. Callers typically hide the
// collage in that case.
func (r Result) Empty() bool { return len(r.Items) == 0 }

// Stats describes what happened during a layout pass.
type Stats struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	// Pending counts items still unsettled when the global deadline fired.
	Pending   int  `json:"pending"`
	Clustered int  `json:"clustered"`
	Fallback  int  `json:"fallback"`
	Clouds    int  `json:"clouds"`
	TimedOut  bool `json:"timed_out"`

	// ScaleFactor is the global correction applied in stage 4 and
	// ScaledArea the summed item area right after it.
	ScaleFactor float64 `json:"scale_factor"`
	ScaledArea  float64 `json:"scaled_area"`

	DiscoveryTime time.Duration `json:"discovery_time"`
	PlacementTime time.Duration `json:"placement_time"`
}
