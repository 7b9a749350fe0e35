package collage

import "math"

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// CenterX returns the horizontal center.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the vertical center.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Area returns W*H.
func (r Rect) Area() float64 { return r.W * r.H }

// Inflate grows the rectangle by d on every side.
func (r Rect) Inflate(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Within reports whether r lies fully inside a w×h area anchored at the origin.
func (r Rect) Within(w, h float64) bool {
	return r.X >= 0 && r.Y >= 0 && r.Right() <= w && r.Bottom() <= h
}

// Overlaps reports whether r and o come closer than gap along both axes.
// The test compares center distances per axis, so two rectangles may still
// sit diagonally closer than gap.
func (r Rect) Overlaps(o Rect, gap float64) bool {
	dx := math.Abs(r.CenterX() - o.CenterX())
	dy := math.Abs(r.CenterY() - o.CenterY())
	return dx < (r.W+o.W)/2+gap && dy < (r.H+o.H)/2+gap
}
