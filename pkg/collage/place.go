package collage

import (
	"math"
	"math/rand/v2"
)

// Normalized aspect ratios. Decoded ratios only pick the orientation.
const (
	landscapeAspect = 16.0 / 9.0
	portraitAspect  = 9.0 / 16.0
)

// Size caps as fractions of the canvas for clustered and fallback items.
const (
	clusterMaxWidth   = 0.35
	clusterMaxHeight  = 0.40
	fallbackMaxWidth  = 0.30
	fallbackMaxHeight = 0.35
)

// maxRotation is the half-range of the decorative rotation in degrees.
const maxRotation = 6.0

// sized is a survivor with its target size and normalized aspect ratio.
type sized struct {
	item          ImageRef
	width, height float64
	aspect        float64
}

// cloud is an attraction point items are scattered around.
type cloud struct {
	cx, cy  float64
	radius  float64
	members []int
}

// placer runs stages 3 to 7 over the survivors of one layout pass. It owns the
// occupancy list exclusively and never suspends.
type placer struct {
	canvas Canvas
	opts   Options
	rng    *rand.Rand

	items  []sized
	clouds []cloud
	placed []PlacedItem
}

func newPlacer(canvas Canvas, opts Options, rng *rand.Rand) *placer {
	return &placer{canvas: canvas, opts: opts, rng: rng}
}

// size assigns each survivor its stage 3 target size.
func (p *placer) size(survivors []ImageRef) {
	base := min(p.canvas.Width*p.opts.BaseWidthFraction, p.opts.MaxBaseWidth)
	p.items = make([]sized, len(survivors))
	for i, item := range survivors {
		s := sized{item: item}
		if item.Landscape() {
			s.aspect = landscapeAspect
			s.width = base * (1.1 + p.rng.Float64()*0.3)
		} else {
			s.aspect = portraitAspect
			s.width = base * (0.7 + p.rng.Float64()*0.3)
		}
		s.height = s.width / s.aspect
		p.items[i] = s
	}
}

// scale applies the stage 4 correction so the summed area approaches
// canvas.Area*TargetFillRatio. It returns the factor and the resulting area,
// or zeros when there is no area to scale.
func (p *placer) scale() (factor, area float64) {
	var total float64
	for _, s := range p.items {
		total += s.width * s.height
	}
	if total <= 0 {
		return 0, 0
	}
	factor = math.Sqrt(p.canvas.Area() * p.opts.TargetFillRatio / total)
	for i := range p.items {
		p.items[i].width *= factor
		p.items[i].height *= factor
		area += p.items[i].width * p.items[i].height
	}
	return factor, area
}

// cluster creates the clouds and assigns items to them.
//
// Every item is compared against the canvas center rather than its own
// position, so all items land in the single cloud nearest the center. The
// remaining clouds stay empty.
func (p *placer) cluster() {
	n := p.opts.Clouds(len(p.items))
	p.clouds = make([]cloud, n)
	for i := range p.clouds {
		p.clouds[i] = cloud{
			cx:     (0.2 + p.rng.Float64()*0.6) * p.canvas.Width,
			cy:     (0.2 + p.rng.Float64()*0.6) * p.canvas.Height,
			radius: 150 + p.rng.Float64()*200,
		}
	}

	cx, cy := p.canvas.Center()
	for i := range p.items {
		nearest, best := 0, math.Inf(1)
		for c, cl := range p.clouds {
			if d := math.Hypot(cl.cx-cx, cl.cy-cy); d < best {
				nearest, best = c, d
			}
		}
		p.clouds[nearest].members = append(p.clouds[nearest].members, i)
	}
}

// place runs stage 6 for every cloud member and stage 7 for the leftovers.
func (p *placer) place() {
	p.placed = make([]PlacedItem, 0, len(p.items))
	done := make([]bool, len(p.items))

	for _, cl := range p.clouds {
		for _, idx := range cl.members {
			if item, ok := p.tryCluster(cl, p.items[idx]); ok {
				p.placed = append(p.placed, item)
				done[idx] = true
			}
		}
	}

	for idx, s := range p.items {
		if !done[idx] {
			p.placed = append(p.placed, p.fallback(s))
		}
	}
}

// tryCluster searches up to MaxPlacementAttempts random positions around the
// cloud center for one inside the canvas that clears every placed item by
// MinGap. The size variation is drawn once per item.
func (p *placer) tryCluster(cl cloud, s sized) (PlacedItem, bool) {
	w, h := p.vary(s, clusterMaxWidth, clusterMaxHeight)

	for range p.opts.MaxPlacementAttempts {
		angle := p.rng.Float64() * 2 * math.Pi
		dist := p.rng.Float64() * cl.radius * (0.3 + p.rng.Float64()*0.7)
		r := Rect{
			X: cl.cx + math.Cos(angle)*dist - w/2,
			Y: cl.cy + math.Sin(angle)*dist - h/2,
			W: w,
			H: h,
		}
		if !r.Within(p.canvas.Width, p.canvas.Height) || p.collides(r) {
			continue
		}
		return PlacedItem{
			Item:     s.item,
			X:        r.X,
			Y:        r.Y,
			Width:    w,
			Height:   h,
			Rotation: p.rotation(),
		}, true
	}
	return PlacedItem{}, false
}

// fallback drops s at a uniformly random position inside the canvas without
// a collision check.
func (p *placer) fallback(s sized) PlacedItem {
	w, h := p.vary(s, fallbackMaxWidth, fallbackMaxHeight)
	return PlacedItem{
		Item:     s.item,
		X:        p.rng.Float64() * (p.canvas.Width - w),
		Y:        p.rng.Float64() * (p.canvas.Height - h),
		Width:    w,
		Height:   h,
		Rotation: p.rotation(),
		Fallback: true,
	}
}

func (p *placer) collides(r Rect) bool {
	for _, other := range p.placed {
		if r.Overlaps(other.Rect(), p.opts.MinGap) {
			return true
		}
	}
	return false
}

// vary applies a random [0.75, 1.25] size variation, then caps width and
// height at the given canvas fractions, re-deriving the other side from the
// normalized aspect.
func (p *placer) vary(s sized, maxW, maxH float64) (w, h float64) {
	v := 0.75 + p.rng.Float64()*0.5
	w, h = s.width*v, s.height*v

	if limit := p.canvas.Width * maxW; w > limit {
		w = limit
		h = w / s.aspect
	}
	if limit := p.canvas.Height * maxH; h > limit {
		h = limit
		w = h * s.aspect
	}
	return w, h
}

func (p *placer) rotation() float64 {
	return (p.rng.Float64() - 0.5) * 2 * maxRotation
}
