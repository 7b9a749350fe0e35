package render

import (
	"encoding/json"

	"github.com/matzehuels/collage/pkg/collage"
	errs "github.com/matzehuels/collage/pkg/errors"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	id     string
	seeded bool
	seed   uint64
	stats  bool
}

// WithJSONID records a layout identifier, letting clients tell apart two
// collages of the same canvas.
func WithJSONID(id string) JSONOption { return func(r *jsonRenderer) { r.id = id } }

// WithJSONSeed records the random seed so the collage can be reproduced.
func WithJSONSeed(seed uint64) JSONOption {
	return func(r *jsonRenderer) { r.seeded = true; r.seed = seed }
}

// WithJSONStats includes the layout statistics.
func WithJSONStats() JSONOption { return func(r *jsonRenderer) { r.stats = true } }

type jsonOutput struct {
	ID     string         `json:"id,omitempty"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Seed   *uint64        `json:"seed,omitempty"`
	Stats  *collage.Stats `json:"stats,omitempty"`
	Items  []jsonItem     `json:"items"`
}

type jsonItem struct {
	Path        string  `json:"path"`
	Project     string  `json:"project,omitempty"`
	AspectRatio float64 `json:"aspect_ratio,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Rotation    float64 `json:"rotation"`
	Fallback    bool    `json:"fallback,omitempty"`
}

// RenderJSON encodes the placed items, in placement order, as indented JSON.
func RenderJSON(res collage.Result, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		ID:     r.id,
		Width:  res.Canvas.Width,
		Height: res.Canvas.Height,
		Items:  make([]jsonItem, 0, len(res.Items)),
	}
	if r.seeded {
		out.Seed = &r.seed
	}
	if r.stats {
		stats := res.Stats
		out.Stats = &stats
	}
	for _, p := range res.Items {
		out.Items = append(out.Items, jsonItem{
			Path:        p.Item.Path,
			Project:     p.Item.GroupID,
			AspectRatio: p.Item.AspectRatio,
			X:           p.X,
			Y:           p.Y,
			Width:       p.Width,
			Height:      p.Height,
			Rotation:    p.Rotation,
			Fallback:    p.Fallback,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// Meta is the metadata [ParseJSON] recovers alongside the result.
type Meta struct {
	ID     string
	Seed   uint64
	Seeded bool
}

// ParseJSON decodes output of [RenderJSON] back into a result.
func ParseJSON(data []byte) (collage.Result, Meta, error) {
	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return collage.Result{}, Meta{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode layout")
	}

	res := collage.Result{
		Canvas: collage.Canvas{Width: out.Width, Height: out.Height},
		Items:  make([]collage.PlacedItem, 0, len(out.Items)),
	}
	if !res.Canvas.Valid() {
		return collage.Result{}, Meta{}, errs.New(errs.ErrCodeInvalidCanvas, "layout canvas %gx%g must be positive", out.Width, out.Height)
	}
	if out.Stats != nil {
		res.Stats = *out.Stats
	}
	for _, it := range out.Items {
		res.Items = append(res.Items, collage.PlacedItem{
			Item:     collage.ImageRef{Path: it.Path, GroupID: it.Project, AspectRatio: it.AspectRatio},
			X:        it.X,
			Y:        it.Y,
			Width:    it.Width,
			Height:   it.Height,
			Rotation: it.Rotation,
			Fallback: it.Fallback,
		})
	}

	meta := Meta{ID: out.ID}
	if out.Seed != nil {
		meta.Seed, meta.Seeded = *out.Seed, true
	}
	return res, meta, nil
}
