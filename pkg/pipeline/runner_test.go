package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/collage/pkg/cache"
	"github.com/matzehuels/collage/pkg/collage"
	errs "github.com/matzehuels/collage/pkg/errors"
	"github.com/matzehuels/collage/pkg/measure"
	"github.com/matzehuels/collage/pkg/project"
)

func testDocument() *project.Document {
	return &project.Document{Projects: []project.Project{
		{ID: "harbor", Title: "Harbor", Category: project.CategoryPhoto, Images: []string{"/img/h1.jpg", "/img/h2.jpg", "/img/h3.jpg"}},
		{ID: "night-run", Title: "Night Run", Category: project.CategoryVideo, Images: []string{"/img/n1.jpg"}},
		{ID: "posters", Title: "Posters", Category: project.CategoryGraphic, Images: []string{"/img/p1.png", "/img/p2.png", "/img/missing.png"}},
	}}
}

// countingMeasurer answers from a static table and counts calls.
type countingMeasurer struct {
	sizes measure.Static
	calls atomic.Int32
}

func (m *countingMeasurer) Measure(ctx context.Context, path string) (collage.Size, error) {
	m.calls.Add(1)
	return m.sizes.Measure(ctx, path)
}

func newCounting() *countingMeasurer {
	return &countingMeasurer{sizes: measure.Static{
		"/img/h1.jpg": {Width: 1600, Height: 900},
		"/img/h2.jpg": {Width: 900, Height: 1600},
		"/img/h3.jpg": {Width: 1200, Height: 1200},
		"/img/n1.jpg": {Width: 1920, Height: 1080},
		"/img/p1.png": {Width: 600, Height: 900},
		"/img/p2.png": {Width: 900, Height: 600},
	}}
}

func newTestRunner(t *testing.T, c cache.Cache, m collage.Measurer) *Runner {
	t.Helper()
	r := NewRunner(c, nil, nil)
	r.UseMeasurer(m, "static")
	return r
}

func TestExecute(t *testing.T) {
	m := newCounting()
	r := newTestRunner(t, nil, m)

	res, err := r.Execute(context.Background(), Options{
		Source:  project.Static{Doc: testDocument()},
		Width:   1200,
		Height:  800,
		Formats: []string{"json", "svg", "pdf"},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if res.Stats.Projects != 3 || res.Stats.Images != 7 {
		t.Errorf("stats = %+v, want 3 projects / 7 images", res.Stats)
	}
	if got := len(res.Layout.Items); got != 6 {
		t.Errorf("placed = %d, want 6 (one image has no size)", got)
	}
	if res.Layout.Stats.Failed != 1 {
		t.Errorf("failed = %d, want 1", res.Layout.Stats.Failed)
	}
	for _, f := range []string{"json", "svg", "pdf"} {
		if len(res.Artifacts[f]) == 0 {
			t.Errorf("missing %s artifact", f)
		}
	}
	if res.LayoutID == "" {
		t.Error("LayoutID should be set")
	}
	if res.CacheInfo.LayoutHit || res.CacheInfo.RenderHit {
		t.Error("NullCache should never hit")
	}
}

func TestExecuteCategoryFilter(t *testing.T) {
	r := newTestRunner(t, nil, newCounting())
	res, err := r.Execute(context.Background(), Options{
		Source:   project.Static{Doc: testDocument()},
		Category: project.CategoryPhoto,
		Width:    1000,
		Height:   700,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(res.Layout.Items) != 3 {
		t.Fatalf("placed = %d, want 3", len(res.Layout.Items))
	}
	for _, it := range res.Layout.Items {
		if it.Item.GroupID != "harbor" {
			t.Errorf("item from %q leaked through the photo filter", it.Item.GroupID)
		}
	}
}

func TestExecuteEmptyCategory(t *testing.T) {
	doc := testDocument()
	doc.Projects = doc.Projects[:1]
	r := newTestRunner(t, nil, newCounting())

	res, err := r.Execute(context.Background(), Options{
		Source:   project.Static{Doc: doc},
		Category: project.CategoryVideo,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !res.Layout.Empty() {
		t.Errorf("expected an empty collage, got %d items", len(res.Layout.Items))
	}
	if !bytes.Contains(res.Artifacts["json"], []byte(`"items": []`)) {
		t.Errorf("json artifact should carry an empty item list:\n%s", res.Artifacts["json"])
	}
}

func TestExecuteInvalidCanvas(t *testing.T) {
	m := newCounting()
	r := newTestRunner(t, nil, m)
	_, err := r.Execute(context.Background(), Options{
		Source: project.Static{Doc: testDocument()},
		Width:  800,
		Height: -1,
	})
	if !errs.Is(err, errs.ErrCodeInvalidCanvas) {
		t.Fatalf("error = %v, want INVALID_CANVAS", err)
	}
	if m.calls.Load() != 0 {
		t.Errorf("measurer called %d times before canvas validation", m.calls.Load())
	}
}

func TestExecuteSeededUsesCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := newCounting()
	r := newTestRunner(t, fc, m)
	opts := Options{
		Source:  project.Static{Doc: testDocument()},
		Width:   1200,
		Height:  800,
		Seed:    7,
		Seeded:  true,
		Formats: []string{"json", "svg"},
	}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute() error: %v", err)
	}
	calls := m.calls.Load()

	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("cache info = %+v, want layout and render hits", second.CacheInfo)
	}
	if m.calls.Load() != calls {
		t.Errorf("measurer called again on a cached layout")
	}
	if first.LayoutID != second.LayoutID {
		t.Errorf("seeded layout IDs differ: %s vs %s", first.LayoutID, second.LayoutID)
	}
	if !bytes.Equal(first.Artifacts["svg"], second.Artifacts["svg"]) {
		t.Error("cached svg differs from the rendered one")
	}

	opts.Refresh = true
	third, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("refresh Execute() error: %v", err)
	}
	if third.CacheInfo.LayoutHit || third.CacheInfo.RenderHit {
		t.Error("Refresh should bypass the layout and artifact cache")
	}
	if !bytes.Equal(first.Artifacts["svg"], third.Artifacts["svg"]) {
		t.Error("seeded recomputation should reproduce the same svg")
	}
}

func TestExecuteUnseededNeverCachesLayout(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := newCounting()
	r := newTestRunner(t, fc, m)
	opts := Options{Source: project.Static{Doc: testDocument()}, Width: 1200, Height: 800}

	a, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if b.CacheInfo.LayoutHit || b.CacheInfo.RenderHit {
		t.Error("unseeded runs must not hit the layout cache")
	}
	if a.LayoutID == b.LayoutID {
		t.Error("unseeded runs should get fresh layout IDs")
	}
	// Sizes are cached: the second run measures nothing new, except the
	// path that failed and is never cached.
	if got := m.calls.Load(); got != 7+1 {
		t.Errorf("measurer calls = %d, want 8", got)
	}
}

func TestRenderFromLayoutData(t *testing.T) {
	r := newTestRunner(t, nil, newCounting())
	res, err := r.Execute(context.Background(), Options{
		Source: project.Static{Doc: testDocument()},
		Seed:   3,
		Seeded: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	artifacts, err := RenderFromLayoutData(context.Background(), res.Artifacts["json"], Options{Formats: []string{"json", "svg"}})
	if err != nil {
		t.Fatalf("RenderFromLayoutData() error: %v", err)
	}

	var out struct {
		ID   string  `json:"id"`
		Seed *uint64 `json:"seed"`
	}
	if err := json.Unmarshal(artifacts["json"], &out); err != nil {
		t.Fatal(err)
	}
	if out.ID != res.LayoutID || out.Seed == nil || *out.Seed != 3 {
		t.Errorf("re-rendered json lost id/seed: %+v", out)
	}
	if len(artifacts["svg"]) == 0 {
		t.Error("missing svg")
	}
}

func TestExecuteThroughSlot(t *testing.T) {
	r := newTestRunner(t, nil, newCounting())
	var slot collage.Slot
	res, err := r.Execute(context.Background(), Options{
		Source: project.Static{Doc: testDocument()},
		Slot:   &slot,
	})
	if err != nil {
		t.Fatal(err)
	}
	latest, ok := slot.Latest()
	if !ok || len(latest.Items) != len(res.Layout.Items) {
		t.Errorf("slot did not record the run")
	}
}

func TestGenerateLayoutWithoutMeasurer(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.GenerateLayout(context.Background(), []collage.ImageRef{{Path: "a"}}, Options{})
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}
