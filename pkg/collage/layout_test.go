package collage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	errs "github.com/matzehuels/collage/pkg/errors"
)

// sizes maps paths to intrinsic sizes. Unknown paths fail.
type sizes map[string]Size

func (s sizes) Measure(_ context.Context, path string) (Size, error) {
	if sz, ok := s[path]; ok {
		return sz, nil
	}
	return Size{}, fmt.Errorf("no such image: %s", path)
}

// mixedItems returns n items alternating landscape, portrait and square.
func mixedItems(n int) ([]ImageRef, sizes) {
	items := make([]ImageRef, n)
	m := make(sizes, n)
	for i := range n {
		path := fmt.Sprintf("img/%03d.jpg", i)
		items[i] = ImageRef{Path: path, GroupID: fmt.Sprintf("p%d", i%4)}
		switch i % 3 {
		case 0:
			m[path] = Size{Width: 1920, Height: 1080}
		case 1:
			m[path] = Size{Width: 600, Height: 900}
		default:
			m[path] = Size{Width: 500, Height: 500}
		}
	}
	return items, m
}

func seeded(seed uint64) *Options {
	return &Options{Seed: seed, Seeded: true}
}

func TestLayoutNoOverlapAndBounds(t *testing.T) {
	canvases := []Canvas{{1200, 800}, {800, 1200}, {1920, 1080}, {400, 300}}
	counts := []int{1, 5, 20, 60}

	for _, c := range canvases {
		for _, n := range counts {
			items, m := mixedItems(n)
			for seed := range uint64(25) {
				res, err := Layout(context.Background(), Request{Items: items, Canvas: c}, m, seeded(seed))
				if err != nil {
					t.Fatalf("canvas=%v n=%d seed=%d: %v", c, n, seed, err)
				}

				var clustered []PlacedItem
				for _, it := range res.Items {
					if !it.Fallback {
						clustered = append(clustered, it)
					}
				}
				for i, a := range clustered {
					if !a.Rect().Within(c.Width, c.Height) {
						t.Errorf("canvas=%v n=%d seed=%d: item %s out of bounds: %+v", c, n, seed, a.Item.Path, a.Rect())
					}
					for _, b := range clustered[i+1:] {
						if a.Rect().Inflate(DefaultMinGap/2).Overlaps(b.Rect().Inflate(DefaultMinGap/2), 0) {
							t.Errorf("canvas=%v n=%d seed=%d: %s and %s closer than gap", c, n, seed, a.Item.Path, b.Item.Path)
						}
					}
				}
			}
		}
	}
}

func TestLayoutCompleteness(t *testing.T) {
	items, m := mixedItems(37)
	res, err := Layout(context.Background(), Request{Items: items, Canvas: Canvas{1280, 720}}, m, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != len(items) {
		t.Fatalf("placed %d items, want %d", len(res.Items), len(items))
	}
	if res.Stats.Clustered+res.Stats.Fallback != len(items) {
		t.Errorf("clustered %d + fallback %d != %d", res.Stats.Clustered, res.Stats.Fallback, len(items))
	}

	seen := make(map[string]bool)
	for _, it := range res.Items {
		if seen[it.Item.Path] {
			t.Errorf("%s placed twice", it.Item.Path)
		}
		seen[it.Item.Path] = true
		if it.Item.AspectRatio == 0 {
			t.Errorf("%s has no discovered aspect ratio", it.Item.Path)
		}
	}
}

func TestLayoutFallbackItemsStayInCanvas(t *testing.T) {
	// A tiny gap budget and a crowded canvas force fallback placements.
	items, m := mixedItems(60)
	opts := &Options{Seed: 7, Seeded: true, MaxPlacementAttempts: 1}
	c := Canvas{600, 400}

	res, err := Layout(context.Background(), Request{Items: items, Canvas: c}, m, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Fallback == 0 {
		t.Fatal("expected fallback placements with a single attempt per item")
	}
	for _, it := range res.Items {
		if it.Fallback && !it.Rect().Within(c.Width, c.Height) {
			t.Errorf("fallback item %s outside canvas: %+v", it.Item.Path, it.Rect())
		}
	}
}

func TestLayoutAllFailed(t *testing.T) {
	items, _ := mixedItems(8)
	failing := MeasurerFunc(func(context.Context, string) (Size, error) {
		return Size{}, errors.New("decode error")
	})

	res, err := Layout(context.Background(), Request{Items: items, Canvas: Canvas{800, 600}}, failing, nil)
	if err != nil {
		t.Fatalf("all-failed batch should not error: %v", err)
	}
	if !res.Empty() {
		t.Errorf("placed %d items, want none", len(res.Items))
	}
	if res.Items == nil {
		t.Error("Items should be an empty slice, not nil")
	}
	if res.Stats.Failed != 8 {
		t.Errorf("Failed = %d, want 8", res.Stats.Failed)
	}
}

func TestLayoutDropsEmptyAndFailedSizes(t *testing.T) {
	m := sizes{
		"ok.jpg":     {Width: 800, Height: 600},
		"zero-w.jpg": {Width: 0, Height: 600},
		"zero-h.jpg": {Width: 800, Height: 0},
	}
	items := []ImageRef{{Path: "ok.jpg"}, {Path: "zero-w.jpg"}, {Path: "zero-h.jpg"}, {Path: "missing.jpg"}}

	res, err := Layout(context.Background(), Request{Items: items, Canvas: Canvas{800, 600}}, m, seeded(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 1 || res.Items[0].Item.Path != "ok.jpg" {
		t.Fatalf("placed %+v, want only ok.jpg", res.Items)
	}
	if res.Stats.Succeeded != 1 || res.Stats.Failed != 3 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestLayoutEmptyRequest(t *testing.T) {
	res, err := Layout(context.Background(), Request{Canvas: Canvas{800, 600}}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Empty() {
		t.Errorf("placed %d items", len(res.Items))
	}
}

func TestLayoutInvalidCanvas(t *testing.T) {
	tests := []struct {
		name   string
		canvas Canvas
	}{
		{"zero", Canvas{}},
		{"zero width", Canvas{0, 600}},
		{"zero height", Canvas{800, 0}},
		{"negative width", Canvas{-1, 600}},
		{"negative height", Canvas{800, -10}},
		{"nan", Canvas{math.NaN(), 600}},
		{"infinite width", Canvas{math.Inf(1), 800}},
		{"infinite height", Canvas{800, math.Inf(1)}},
		{"area overflows", Canvas{math.MaxFloat64, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			m := MeasurerFunc(func(context.Context, string) (Size, error) {
				calls.Add(1)
				return Size{Width: 1, Height: 1}, nil
			})
			_, err := Layout(context.Background(), Request{Items: []ImageRef{{Path: "a"}}, Canvas: tt.canvas}, m, nil)
			if !errs.Is(err, errs.ErrCodeInvalidCanvas) {
				t.Fatalf("err = %v, want INVALID_CANVAS", err)
			}
			if calls.Load() != 0 {
				t.Error("measurer called before canvas validation")
			}
		})
	}
}

func TestLayoutGlobalTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	// Ignores ctx on purpose: the engine must not wait on it.
	m := MeasurerFunc(func(_ context.Context, path string) (Size, error) {
		if path == "fast.jpg" {
			return Size{Width: 1600, Height: 900}, nil
		}
		<-release
		return Size{Width: 1, Height: 1}, nil
	})
	items := []ImageRef{{Path: "fast.jpg"}}
	for i := range 20 {
		items = append(items, ImageRef{Path: fmt.Sprintf("stalled-%d.jpg", i)})
	}
	opts := &Options{GlobalTimeout: 100 * time.Millisecond, PerImageTimeout: time.Minute}

	start := time.Now()
	res, err := Layout(context.Background(), Request{Items: items, Canvas: Canvas{800, 600}}, m, opts)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed > opts.GlobalTimeout+500*time.Millisecond {
		t.Errorf("layout took %v, want about %v", elapsed, opts.GlobalTimeout)
	}
	if !res.Stats.TimedOut || res.Stats.Pending != 20 {
		t.Errorf("stats = %+v, want timed out with 20 pending", res.Stats)
	}
	if len(res.Items) != 1 || res.Items[0].Item.Path != "fast.jpg" {
		t.Errorf("placed %+v, want only fast.jpg", res.Items)
	}
}

func TestLayoutPerImageTimeout(t *testing.T) {
	m := MeasurerFunc(func(ctx context.Context, path string) (Size, error) {
		if path == "slow.jpg" {
			<-ctx.Done()
			return Size{}, ctx.Err()
		}
		return Size{Width: 900, Height: 1600}, nil
	})
	items := []ImageRef{{Path: "a.jpg"}, {Path: "slow.jpg"}, {Path: "b.jpg"}}
	opts := &Options{PerImageTimeout: 50 * time.Millisecond, GlobalTimeout: 10 * time.Second}

	start := time.Now()
	res, err := Layout(context.Background(), Request{Items: items, Canvas: Canvas{800, 600}}, m, opts)
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("per-image timeout did not bound the batch")
	}
	if res.Stats.TimedOut {
		t.Error("global deadline should not have fired")
	}
	if res.Stats.Failed != 1 || len(res.Items) != 2 {
		t.Errorf("stats = %+v, placed %d", res.Stats, len(res.Items))
	}
}

func TestLayoutPerImageTimeoutIgnoredContext(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	// stuck.jpg never looks at ctx; the timeout must still settle it and
	// free its concurrency slot for the others.
	m := MeasurerFunc(func(_ context.Context, path string) (Size, error) {
		if path == "stuck.jpg" {
			<-release
		}
		return Size{Width: 1600, Height: 900}, nil
	})
	items := []ImageRef{{Path: "stuck.jpg"}, {Path: "a.jpg"}, {Path: "b.jpg"}, {Path: "c.jpg"}}
	opts := &Options{PerImageTimeout: 50 * time.Millisecond, GlobalTimeout: 10 * time.Second, MaxConcurrency: 1}

	start := time.Now()
	res, err := Layout(context.Background(), Request{Items: items, Canvas: Canvas{1200, 800}}, m, opts)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("layout took %v, want the per-image timeout to bound it", elapsed)
	}
	if res.Stats.TimedOut || res.Stats.Failed != 1 || len(res.Items) != 3 {
		t.Errorf("stats = %+v, placed %d; want 1 failed and 3 placed", res.Stats, len(res.Items))
	}
	for _, it := range res.Items {
		if it.Item.Path == "stuck.jpg" {
			t.Error("stuck.jpg was placed")
		}
	}
}

func TestLayoutContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := MeasurerFunc(func(ctx context.Context, _ string) (Size, error) {
		cancel()
		<-ctx.Done()
		return Size{}, ctx.Err()
	})

	_, err := Layout(ctx, Request{Items: []ImageRef{{Path: "a"}}, Canvas: Canvas{800, 600}}, m, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLayoutAreaScaling(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		canvas Canvas
	}{
		{"10 squares on 1000x1000", 10, Canvas{1000, 1000}},
		{"base sizes exceed canvas", 80, Canvas{1000, 1000}},
		{"wide canvas", 25, Canvas{1920, 600}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]ImageRef, tt.n)
			m := make(sizes, tt.n)
			for i := range items {
				items[i].Path = fmt.Sprintf("sq-%d.png", i)
				m[items[i].Path] = Size{Width: 400, Height: 400}
			}

			res, err := Layout(context.Background(), Request{Items: items, Canvas: tt.canvas}, m, seeded(3))
			if err != nil {
				t.Fatal(err)
			}
			want := tt.canvas.Area() * DefaultTargetFillRatio
			if diff := math.Abs(res.Stats.ScaledArea-want) / want; diff > 0.10 {
				t.Errorf("scaled area %.0f, want %.0f ±10%%", res.Stats.ScaledArea, want)
			}
			if tt.n == 80 && res.Stats.ScaleFactor >= 1 {
				t.Errorf("scale factor %.3f, want < 1 for oversized input", res.Stats.ScaleFactor)
			}
		})
	}
}

func TestLayoutSeededRunsAreIdentical(t *testing.T) {
	items, static := mixedItems(30)
	// Random completion order must not leak into the result.
	var n atomic.Int64
	m := MeasurerFunc(func(ctx context.Context, path string) (Size, error) {
		time.Sleep(time.Duration(n.Add(7)%5) * time.Millisecond)
		return static.Measure(ctx, path)
	})
	req := Request{Items: items, Canvas: Canvas{1440, 900}}

	a, err := Layout(context.Background(), req, m, seeded(99))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Layout(context.Background(), req, m, seeded(99))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Items, b.Items) {
		t.Error("seeded runs differ")
	}

	c, _ := Layout(context.Background(), req, m, seeded(100))
	if reflect.DeepEqual(a.Items, c.Items) {
		t.Error("different seeds produced identical layouts")
	}
}

func TestLayoutDoesNotMutateRequest(t *testing.T) {
	items, m := mixedItems(10)
	orig := append([]ImageRef(nil), items...)

	if _, err := Layout(context.Background(), Request{Items: items, Canvas: Canvas{800, 600}}, m, nil); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(items, orig) {
		t.Error("Layout reordered or modified the request items")
	}
}

func TestLayoutNormalizedAspectAndRotation(t *testing.T) {
	items, m := mixedItems(40)
	res, err := Layout(context.Background(), Request{Items: items, Canvas: Canvas{1600, 1000}}, m, seeded(5))
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range res.Items {
		ratio := it.Width / it.Height
		want := portraitAspect
		if it.Item.Landscape() {
			want = landscapeAspect
		}
		if math.Abs(ratio-want) > 1e-9 {
			t.Errorf("%s: ratio %.4f, want %.4f", it.Item.Path, ratio, want)
		}
		if it.Rotation < -maxRotation || it.Rotation > maxRotation {
			t.Errorf("%s: rotation %.2f outside ±%v", it.Item.Path, it.Rotation, maxRotation)
		}
	}
}

func TestLayoutMaxConcurrency(t *testing.T) {
	var inflight, peak atomic.Int32
	m := MeasurerFunc(func(context.Context, string) (Size, error) {
		cur := inflight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inflight.Add(-1)
		return Size{Width: 10, Height: 10}, nil
	})
	items, _ := mixedItems(12)

	res, err := Layout(context.Background(), Request{Items: items, Canvas: Canvas{800, 600}}, m, &Options{MaxConcurrency: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency %d, want <= 2", got)
	}
	if len(res.Items) != 12 {
		t.Errorf("placed %d, want 12", len(res.Items))
	}
}

func TestPlace(t *testing.T) {
	items := []ImageRef{
		{Path: "a", AspectRatio: 1.5},
		{Path: "b", AspectRatio: 0.66},
		{Path: "c", AspectRatio: 1},
	}
	res, err := Place(Canvas{900, 600}, items, seeded(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 3 {
		t.Errorf("placed %d, want 3", len(res.Items))
	}
	if _, err := Place(Canvas{}, items, nil); !errs.Is(err, errs.ErrCodeInvalidCanvas) {
		t.Errorf("err = %v, want INVALID_CANVAS", err)
	}
}

func ExampleLayout() {
	m := MeasurerFunc(func(_ context.Context, path string) (Size, error) {
		if path == "broken.jpg" {
			return Size{}, errors.New("truncated header")
		}
		return Size{Width: 1600, Height: 900}, nil
	})
	req := Request{
		Canvas: Canvas{Width: 1200, Height: 800},
		Items: []ImageRef{
			{Path: "a.jpg", GroupID: "harbor"},
			{Path: "b.jpg", GroupID: "harbor"},
			{Path: "c.jpg", GroupID: "night"},
			{Path: "broken.jpg", GroupID: "night"},
		},
	}

	res, err := Layout(context.Background(), req, m, &Options{Seed: 1, Seeded: true})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("placed %d of %d images\n", len(res.Items), res.Stats.Requested)
	// Output: placed 3 of 4 images
}
