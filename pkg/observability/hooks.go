// Package observability provides hooks for metrics, tracing, and logging.
//
// The engine and its collaborators emit events through small hook interfaces
// with no-op defaults, so the core packages never depend on a metrics
// backend. The HTTP server registers a Prometheus implementation at startup;
// the CLI leaves the defaults in place.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLayoutHooks(&myLayoutHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnLayoutStart(ctx, len(req.Items))
//	// ... discover sizes, place items ...
//	observability.Layout().OnLayoutComplete(ctx, placed, fallback, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the collage layout engine.
type LayoutHooks interface {
	// OnLayoutStart fires after request validation, before size discovery.
	OnLayoutStart(ctx context.Context, items int)

	// OnDiscoveryComplete fires when size discovery settles or its deadline fires.
	// pending counts items that had not settled when the global deadline fired.
	OnDiscoveryComplete(ctx context.Context, succeeded, failed, pending int, duration time.Duration)

	// OnLayoutComplete fires when placement finishes or the call fails.
	OnLayoutComplete(ctx context.Context, placed, fallback int, duration time.Duration, err error)
}

// =============================================================================
// Measure Hooks
// =============================================================================

// MeasureHooks receives events from image size discovery.
type MeasureHooks interface {
	// OnMeasure records one measurement attempt. source names the measurer
	// ("file", "http", "cache", "static").
	OnMeasure(ctx context.Context, source string, duration time.Duration, err error)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from artifact rendering.
type RenderHooks interface {
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(context.Context, int)                                 {}
func (NoopLayoutHooks) OnDiscoveryComplete(context.Context, int, int, int, time.Duration) {}
func (NoopLayoutHooks) OnLayoutComplete(context.Context, int, int, time.Duration, error)  {}

// NoopMeasureHooks is a no-op implementation of MeasureHooks.
type NoopMeasureHooks struct{}

func (NoopMeasureHooks) OnMeasure(context.Context, string, time.Duration, error) {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopRenderHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks  LayoutHooks  = NoopLayoutHooks{}
	measureHooks MeasureHooks = NoopMeasureHooks{}
	renderHooks  RenderHooks  = NoopRenderHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup before any layout runs.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetMeasureHooks registers custom measure hooks.
func SetMeasureHooks(h MeasureHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		measureHooks = h
	}
}

// SetRenderHooks registers custom render hooks.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Measure returns the registered measure hooks.
func Measure() MeasureHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return measureHooks
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	measureHooks = NoopMeasureHooks{}
	renderHooks = NoopRenderHooks{}
	cacheHooks = NoopCacheHooks{}
}
