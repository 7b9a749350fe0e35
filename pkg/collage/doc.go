// Package collage computes randomized, non-overlapping collage layouts.
//
// # Overview
//
// Given a set of images and a canvas, [Layout] discovers each image's
// intrinsic size through an injected [Measurer], sizes the survivors so
// they collectively cover a target fraction of the canvas, and scatters
// them around a few random attraction points ("clouds") without overlap.
// The result is a list of [PlacedItem] rectangles for a renderer to draw.
//
// # Stages
//
//  1. Shuffle: the items are shuffled (Fisher–Yates) so input order never
//     biases the clustering.
//  2. Discovery: all sizes are measured concurrently. Each measurement is
//     bounded by [Options.PerImageTimeout]; the whole batch by
//     [Options.GlobalTimeout]. Failed, zero-sized and timed-out items are
//     dropped with a warning and never retried.
//  3. Sizing: each survivor gets a base width of
//     min(canvas.Width*0.25, 280), scaled by [1.1, 1.4] for landscape and
//     [0.7, 1.0] for portrait images. Heights follow from a normalized
//     16:9 or 9:16 aspect, not the decoded one.
//  4. Scale correction: all sizes are multiplied by
//     sqrt(canvas.Area*TargetFillRatio / totalArea).
//  5. Clustering: min(3+N/15, 6) clouds are dropped on the canvas. Every item
//     joins the cloud nearest to the canvas center.
//  6. Placement: up to [Options.MaxPlacementAttempts] random positions around
//     the cloud center are tried until one fits inside the canvas and clears
//     every placed rectangle by [Options.MinGap].
//  7. Fallback: items that found no slot are dropped at a random position
//     with no collision check and marked [PlacedItem.Fallback].
//
// # Determinism
//
// Production layouts are unseeded. Setting [Options.Seeded] makes the
// shuffle and every random draw depend only on [Options.Seed], so two runs
// with the same input and measurements produce identical results.
//
// # Supersession
//
// [Layout] holds no state between calls. Callers that recompute the collage
// on every filter change or resize use a [Slot], which cancels the previous
// in-flight run and reports [ErrSuperseded] to it.
package collage
