// Package pkg provides the core libraries for collage portfolio layouts.
//
// # Overview
//
// Collage takes the images of a portfolio, discovers their sizes concurrently,
// and scatters them around a few random attraction points so they do not
// overlap. The result is rendered as JSON, animated SVG or PDF. The pkg
// directory is organized into these areas:
//
//  1. [collage] - The layout engine (discovery, sizing, clustering, placement)
//  2. [measure] - Image size discovery from disk or over HTTP
//  3. [project] - The portfolio document, category filters and navigation
//  4. [render] - JSON, SVG and PDF output
//  5. [pipeline] - Orchestration (load → layout → render) with caching
//
// # Architecture
//
// The typical data flow:
//
//	projects.json / MongoDB
//	         ↓
//	    [project] package (load, validate, filter by category)
//	         ↓
//	    [measure] package (decode image headers, cached)
//	         ↓
//	    [collage] package (shuffle, size, scale, cluster, place)
//	         ↓
//	    [render] package
//	         ↓
//	    JSON/SVG/PDF output
//
// # Quick Start
//
// Lay out the images of one category and render an animated SVG:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/collage/pkg/cache"
//	    "github.com/matzehuels/collage/pkg/measure"
//	    "github.com/matzehuels/collage/pkg/pipeline"
//	    "github.com/matzehuels/collage/pkg/project"
//	)
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	runner.UseMeasurer(measure.NewFile("./public"), "file")
//	res, err := runner.Execute(context.Background(), pipeline.Options{
//	    Source:   project.FileSource{Path: "projects.json"},
//	    Category: project.CategoryPhoto,
//	    Width:    1600,
//	    Height:   900,
//	    Formats:  []string{"svg"},
//	    Animate:  true,
//	})
//	svg := res.Artifacts["svg"]
//
// The engine can also be driven directly with any [collage.Measurer]:
//
//	res, err := collage.Layout(ctx, collage.Request{
//	    Items:  items,
//	    Canvas: collage.Canvas{Width: 1600, Height: 900},
//	}, measurer, nil)
//
// # Main Packages
//
// ## Layout
//
// [collage] - Runs one layout pass: shuffle the items, measure them under a
// per-image and a global timeout, size them from the canvas width, scale the
// set toward a target fill ratio, assign them to attraction points and place
// them with a gap-aware collision test. Items that find no free spot are
// dropped at a random position and flagged as fallback. [collage.Slot] lets
// a newer run supersede an older one.
//
// [measure] - [measure.File] and [measure.HTTP] read just enough of an image
// to learn its dimensions (PNG, JPEG, GIF, BMP, TIFF, WebP via x/image).
// [measure.Cached] stores sizes in a [cache.Cache].
//
// ## Data
//
// [project] - The portfolio document: projects with a category and a list of
// image paths, validated against a JSON schema. [project.Navigator] holds the
// list cursor and filter state used by the browser.
//
// [project/mongostore] - Loads and replaces the document in MongoDB.
//
// ## Output
//
// [render] - JSON for clients, SVG with optional entrance animation and debug
// outlines, and PDF with each image rotated in place.
//
// ## Infrastructure
//
// [pipeline] - The load → layout → render pipeline shared by the CLI and the
// HTTP server. Image sizes are always cached; layouts and artifacts only for
// seeded runs.
//
// [cache] - Cache backends (file, Redis, null) with content-addressed keys.
//
// [config] - TOML, .env and environment configuration.
//
// [observability] - Hooks for metrics on layout, discovery, render and cache
// events.
//
// [errors] - Coded errors shared by every entry point.
//
// [collage]: https://pkg.go.dev/github.com/matzehuels/collage/pkg/collage
// [measure]: https://pkg.go.dev/github.com/matzehuels/collage/pkg/measure
// [project]: https://pkg.go.dev/github.com/matzehuels/collage/pkg/project
// [project/mongostore]: https://pkg.go.dev/github.com/matzehuels/collage/pkg/project/mongostore
// [render]: https://pkg.go.dev/github.com/matzehuels/collage/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/collage/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/collage/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/collage/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/collage/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/collage/pkg/errors
package pkg
