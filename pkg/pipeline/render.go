package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/collage/pkg/collage"
	"github.com/matzehuels/collage/pkg/observability"
	"github.com/matzehuels/collage/pkg/render"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, res collage.Result, layoutID string, opts Options) (artifacts map[string][]byte, err error) {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err) }()

	artifacts = make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var data []byte
		switch format {
		case render.FormatJSON:
			data, err = render.RenderJSON(res, jsonOptions(layoutID, opts)...)
		case render.FormatSVG:
			data = render.RenderSVG(res, svgOptions(opts)...)
		case render.FormatPDF:
			data, err = render.RenderPDF(res, pdfOptions(opts)...)
		default:
			err = render.ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func jsonOptions(layoutID string, opts Options) []render.JSONOption {
	out := []render.JSONOption{render.WithJSONID(layoutID), render.WithJSONStats()}
	if opts.Seeded {
		out = append(out, render.WithJSONSeed(opts.Seed))
	}
	return out
}

func svgOptions(opts Options) []render.SVGOption {
	var out []render.SVGOption
	if opts.ImageBase != "" {
		out = append(out, render.WithImageBase(opts.ImageBase))
	}
	if opts.Animate {
		out = append(out, render.WithAnimation())
	}
	if opts.Debug {
		out = append(out, render.WithDebug())
	}
	return out
}

func pdfOptions(opts Options) []render.PDFOption {
	var out []render.PDFOption
	if opts.ImageRoot != "" {
		out = append(out, render.WithPDFImageRoot(opts.ImageRoot))
	}
	if opts.LinkBase != "" {
		out = append(out, render.WithPDFLinkBase(opts.LinkBase))
	}
	if opts.Debug {
		out = append(out, render.WithPDFOutlines())
	}
	return out
}

// RenderFromLayoutData renders a layout previously written by the JSON
// sink. The recorded seed and ID are kept.
func RenderFromLayoutData(ctx context.Context, layoutData []byte, opts Options) (map[string][]byte, error) {
	res, meta, err := render.ParseJSON(layoutData)
	if err != nil {
		return nil, err
	}
	if meta.Seeded {
		opts.Seed, opts.Seeded = meta.Seed, true
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	return Render(ctx, res, meta.ID, opts)
}
