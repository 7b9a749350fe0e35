package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/collage/pkg/collage"
)

// Cascade timing of the fade-in animation.
const (
	staggerDelay = 30 * time.Millisecond
	fadeDuration = 200 * time.Millisecond
)

const collageCSS = `
    .tile { cursor: pointer; transition: filter 0.2s ease; }
    .tile:hover { filter: brightness(1.08); }
    .outline { fill: none; stroke-width: 2; pointer-events: none; }
    .outline.clustered { stroke: #2563eb; }
    .outline.fallback { stroke: #dc2626; stroke-dasharray: 6 4; }`

const fadeCSS = `
    .tile { opacity: 0; animation: fade-in %dms ease-out forwards; }
    @keyframes fade-in { to { opacity: 1; } }`

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	imageBase  string
	animate    bool
	debug      bool
	links      bool
	background string
}

// WithImageBase prefixes relative image paths, e.g. "/images/".
func WithImageBase(base string) SVGOption { return func(r *svgRenderer) { r.imageBase = base } }

// WithAnimation fades images in one after another.
func WithAnimation() SVGOption { return func(r *svgRenderer) { r.animate = true } }

// WithDebug outlines each image, dashed for fallback placements.
func WithDebug() SVGOption { return func(r *svgRenderer) { r.debug = true } }

// WithoutLinks drops the project anchors around images.
func WithoutLinks() SVGOption { return func(r *svgRenderer) { r.links = false } }

// WithBackground fills the canvas with a CSS color.
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

// RenderSVG draws the placed items in placement order, so later items sit on
// top of earlier ones.
func RenderSVG(res collage.Result, opts ...SVGOption) []byte {
	r := svgRenderer{links: true}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		res.Canvas.Width, res.Canvas.Height, res.Canvas.Width, res.Canvas.Height)

	r.renderStyle(&buf)
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escapeXML(r.background))
	}

	buf.WriteString(`  <g class="collage">` + "\n")
	for i, p := range res.Items {
		r.renderItem(&buf, i, p)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderStyle(buf *bytes.Buffer) {
	css := collageCSS
	if r.animate {
		css += fmt.Sprintf(fadeCSS, fadeDuration.Milliseconds())
	}
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", css)
}

func (r *svgRenderer) renderItem(buf *bytes.Buffer, i int, p collage.PlacedItem) {
	rect := p.Rect()
	transform := fmt.Sprintf("rotate(%.2f %.1f %.1f)", p.Rotation, rect.CenterX(), rect.CenterY())

	linked := r.links && p.Item.GroupID != ""
	indent := "    "
	if linked {
		fmt.Fprintf(buf, `    <a href="#%s" xlink:href="#%s">`+"\n", escapeXML(p.Item.GroupID), escapeXML(p.Item.GroupID))
		indent = "      "
	}

	style := ""
	if r.animate {
		style = fmt.Sprintf(` style="animation-delay: %dms"`, int64(i)*staggerDelay.Milliseconds())
	}
	fmt.Fprintf(buf, `%s<image class="tile" href="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" preserveAspectRatio="xMidYMid slice" transform="%s"%s/>`+"\n",
		indent, escapeXML(r.href(p.Item.Path)), p.X, p.Y, p.Width, p.Height, transform, style)

	if r.debug {
		kind := "clustered"
		if p.Fallback {
			kind = "fallback"
		}
		fmt.Fprintf(buf, `%s<rect class="outline %s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" transform="%s"/>`+"\n",
			indent, kind, p.X, p.Y, p.Width, p.Height, transform)
	}

	if linked {
		buf.WriteString("    </a>\n")
	}
}

func (r *svgRenderer) href(path string) string {
	if r.imageBase == "" || isRemote(path) {
		return path
	}
	return strings.TrimRight(r.imageBase, "/") + "/" + strings.TrimLeft(path, "/")
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
