// Package render turns a computed collage into output artifacts.
//
// # Sinks
//
// Each sink takes a [collage.Result] and a list of functional options:
//
//	data, err := render.RenderJSON(res, render.WithJSONSeed(42))
//	svg := render.RenderSVG(res, render.WithImageBase("/images/"), render.WithAnimation())
//	pdf, err := render.RenderPDF(res, render.WithPDFImageRoot("./public"))
//
// JSON is the interchange format: [ParseJSON] reads it back so a cached
// layout can be rendered again without repeating size discovery.
//
// SVG wraps every image in a link to its project anchor and, with
// [WithAnimation], fades images in one after another.
//
// PDF draws one page sized to the canvas, embedding JPEG, PNG and GIF files
// found under the image root and outlining anything it cannot embed.
package render
