package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/matzehuels/collage/pkg/collage"
	errs "github.com/matzehuels/collage/pkg/errors"
)

// PDFOption configures PDF rendering via [RenderPDF].
type PDFOption func(*pdfRenderer)

type pdfRenderer struct {
	imageRoot string
	linkBase  string
	title     string
	outlines  bool

	images map[string]*gofpdf.ImageInfoType
}

// WithPDFImageRoot embeds images found under dir. Without it every item is
// drawn as a placeholder.
func WithPDFImageRoot(dir string) PDFOption { return func(r *pdfRenderer) { r.imageRoot = dir } }

// WithPDFLinkBase turns each item into a link to base#project.
func WithPDFLinkBase(base string) PDFOption { return func(r *pdfRenderer) { r.linkBase = base } }

// WithPDFTitle sets the document title.
func WithPDFTitle(title string) PDFOption { return func(r *pdfRenderer) { r.title = title } }

// WithPDFOutlines strokes a frame around every item.
func WithPDFOutlines() PDFOption { return func(r *pdfRenderer) { r.outlines = true } }

// RenderPDF draws the collage on a single page whose size in points equals
// the canvas size.
func RenderPDF(res collage.Result, opts ...PDFOption) ([]byte, error) {
	r := pdfRenderer{title: "Collage", images: map[string]*gofpdf.ImageInfoType{}}
	for _, opt := range opts {
		opt(&r)
	}
	if !res.Canvas.Valid() {
		return nil, errs.New(errs.ErrCodeInvalidCanvas, "canvas %gx%g must be positive", res.Canvas.Width, res.Canvas.Height)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: res.Canvas.Width, Ht: res.Canvas.Height},
	})
	pdf.SetTitle(r.title, true)
	pdf.SetCreator("collage", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetFont("Helvetica", "", 9)
	pdf.AddPage()

	for _, p := range res.Items {
		r.drawItem(pdf, p)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "write pdf")
	}
	return buf.Bytes(), nil
}

func (r *pdfRenderer) drawItem(pdf *gofpdf.Fpdf, p collage.PlacedItem) {
	rect := p.Rect()

	pdf.TransformBegin()
	// PDF angles run counterclockwise; SVG rotations run clockwise.
	pdf.TransformRotate(-p.Rotation, rect.CenterX(), rect.CenterY())

	if info, name := r.image(pdf, p.Item.Path); info != nil {
		pdf.ClipRect(p.X, p.Y, p.Width, p.Height, false)
		x, y, w, h := cover(rect, info.Width(), info.Height())
		pdf.ImageOptions(name, x, y, w, h, false, gofpdf.ImageOptions{}, 0, "")
		pdf.ClipEnd()
	} else {
		pdf.SetFillColor(229, 231, 235)
		pdf.SetDrawColor(156, 163, 175)
		pdf.SetLineWidth(0.5)
		pdf.Rect(p.X, p.Y, p.Width, p.Height, "FD")
		if p.Item.GroupID != "" {
			pdf.SetTextColor(75, 85, 99)
			pdf.Text(p.X+6, p.Y+14, p.Item.GroupID)
		}
	}

	if r.outlines {
		pdf.SetLineWidth(1.5)
		if p.Fallback {
			pdf.SetDrawColor(220, 38, 38)
		} else {
			pdf.SetDrawColor(37, 99, 235)
		}
		pdf.Rect(p.X, p.Y, p.Width, p.Height, "D")
	}

	if r.linkBase != "" && p.Item.GroupID != "" {
		pdf.LinkString(p.X, p.Y, p.Width, p.Height, r.linkBase+"#"+p.Item.GroupID)
	}
	pdf.TransformEnd()
}

// image registers the file behind path once and returns its info, or nil
// when it cannot be embedded.
func (r *pdfRenderer) image(pdf *gofpdf.Fpdf, path string) (*gofpdf.ImageInfoType, string) {
	if r.imageRoot == "" || isRemote(path) || errs.ValidatePath(path) != nil {
		return nil, ""
	}
	if info, ok := r.images[path]; ok {
		return info, path
	}

	typ := imageType(path)
	if typ == "" {
		r.images[path] = nil
		return nil, ""
	}
	f, err := os.Open(filepath.Join(r.imageRoot, filepath.FromSlash(strings.TrimPrefix(path, "/"))))
	if err != nil {
		r.images[path] = nil
		return nil, ""
	}
	defer f.Close()

	info := pdf.RegisterImageOptionsReader(path, gofpdf.ImageOptions{ImageType: typ}, f)
	if !pdf.Ok() || info == nil {
		pdf.ClearError()
		r.images[path] = nil
		return nil, ""
	}
	r.images[path] = info
	return info, path
}

func imageType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "JPG"
	case ".png":
		return "PNG"
	case ".gif":
		return "GIF"
	}
	return ""
}

// cover scales an iw x ih image to fill rect, centered, cropping the overflow.
func cover(rect collage.Rect, iw, ih float64) (x, y, w, h float64) {
	if iw <= 0 || ih <= 0 {
		return rect.X, rect.Y, rect.W, rect.H
	}
	scale := max(rect.W/iw, rect.H/ih)
	w, h = iw*scale, ih*scale
	return rect.X + (rect.W-w)/2, rect.Y + (rect.H-h)/2, w, h
}
