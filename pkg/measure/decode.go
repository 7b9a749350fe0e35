package measure

import (
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/collage/pkg/collage"
	errs "github.com/matzehuels/collage/pkg/errors"
	"github.com/matzehuels/collage/pkg/observability"
)

// decodeSize reads an image header from r.
func decodeSize(r io.Reader, path string) (collage.Size, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return collage.Size{}, errs.Wrap(errs.ErrCodeUnsupported, err, "decode %s", path)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return collage.Size{}, errs.New(errs.ErrCodeUnsupported, "%s image %s has no size", format, path)
	}
	return collage.Size{Width: cfg.Width, Height: cfg.Height}, nil
}

// report emits a measure hook for one attempt.
func report(ctx context.Context, source string, start time.Time, err error) {
	observability.Measure().OnMeasure(ctx, source, time.Since(start), err)
}
