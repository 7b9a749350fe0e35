package measure

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/collage/pkg/collage"
	errs "github.com/matzehuels/collage/pkg/errors"
)

// File measures images stored below Root. Paths are slash-separated and may
// carry a leading slash, as they appear in project documents
// ("/images/harbor/01.jpg").
type File struct {
	Root string
}

// NewFile creates a File measurer rooted at root.
func NewFile(root string) *File {
	return &File{Root: root}
}

// Measure decodes the header of Root/path. Paths escaping Root are rejected
// with INVALID_PATH.
func (f *File) Measure(ctx context.Context, path string) (size collage.Size, err error) {
	start := time.Now()
	defer func() { report(ctx, "file", start, err) }()

	if err := errs.ValidatePath(path); err != nil {
		return collage.Size{}, err
	}
	if err := ctx.Err(); err != nil {
		return collage.Size{}, err
	}

	full := filepath.Join(f.Root, filepath.FromSlash(strings.TrimPrefix(path, "/")))
	fh, err := os.Open(full)
	if os.IsNotExist(err) {
		return collage.Size{}, errs.Wrap(errs.ErrCodeFileNotFound, err, "image %s", path)
	}
	if err != nil {
		return collage.Size{}, err
	}
	defer fh.Close()

	return decodeSize(fh, path)
}

var _ collage.Measurer = (*File)(nil)
