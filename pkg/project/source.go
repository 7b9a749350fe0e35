package project

import "context"

// Source loads the portfolio document from some backing store.
type Source interface {
	Load(ctx context.Context) (*Document, error)
}

// FileSource reads a JSON or YAML document from disk on every Load, so edits
// show up without a restart.
type FileSource struct {
	Path string
}

// Load reads and validates the file.
func (s FileSource) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(s.Path)
}

// Static serves an already loaded document.
type Static struct {
	Doc *Document
}

// Load returns the wrapped document.
func (s Static) Load(context.Context) (*Document, error) {
	if err := s.Doc.Validate(); err != nil {
		return nil, err
	}
	return s.Doc, nil
}

var (
	_ Source = FileSource{}
	_ Source = Static{}
)
