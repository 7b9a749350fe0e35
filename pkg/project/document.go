// Package project loads the portfolio document that feeds the collage and
// models the list view around it.
//
// A document is a JSON (or YAML) object with a top-level "projects" array:
//
//	{
//	  "projects": [
//	    {
//	      "id": "harbor",
//	      "title": "Harbor at Dawn",
//	      "description": "Long exposures along the quay.",
//	      "category": "photo",
//	      "images": ["/images/harbor/01.jpg", "/images/harbor/02.jpg"]
//	    }
//	  ]
//	}
//
// Documents are validated against an embedded JSON Schema and then checked
// for unique, URL-safe ids. Any violation is a hard INVALID_DOCUMENT failure.
package project

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/collage/pkg/errors"
)

// Category is a project filter tag.
type Category string

// Known categories.
const (
	CategoryAll     Category = ""
	CategoryPhoto   Category = "photo"
	CategoryVideo   Category = "video"
	CategoryGraphic Category = "graphic"
)

// Categories lists the filterable categories in display order.
var Categories = []Category{CategoryPhoto, CategoryVideo, CategoryGraphic}

// ParseCategory validates a category name. The empty string selects all
// projects.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == CategoryAll || c.Known() {
		return c, nil
	}
	return "", errs.New(errs.ErrCodeInvalidCategory, "unknown category %q (want photo, video or graphic)", s)
}

// Known reports whether c is one of [Categories].
func (c Category) Known() bool {
	return slices.Contains(Categories, c)
}

// Project is one portfolio entry.
type Project struct {
	ID          string   `json:"id" yaml:"id" bson:"id"`
	Title       string   `json:"title" yaml:"title" bson:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" bson:"description,omitempty"`
	Category    Category `json:"category" yaml:"category" bson:"category"`
	Images      []string `json:"images" yaml:"images" bson:"images"`
}

// Document is the whole portfolio.
type Document struct {
	Projects []Project `json:"projects" yaml:"projects"`
}

//go:embed schema.json
var schemaJSON []byte

var schema = mustSchema()

func mustSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("project: invalid embedded schema: %v", err))
	}
	return s
}

// ReadJSON decodes and validates a JSON document.
func ReadJSON(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidDocument, err, "read document")
	}
	return parse(data)
}

// ReadYAML decodes a YAML document and validates it like JSON.
func ReadYAML(r io.Reader) (*Document, error) {
	var raw any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, errs.New(errs.ErrCodeInvalidDocument, "empty document")
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidDocument, err, "decode yaml")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidDocument, err, "yaml document is not representable as json")
	}
	return parse(data)
}

// Load reads a document from disk, choosing the decoder by extension.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "project file %s", path)
	}
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadYAML(bytes.NewReader(data))
	default:
		return parse(data)
	}
}

func parse(data []byte) (*Document, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidDocument, err, "malformed document")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, errs.New(errs.ErrCodeInvalidDocument, "%s", strings.Join(msgs, "; "))
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidDocument, err, "decode document")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the constraints the schema cannot express: ids are unique
// and usable as anchors, categories are known and image paths are safe.
func (d *Document) Validate() error {
	if d == nil {
		return errs.New(errs.ErrCodeInvalidDocument, "missing projects")
	}
	seen := make(map[string]bool, len(d.Projects))
	for i, p := range d.Projects {
		if err := errs.ValidateProjectID(p.ID); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidDocument, err, "projects[%d]", i)
		}
		if seen[p.ID] {
			return errs.New(errs.ErrCodeInvalidDocument, "duplicate project id %q", p.ID)
		}
		seen[p.ID] = true
		if !p.Category.Known() {
			return errs.New(errs.ErrCodeInvalidDocument, "project %q: unknown category %q", p.ID, p.Category)
		}
		for _, img := range p.Images {
			if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
				continue
			}
			if err := errs.ValidatePath(img); err != nil {
				return errs.Wrap(errs.ErrCodeInvalidDocument, err, "project %q image %q", p.ID, img)
			}
		}
	}
	return nil
}
