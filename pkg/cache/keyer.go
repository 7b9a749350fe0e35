package cache

import "fmt"

// Keyer builds cache keys for each entry kind.
type Keyer interface {
	// SizeKey identifies the measured size of an image as seen by a measurer.
	SizeKey(source, path string) string

	// LayoutKey identifies a seeded layout of a fingerprinted item list.
	LayoutKey(itemsHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the layout inputs that change placement.
type LayoutKeyOpts struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Seed   uint64  `json:"seed"`
	MinGap float64 `json:"min_gap"`
}

// ArtifactKeyOpts are the render inputs that change output bytes.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	Animate   bool   `json:"animate,omitempty"`
	Debug     bool   `json:"debug,omitempty"`
	Images    string `json:"images,omitempty"` // image URL prefix or directory
	LinkBase  string `json:"link_base,omitempty"`
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SizeKey returns "size:<source>:<path>". Paths are short and readable keys
// make `redis-cli --scan` useful.
func (DefaultKeyer) SizeKey(source, path string) string {
	return fmt.Sprintf("size:%s:%s", source, path)
}

// LayoutKey hashes the options together with the item fingerprint.
func (DefaultKeyer) LayoutKey(itemsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", itemsHash, opts)
}

// ArtifactKey hashes the options together with the layout fingerprint.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
