package cache

// ScopedKeyer prefixes every key of an inner Keyer. The server scopes keys by
// project-source name so two catalogs served from one Redis never collide.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "portfolio:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner uses DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SizeKey returns the prefixed size key.
func (k *ScopedKeyer) SizeKey(source, path string) string {
	return k.prefix + k.inner.SizeKey(source, path)
}

// LayoutKey returns the prefixed layout key.
func (k *ScopedKeyer) LayoutKey(itemsHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(itemsHash, opts)
}

// ArtifactKey returns the prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
