package cache

// ScopedKeyer wraps a Keyer with a prefix so several galleries can share one
// backend without colliding.
//
//	drawings := NewScopedKeyer(NewDefaultKeyer(), "gallery:drawings:")
//	photos := NewScopedKeyer(NewDefaultKeyer(), "gallery:photos:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ProbeKey generates a prefixed probe key.
func (k *ScopedKeyer) ProbeKey(path string, modTime, fileSize int64) string {
	return k.prefix + k.inner.ProbeKey(path, modTime, fileSize)
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(sizesHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(sizesHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
