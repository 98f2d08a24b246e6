package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments, or a
// deployment and its tests, can share one backend.
//
// Example usage:
//
//	staging := NewScopedKeyer(NewDefaultKeyer(), "staging:")
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

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(pageHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(pageHash, opts)
}

// RateKey generates a prefixed rate limiter key.
func (k *ScopedKeyer) RateKey(scope, client string) string {
	return k.prefix + k.inner.RateKey(scope, client)
}
