package cache

// ScopedKeyer prefixes every key of an inner [Keyer]. The API server scopes
// artifact keys per business so a shared backend keeps tenants apart:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "biz:acme:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer uses
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) *ScopedKeyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ResourceKey(source string) string {
	return k.prefix + k.inner.ResourceKey(source)
}

func (k *ScopedKeyer) FontCSSKey(family string) string {
	return k.prefix + k.inner.FontCSSKey(family)
}

func (k *ScopedKeyer) ArtifactKey(fingerprint string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(fingerprint, opts)
}

var _ Keyer = (*ScopedKeyer)(nil)
