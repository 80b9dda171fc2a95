package cache

// Keyer generates cache keys for the values the engine caches.
type Keyer interface {
	// ResourceKey addresses fetched bytes (images, template artwork, font
	// files) by source reference.
	ResourceKey(source string) string
	// FontCSSKey addresses a remote font descriptor for a family.
	FontCSSKey(family string) string
	// ArtifactKey addresses a rendered image by render fingerprint.
	ArtifactKey(fingerprint string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts distinguishes renders of the same inputs.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Debug  bool   `json:"debug,omitempty"`

	// Layout is a hash of the layout settings in effect.
	Layout string `json:"layout,omitempty"`

	// Template is a hash of the resolved template definition.
	Template string `json:"template,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() DefaultKeyer { return DefaultKeyer{} }

func (DefaultKeyer) ResourceKey(source string) string { return hashKey("resource", source) }

func (DefaultKeyer) FontCSSKey(family string) string { return hashKey("fontcss", family) }

func (DefaultKeyer) ArtifactKey(fingerprint string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", fingerprint, opts)
}

var _ Keyer = DefaultKeyer{}
