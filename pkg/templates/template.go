package templates

import (
	"slices"

	"github.com/matzehuels/postcraft/pkg/geom"
)

// ID identifies a template.
type ID string

// Category tells the colorizer whether the artwork is markup or a bitmap.
type Category string

const (
	CategoryVector Category = "vector"
	CategoryRaster Category = "raster"
)

// Scope controls who may see a template.
type Scope string

const (
	ScopeGeneral  Scope = "general"
	ScopeBusiness Scope = "business"
)

// Pattern names the color substitution rule family of a vector template.
type Pattern string

const (
	// PatternNone leaves the markup untouched.
	PatternNone Pattern = ""
	// PatternClassify maps every fill to primary or secondary by brightness
	// and hue, and injects a background rectangle.
	PatternClassify Pattern = "classify"
	// PatternRadial replaces a blend-mode gradient with a radial gradient
	// built from the primary color and boosts strokes.
	PatternRadial Pattern = "radial"
	// PatternStop swaps one named gradient stop and lightens the backing fill.
	PatternStop Pattern = "stop"
)

// Alignment positions the logo horizontally inside its bounds.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// LogoPlacement overrides the default top-right logo reservation.
type LogoPlacement struct {
	Bounds    geom.Rect `json:"bounds" toml:"bounds"`
	Alignment Alignment `json:"alignment" toml:"alignment"`
	SizeBoost float64   `json:"sizeBoost" toml:"size_boost"`
}

// Boost returns the effective size multiplier.
func (l LogoPlacement) Boost() float64 {
	if l.SizeBoost <= 0 {
		return 1
	}
	return l.SizeBoost
}

// Definition is one template variant.
type Definition struct {
	ID           ID             `json:"id" toml:"id"`
	Name         string         `json:"name" toml:"name"`
	Source       string         `json:"source" toml:"source"`
	SafeArea     geom.Rect      `json:"safeArea" toml:"safe_area"`
	Logo         *LogoPlacement `json:"logo,omitempty" toml:"logo"`
	Category     Category       `json:"category" toml:"category"`
	Pattern      Pattern        `json:"pattern,omitempty" toml:"pattern"`
	ContentTypes []string       `json:"contentTypes,omitempty" toml:"content_types"`
	Scope        Scope          `json:"scope" toml:"scope"`
	Businesses   []string       `json:"businesses,omitempty" toml:"businesses"`
}

// Eligible reports whether the template may be shown for contentType to
// businessID. An empty contentType matches every template.
func (d Definition) Eligible(contentType, businessID string) bool {
	if contentType != "" && len(d.ContentTypes) > 0 && !slices.Contains(d.ContentTypes, contentType) {
		return false
	}
	if d.Scope == ScopeBusiness {
		return businessID != "" && slices.Contains(d.Businesses, businessID)
	}
	return true
}

// BusinessSpecific reports whether the template is restricted to an
// allow-list of businesses.
func (d Definition) BusinessSpecific() bool { return d.Scope == ScopeBusiness }
