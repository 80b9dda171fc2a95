package templates

import (
	"embed"
	"io/fs"

	"github.com/matzehuels/postcraft/pkg/geom"
)

//go:embed assets/*.svg
var assets embed.FS

// Assets exposes the embedded template artwork, addressed by the part of a
// "builtin:" source after the colon.
func Assets() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// Builtin template ids.
const (
	Cross  ID = "cross"
	Halo   ID = "halo"
	Ribbon ID = "ribbon"
)

var builtins = []Definition{
	{
		ID:           Cross,
		Name:         "Cross",
		Source:       "builtin:cross.svg",
		SafeArea:     geom.Rect{Left: 80, Top: 100, Right: 1000, Bottom: 980},
		Category:     CategoryVector,
		Pattern:      PatternClassify,
		ContentTypes: []string{"promo", "announcement", "quote"},
		Scope:        ScopeGeneral,
	},
	{
		ID:       Halo,
		Name:     "Halo",
		Source:   "builtin:halo.svg",
		SafeArea: geom.Rect{Left: 140, Top: 160, Right: 940, Bottom: 860},
		Logo: &LogoPlacement{
			Bounds:    geom.Rect{Left: 440, Top: 890, Right: 640, Bottom: 1010},
			Alignment: AlignCenter,
			SizeBoost: 1.15,
		},
		Category:     CategoryVector,
		Pattern:      PatternRadial,
		ContentTypes: []string{"event", "quote"},
		Scope:        ScopeGeneral,
	},
	{
		ID:       Ribbon,
		Name:     "Ribbon",
		Source:   "builtin:ribbon.svg",
		SafeArea: geom.Rect{Left: 80, Top: 250, Right: 1000, Bottom: 1000},
		Logo: &LogoPlacement{
			Bounds:    geom.Rect{Left: 60, Top: 40, Right: 300, Bottom: 180},
			Alignment: AlignLeft,
			SizeBoost: 1,
		},
		Category:     CategoryVector,
		Pattern:      PatternStop,
		ContentTypes: []string{"promo", "sale"},
		Scope:        ScopeGeneral,
	},
}

// Default returns a registry holding the builtin catalog.
func Default() *Registry {
	r, err := New(builtins...)
	if err != nil {
		panic(err)
	}
	return r
}
