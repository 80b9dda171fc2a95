package post

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/postcraft/pkg/errors"
)

// Default brand colors used when neither the spec nor the profile set one.
const (
	DefaultPrimary   = "#1E3A8A"
	DefaultSecondary = "#F59E0B"
)

// BrandPalette is the set of brand colors a template is recolored to.
type BrandPalette struct {
	Primary    string `json:"primary" toml:"primary"`
	Secondary  string `json:"secondary" toml:"secondary"`
	Accent     string `json:"accent,omitempty" toml:"accent"`
	Background string `json:"background,omitempty" toml:"background"`
}

// RoleStyle overrides the colors of a text role.
type RoleStyle struct {
	Color string `json:"color,omitempty" toml:"color"`
	Fill  string `json:"fill,omitempty" toml:"fill"`
}

// BusinessProfile supplies brand data owned by the hosting application.
type BusinessProfile struct {
	ID         string             `json:"id" toml:"id"`
	Name       string             `json:"name" toml:"name"`
	Palette    BrandPalette       `json:"palette" toml:"palette"`
	LogoURL    string             `json:"logoUrl,omitempty" toml:"logo_url"`
	FontFamily string             `json:"fontFamily,omitempty" toml:"font_family"`
	RoleStyles map[Role]RoleStyle `json:"roleStyles,omitempty" toml:"role_styles"`
}

// RoleStyle returns the override for role, if the profile defines one.
func (p BusinessProfile) RoleStyle(role Role) (RoleStyle, bool) {
	s, ok := p.RoleStyles[role]
	return s, ok
}

// ResolvePalette merges the profile palette with the spec's brand metadata.
// Profile colors win; the spec fills gaps; package defaults fill the rest.
func ResolvePalette(s LayoutSpec, p BusinessProfile) BrandPalette {
	pal := p.Palette
	if pal.Primary == "" {
		pal.Primary = s.Metadata.Brand.PrimaryColor
	}
	if pal.Secondary == "" {
		pal.Secondary = s.Metadata.Brand.SecondaryColor
	}
	if pal.Primary == "" {
		pal.Primary = DefaultPrimary
	}
	if pal.Secondary == "" {
		pal.Secondary = DefaultSecondary
	}
	return pal
}

// ResolveFontFamily picks the font family for a render: profile first,
// then the spec's brand metadata.
func ResolveFontFamily(s LayoutSpec, p BusinessProfile) string {
	if p.FontFamily != "" {
		return p.FontFamily
	}
	return s.Metadata.Brand.FontFamily
}

// LoadProfile reads a business profile from a TOML or JSON file, chosen by
// extension.
func LoadProfile(path string) (BusinessProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BusinessProfile{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read profile %s", path)
	}

	var p BusinessProfile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &p)
	default:
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return BusinessProfile{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse profile %s", path)
	}

	for _, c := range []string{p.Palette.Primary, p.Palette.Secondary, p.Palette.Accent, p.Palette.Background} {
		if err := errors.ValidateColor(c); err != nil {
			return BusinessProfile{}, err
		}
	}
	return p, nil
}
