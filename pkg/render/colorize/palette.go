package colorize

import (
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/post"
)

var white = colorful.Color{R: 1, G: 1, B: 1}

// Palette is a parsed brand palette.
type Palette struct {
	Primary    colorful.Color
	Secondary  colorful.Color
	Accent     colorful.Color
	Background colorful.Color
}

// NewPalette parses a brand palette. Accent defaults to the secondary
// color and Background to a light tint of the primary.
func NewPalette(p post.BrandPalette) (Palette, error) {
	primary, err := parseOr(p.Primary, post.DefaultPrimary)
	if err != nil {
		return Palette{}, err
	}
	secondary, err := parseOr(p.Secondary, post.DefaultSecondary)
	if err != nil {
		return Palette{}, err
	}
	pal := Palette{Primary: primary, Secondary: secondary, Accent: secondary, Background: Lighten(primary, 0.92)}
	if p.Accent != "" {
		if pal.Accent, err = Parse(p.Accent); err != nil {
			return Palette{}, err
		}
	}
	if p.Background != "" {
		if pal.Background, err = Parse(p.Background); err != nil {
			return Palette{}, err
		}
	}
	return pal, nil
}

func parseOr(s, def string) (colorful.Color, error) {
	if s == "" {
		s = def
	}
	return Parse(s)
}

// Parse parses #rgb, #rrggbb or #rrggbbaa. Alpha is ignored.
func Parse(s string) (colorful.Color, error) {
	if err := errors.ValidateColor(s); err != nil {
		return colorful.Color{}, err
	}
	if s == "" {
		return colorful.Color{}, errors.New(errors.ErrCodeInvalidColor, "empty color")
	}
	if len(s) == 9 {
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, errors.Wrap(errors.ErrCodeInvalidColor, err, "parse color %q", s)
	}
	return c, nil
}

// Alpha returns the alpha channel of a #rrggbbaa color, or 1.
func Alpha(s string) float64 {
	if len(s) != 9 {
		return 1
	}
	v, err := strconv.ParseUint(s[7:], 16, 8)
	if err != nil {
		return 1
	}
	return float64(v) / 255
}

// Lighten blends c towards white by amount in [0, 1].
func Lighten(c colorful.Color, amount float64) colorful.Color {
	return c.BlendLab(white, amount).Clamped()
}

// Hex formats c as an upper-case #RRGGBB string.
func Hex(c colorful.Color) string {
	return strings.ToUpper(c.Clamped().Hex())
}

// luminance is the WCAG relative luminance of c.
func luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ContrastText returns near-black or white, whichever reads better on bg.
func ContrastText(bg colorful.Color) colorful.Color {
	if luminance(bg) > 0.45 {
		return colorful.Color{R: 0.067, G: 0.094, B: 0.153}
	}
	return white
}
