package fonts

import (
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/postcraft/pkg/errors"
)

// Variant is one weight/style of a family.
type Variant struct {
	Weight int
	Italic bool
	// Origin describes where the variant came from (file path, URL or
	// "embedded:go"). Informational only.
	Origin string

	tt *truetype.Font
	ot *opentype.Font
}

// ParseVariant parses TrueType or OpenType data. TrueType outlines go
// through freetype; CFF-flavoured OpenType falls back to x/image/opentype.
func ParseVariant(data []byte, weight int, italic bool) (*Variant, error) {
	v := &Variant{Weight: weight, Italic: italic}
	if weight <= 0 {
		v.Weight = 400
	}
	if tt, err := truetype.Parse(data); err == nil {
		v.tt = tt
		return v, nil
	}
	ot, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResourceLoad, err, "parse font")
	}
	v.ot = ot
	return v, nil
}

// NewFace creates a face at size pixels. Faces are not safe for concurrent
// use; each caller gets its own.
func (v *Variant) NewFace(size float64) font.Face {
	if v.tt != nil {
		return truetype.NewFace(v.tt, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
	}
	face, err := opentype.NewFace(v.ot, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		// Parse already validated the font; NewFace only fails on bad options.
		panic(err)
	}
	return face
}
