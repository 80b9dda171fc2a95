package render

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/post"
	"github.com/matzehuels/postcraft/pkg/resource"
)

// MediaTypePNG is the media type of rendered posts.
const MediaTypePNG = "image/png"

// NewSurface returns a canvas-wide surface. It is square unless bg is
// taller, in which case it grows to bg's height.
func NewSurface(bg image.Image) *gg.Context {
	h := post.CanvasSize
	if bg != nil && bg.Bounds().Dy() > h {
		h = bg.Bounds().Dy()
	}
	return gg.NewContext(post.CanvasSize, h)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(errors.ErrCodeComposite, err, "encode png")
	}
	return buf.Bytes(), nil
}

// DataURL returns PNG bytes as a base64 data URL.
func DataURL(png []byte) string {
	return resource.DataURL(MediaTypePNG, png)
}
