package resource

import (
	"bytes"
	"context"
	"image"
	"regexp"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/postcraft/pkg/errors"
)

// maxSVGSide bounds the raster size of SVG sources without explicit size.
const maxSVGSide = 4096

var svgPrefix = regexp.MustCompile(`^\s*(<\?xml[^>]*>\s*)?(<!--[\s\S]*?-->\s*)*(<!DOCTYPE[^>]*>\s*)?<svg[\s>]`)

// IsSVG reports whether data looks like SVG markup.
func IsSVG(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return svgPrefix.Match(head)
}

// DecodeImage decodes raster or SVG bytes. EXIF orientation is applied to
// JPEGs. SVGs are rasterized at their intrinsic size.
func DecodeImage(data []byte) (image.Image, error) {
	if IsSVG(data) {
		return RasterizeSVG(data, 0, 0)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResourceLoad, err, "decode image")
	}
	return img, nil
}

// LoadImage loads and decodes src.
func (l *Loader) LoadImage(ctx context.Context, src string) (image.Image, error) {
	data, err := l.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	img, err := DecodeImage(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResourceLoad, err, "image %s", truncate(src))
	}
	return img, nil
}

// SVGSize returns the intrinsic size of SVG markup from its viewBox.
func SVGSize(markup []byte) (w, h float64, err error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(markup), oksvg.WarnErrorMode)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeResourceLoad, err, "parse svg")
	}
	return icon.ViewBox.W, icon.ViewBox.H, nil
}

// RasterizeSVG renders markup into a w×h image. A zero size uses the
// viewBox size.
func RasterizeSVG(markup []byte, w, h int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(markup), oksvg.WarnErrorMode)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResourceLoad, err, "parse svg")
	}
	if w <= 0 || h <= 0 {
		w, h = int(icon.ViewBox.W+0.5), int(icon.ViewBox.H+0.5)
	}
	if w <= 0 || h <= 0 || w > maxSVGSide || h > maxSVGSide {
		return nil, errors.New(errors.ErrCodeResourceLoad, "svg raster size %dx%d out of range", w, h)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return rgba, nil
}

func truncate(src string) string {
	if len(src) <= 80 {
		return src
	}
	return src[:77] + "..." + " (" + strconv.Itoa(len(src)) + " bytes)"
}
