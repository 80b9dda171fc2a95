package colorize

import (
	"image"
	"math"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/postcraft/pkg/post"
)

// DefaultAngle is the CSS angle of a linear background without one: top
// to bottom.
const DefaultAngle = 180

// Fallback is the background used when a template cannot be drawn: a
// diagonal gradient from the primary to the secondary color.
func Fallback(pal Palette, w, h int) image.Image {
	dc := gg.NewContext(w, h)
	paint(dc, post.BackgroundLinear, []colorful.Color{pal.Primary, pal.Secondary}, 135)
	return dc.Image()
}

// Fill paints bg over the whole of dc. Invalid or missing colors are taken
// from the palette.
func Fill(dc *gg.Context, bg post.Background, pal Palette) {
	var colors []colorful.Color
	for _, s := range bg.Colors {
		if c, err := Parse(s); err == nil {
			colors = append(colors, c)
		}
	}
	angle := float64(DefaultAngle)
	if bg.Angle != nil {
		angle = *bg.Angle
	}

	switch {
	case bg.Kind == post.BackgroundSolid || bg.Kind == "":
		if len(colors) == 0 {
			colors = []colorful.Color{pal.Background}
		}
	case len(colors) == 0:
		colors = []colorful.Color{pal.Primary, pal.Secondary}
	case len(colors) == 1:
		colors = append(colors, Lighten(colors[0], 0.5))
	}
	paint(dc, bg.Kind, colors, angle)
}

func paint(dc *gg.Context, kind post.BackgroundKind, colors []colorful.Color, angle float64) {
	w, h := float64(dc.Width()), float64(dc.Height())
	dc.DrawRectangle(0, 0, w, h)
	if len(colors) == 1 || (kind != post.BackgroundLinear && kind != post.BackgroundRadial) {
		dc.SetColor(colors[0])
		dc.Fill()
		return
	}

	var grad gg.Gradient
	cx, cy := w/2, h/2
	if kind == post.BackgroundRadial {
		grad = gg.NewRadialGradient(cx, cy, 0, cx, cy, math.Hypot(cx, cy))
	} else {
		// CSS angles: 0 points up, 90 points right.
		rad := angle * math.Pi / 180
		dx, dy := math.Sin(rad), -math.Cos(rad)
		half := math.Abs(cx*dx) + math.Abs(cy*dy)
		grad = gg.NewLinearGradient(cx-dx*half, cy-dy*half, cx+dx*half, cy+dy*half)
	}
	step := 1 / float64(len(colors)-1)
	for i, c := range colors {
		grad.AddColorStop(float64(i)*step, c)
	}
	dc.SetFillStyle(grad)
	dc.Fill()
}
