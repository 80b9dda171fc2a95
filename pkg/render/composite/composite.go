package composite

import (
	"context"
	"image"
	"image/color"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/fonts"
	"github.com/matzehuels/postcraft/pkg/geom"
	"github.com/matzehuels/postcraft/pkg/post"
	"github.com/matzehuels/postcraft/pkg/render/colorize"
	"github.com/matzehuels/postcraft/pkg/render/layout"
)

// ImageSource loads decoded images. *resource.Loader implements it.
type ImageSource interface {
	LoadImage(ctx context.Context, src string) (image.Image, error)
}

// DebugOptions controls diagnostic drawing. The zero value draws nothing
// extra.
type DebugOptions struct {
	Overlay bool `json:"overlay,omitempty"`
}

// Input is everything one composite needs.
type Input struct {
	Layout layout.Result
	// Background is the colorized template raster. When nil, Fill is
	// painted instead.
	Background image.Image
	Fill       post.Background
	Palette    colorize.Palette
	Profile    post.BusinessProfile
	// Images are drawn in order. The image whose id matches the layout's
	// logo is drawn last at the logo rectangle.
	Images []post.ImageRef
	Debug  DebugOptions
}

// Compositor draws layouts. It holds no per-render state and is safe for
// concurrent use on distinct surfaces.
type Compositor struct {
	fonts  *fonts.Registry
	images ImageSource
	logger *log.Logger
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithLogger sets the logger used for skipped images.
func WithLogger(l *log.Logger) Option {
	return func(c *Compositor) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Compositor.
func New(reg *fonts.Registry, images ImageSource, opts ...Option) *Compositor {
	c := &Compositor{fonts: reg, images: images, logger: log.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Composite draws in onto dc. Context cancellation is checked between
// stages.
func (c *Compositor) Composite(ctx context.Context, dc *gg.Context, in Input) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeComposite, "draw: %v", r)
		}
	}()

	c.background(dc, in)

	if err := ctx.Err(); err != nil {
		return err
	}
	for _, b := range in.Layout.Blocks {
		c.block(dc, b, in)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.drawImages(ctx, dc, in); err != nil {
		return err
	}

	if in.Debug.Overlay {
		overlay(dc, in.Layout)
	}
	return nil
}

func (c *Compositor) background(dc *gg.Context, in Input) {
	// The fill also backs transparent template artwork.
	colorize.Fill(dc, in.Fill, in.Palette)
	if in.Background != nil {
		dc.DrawImage(in.Background, 0, 0)
	}
}

func (c *Compositor) block(dc *gg.Context, b layout.Block, in Input) {
	if len(b.Lines) == 0 {
		return
	}
	style, _ := in.Profile.RoleStyle(b.Role)

	var text color.Color
	if b.Role == post.RoleBanner {
		fill := firstColor(in.Palette.Accent, style.Fill, b.Color)
		dc.DrawRoundedRectangle(b.Rect.Left, b.Rect.Top, b.Rect.Width(), b.Rect.Height(), b.Rect.Height()/2)
		dc.SetColor(fill)
		dc.Fill()
		text = firstColor(colorful.Color{R: 1, G: 1, B: 1}, style.Color)
	} else {
		def := colorize.ContrastText(sample(dc, b.Rect))
		text = firstColor(def, style.Color, b.Color)
	}

	dc.SetFontFace(c.fonts.Face(b.Font))
	dc.SetColor(text)

	x, ax := b.TextRect.Left, 0.0
	switch b.Align {
	case post.AlignCenter:
		x, ax = b.TextRect.CenterX(), 0.5
	case post.AlignRight:
		x, ax = b.TextRect.Right, 1
	}
	for i, line := range b.Lines {
		y := b.TextRect.Top + float64(i)*b.LineHeight + b.LineHeight/2
		dc.DrawStringAnchored(line, x, y, ax, 0.35)
	}
}

// firstColor returns the first parseable candidate, or def. Candidates
// are in precedence order.
func firstColor(def colorful.Color, candidates ...string) color.Color {
	for _, s := range candidates {
		if s == "" {
			continue
		}
		c, err := colorize.Parse(s)
		if err != nil {
			continue
		}
		if a := colorize.Alpha(s); a < 1 {
			r, g, b := c.RGB255()
			return color.NRGBA{R: r, G: g, B: b, A: uint8(a*255 + 0.5)}
		}
		return c
	}
	return def
}

// sample averages the surface color under r.
func sample(dc *gg.Context, r geom.Rect) colorful.Color {
	img := dc.Image()
	pts := []image.Point{
		{int(r.Left), int(r.Top)},
		{int(r.Right) - 1, int(r.Top)},
		{int(r.CenterX()), int(r.CenterY())},
		{int(r.Left), int(r.Bottom) - 1},
		{int(r.Right) - 1, int(r.Bottom) - 1},
	}
	var sr, sg, sb float64
	n := 0
	for _, p := range pts {
		if !p.In(img.Bounds()) {
			continue
		}
		c, ok := colorful.MakeColor(img.At(p.X, p.Y))
		if !ok {
			continue
		}
		sr, sg, sb = sr+c.R, sg+c.G, sb+c.B
		n++
	}
	if n == 0 {
		return colorful.Color{R: 1, G: 1, B: 1}
	}
	return colorful.Color{R: sr / float64(n), G: sg / float64(n), B: sb / float64(n)}
}

func (c *Compositor) drawImages(ctx context.Context, dc *gg.Context, in Input) error {
	logo := in.Layout.Logo
	var logoRef *post.ImageRef
	for i := range in.Images {
		ref := in.Images[i]
		if logo != nil && ref.ID == logo.ID && ref.IsLogo() {
			logoRef = &in.Images[i]
			continue
		}
		if ref.IsLogo() {
			c.logger.Warn("skipping image, only the first logo is drawn", "id", ref.ID)
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		c.image(ctx, dc, ref.ID, ref.Source, contentRect(ref), ref.Alpha(), false)
	}

	if logo != nil {
		alpha := 1.0
		if logoRef != nil {
			alpha = logoRef.Alpha()
		}
		c.image(ctx, dc, logo.ID, logo.Source, logo.Rect, alpha, true)
	}
	return nil
}

// contentRect is the rectangle of a content image. A zero size keeps the
// natural size.
func contentRect(ref post.ImageRef) geom.Rect {
	return geom.XYWH(ref.Position.X, ref.Position.Y, ref.Width, ref.Height)
}

func (c *Compositor) image(ctx context.Context, dc *gg.Context, id, src string, r geom.Rect, alpha float64, fit bool) {
	if c.images == nil {
		return
	}
	img, err := c.images.LoadImage(ctx, src)
	if err != nil {
		c.logger.Warn("skipping image", "id", id, "error", errors.UserMessage(err))
		return
	}

	w, h := int(r.Width()+0.5), int(r.Height()+0.5)
	x, y := int(r.Left+0.5), int(r.Top+0.5)
	switch {
	case w <= 0 || h <= 0:
	case fit:
		img = imaging.Fit(img, w, h, imaging.Lanczos)
		b := img.Bounds()
		x += (w - b.Dx()) / 2
		y += (h - b.Dy()) / 2
	default:
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}
	blend(dc, img, x, y, alpha)
}

// blend draws img at (x, y) with a uniform opacity.
func blend(dc *gg.Context, img image.Image, x, y int, alpha float64) {
	dst, ok := dc.Image().(draw.Image)
	if !ok || alpha >= 1 {
		dc.DrawImage(img, x, y)
		return
	}
	b := img.Bounds()
	r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	mask := image.NewUniform(color.Alpha{A: uint8(alpha*255 + 0.5)})
	draw.DrawMask(dst, r, img, b.Min, mask, image.Point{}, draw.Over)
}

func overlay(dc *gg.Context, res layout.Result) {
	stroke := func(r geom.Rect, c color.Color, width float64) {
		dc.SetColor(c)
		dc.SetLineWidth(width)
		dc.DrawRectangle(r.Left, r.Top, r.Width(), r.Height())
		dc.Stroke()
	}

	stroke(res.SafeArea, color.NRGBA{R: 255, A: 200}, 2)
	for _, b := range res.Blocks {
		stroke(b.Rect, color.NRGBA{G: 200, A: 160}, 1)
	}
	if res.Logo != nil {
		if res.Logo.Bounds != nil {
			stroke(*res.Logo.Bounds, color.NRGBA{B: 255, A: 200}, 2)
		}
		stroke(res.Logo.Rect, color.NRGBA{R: 255, B: 255, A: 200}, 1)
	}
}
