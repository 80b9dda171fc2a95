package colorize

import (
	"context"
	"image"
	"math"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/resource"
	"github.com/matzehuels/postcraft/pkg/templates"
)

// Colorizer turns a template definition and a palette into a background
// raster.
type Colorizer struct {
	loader     *resource.Loader
	logger     *log.Logger
	strategies map[templates.Pattern]Strategy
}

// Option configures a Colorizer.
type Option func(*Colorizer)

// WithLogger sets the logger used to report fallbacks.
func WithLogger(l *log.Logger) Option {
	return func(c *Colorizer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStrategy registers s for its pattern, replacing any builtin.
func WithStrategy(s Strategy) Option {
	return func(c *Colorizer) { c.strategies[s.Pattern()] = s }
}

// New creates a Colorizer that reads template sources through loader.
func New(loader *resource.Loader, opts ...Option) *Colorizer {
	if loader == nil {
		loader = resource.NewLoader(resource.WithBuiltin(templates.Assets()))
	}
	c := &Colorizer{
		loader:     loader,
		logger:     log.Default(),
		strategies: Strategies(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Markup returns the recolored markup of a vector template. Templates
// without a pattern are returned unchanged.
func (c *Colorizer) Markup(ctx context.Context, def templates.Definition, pal Palette) ([]byte, error) {
	data, err := c.loader.Load(ctx, def.Source)
	if err != nil {
		return nil, err
	}
	return c.recolor(def, data, pal)
}

func (c *Colorizer) recolor(def templates.Definition, data []byte, pal Palette) ([]byte, error) {
	if def.Pattern == templates.PatternNone {
		return data, nil
	}
	s, ok := c.strategies[def.Pattern]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "template %s: unknown pattern %q", def.ID, def.Pattern)
	}
	out, err := s.Apply(data, pal)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResourceLoad, err, "template %s", def.ID)
	}
	return out, nil
}

// Render draws def at width w. The height follows the artwork's aspect
// ratio.
func (c *Colorizer) Render(ctx context.Context, def templates.Definition, pal Palette, w int) (image.Image, error) {
	if w <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "render width must be positive")
	}
	data, err := c.loader.Load(ctx, def.Source)
	if err != nil {
		return nil, err
	}

	vector := def.Category == templates.CategoryVector ||
		(def.Category == "" && resource.IsSVG(data))
	if !vector {
		img, err := resource.DecodeImage(data)
		if err != nil {
			return nil, err
		}
		return imaging.Resize(img, w, 0, imaging.Lanczos), nil
	}

	markup, err := c.recolor(def, data, pal)
	if err != nil {
		return nil, err
	}
	vw, vh, err := resource.SVGSize(markup)
	if err != nil {
		return nil, err
	}
	if vw <= 0 || vh <= 0 {
		return nil, errors.New(errors.ErrCodeResourceLoad, "template %s: svg has no viewBox", def.ID)
	}
	h := int(math.Round(float64(w) * vh / vw))
	return resource.RasterizeSVG(markup, w, h)
}

// Background renders def for a w×h canvas and never fails. Any error is
// logged and answered with [Fallback]. Artwork shorter than h is drawn over
// the fallback; taller artwork is returned as is.
func (c *Colorizer) Background(ctx context.Context, def templates.Definition, pal Palette, w, h int) image.Image {
	img, err := c.Render(ctx, def, pal, w)
	if err != nil {
		c.logger.Warn("template background unavailable, using palette fallback",
			"template", def.ID, "error", errors.UserMessage(err))
		return Fallback(pal, w, h)
	}
	if img.Bounds().Dy() < h {
		return imaging.Overlay(Fallback(pal, w, h), img, image.Pt(0, 0), 1)
	}
	return img
}
