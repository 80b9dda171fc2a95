package layout

import (
	"math"

	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/fonts"
	"github.com/matzehuels/postcraft/pkg/geom"
	"github.com/matzehuels/postcraft/pkg/post"
	"github.com/matzehuels/postcraft/pkg/templates"
)

// Measurer returns the advance width of text in pixels.
type Measurer interface {
	Measure(text string, spec fonts.Spec) float64
}

// Sizes is the role to font size table, in pixels.
type Sizes struct {
	Header float64 `toml:"header"`
	Banner float64 `toml:"banner"`
	Body   float64 `toml:"body"`
}

// DefaultSizes is used unless [WithSizes] overrides it.
var DefaultSizes = Sizes{Header: 64, Banner: 40, Body: 34}

// For returns the size for role. Unknown roles use the body size.
func (s Sizes) For(role post.Role) float64 {
	switch role {
	case post.RoleHeader:
		return s.Header
	case post.RoleBanner:
		return s.Banner
	default:
		return s.Body
	}
}

const (
	DefaultGap         = 24.0
	DefaultPadding     = 20.0
	DefaultLineSpacing = 1.25

	// Banner pill padding.
	BannerPadX = 32.0
	BannerPadY = 16.0

	// Logo size used when the image does not declare one.
	DefaultLogoWidth  = 200.0
	DefaultLogoHeight = 120.0

	defaultInset = 80.0
)

// Frame is the geometry a layout is computed in.
type Frame struct {
	Canvas   geom.Rect
	SafeArea geom.Rect
	Logo     *templates.LogoPlacement
}

// DefaultFrame is the frame used without a template: the square canvas
// with a uniform inset.
func DefaultFrame() Frame {
	canvas := geom.XYWH(0, 0, post.CanvasSize, post.CanvasSize)
	return Frame{Canvas: canvas, SafeArea: canvas.Inflate(-defaultInset)}
}

// FrameFor returns the frame of a template definition.
func FrameFor(def templates.Definition) Frame {
	f := DefaultFrame()
	f.SafeArea = def.SafeArea.Clamp(f.Canvas)
	f.Logo = def.Logo
	return f
}

// Block is a positioned text block.
type Block struct {
	ID    string         `json:"id"`
	Role  post.Role      `json:"role"`
	Align post.Alignment `json:"alignment"`
	Color string         `json:"color,omitempty"`
	Lines []string       `json:"lines"`
	Font  fonts.Spec     `json:"font"`
	// LineHeight is the distance between baselines.
	LineHeight float64 `json:"lineHeight"`
	// Rect is the box the block occupies. For banners it is the pill.
	Rect geom.Rect `json:"rect"`
	// TextRect is where the lines are drawn. It equals Rect except for
	// banners, where it excludes the pill padding.
	TextRect geom.Rect `json:"textRect"`
	// Relocated is set when the block was moved below the logo because
	// the space beside it was too narrow.
	Relocated bool `json:"relocated,omitempty"`
}

// Logo is the positioned logo.
type Logo struct {
	ID     string    `json:"id"`
	Source string    `json:"source"`
	Rect   geom.Rect `json:"rect"`
	// Bounds is the template override region, if any.
	Bounds *geom.Rect `json:"bounds,omitempty"`
}

// Result is a computed layout.
type Result struct {
	Canvas   geom.Rect `json:"canvas"`
	SafeArea geom.Rect `json:"safeArea"`
	Blocks   []Block   `json:"blocks"`
	Logo     *Logo     `json:"logo,omitempty"`
	// Overflow is set when the stacked blocks run past the safe area's
	// bottom edge. Lines past the canvas edge are dropped.
	Overflow bool `json:"overflow,omitempty"`
}

type config struct {
	sizes       Sizes
	gap         float64
	padding     float64
	lineSpacing float64
	relocate    bool
}

// Option configures a layout computation.
type Option func(*config)

// WithSizes sets the role to font size table.
func WithSizes(s Sizes) Option { return func(c *config) { c.sizes = s } }

// WithGap sets the vertical gap between stacked blocks.
func WithGap(g float64) Option { return func(c *config) { c.gap = g } }

// WithPadding sets the clearance kept between text and the logo.
func WithPadding(p float64) Option { return func(c *config) { c.padding = p } }

// WithLineSpacing sets the baseline distance as a multiple of the font size.
func WithLineSpacing(f float64) Option { return func(c *config) { c.lineSpacing = f } }

// WithoutRelocation keeps a collapsed block beside the logo with its width
// clamped to zero instead of moving it below the logo.
func WithoutRelocation() Option { return func(c *config) { c.relocate = false } }

// Settings is the resolved layout configuration. Renders with equal
// Settings place text identically.
type Settings struct {
	Sizes       Sizes   `json:"sizes"`
	Gap         float64 `json:"gap"`
	Padding     float64 `json:"padding"`
	LineSpacing float64 `json:"lineSpacing"`
	Relocate    bool    `json:"relocate"`
}

// Resolve applies opts to the defaults.
func Resolve(opts ...Option) Settings {
	c := newConfig(opts)
	return Settings{
		Sizes:       c.sizes,
		Gap:         c.gap,
		Padding:     c.padding,
		LineSpacing: c.lineSpacing,
		Relocate:    c.relocate,
	}
}

func newConfig(opts []Option) config {
	c := config{
		sizes:       DefaultSizes,
		gap:         DefaultGap,
		padding:     DefaultPadding,
		lineSpacing: DefaultLineSpacing,
		relocate:    true,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Engine lays out posts against templates from a registry.
type Engine struct {
	reg  *templates.Registry
	opts []Option
}

// NewEngine creates an engine.
func NewEngine(reg *templates.Registry, opts ...Option) *Engine {
	return &Engine{reg: reg, opts: opts}
}

// Layout computes the layout for template id. An empty id uses
// [DefaultFrame]; an unknown id is an error.
func (e *Engine) Layout(m Measurer, id templates.ID, blocks []post.TextBlock, logo *post.ImageRef, family string) (Result, error) {
	frame := DefaultFrame()
	if id != "" {
		def, err := e.reg.Lookup(id)
		if err != nil {
			return Result{}, err
		}
		frame = FrameFor(def)
	}
	return Compute(m, frame, blocks, logo, family, e.opts...), nil
}

// Compute lays out blocks and logo in frame.
func Compute(m Measurer, frame Frame, blocks []post.TextBlock, logo *post.ImageRef, family string, opts ...Option) Result {
	cfg := newConfig(opts)
	res := Result{Canvas: frame.Canvas, SafeArea: frame.SafeArea}

	if logo != nil {
		res.Logo = placeLogo(frame, *logo)
	}

	y := frame.SafeArea.Top
	for _, tb := range post.SortByOrder(blocks) {
		var b Block
		if tb.Role == post.RoleBanner {
			b = cfg.banner(m, frame, tb, family, y)
		} else {
			b = cfg.paragraph(m, frame, tb, family, y, res.Logo)
		}
		if b.Rect.Bottom > frame.SafeArea.Bottom {
			res.Overflow = true
		}
		b = cropBlock(b, frame.Canvas)
		res.Blocks = append(res.Blocks, b)
		y = b.Rect.Bottom + cfg.gap
	}
	return res
}

func (c config) spec(tb post.TextBlock, family string) fonts.Spec {
	weight := tb.Weight
	if weight <= 0 && tb.Role == post.RoleHeader {
		weight = 700
	}
	return fonts.Spec{Family: family, Size: c.sizes.For(tb.Role), Weight: weight}
}

// maxWidth is the wrap width of a block before collision.
func maxWidth(tb post.TextBlock, safe geom.Rect) float64 {
	w := safe.Width()
	if tb.MaxWidth > 0 {
		w = math.Min(w, tb.MaxWidth)
	}
	return w
}

// alignX positions a box of width w inside [left, right].
func alignX(a post.Alignment, left, right, w float64) float64 {
	switch a {
	case post.AlignRight:
		return right - w
	case post.AlignCenter:
		return (left+right)/2 - w/2
	default:
		return left
	}
}

func (c config) banner(m Measurer, frame Frame, tb post.TextBlock, family string, y float64) Block {
	spec := c.spec(tb, family)
	lh := spec.Size * c.lineSpacing
	safe := frame.SafeArea

	lines := Wrap(m, tb.Text, spec, math.Max(maxWidth(tb, safe)-2*BannerPadX, 0))
	textW := 0.0
	for _, l := range lines {
		textW = math.Max(textW, m.Measure(l, spec))
	}
	w := math.Min(textW+2*BannerPadX, safe.Width())
	h := float64(len(lines))*lh + 2*BannerPadY
	x := alignX(tb.Alignment, safe.Left, safe.Right, w)

	rect := geom.XYWH(x, y, w, h)
	return Block{
		ID:         tb.ID,
		Role:       tb.Role,
		Align:      tb.Alignment,
		Color:      tb.Color,
		Lines:      lines,
		Font:       spec,
		LineHeight: lh,
		Rect:       rect,
		TextRect: geom.Rect{
			Left:   rect.Left + BannerPadX,
			Top:    rect.Top + BannerPadY,
			Right:  rect.Right - BannerPadX,
			Bottom: rect.Bottom - BannerPadY,
		},
	}
}

func (c config) paragraph(m Measurer, frame Frame, tb post.TextBlock, family string, y float64, logo *Logo) Block {
	spec := c.spec(tb, family)
	lh := spec.Size * c.lineSpacing
	safe := frame.SafeArea

	w := maxWidth(tb, safe)
	x := alignX(tb.Alignment, safe.Left, safe.Right, w)
	lines := Wrap(m, tb.Text, spec, w)
	rect := geom.XYWH(x, y, w, float64(len(lines))*lh)

	b := Block{
		ID:         tb.ID,
		Role:       tb.Role,
		Align:      tb.Alignment,
		Color:      tb.Color,
		Font:       spec,
		LineHeight: lh,
	}

	if logo != nil && rect.Inflate(c.padding).Intersects(logo.Rect) {
		nx, nw := c.avoid(tb.Alignment, rect, safe, logo.Rect)
		switch {
		case nw >= spec.Size:
			x, w = nx, nw
		case c.relocate:
			y = math.Max(y, logo.Rect.Bottom+c.padding)
			b.Relocated = true
		default:
			w = math.Max(nw, 0)
			x = geom.Clamp(nx, safe.Left, safe.Right-w)
		}
		lines = Wrap(m, tb.Text, spec, w)
		rect = geom.XYWH(x, y, w, float64(len(lines))*lh)
	}

	b.Lines = lines
	b.Rect = rect
	b.TextRect = rect
	return b
}

// avoid returns the position and width of rect after moving it clear of
// the logo horizontally. The logo side is decided by its center relative
// to the safe area's center.
func (c config) avoid(a post.Alignment, rect, safe, logo geom.Rect) (x, w float64) {
	if logo.CenterX() >= safe.CenterX() {
		edge := logo.Left - c.padding
		switch a {
		case post.AlignRight:
			w = math.Min(rect.Width(), edge-safe.Left)
			return edge - w, w
		case post.AlignCenter:
			half := math.Min(rect.Width()/2, edge-safe.CenterX())
			if half > 0 {
				return safe.CenterX() - half, 2 * half
			}
			w = math.Min(rect.Width(), edge-safe.Left)
			return alignX(post.AlignCenter, safe.Left, edge, w), w
		default:
			return rect.Left, math.Min(rect.Width(), edge-rect.Left)
		}
	}

	edge := logo.Right + c.padding
	switch a {
	case post.AlignRight:
		left := math.Max(rect.Left, edge)
		return left, rect.Right - left
	case post.AlignCenter:
		half := math.Min(rect.Width()/2, safe.CenterX()-edge)
		if half > 0 {
			return safe.CenterX() - half, 2 * half
		}
		w = math.Min(rect.Width(), safe.Right-edge)
		return alignX(post.AlignCenter, edge, safe.Right, w), w
	default:
		w = math.Min(rect.Width(), safe.Right-edge)
		return edge, w
	}
}

// placeLogo resolves the logo rectangle.
func placeLogo(frame Frame, img post.ImageRef) *Logo {
	w, h := img.Width, img.Height
	if w <= 0 || h <= 0 {
		w, h = DefaultLogoWidth, DefaultLogoHeight
	}
	logo := &Logo{ID: img.ID, Source: img.Source}

	p := frame.Logo
	if p == nil {
		safe := frame.SafeArea
		logo.Rect = geom.Rect{Left: safe.Right - w, Top: safe.Top, Right: safe.Right, Bottom: safe.Top + h}.Clamp(frame.Canvas)
		return logo
	}

	bounds := p.Bounds
	logo.Bounds = &bounds
	scale := math.Min(bounds.Width()/w, bounds.Height()/h) * p.Boost()
	w, h = w*scale, h*scale

	var x float64
	switch p.Alignment {
	case templates.AlignLeft:
		x = bounds.Left
	case templates.AlignRight:
		x = bounds.Right - w
	default:
		x = bounds.CenterX() - w/2
	}
	logo.Rect = geom.XYWH(x, bounds.Top, w, h).Clamp(frame.Canvas)
	return logo
}

// cropBlock cuts b to the canvas. Lines that do not fit entirely are
// dropped; the block keeps its stacked top so it never moves onto the
// blocks above it or the logo.
func cropBlock(b Block, canvas geom.Rect) Block {
	if canvas.Contains(b.Rect) {
		return b
	}
	padBottom := b.Rect.Bottom - b.TextRect.Bottom

	n := 0
	if b.LineHeight > 0 {
		avail := canvas.Bottom - b.TextRect.Top - padBottom
		n = int(math.Floor(avail/b.LineHeight + 1e-9))
	}
	n = max(0, min(n, len(b.Lines)))
	if n == 0 {
		b.Lines = nil
		b.Rect.Bottom = b.Rect.Top
		b.TextRect = b.Rect
	} else {
		b.Lines = b.Lines[:n]
		b.TextRect.Bottom = b.TextRect.Top + float64(n)*b.LineHeight
		b.Rect.Bottom = b.TextRect.Bottom + padBottom
	}
	b.Rect = b.Rect.Intersect(canvas)
	b.TextRect = b.TextRect.Intersect(b.Rect)
	return b
}

func errCollapsed(id string) error {
	return errors.New(errors.ErrCodeLayoutImpossible, "block %q has no room beside the logo", id)
}

// Validate reports blocks that were clamped to zero width, which happens
// only when relocation is disabled.
func (r Result) Validate() error {
	for _, b := range r.Blocks {
		if b.Role != post.RoleBanner && b.Rect.Width() <= 0 && len(b.Lines) > 0 {
			return errCollapsed(b.ID)
		}
	}
	return nil
}
