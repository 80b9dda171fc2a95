package pipeline

import (
	"bytes"
	"context"
	"image"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/postcraft/pkg/cache"
	"github.com/matzehuels/postcraft/pkg/errors"
	"github.com/matzehuels/postcraft/pkg/fonts"
	"github.com/matzehuels/postcraft/pkg/observability"
	"github.com/matzehuels/postcraft/pkg/post"
	"github.com/matzehuels/postcraft/pkg/render"
	"github.com/matzehuels/postcraft/pkg/render/colorize"
	"github.com/matzehuels/postcraft/pkg/render/composite"
	"github.com/matzehuels/postcraft/pkg/render/layout"
	"github.com/matzehuels/postcraft/pkg/resource"
	"github.com/matzehuels/postcraft/pkg/templates"
)

// Renderer runs renders and remembers the last one. It is safe for
// concurrent use; renders are serialized.
type Renderer struct {
	fonts      *fonts.Loader
	templates  *templates.Registry
	resources  *resource.Loader
	colorizer  *colorize.Colorizer
	compositor *composite.Compositor
	layoutOpts []layout.Option
	layoutHash string
	cache      cache.Cache
	keyer      cache.Keyer
	logger     *log.Logger
	onComplete func(Outcome)
	onError    func(string)

	mu      sync.Mutex // guards the fields below
	state   State
	last    string
	lastReq *Request
	gen     uint64

	running atomic.Int32
	draw    sync.Mutex
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFontLoader sets the font loader. Its registry is also used for
// measuring and drawing text.
func WithFontLoader(l *fonts.Loader) Option {
	return func(r *Renderer) { r.fonts = l }
}

// WithTemplates sets the template registry.
func WithTemplates(reg *templates.Registry) Option {
	return func(r *Renderer) { r.templates = reg }
}

// WithResources sets the loader for template artwork and images.
func WithResources(l *resource.Loader) Option {
	return func(r *Renderer) { r.resources = l }
}

// WithLayoutOptions passes options to the layout engine.
func WithLayoutOptions(opts ...layout.Option) Option {
	return func(r *Renderer) { r.layoutOpts = append(r.layoutOpts, opts...) }
}

// WithCache stores rendered PNGs in c. Keys come from keyer, or the
// default keyer when nil.
func WithCache(c cache.Cache, keyer cache.Keyer) Option {
	return func(r *Renderer) {
		if c != nil {
			r.cache = c
		}
		if keyer != nil {
			r.keyer = keyer
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOnComplete registers the callback for successful renders.
func WithOnComplete(fn func(Outcome)) Option {
	return func(r *Renderer) { r.onComplete = fn }
}

// WithOnError registers the callback for failed renders. It receives a
// user-facing message.
func WithOnError(fn func(msg string)) Option {
	return func(r *Renderer) { r.onError = fn }
}

// NewRenderer creates a Renderer. Without options it uses the builtin
// templates, a font registry backed by system fonts and no cache. The font
// registry is initialized in the background; font loading waits for it.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		cache:  cache.NewNullCache(),
		keyer:  cache.NewDefaultKeyer(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.templates == nil {
		r.templates = templates.Default()
	}
	if r.resources == nil {
		r.resources = resource.NewLoader(resource.WithBuiltin(templates.Assets()))
	}
	if r.fonts == nil {
		r.fonts = fonts.NewLoader(fonts.NewRegistry(fonts.WithLogger(r.logger)), fonts.WithLoaderLogger(r.logger))
	}
	go r.fonts.Registry().Init()
	r.layoutHash, _ = cache.HashJSON(layout.Resolve(r.layoutOpts...))

	r.colorizer = colorize.New(r.resources, colorize.WithLogger(r.logger))
	r.compositor = composite.New(r.fonts.Registry(), r.resources, composite.WithLogger(r.logger))
	return r
}

// Templates returns the template registry.
func (r *Renderer) Templates() *templates.Registry { return r.templates }

// Fonts returns the font loader.
func (r *Renderer) Fonts() *fonts.Loader { return r.fonts }

// State returns the current lifecycle state.
func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsRendering reports whether a render is in progress.
func (r *Renderer) IsRendering() bool { return r.running.Load() > 0 }

// Render renders req unless it matches the last successful render, in
// which case Outcome.Skipped is set and nothing is drawn.
func (r *Renderer) Render(ctx context.Context, req Request) (Outcome, error) {
	fp, err := req.Fingerprint()
	if err != nil {
		return Outcome{}, errors.Wrap(errors.ErrCodeInternal, err, "fingerprint request")
	}

	r.mu.Lock()
	if fp == r.last {
		r.mu.Unlock()
		r.logger.Debug("render skipped, input unchanged", "fingerprint", short(fp))
		return Outcome{Fingerprint: fp, Skipped: true}, nil
	}
	r.gen++
	gen := r.gen
	saved := req.clone()
	r.lastReq = &saved
	r.mu.Unlock()

	return r.run(ctx, req, fp, gen, false)
}

// ForceRedraw forgets the last fingerprint and renders the last request
// again, bypassing the artifact cache. Every call produces its own
// completion callback.
func (r *Renderer) ForceRedraw(ctx context.Context) (Outcome, error) {
	r.mu.Lock()
	r.last = ""
	if r.lastReq == nil {
		r.mu.Unlock()
		return Outcome{}, errors.New(errors.ErrCodeInvalidInput, "nothing to redraw")
	}
	req := *r.lastReq
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	fp, err := req.Fingerprint()
	if err != nil {
		return Outcome{}, errors.Wrap(errors.ErrCodeInternal, err, "fingerprint request")
	}
	return r.run(ctx, req, fp, gen, true)
}

func (r *Renderer) run(ctx context.Context, req Request, fp string, gen uint64, force bool) (Outcome, error) {
	out, logger, err := r.drawTracked(ctx, req, fp, gen, force)

	// Callbacks run after the draw lock is released so they may call back
	// into the renderer.
	if out.Discarded {
		logger.Debug("render superseded, result discarded")
		return out, err
	}
	if err != nil {
		logger.Warn("render failed", "error", errors.UserMessage(err))
		if r.onError != nil {
			r.onError(errors.UserMessage(err))
		}
		return out, err
	}

	logger.Info("rendered", "bytes", len(out.PNG), "cached", out.CacheInfo.ArtifactHit, "duration", out.Stats.Total)
	if r.onComplete != nil {
		r.onComplete(out)
	}
	return out, nil
}

// drawTracked executes one tracked render under the draw lock and records
// its result in the renderer state.
func (r *Renderer) drawTracked(ctx context.Context, req Request, fp string, gen uint64, force bool) (Outcome, *log.Logger, error) {
	r.running.Add(1)
	defer r.running.Add(-1)

	r.draw.Lock()
	defer r.draw.Unlock()

	logger := r.logger.With("render", uuid.NewString()[:8], "template", string(req.Template))
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, string(req.Template))
	start := time.Now()

	out, err := r.execute(ctx, req, fp, force, logger, r.setState)
	out.Fingerprint = fp
	out.Stats.Total = time.Since(start)

	r.mu.Lock()
	stale := gen != r.gen
	switch {
	case stale:
	case err != nil:
		r.state = StateError
	default:
		r.state = StateDone
		r.last = fp
	}
	r.mu.Unlock()

	hooks.OnRenderComplete(ctx, string(req.Template), out.Stats.Total, stale, err)
	out.Discarded = stale
	return out, logger, err
}

// RenderOnce renders req without consulting or updating the last render
// and without firing callbacks. Concurrent servers use it so unrelated
// requests neither skip nor supersede each other. The artifact cache is
// still consulted.
func (r *Renderer) RenderOnce(ctx context.Context, req Request) (Outcome, error) {
	fp, err := req.Fingerprint()
	if err != nil {
		return Outcome{}, errors.Wrap(errors.ErrCodeInternal, err, "fingerprint request")
	}

	r.running.Add(1)
	defer r.running.Add(-1)
	r.draw.Lock()
	defer r.draw.Unlock()

	logger := r.logger.With("render", uuid.NewString()[:8], "template", string(req.Template))
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, string(req.Template))
	start := time.Now()

	out, err := r.execute(ctx, req, fp, false, logger, func(State) {})
	out.Fingerprint = fp
	out.Stats.Total = time.Since(start)
	hooks.OnRenderComplete(ctx, string(req.Template), out.Stats.Total, false, err)
	if err != nil {
		logger.Warn("render failed", "error", errors.UserMessage(err))
		return out, err
	}
	logger.Info("rendered", "bytes", len(out.PNG), "cached", out.CacheInfo.ArtifactHit, "duration", out.Stats.Total)
	return out, nil
}

func (r *Renderer) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// stage runs fn between observability hooks and adds its duration to d.
func stage(ctx context.Context, name string, d *time.Duration, fn func() error) error {
	hooks := observability.Render()
	hooks.OnStageStart(ctx, name)
	start := time.Now()
	err := fn()
	*d = time.Since(start)
	hooks.OnStageComplete(ctx, name, *d, err)
	return err
}

func (r *Renderer) execute(ctx context.Context, req Request, fp string, force bool, logger *log.Logger, setState func(State)) (Outcome, error) {
	var out Outcome
	setState(StateLoadingFonts)

	if err := req.Spec.Validate(); err != nil {
		return out, err
	}
	var def *templates.Definition
	if req.Template != "" {
		d, err := r.templates.Lookup(req.Template)
		if err != nil {
			return out, err
		}
		def = &d
	}

	keyOpts := cache.ArtifactKeyOpts{Format: "png", Debug: req.Debug.Overlay, Layout: r.layoutHash}
	if def != nil {
		keyOpts.Template, _ = cache.HashJSON(def)
	}
	artifactKey := r.keyer.ArtifactKey(fp, keyOpts)
	if !force {
		if data, hit, err := r.cache.Get(ctx, artifactKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			out.PNG, out.DataURL = data, render.DataURL(data)
			out.CacheInfo.ArtifactHit = true
			if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
				out.Width, out.Height = cfg.Width, cfg.Height
			}
			setState(StateCompositing)
			return out, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	family := post.ResolveFontFamily(req.Spec, req.Profile)
	if family == "" {
		family = fonts.SansSerif
	}
	err := stage(ctx, StageFonts, &out.Stats.FontTime, func() error {
		results, err := r.fonts.Load(ctx, []string{family})
		out.Fonts = results
		for _, res := range results {
			if !res.Loaded {
				logger.Warn("font unavailable, using fallback", "family", res.Family, "fallback", res.Fallback, "error", res.Error())
			}
		}
		return err
	})
	if err != nil {
		return out, err
	}

	setState(StateCompositing)
	pal, err := colorize.NewPalette(post.ResolvePalette(req.Spec, req.Profile))
	if err != nil {
		return out, err
	}

	var bg image.Image
	if def != nil {
		_ = stage(ctx, StageBackground, &out.Stats.BackgroundTime, func() error {
			bg = r.colorizer.Background(ctx, *def, pal, post.CanvasSize, post.CanvasSize)
			return nil
		})
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	frame := layout.DefaultFrame()
	if def != nil {
		frame = layout.FrameFor(*def)
	}
	logo := req.logo()
	var res layout.Result
	err = stage(ctx, StageLayout, &out.Stats.LayoutTime, func() error {
		res = layout.Compute(r.fonts.Registry(), frame, req.Spec.TextBlocks, logo, family, r.layoutOpts...)
		return res.Validate()
	})
	if err != nil {
		return out, err
	}
	if res.Overflow {
		logger.Warn("text overflows the safe area", "blocks", len(res.Blocks))
	}
	out.Layout = &res

	dc := render.NewSurface(bg)
	err = stage(ctx, StageComposite, &out.Stats.CompositeTime, func() error {
		return r.compositor.Composite(ctx, dc, composite.Input{
			Layout:     res,
			Background: bg,
			Fill:       req.Spec.Background,
			Palette:    pal,
			Profile:    req.Profile,
			Images:     req.images(logo),
			Debug:      req.Debug,
		})
	})
	if err != nil {
		return out, err
	}

	data, err := render.EncodePNG(dc.Image())
	if err != nil {
		return out, err
	}
	out.PNG, out.DataURL = data, render.DataURL(data)
	out.Width, out.Height = dc.Width(), dc.Height()

	if slices.ContainsFunc(out.Fonts, func(f fonts.Result) bool { return !f.Loaded }) {
		// Renders drawn with a fallback font are not cached.
		logger.Debug("artifact not cached, font fallback in use")
		return out, nil
	}
	if err := r.cache.Set(ctx, artifactKey, data, cache.TTLArtifact); err != nil {
		logger.Debug("artifact cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return out, nil
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
